// Command sync-plans pushes the embedded plan catalog to Stripe: one product
// per paid plan, with a monthly and a yearly recurring price. Run it once per
// environment and copy the printed price ids into the service config.
package main

import (
	"context"
	"log"

	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"

	"github.com/driftmark/billing-service/internal/config"
	"github.com/driftmark/billing-service/internal/domain/plan"
	"github.com/driftmark/billing-service/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.NewZapLogger(logger.Config{
		Level:  cfg.Log.Level,
		Format: "console",
		Output: "stdout",
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	stripe.Key = cfg.Service.StripeSecretKey

	ctx := context.Background()
	catalog := plan.Default()

	synced, err := syncStripePlans(ctx, catalog, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to sync plans to Stripe", zap.Error(err))
	}

	zapLogger.Info("Plan sync completed",
		zap.Int("plans_synced", synced))
}
