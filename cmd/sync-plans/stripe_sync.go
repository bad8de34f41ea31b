package main

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/price"
	"github.com/stripe/stripe-go/v79/product"
	"go.uber.org/zap"

	"github.com/driftmark/billing-service/internal/domain/plan"
)

// syncStripePlans ensures every paid catalog plan has a Stripe product with a
// monthly and a yearly recurring price. Existing products are matched by the
// plan_key metadata written on creation, so reruns are idempotent.
func syncStripePlans(ctx context.Context, catalog *plan.Catalog, logger *zap.Logger) (int, error) {
	existing, err := listProductsByPlanKey(ctx)
	if err != nil {
		return 0, err
	}

	synced := 0
	for _, p := range catalog.Plans() {
		if p.MonthlyPrice.IsZero() {
			logger.Info("Skipping free plan", zap.String("plan", p.Key))
			continue
		}

		prod, ok := existing[p.Key]
		if !ok {
			prod, err = createProduct(ctx, p)
			if err != nil {
				return synced, fmt.Errorf("plan %s: %w", p.Key, err)
			}
			logger.Info("Created product",
				zap.String("plan", p.Key),
				zap.String("product_id", prod.ID))
		}

		monthlyID, err := ensurePrice(ctx, prod, p.MonthlyPrice, "month")
		if err != nil {
			return synced, fmt.Errorf("plan %s monthly price: %w", p.Key, err)
		}
		yearlyID, err := ensurePrice(ctx, prod, p.YearlyPrice, "year")
		if err != nil {
			return synced, fmt.Errorf("plan %s yearly price: %w", p.Key, err)
		}

		logger.Info("Plan synced",
			zap.String("plan", p.Key),
			zap.String("monthly_price_id", monthlyID),
			zap.String("yearly_price_id", yearlyID))
		synced++
	}

	return synced, nil
}

func listProductsByPlanKey(ctx context.Context) (map[string]*stripe.Product, error) {
	params := &stripe.ProductListParams{
		Active: stripe.Bool(true),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(100)

	byKey := make(map[string]*stripe.Product)
	iter := product.List(params)
	for iter.Next() {
		prod := iter.Product()
		if key, ok := prod.Metadata["plan_key"]; ok {
			byKey[key] = prod
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return byKey, nil
}

func createProduct(ctx context.Context, p *plan.Plan) (*stripe.Product, error) {
	params := &stripe.ProductParams{
		Name: stripe.String(p.Name),
	}
	params.Context = ctx
	params.AddMetadata("plan_key", p.Key)

	prod, err := product.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return prod, nil
}

// ensurePrice finds an active recurring price with the given interval on the
// product, or creates one from the catalog amount.
func ensurePrice(ctx context.Context, prod *stripe.Product, amount decimal.Decimal, interval string) (string, error) {
	listParams := &stripe.PriceListParams{
		Product: stripe.String(prod.ID),
		Active:  stripe.Bool(true),
	}
	listParams.Context = ctx

	iter := price.List(listParams)
	for iter.Next() {
		pr := iter.Price()
		if pr.Recurring != nil && string(pr.Recurring.Interval) == interval {
			return pr.ID, nil
		}
	}
	if err := iter.Err(); err != nil {
		return "", fmt.Errorf("failed to list prices: %w", err)
	}

	cents := amount.Mul(decimal.NewFromInt(100)).IntPart()

	createParams := &stripe.PriceParams{
		Product:    stripe.String(prod.ID),
		Currency:   stripe.String(string(stripe.CurrencyUSD)),
		UnitAmount: stripe.Int64(cents),
		Recurring: &stripe.PriceRecurringParams{
			Interval: stripe.String(interval),
		},
	}
	createParams.Context = ctx

	pr, err := price.New(createParams)
	if err != nil {
		return "", fmt.Errorf("failed to create price: %w", err)
	}
	return pr.ID, nil
}
