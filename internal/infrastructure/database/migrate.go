package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/driftmark/billing-service/internal/domain/model"
)

// Migrate runs database migrations
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running database migrations...")

	if err := createExtensions(db); err != nil {
		logger.Error("Failed to create extensions", zap.Error(err))
		return err
	}

	// Enum types must exist before auto-migrate references them.
	if err := createCustomTypes(db); err != nil {
		logger.Error("Failed to create custom types", zap.Error(err))
		return err
	}

	err := db.AutoMigrate(
		&model.Account{},
		&model.StripeWebhookEvent{},
		&model.SecurityEvent{},
	)
	if err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return err
	}

	if err := createCustomIndexes(db); err != nil {
		logger.Error("Failed to create custom indexes", zap.Error(err))
		return err
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

// createExtensions creates required PostgreSQL extensions
func createExtensions(db *gorm.DB) error {
	// gen_random_uuid for account ids
	return db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error
}

// createCustomTypes creates custom PostgreSQL enum types
func createCustomTypes(db *gorm.DB) error {
	types := map[string]string{
		"plan_tier":      `CREATE TYPE plan_tier AS ENUM ('starter', 'pro', 'enterprise')`,
		"account_status": `CREATE TYPE account_status AS ENUM ('active', 'canceled', 'past_due', 'trialing')`,
		"webhook_status": `CREATE TYPE webhook_status AS ENUM ('pending', 'completed', 'failed')`,
	}

	for name, ddl := range types {
		var exists bool
		db.Raw(`SELECT EXISTS (SELECT 1 FROM pg_type WHERE typname = ?)`, name).Scan(&exists)
		if !exists {
			if err := db.Exec(ddl).Error; err != nil {
				return err
			}
		}
	}

	return nil
}

// createCustomIndexes creates indexes GORM does not handle automatically
func createCustomIndexes(db *gorm.DB) error {
	// Partial index to find unprocessed webhook receipts quickly.
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_webhook_events_unprocessed ON stripe_webhook_events (created_at) WHERE status IN ('pending', 'failed')`).Error; err != nil {
		return err
	}

	// Accounts with a linked customer, for reconciliation lookups.
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_accounts_billing_pair ON accounts (stripe_customer_id, stripe_subscription_id) WHERE stripe_customer_id IS NOT NULL`).Error; err != nil {
		return err
	}

	return nil
}
