package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	domainerrors "github.com/driftmark/billing-service/internal/domain/errors"
	"github.com/driftmark/billing-service/internal/domain/model"
	"github.com/driftmark/billing-service/internal/domain/repository"
)

type accountRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB, logger *zap.Logger) repository.AccountRepository {
	return &accountRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves an account by its ID
func (r *accountRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	var account model.Account

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&account).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get account by ID",
			zap.String("account_id", id.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return &account, nil
}

// GetByEmail retrieves an account by email
func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	var account model.Account

	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&account).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get account by email",
			zap.Error(err))
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return &account, nil
}

// Create inserts a new account
func (r *accountRepository) Create(ctx context.Context, account *model.Account) error {
	err := r.db.WithContext(ctx).Create(account).Error
	if err != nil {
		r.logger.Error("Failed to create account",
			zap.Error(err))
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// UpdateProfile updates the profile fields of an account
func (r *accountRepository) UpdateProfile(ctx context.Context, id uuid.UUID, displayName string, phone, company *string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Account{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"display_name": displayName,
			"phone":        phone,
			"company":      company,
		})

	if result.Error != nil {
		r.logger.Error("Failed to update account profile",
			zap.String("account_id", id.String()),
			zap.Error(result.Error))
		return fmt.Errorf("failed to update account profile: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domainerrors.ErrAccountNotFound
	}

	return nil
}

// LinkBilling attaches provider billing ids to the account identified by user
// id, falling back to the email when the id does not resolve. All fields use
// set semantics, so a replayed checkout event converges on the same row.
func (r *accountRepository) LinkBilling(ctx context.Context, id uuid.UUID, email string, link repository.BillingLink) (*model.Account, error) {
	updates := billingLinkUpdates(link)

	result := r.db.WithContext(ctx).
		Model(&model.Account{}).
		Where("id = ?", id).
		Updates(updates)

	if result.Error != nil {
		r.logger.Error("Failed to link billing by account ID",
			zap.String("account_id", id.String()),
			zap.Error(result.Error))
		return nil, fmt.Errorf("failed to link billing: %w", result.Error)
	}

	if result.RowsAffected == 0 && email != "" {
		result = r.db.WithContext(ctx).
			Model(&model.Account{}).
			Where("email = ?", email).
			Updates(updates)

		if result.Error != nil {
			r.logger.Error("Failed to link billing by email",
				zap.Error(result.Error))
			return nil, fmt.Errorf("failed to link billing: %w", result.Error)
		}
	}

	if result.RowsAffected == 0 {
		return nil, domainerrors.ErrAccountNotFound
	}

	var account model.Account
	err := r.db.WithContext(ctx).
		Where("stripe_customer_id = ?", link.CustomerID).
		First(&account).Error
	if err != nil {
		r.logger.Error("Failed to reload account after billing link",
			zap.String("customer_id", link.CustomerID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to reload account: %w", err)
	}

	return &account, nil
}

// billingLinkUpdates builds the column set written by LinkBilling. An empty
// subscription id is stored as NULL; writing "" would collide on the unique
// index over stripe_subscription_id as soon as a second account links without
// a subscription reference.
func billingLinkUpdates(link repository.BillingLink) map[string]interface{} {
	updates := map[string]interface{}{
		"stripe_customer_id":  link.CustomerID,
		"subscription_status": model.AccountStatusActive,
		"payment_confirmed":   true,
	}
	if link.SubscriptionID != "" {
		updates["stripe_subscription_id"] = link.SubscriptionID
	} else {
		updates["stripe_subscription_id"] = nil
	}
	return updates
}

// SetPlanBySubscriptionID updates tier and status on the row matched by the
// provider subscription id
func (r *accountRepository) SetPlanBySubscriptionID(ctx context.Context, subscriptionID string, tier model.PlanTier, status model.AccountStatus) error {
	result := r.db.WithContext(ctx).
		Model(&model.Account{}).
		Where("stripe_subscription_id = ?", subscriptionID).
		Updates(map[string]interface{}{
			"plan_tier":           tier,
			"subscription_status": status,
		})

	if result.Error != nil {
		r.logger.Error("Failed to set plan by subscription ID",
			zap.String("subscription_id", subscriptionID),
			zap.Error(result.Error))
		return fmt.Errorf("failed to set plan: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domainerrors.ErrAccountNotFound
	}

	return nil
}

// ClearSubscriptionByCustomerID reverts the account matched by provider
// customer id to the starter tier with no subscription
func (r *accountRepository) ClearSubscriptionByCustomerID(ctx context.Context, customerID string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Account{}).
		Where("stripe_customer_id = ?", customerID).
		Updates(map[string]interface{}{
			"stripe_subscription_id": nil,
			"plan_tier":              model.PlanTierStarter,
			"subscription_status":    model.AccountStatusCanceled,
			"payment_confirmed":      false,
		})

	if result.Error != nil {
		r.logger.Error("Failed to clear subscription by customer ID",
			zap.String("customer_id", customerID),
			zap.Error(result.Error))
		return fmt.Errorf("failed to clear subscription: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domainerrors.ErrAccountNotFound
	}

	return nil
}

// SetStatusByBillingPair updates status on the row matched by customer id AND
// subscription id. Matching on the pair avoids touching a row whose
// subscription has since been replaced.
func (r *accountRepository) SetStatusByBillingPair(ctx context.Context, customerID, subscriptionID string, status model.AccountStatus) error {
	updates := map[string]interface{}{
		"subscription_status": status,
	}
	if status == model.AccountStatusActive {
		updates["payment_confirmed"] = true
	}

	result := r.db.WithContext(ctx).
		Model(&model.Account{}).
		Where("stripe_customer_id = ? AND stripe_subscription_id = ?", customerID, subscriptionID).
		Updates(updates)

	if result.Error != nil {
		r.logger.Error("Failed to set status by billing pair",
			zap.String("customer_id", customerID),
			zap.String("subscription_id", subscriptionID),
			zap.Error(result.Error))
		return fmt.Errorf("failed to set subscription status: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domainerrors.ErrAccountNotFound
	}

	return nil
}

// CountSubscriptions aggregates accounts by subscription status and plan tier
func (r *accountRepository) CountSubscriptions(ctx context.Context) (*repository.SubscriptionCounts, error) {
	type statusRow struct {
		SubscriptionStatus model.AccountStatus
		Count              int64
	}
	type tierRow struct {
		PlanTier model.PlanTier
		Count    int64
	}

	var statusRows []statusRow
	err := r.db.WithContext(ctx).
		Model(&model.Account{}).
		Select("subscription_status, count(*) as count").
		Group("subscription_status").
		Scan(&statusRows).Error
	if err != nil {
		r.logger.Error("Failed to count accounts by status",
			zap.Error(err))
		return nil, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	var tierRows []tierRow
	err = r.db.WithContext(ctx).
		Model(&model.Account{}).
		Select("plan_tier, count(*) as count").
		Group("plan_tier").
		Scan(&tierRows).Error
	if err != nil {
		r.logger.Error("Failed to count accounts by tier",
			zap.Error(err))
		return nil, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	counts := &repository.SubscriptionCounts{
		ByStatus: make(map[model.AccountStatus]int64, len(statusRows)),
		ByTier:   make(map[model.PlanTier]int64, len(tierRows)),
	}
	for _, row := range statusRows {
		counts.ByStatus[row.SubscriptionStatus] = row.Count
	}
	for _, row := range tierRows {
		counts.ByTier[row.PlanTier] = row.Count
	}

	return counts, nil
}
