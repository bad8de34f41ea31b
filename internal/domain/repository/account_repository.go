package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/driftmark/billing-service/internal/domain/model"
)

// BillingLink is the billing linkage written by the checkout-completed
// reconciliation. All fields use set semantics so a replayed event converges
// on the same row state.
type BillingLink struct {
	CustomerID     string
	SubscriptionID string
}

// SubscriptionCounts aggregates accounts by status and tier for the admin
// metrics endpoint.
type SubscriptionCounts struct {
	ByStatus map[model.AccountStatus]int64
	ByTier   map[model.PlanTier]int64
}

// AccountRepository owns all reads and writes of account rows. Billing
// update methods return domain ErrAccountNotFound when no row matches; a
// zero-row update must never look like success.
type AccountRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error)
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	Create(ctx context.Context, account *model.Account) error
	UpdateProfile(ctx context.Context, id uuid.UUID, displayName string, phone, company *string) error

	// LinkBilling attaches provider ids to the account identified by user id,
	// or by email when the id is unknown, and marks it active and paid.
	LinkBilling(ctx context.Context, id uuid.UUID, email string, link BillingLink) (*model.Account, error)
	// SetPlanBySubscriptionID updates tier and status on the row matched by
	// provider subscription id.
	SetPlanBySubscriptionID(ctx context.Context, subscriptionID string, tier model.PlanTier, status model.AccountStatus) error
	// ClearSubscriptionByCustomerID reverts the row matched by provider
	// customer id to the starter tier with no subscription.
	ClearSubscriptionByCustomerID(ctx context.Context, customerID string) error
	// SetStatusByBillingPair updates status on the row matched by customer id
	// AND subscription id. The conjunction avoids cross-subscription bleed
	// when a customer has switched plans.
	SetStatusByBillingPair(ctx context.Context, customerID, subscriptionID string, status model.AccountStatus) error

	CountSubscriptions(ctx context.Context) (*SubscriptionCounts, error)
}
