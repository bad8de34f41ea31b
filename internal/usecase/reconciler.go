package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"

	domainErrors "github.com/driftmark/billing-service/internal/domain/errors"
	"github.com/driftmark/billing-service/internal/domain/model"
	"github.com/driftmark/billing-service/internal/domain/plan"
	"github.com/driftmark/billing-service/internal/domain/provider"
	"github.com/driftmark/billing-service/internal/domain/repository"
)

// Reconciler applies verified provider events to local account state. Every
// handler uses set semantics, so Stripe redelivering an event converges on
// the same row state. Database errors propagate to the caller; billing state
// fails loud, never silent.
type Reconciler struct {
	accounts repository.AccountRepository
	gateway  provider.PaymentGateway
	catalog  *plan.Catalog
	logger   *zap.Logger
}

// NewReconciler creates a new reconciler.
func NewReconciler(
	accounts repository.AccountRepository,
	gateway provider.PaymentGateway,
	catalog *plan.Catalog,
	logger *zap.Logger,
) *Reconciler {
	return &Reconciler{
		accounts: accounts,
		gateway:  gateway,
		catalog:  catalog,
		logger:   logger,
	}
}

// Handle dispatches a verified event to its reconciliation handler. Unknown
// event types are acknowledged without side effects.
func (r *Reconciler) Handle(ctx context.Context, event stripe.Event) error {
	kind := KindOf(event.Type)

	r.logger.Info("reconciling provider event",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("kind", kind.String()),
	)

	switch kind {
	case EventKindCheckoutCompleted:
		return r.handleCheckoutCompleted(ctx, event)
	case EventKindSubscriptionCreated, EventKindSubscriptionUpdated:
		return r.handleSubscriptionChanged(ctx, event)
	case EventKindSubscriptionDeleted:
		return r.handleSubscriptionDeleted(ctx, event)
	case EventKindInvoicePaid:
		return r.handleInvoiceStatus(ctx, event, model.AccountStatusActive)
	case EventKindInvoicePaymentFailed:
		return r.handleInvoiceStatus(ctx, event, model.AccountStatusPastDue)
	case EventKindUnhandled:
		r.logger.Warn("unhandled event type",
			zap.String("event_type", string(event.Type)))
		return nil
	default:
		return fmt.Errorf("event kind %d has no handler", kind)
	}
}

// handleCheckoutCompleted links the provider customer and subscription to the
// local account and marks it paid. One idempotent upsert keyed by the user id
// from customer metadata, falling back to the customer email.
func (r *Reconciler) handleCheckoutCompleted(ctx context.Context, event stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return fmt.Errorf("failed to parse checkout session: %w", err)
	}

	if session.Mode != stripe.CheckoutSessionModeSubscription {
		r.logger.Info("ignoring non-subscription checkout session",
			zap.String("session_id", session.ID),
			zap.String("mode", string(session.Mode)))
		return nil
	}

	if session.Customer == nil || session.Customer.ID == "" {
		return fmt.Errorf("checkout session %s carries no customer", session.ID)
	}
	customerID := session.Customer.ID

	cust, err := r.gateway.GetCustomer(ctx, customerID)
	if err != nil {
		return fmt.Errorf("failed to look up customer %s: %w", customerID, err)
	}

	userRef := cust.Metadata["user_id"]
	if userRef == "" {
		return fmt.Errorf("customer %s: %w", customerID, domainErrors.ErrMissingUserReference)
	}
	userID, err := uuid.Parse(userRef)
	if err != nil {
		return fmt.Errorf("customer %s has malformed user reference %q: %w",
			customerID, userRef, domainErrors.ErrMissingUserReference)
	}

	email := cust.Email
	if email == "" {
		email = session.CustomerEmail
	}

	var subscriptionID string
	if session.Subscription != nil {
		subscriptionID = session.Subscription.ID
	}

	account, err := r.accounts.LinkBilling(ctx, userID, email, repository.BillingLink{
		CustomerID:     customerID,
		SubscriptionID: subscriptionID,
	})
	if err != nil {
		return fmt.Errorf("failed to link billing for user %s: %w", userID, err)
	}

	r.logger.Info("checkout completed, billing linked",
		zap.String("account_id", account.ID.String()),
		zap.String("customer_id", customerID),
		zap.String("subscription_id", subscriptionID),
	)
	return nil
}

// handleSubscriptionChanged resolves tier from the price id and status from
// the provider vocabulary, then updates the row matched by subscription id.
func (r *Reconciler) handleSubscriptionChanged(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("failed to parse subscription: %w", err)
	}

	var priceID string
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		priceID = sub.Items.Data[0].Price.ID
	}

	tier, ok := r.catalog.TierForPriceID(priceID)
	if !ok {
		r.logger.Warn("price id not in plan catalog, falling back to starter",
			zap.String("subscription_id", sub.ID),
			zap.String("price_id", priceID))
		tier = model.PlanTierStarter
	}

	status := MapProviderStatus(string(sub.Status))

	if err := r.accounts.SetPlanBySubscriptionID(ctx, sub.ID, tier, status); err != nil {
		return fmt.Errorf("failed to update account for subscription %s: %w", sub.ID, err)
	}

	r.logger.Info("subscription reconciled",
		zap.String("subscription_id", sub.ID),
		zap.String("tier", string(tier)),
		zap.String("status", string(status)),
	)
	return nil
}

// handleSubscriptionDeleted reverts the account matched by customer id to the
// starter tier with no subscription.
func (r *Reconciler) handleSubscriptionDeleted(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("failed to parse subscription: %w", err)
	}

	if sub.Customer == nil || sub.Customer.ID == "" {
		return fmt.Errorf("subscription %s carries no customer", sub.ID)
	}
	customerID := sub.Customer.ID

	if err := r.accounts.ClearSubscriptionByCustomerID(ctx, customerID); err != nil {
		return fmt.Errorf("failed to clear subscription for customer %s: %w", customerID, err)
	}

	r.logger.Info("subscription deleted, account reverted to starter",
		zap.String("customer_id", customerID),
		zap.String("subscription_id", sub.ID),
	)
	return nil
}

// handleInvoiceStatus applies an invoice outcome to the account matched by
// customer id AND subscription id. The narrower conjunction match avoids
// touching the wrong row when a customer switched plans.
func (r *Reconciler) handleInvoiceStatus(ctx context.Context, event stripe.Event, status model.AccountStatus) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return fmt.Errorf("failed to parse invoice: %w", err)
	}

	if invoice.Customer == nil || invoice.Customer.ID == "" {
		return fmt.Errorf("invoice %s carries no customer", invoice.ID)
	}
	if invoice.Subscription == nil || invoice.Subscription.ID == "" {
		// One-off invoices have no subscription and nothing to reconcile.
		r.logger.Info("ignoring invoice without subscription",
			zap.String("invoice_id", invoice.ID))
		return nil
	}

	customerID := invoice.Customer.ID
	subscriptionID := invoice.Subscription.ID

	if err := r.accounts.SetStatusByBillingPair(ctx, customerID, subscriptionID, status); err != nil {
		return fmt.Errorf("failed to update status for customer %s subscription %s: %w",
			customerID, subscriptionID, err)
	}

	r.logger.Info("invoice outcome reconciled",
		zap.String("invoice_id", invoice.ID),
		zap.String("customer_id", customerID),
		zap.String("subscription_id", subscriptionID),
		zap.String("status", string(status)),
	)
	return nil
}
