package usecase

import (
	"github.com/stripe/stripe-go/v79"
)

// EventKind is the closed set of provider events this service reconciles.
// Routing goes through this enum rather than raw type strings so that the
// dispatch switch in Reconciler.Handle covers every kind explicitly and a
// new kind without a handler is caught by tests, not silently dropped.
type EventKind int

const (
	EventKindUnhandled EventKind = iota
	EventKindCheckoutCompleted
	EventKindSubscriptionCreated
	EventKindSubscriptionUpdated
	EventKindSubscriptionDeleted
	EventKindInvoicePaid
	EventKindInvoicePaymentFailed
)

// HandledKinds lists every kind with a reconciliation handler.
var HandledKinds = []EventKind{
	EventKindCheckoutCompleted,
	EventKindSubscriptionCreated,
	EventKindSubscriptionUpdated,
	EventKindSubscriptionDeleted,
	EventKindInvoicePaid,
	EventKindInvoicePaymentFailed,
}

// KindOf maps a provider event type to its kind. Comparison is exact; any
// other type is unhandled and gets acknowledged without side effects so the
// provider does not retry it forever.
func KindOf(t stripe.EventType) EventKind {
	switch t {
	case stripe.EventTypeCheckoutSessionCompleted:
		return EventKindCheckoutCompleted
	case stripe.EventTypeCustomerSubscriptionCreated:
		return EventKindSubscriptionCreated
	case stripe.EventTypeCustomerSubscriptionUpdated:
		return EventKindSubscriptionUpdated
	case stripe.EventTypeCustomerSubscriptionDeleted:
		return EventKindSubscriptionDeleted
	case stripe.EventTypeInvoicePaymentSucceeded:
		return EventKindInvoicePaid
	case stripe.EventTypeInvoicePaymentFailed:
		return EventKindInvoicePaymentFailed
	default:
		return EventKindUnhandled
	}
}

func (k EventKind) String() string {
	switch k {
	case EventKindCheckoutCompleted:
		return "checkout_completed"
	case EventKindSubscriptionCreated:
		return "subscription_created"
	case EventKindSubscriptionUpdated:
		return "subscription_updated"
	case EventKindSubscriptionDeleted:
		return "subscription_deleted"
	case EventKindInvoicePaid:
		return "invoice_paid"
	case EventKindInvoicePaymentFailed:
		return "invoice_payment_failed"
	default:
		return "unhandled"
	}
}
