package provider

import "context"

// Customer is the provider-side customer record, reduced to what the
// service needs.
type Customer struct {
	ID       string
	Email    string
	Name     string
	Phone    string
	Metadata map[string]string
}

// CustomerParams carries the fields written when creating or updating a
// provider customer.
type CustomerParams struct {
	Email    string
	Name     string
	Phone    string
	Metadata map[string]string
}

// CheckoutSessionSpec describes one hosted checkout session to create.
type CheckoutSessionSpec struct {
	CustomerID            string
	PriceID               string
	SuccessURL            string
	CancelURL             string
	TrialDays             int64
	AllowPromotionCodes   bool
	RequireBillingAddress bool
	Metadata              map[string]string
}

// CheckoutSession is the created session; the service stores only these
// fields, never the session itself.
type CheckoutSession struct {
	ID         string
	URL        string
	CustomerID string
}

// PaymentGateway is the boundary to the hosted payment provider. Handlers
// and usecases depend on this interface, never on the SDK directly.
type PaymentGateway interface {
	GetCustomer(ctx context.Context, id string) (*Customer, error)
	// FindCustomerByEmail returns nil, nil when no customer matches.
	FindCustomerByEmail(ctx context.Context, email string) (*Customer, error)
	CreateCustomer(ctx context.Context, params CustomerParams) (*Customer, error)
	UpdateCustomer(ctx context.Context, id string, params CustomerParams) (*Customer, error)
	DeleteCustomer(ctx context.Context, id string) error
	CreateCheckoutSession(ctx context.Context, spec CheckoutSessionSpec) (*CheckoutSession, error)
	// CreatePortalSession returns the URL of a hosted billing-portal session.
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
}

// ProviderError wraps a failure of the hosted payment provider.
type ProviderError struct {
	Code    string
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
