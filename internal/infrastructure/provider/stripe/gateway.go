// Package stripe implements the PaymentGateway boundary on the Stripe SDK.
// Nothing outside this package imports stripe-go types for API calls; the
// webhook handler only uses the SDK for signature verification and event
// parsing.
package stripe

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	portalsession "github.com/stripe/stripe-go/v79/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/customer"
	"go.uber.org/zap"

	"github.com/driftmark/billing-service/internal/domain/provider"
)

// Gateway is the Stripe-backed PaymentGateway.
type Gateway struct {
	logger *zap.Logger
}

// NewGateway configures the global Stripe client key and returns the gateway.
func NewGateway(secretKey string, logger *zap.Logger) *Gateway {
	stripe.Key = secretKey
	return &Gateway{logger: logger}
}

// GetCustomer retrieves a customer by id.
func (g *Gateway) GetCustomer(ctx context.Context, id string) (*provider.Customer, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx

	cust, err := customer.Get(id, params)
	if err != nil {
		g.logger.Error("Stripe customer lookup failed",
			zap.String("customer_id", id),
			zap.Error(err))
		return nil, wrapStripeError("failed to get customer", err)
	}
	if cust.Deleted {
		return nil, &provider.ProviderError{
			Code:    "CUSTOMER_DELETED",
			Message: fmt.Sprintf("customer %s is deleted", id),
		}
	}

	return toCustomer(cust), nil
}

// FindCustomerByEmail returns the first live customer with the given email,
// or nil, nil when none exists.
func (g *Gateway) FindCustomerByEmail(ctx context.Context, email string) (*provider.Customer, error) {
	params := &stripe.CustomerListParams{
		Email: stripe.String(email),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	iter := customer.List(params)
	for iter.Next() {
		cust := iter.Customer()
		if cust.Deleted {
			continue
		}
		return toCustomer(cust), nil
	}
	if err := iter.Err(); err != nil {
		g.logger.Error("Stripe customer search failed", zap.Error(err))
		return nil, wrapStripeError("failed to search customers", err)
	}

	return nil, nil
}

// CreateCustomer creates a new customer.
func (g *Gateway) CreateCustomer(ctx context.Context, p provider.CustomerParams) (*provider.Customer, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(p.Email),
		Name:  stripe.String(p.Name),
	}
	params.Context = ctx
	if p.Phone != "" {
		params.Phone = stripe.String(p.Phone)
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	cust, err := customer.New(params)
	if err != nil {
		g.logger.Error("Stripe customer creation failed", zap.Error(err))
		return nil, wrapStripeError("failed to create customer", err)
	}

	g.logger.Info("Stripe customer created",
		zap.String("customer_id", cust.ID))

	return toCustomer(cust), nil
}

// UpdateCustomer updates an existing customer.
func (g *Gateway) UpdateCustomer(ctx context.Context, id string, p provider.CustomerParams) (*provider.Customer, error) {
	params := &stripe.CustomerParams{
		Name: stripe.String(p.Name),
	}
	params.Context = ctx
	if p.Phone != "" {
		params.Phone = stripe.String(p.Phone)
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	cust, err := customer.Update(id, params)
	if err != nil {
		g.logger.Error("Stripe customer update failed",
			zap.String("customer_id", id),
			zap.Error(err))
		return nil, wrapStripeError("failed to update customer", err)
	}

	return toCustomer(cust), nil
}

// DeleteCustomer deletes a customer. Used by checkout compensation to undo a
// customer the saga created.
func (g *Gateway) DeleteCustomer(ctx context.Context, id string) error {
	params := &stripe.CustomerParams{}
	params.Context = ctx

	if _, err := customer.Del(id, params); err != nil {
		g.logger.Error("Stripe customer deletion failed",
			zap.String("customer_id", id),
			zap.Error(err))
		return wrapStripeError("failed to delete customer", err)
	}

	g.logger.Info("Stripe customer deleted",
		zap.String("customer_id", id))
	return nil
}

// CreateCheckoutSession creates a subscription-mode hosted checkout session.
func (g *Gateway) CreateCheckoutSession(ctx context.Context, spec provider.CheckoutSessionSpec) (*provider.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer:   stripe.String(spec.CustomerID),
		SuccessURL: stripe.String(spec.SuccessURL),
		CancelURL:  stripe.String(spec.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(spec.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx

	if spec.TrialDays > 0 {
		params.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{
			TrialPeriodDays: stripe.Int64(spec.TrialDays),
		}
	}
	if spec.AllowPromotionCodes {
		params.AllowPromotionCodes = stripe.Bool(true)
	}
	if spec.RequireBillingAddress {
		params.BillingAddressCollection = stripe.String(
			string(stripe.CheckoutSessionBillingAddressCollectionRequired))
	}
	for k, v := range spec.Metadata {
		params.AddMetadata(k, v)
	}

	session, err := checkoutsession.New(params)
	if err != nil {
		g.logger.Error("Stripe checkout session creation failed",
			zap.String("customer_id", spec.CustomerID),
			zap.String("price_id", spec.PriceID),
			zap.Error(err))
		return nil, wrapStripeError("failed to create checkout session", err)
	}

	g.logger.Info("Stripe checkout session created",
		zap.String("session_id", session.ID),
		zap.String("customer_id", spec.CustomerID))

	return &provider.CheckoutSession{
		ID:         session.ID,
		URL:        session.URL,
		CustomerID: spec.CustomerID,
	}, nil
}

// CreatePortalSession creates a hosted billing-portal session and returns its
// URL.
func (g *Gateway) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	session, err := portalsession.New(params)
	if err != nil {
		g.logger.Error("Stripe portal session creation failed",
			zap.String("customer_id", customerID),
			zap.Error(err))
		return "", wrapStripeError("failed to create portal session", err)
	}

	return session.URL, nil
}

func toCustomer(cust *stripe.Customer) *provider.Customer {
	return &provider.Customer{
		ID:       cust.ID,
		Email:    cust.Email,
		Name:     cust.Name,
		Phone:    cust.Phone,
		Metadata: cust.Metadata,
	}
}

func wrapStripeError(message string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return &provider.ProviderError{
			Code:    string(stripeErr.Code),
			Message: message,
			Err:     err,
		}
	}
	return &provider.ProviderError{
		Code:    "PROVIDER_ERROR",
		Message: message,
		Err:     err,
	}
}
