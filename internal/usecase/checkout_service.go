package usecase

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/driftmark/billing-service/internal/domain/plan"
	"github.com/driftmark/billing-service/internal/domain/provider"
	apperrors "github.com/driftmark/billing-service/pkg/errors"
)

// CheckoutRequest carries everything needed to start a hosted checkout.
// PlanID may be an alias; it is normalized against the catalog before it
// reaches the provider.
type CheckoutRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Name       string `json:"name" validate:"required"`
	Phone      string `json:"phone"`
	Company    string `json:"company"`
	PlanID     string `json:"planId" validate:"required"`
	PriceID    string `json:"priceId" validate:"required"`
	UserID     string `json:"userId"`
	SuccessURL string `json:"successUrl" validate:"required,url"`
	CancelURL  string `json:"cancelUrl" validate:"required,url"`
}

// CheckoutResult is what the application keeps of a created session.
type CheckoutResult struct {
	SessionID  string `json:"sessionId"`
	URL        string `json:"url"`
	CustomerID string `json:"customerId"`
}

// CheckoutService creates provider-hosted checkout sessions. Customer
// creation and session creation run as a saga: when the session fails after
// a customer was created for it, the customer is deleted again.
type CheckoutService struct {
	gateway   provider.PaymentGateway
	catalog   *plan.Catalog
	trialDays int64
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(gateway provider.PaymentGateway, catalog *plan.Catalog, trialDays int64, logger *zap.Logger) *CheckoutService {
	if trialDays <= 0 {
		trialDays = 7
	}
	return &CheckoutService{
		gateway:   gateway,
		catalog:   catalog,
		trialDays: trialDays,
		validate:  validator.New(),
		logger:    logger,
	}
}

// CreateSession validates the request, ensures a provider customer exists
// for the email, and creates a subscription-mode checkout session carrying
// the normalized plan id and the internal user id in its metadata.
func (s *CheckoutService) CreateSession(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrValidation, "invalid checkout request", err)
	}

	planKey := s.catalog.Normalize(req.PlanID)

	metadata := map[string]string{
		"plan_id": planKey,
	}
	if req.UserID != "" {
		metadata["user_id"] = req.UserID
	}

	var (
		customerID      string
		createdCustomer bool
		result          *CheckoutResult
	)

	saga := NewSaga(s.logger)

	saga.AddStep(SagaStep{
		Name: "ensure customer",
		Run: func(ctx context.Context) error {
			existing, err := s.gateway.FindCustomerByEmail(ctx, req.Email)
			if err != nil {
				return apperrors.NewAppError(apperrors.ErrProvider, "failed to look up customer", err)
			}

			params := provider.CustomerParams{
				Email:    req.Email,
				Name:     req.Name,
				Phone:    req.Phone,
				Metadata: metadata,
			}

			if existing != nil {
				updated, err := s.gateway.UpdateCustomer(ctx, existing.ID, params)
				if err != nil {
					return apperrors.NewAppError(apperrors.ErrProvider, "failed to update customer", err)
				}
				customerID = updated.ID
				return nil
			}

			created, err := s.gateway.CreateCustomer(ctx, params)
			if err != nil {
				return apperrors.NewAppError(apperrors.ErrProvider, "failed to create customer", err)
			}
			customerID = created.ID
			createdCustomer = true
			return nil
		},
		Compensate: func(ctx context.Context) error {
			// Only undo what this saga created; an existing customer stays.
			if !createdCustomer {
				return nil
			}
			return s.gateway.DeleteCustomer(ctx, customerID)
		},
	})

	saga.AddStep(SagaStep{
		Name: "create checkout session",
		Run: func(ctx context.Context) error {
			session, err := s.gateway.CreateCheckoutSession(ctx, provider.CheckoutSessionSpec{
				CustomerID:            customerID,
				PriceID:               req.PriceID,
				SuccessURL:            req.SuccessURL,
				CancelURL:             req.CancelURL,
				TrialDays:             s.trialDays,
				AllowPromotionCodes:   true,
				RequireBillingAddress: true,
				Metadata:              metadata,
			})
			if err != nil {
				return apperrors.NewAppError(apperrors.ErrProvider, "failed to create checkout session", err)
			}
			result = &CheckoutResult{
				SessionID:  session.ID,
				URL:        session.URL,
				CustomerID: customerID,
			}
			return nil
		},
	})

	if err := saga.Execute(ctx); err != nil {
		return nil, err
	}

	s.logger.Info("checkout session created",
		zap.String("session_id", result.SessionID),
		zap.String("customer_id", result.CustomerID),
		zap.String("plan", planKey),
		zap.String("price_id", req.PriceID),
	)

	return result, nil
}
