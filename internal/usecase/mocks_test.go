package usecase

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/driftmark/billing-service/internal/domain/model"
	"github.com/driftmark/billing-service/internal/domain/provider"
	"github.com/driftmark/billing-service/internal/domain/repository"
)

// MockAccountRepository is a mock implementation of repository.AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	args := m.Called(ctx, id)
	if a := args.Get(0); a != nil {
		return a.(*model.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountRepository) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	args := m.Called(ctx, email)
	if a := args.Get(0); a != nil {
		return a.(*model.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountRepository) Create(ctx context.Context, account *model.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) UpdateProfile(ctx context.Context, id uuid.UUID, displayName string, phone, company *string) error {
	args := m.Called(ctx, id, displayName, phone, company)
	return args.Error(0)
}

func (m *MockAccountRepository) LinkBilling(ctx context.Context, id uuid.UUID, email string, link repository.BillingLink) (*model.Account, error) {
	args := m.Called(ctx, id, email, link)
	if a := args.Get(0); a != nil {
		return a.(*model.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountRepository) SetPlanBySubscriptionID(ctx context.Context, subscriptionID string, tier model.PlanTier, status model.AccountStatus) error {
	args := m.Called(ctx, subscriptionID, tier, status)
	return args.Error(0)
}

func (m *MockAccountRepository) ClearSubscriptionByCustomerID(ctx context.Context, customerID string) error {
	args := m.Called(ctx, customerID)
	return args.Error(0)
}

func (m *MockAccountRepository) SetStatusByBillingPair(ctx context.Context, customerID, subscriptionID string, status model.AccountStatus) error {
	args := m.Called(ctx, customerID, subscriptionID, status)
	return args.Error(0)
}

func (m *MockAccountRepository) CountSubscriptions(ctx context.Context) (*repository.SubscriptionCounts, error) {
	args := m.Called(ctx)
	if a := args.Get(0); a != nil {
		return a.(*repository.SubscriptionCounts), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockPaymentGateway is a mock implementation of provider.PaymentGateway
type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) GetCustomer(ctx context.Context, id string) (*provider.Customer, error) {
	args := m.Called(ctx, id)
	if c := args.Get(0); c != nil {
		return c.(*provider.Customer), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPaymentGateway) FindCustomerByEmail(ctx context.Context, email string) (*provider.Customer, error) {
	args := m.Called(ctx, email)
	if c := args.Get(0); c != nil {
		return c.(*provider.Customer), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPaymentGateway) CreateCustomer(ctx context.Context, params provider.CustomerParams) (*provider.Customer, error) {
	args := m.Called(ctx, params)
	if c := args.Get(0); c != nil {
		return c.(*provider.Customer), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPaymentGateway) UpdateCustomer(ctx context.Context, id string, params provider.CustomerParams) (*provider.Customer, error) {
	args := m.Called(ctx, id, params)
	if c := args.Get(0); c != nil {
		return c.(*provider.Customer), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPaymentGateway) DeleteCustomer(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPaymentGateway) CreateCheckoutSession(ctx context.Context, spec provider.CheckoutSessionSpec) (*provider.CheckoutSession, error) {
	args := m.Called(ctx, spec)
	if s := args.Get(0); s != nil {
		return s.(*provider.CheckoutSession), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPaymentGateway) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	args := m.Called(ctx, customerID, returnURL)
	return args.String(0), args.Error(1)
}

// MockWebhookRepository is a mock implementation of repository.WebhookRepository
type MockWebhookRepository struct {
	mock.Mock
}

func (m *MockWebhookRepository) SaveEvent(ctx context.Context, eventID, eventType string, data json.RawMessage) error {
	args := m.Called(ctx, eventID, eventType, data)
	return args.Error(0)
}

func (m *MockWebhookRepository) GetEvent(ctx context.Context, eventID string) (*model.StripeWebhookEvent, error) {
	args := m.Called(ctx, eventID)
	if e := args.Get(0); e != nil {
		return e.(*model.StripeWebhookEvent), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockWebhookRepository) MarkProcessed(ctx context.Context, eventID string) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}

func (m *MockWebhookRepository) MarkFailed(ctx context.Context, eventID string, err error) error {
	args := m.Called(ctx, eventID, err)
	return args.Error(0)
}
