package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftmark/billing-service/internal/domain/model"
	"github.com/driftmark/billing-service/internal/domain/repository"
)

func TestBillingLinkUpdates_FullLink(t *testing.T) {
	updates := billingLinkUpdates(repository.BillingLink{
		CustomerID:     "cus_123",
		SubscriptionID: "sub_456",
	})

	assert.Equal(t, "cus_123", updates["stripe_customer_id"])
	assert.Equal(t, "sub_456", updates["stripe_subscription_id"])
	assert.Equal(t, model.AccountStatusActive, updates["subscription_status"])
	assert.Equal(t, true, updates["payment_confirmed"])
}

func TestBillingLinkUpdates_EmptySubscriptionStoredAsNull(t *testing.T) {
	updates := billingLinkUpdates(repository.BillingLink{
		CustomerID: "cus_123",
	})

	// NULL, not "": two accounts without a subscription reference must not
	// collide on the unique stripe_subscription_id index.
	value, ok := updates["stripe_subscription_id"]
	require.True(t, ok)
	assert.Nil(t, value)
}
