package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
)

// PlanTier is the internal subscription tier of an account.
type PlanTier string

const (
	PlanTierStarter    PlanTier = "starter"
	PlanTierPro        PlanTier = "pro"
	PlanTierEnterprise PlanTier = "enterprise"
)

// Scan implements sql.Scanner interface
func (t *PlanTier) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*t = PlanTier(v)
	case []byte:
		*t = PlanTier(v)
	default:
		*t = PlanTierStarter
	}
	return nil
}

// Value implements driver.Valuer interface
func (t PlanTier) Value() (driver.Value, error) {
	return string(t), nil
}

// AccountStatus is the internal subscription status vocabulary. Provider
// statuses outside this set are collapsed into canceled.
type AccountStatus string

const (
	AccountStatusActive   AccountStatus = "active"
	AccountStatusCanceled AccountStatus = "canceled"
	AccountStatusPastDue  AccountStatus = "past_due"
	AccountStatusTrialing AccountStatus = "trialing"
)

// Scan implements sql.Scanner interface
func (s *AccountStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = AccountStatus(v)
	case []byte:
		*s = AccountStatus(v)
	default:
		*s = AccountStatusCanceled
	}
	return nil
}

// Value implements driver.Valuer interface
func (s AccountStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// Account is a user account with its billing linkage. Billing fields are
// mutated exclusively by webhook reconciliation; profile fields by the
// account endpoints.
type Account struct {
	ID                   uuid.UUID     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Email                string        `gorm:"unique;not null;size:255" json:"email"`
	DisplayName          string        `gorm:"size:200" json:"display_name"`
	Phone                *string       `gorm:"size:50" json:"phone,omitempty"`
	Company              *string       `gorm:"size:200" json:"company,omitempty"`
	StripeCustomerID     *string       `gorm:"size:100;index" json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID *string       `gorm:"size:100;uniqueIndex" json:"stripe_subscription_id,omitempty"`
	PlanTier             PlanTier      `gorm:"type:plan_tier;not null;default:'starter'" json:"plan_tier"`
	SubscriptionStatus   AccountStatus `gorm:"type:account_status;not null;default:'trialing'" json:"subscription_status"`
	PaymentConfirmed     bool          `gorm:"default:false" json:"payment_confirmed"`
	CreatedAt            time.Time     `gorm:"default:now()" json:"created_at"`
	UpdatedAt            time.Time     `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Account) TableName() string {
	return "accounts"
}
