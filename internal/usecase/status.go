package usecase

import (
	"github.com/driftmark/billing-service/internal/domain/model"
)

// MapProviderStatus translates the provider's subscription status vocabulary
// into the internal enum. Total by construction: anything unrecognized or
// terminal ("incomplete_expired", "unpaid", "paused", ...) collapses into
// canceled. Cutting off access beats leaving a stale active row.
func MapProviderStatus(status string) model.AccountStatus {
	switch status {
	case "active":
		return model.AccountStatusActive
	case "trialing":
		return model.AccountStatusTrialing
	case "past_due":
		return model.AccountStatusPastDue
	default:
		return model.AccountStatusCanceled
	}
}
