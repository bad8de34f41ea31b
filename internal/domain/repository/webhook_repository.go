package repository

import (
	"context"
	"encoding/json"

	"github.com/driftmark/billing-service/internal/domain/model"
)

// WebhookRepository persists webhook receipts for idempotency and ops
// visibility.
type WebhookRepository interface {
	// SaveEvent records a receipt; duplicate event ids are ignored.
	SaveEvent(ctx context.Context, eventID, eventType string, data json.RawMessage) error
	GetEvent(ctx context.Context, eventID string) (*model.StripeWebhookEvent, error)
	MarkProcessed(ctx context.Context, eventID string) error
	MarkFailed(ctx context.Context, eventID string, err error) error
}
