package repository

import (
	"context"

	"github.com/driftmark/billing-service/internal/domain/model"
)

// SecurityEventRepository records rejected or suspicious requests.
type SecurityEventRepository interface {
	Record(ctx context.Context, event *model.SecurityEvent) error
}
