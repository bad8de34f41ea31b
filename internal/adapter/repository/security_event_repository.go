package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/driftmark/billing-service/internal/domain/model"
	"github.com/driftmark/billing-service/internal/domain/repository"
)

type securityEventRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSecurityEventRepository creates a new security event repository
func NewSecurityEventRepository(db *gorm.DB, logger *zap.Logger) repository.SecurityEventRepository {
	return &securityEventRepository{
		db:     db,
		logger: logger,
	}
}

// Record persists one security event
func (r *securityEventRepository) Record(ctx context.Context, event *model.SecurityEvent) error {
	err := r.db.WithContext(ctx).Create(event).Error
	if err != nil {
		r.logger.Error("Failed to record security event",
			zap.String("kind", event.Kind),
			zap.Error(err))
		return fmt.Errorf("failed to record security event: %w", err)
	}

	return nil
}
