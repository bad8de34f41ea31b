package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/driftmark/billing-service/internal/adapter/repository"
	domainRepo "github.com/driftmark/billing-service/internal/domain/repository"
)

// Repositories holds all repository instances
type Repositories struct {
	Account       domainRepo.AccountRepository
	Webhook       domainRepo.WebhookRepository
	SecurityEvent domainRepo.SecurityEventRepository
}

// NewRepositories creates new repository instances with database connection
func NewRepositories(db *gorm.DB, logger *zap.Logger) *Repositories {
	return &Repositories{
		Account:       repository.NewAccountRepository(db, logger),
		Webhook:       repository.NewWebhookRepository(db, logger),
		SecurityEvent: repository.NewSecurityEventRepository(db, logger),
	}
}
