package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/driftmark/billing-service/internal/domain/provider"
	"github.com/driftmark/billing-service/internal/domain/repository"
	"github.com/driftmark/billing-service/internal/middleware/auth"
	apperrors "github.com/driftmark/billing-service/pkg/errors"
)

// BillingHandler serves the billing portal and admin subscription metrics.
type BillingHandler struct {
	logger    *zap.Logger
	accounts  repository.AccountRepository
	gateway   provider.PaymentGateway
	returnURL string
}

func NewBillingHandler(logger *zap.Logger, accounts repository.AccountRepository, gateway provider.PaymentGateway, returnURL string) *BillingHandler {
	return &BillingHandler{
		logger:    logger,
		accounts:  accounts,
		gateway:   gateway,
		returnURL: returnURL,
	}
}

type portalRequest struct {
	ReturnURL string `json:"returnUrl"`
}

// CreatePortalSession opens a provider-hosted billing portal session for the
// authenticated user. Requires the account to have a linked customer.
func (h *BillingHandler) CreatePortalSession(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if user == nil {
		return err
	}

	id, err := uuid.Parse(user.UserID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid user id",
			"code":  apperrors.ErrValidation,
		})
	}

	account, err := h.accounts.GetByID(c.Request().Context(), id)
	if err != nil {
		apperrors.LogError(h.logger, err, "load account for portal")
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to load account",
			"code":  apperrors.ErrDatabase,
		})
	}
	if account == nil || account.StripeCustomerID == nil || *account.StripeCustomerID == "" {
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "No billing account linked",
			"code":  apperrors.ErrNotFound,
		})
	}

	var req portalRequest
	_ = c.Bind(&req)
	returnURL := req.ReturnURL
	if returnURL == "" {
		returnURL = h.returnURL
	}

	url, err := h.gateway.CreatePortalSession(c.Request().Context(), *account.StripeCustomerID, returnURL)
	if err != nil {
		apperrors.LogError(h.logger, err, "create portal session")
		return c.JSON(http.StatusBadGateway, echo.Map{
			"error": "Failed to create portal session",
			"code":  apperrors.ErrProvider,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{"url": url})
}

// SubscriptionMetrics returns account counts by status and tier. Admin only.
func (h *BillingHandler) SubscriptionMetrics(c echo.Context) error {
	user, err := auth.RequireRole(c, "admin")
	if user == nil {
		return err
	}

	counts, err := h.accounts.CountSubscriptions(c.Request().Context())
	if err != nil {
		apperrors.LogError(h.logger, err, "count subscriptions")
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to aggregate subscriptions",
			"code":  apperrors.ErrDatabase,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"by_status": counts.ByStatus,
		"by_tier":   counts.ByTier,
	})
}
