package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/driftmark/billing-service/internal/middleware/auth"
	"github.com/driftmark/billing-service/internal/usecase"
	apperrors "github.com/driftmark/billing-service/pkg/errors"
)

// CheckoutHandler exposes hosted checkout session creation.
type CheckoutHandler struct {
	logger   *zap.Logger
	checkout *usecase.CheckoutService
}

func NewCheckoutHandler(logger *zap.Logger, checkout *usecase.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		logger:   logger,
		checkout: checkout,
	}
}

// CreateCheckoutSession starts a hosted checkout for the authenticated user.
// The user id from the token wins over anything in the request body, so a
// client cannot attach a checkout to somebody else's account.
func (h *CheckoutHandler) CreateCheckoutSession(c echo.Context) error {
	var req usecase.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request body",
			"code":  apperrors.ErrValidation,
		})
	}

	if user, err := auth.GetUserFromContext(c); err == nil {
		req.UserID = user.UserID
		if req.Email == "" {
			req.Email = user.Email
		}
	}

	result, err := h.checkout.CreateSession(c.Request().Context(), req)
	if err != nil {
		apperrors.LogError(h.logger, err, "create checkout session")
		return c.JSON(apperrors.ToHTTPStatus(apperrors.CodeOf(err)), echo.Map{
			"error": "Failed to create checkout session",
			"code":  apperrors.CodeOf(err),
		})
	}

	return c.JSON(http.StatusOK, result)
}
