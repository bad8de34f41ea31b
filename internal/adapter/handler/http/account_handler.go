package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	domainerrors "github.com/driftmark/billing-service/internal/domain/errors"
	"github.com/driftmark/billing-service/internal/domain/model"
	"github.com/driftmark/billing-service/internal/domain/repository"
	"github.com/driftmark/billing-service/internal/middleware/auth"
	apperrors "github.com/driftmark/billing-service/pkg/errors"
)

// AccountHandler serves the authenticated user's account.
type AccountHandler struct {
	logger   *zap.Logger
	accounts repository.AccountRepository
}

func NewAccountHandler(logger *zap.Logger, accounts repository.AccountRepository) *AccountHandler {
	return &AccountHandler{
		logger:   logger,
		accounts: accounts,
	}
}

type createAccountRequest struct {
	Email       string  `json:"email"`
	DisplayName string  `json:"display_name"`
	Phone       *string `json:"phone"`
	Company     *string `json:"company"`
}

type updateProfileRequest struct {
	DisplayName string  `json:"display_name"`
	Phone       *string `json:"phone"`
	Company     *string `json:"company"`
}

// GetAccount returns the account of the authenticated user.
func (h *AccountHandler) GetAccount(c echo.Context) error {
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
		apperrors.LogError(h.logger, err, "get account")
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to load account",
			"code":  apperrors.ErrDatabase,
		})
	}
	if account == nil {
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Account not found",
			"code":  apperrors.ErrNotFound,
		})
	}

	return c.JSON(http.StatusOK, account)
}

// CreateAccount provisions the local account row for a freshly signed-up
// user. The row id is the Supabase user id, so webhook reconciliation can
// find it by the user reference in customer metadata.
func (h *AccountHandler) CreateAccount(c echo.Context) error {
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

	var req createAccountRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request body",
			"code":  apperrors.ErrValidation,
		})
	}

	email := req.Email
	if email == "" {
		email = user.Email
	}
	if email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Email is required",
			"code":  apperrors.ErrValidation,
		})
	}

	existing, err := h.accounts.GetByID(c.Request().Context(), id)
	if err != nil {
		apperrors.LogError(h.logger, err, "check existing account")
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create account",
			"code":  apperrors.ErrDatabase,
		})
	}
	if existing != nil {
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "Account already exists",
			"code":  apperrors.ErrConflict,
		})
	}

	account := &model.Account{
		ID:          id,
		Email:       email,
		DisplayName: req.DisplayName,
		Phone:       req.Phone,
		Company:     req.Company,
	}

	if err := h.accounts.Create(c.Request().Context(), account); err != nil {
		apperrors.LogError(h.logger, err, "create account")
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create account",
			"code":  apperrors.ErrDatabase,
		})
	}

	return c.JSON(http.StatusCreated, account)
}

// UpdateProfile updates the mutable profile fields of the authenticated
// user's account. Billing fields are owned by reconciliation and cannot be
// touched here.
func (h *AccountHandler) UpdateProfile(c echo.Context) error {
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

	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request body",
			"code":  apperrors.ErrValidation,
		})
	}

	if req.DisplayName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Display name is required",
			"code":  apperrors.ErrValidation,
		})
	}

	err = h.accounts.UpdateProfile(c.Request().Context(), id, req.DisplayName, req.Phone, req.Company)
	if err != nil {
		if apperrors.Is(err, domainerrors.ErrAccountNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{
				"error": "Account not found",
				"code":  apperrors.ErrNotFound,
			})
		}
		apperrors.LogError(h.logger, err, "update profile")
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update profile",
			"code":  apperrors.ErrDatabase,
		})
	}

	account, err := h.accounts.GetByID(c.Request().Context(), id)
	if err != nil || account == nil {
		return c.JSON(http.StatusOK, echo.Map{"updated": true})
	}
	return c.JSON(http.StatusOK, account)
}
