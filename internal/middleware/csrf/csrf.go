// Package csrf implements double-submit CSRF protection for browser-origin
// state-changing requests. Tokens are minted per session and stored in the
// kvstore with a TTL; webhook and other server-to-server paths are skipped
// because Stripe signs those requests itself.
package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/driftmark/billing-service/internal/kvstore"
)

const (
	// HeaderToken carries the client's CSRF token.
	HeaderToken = "X-CSRF-Token"

	tokenTTL = 2 * time.Hour
)

// Config holds the configuration for the CSRF middleware
type Config struct {
	Store     kvstore.Store
	Logger    *zap.Logger
	SkipPaths []string
}

// IssueToken mints a token for the given session id and stores it.
func IssueToken(c echo.Context, store kvstore.Store, sessionID string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate csrf token: %w", err)
	}
	token := hex.EncodeToString(buf)

	if err := store.Set(c.Request().Context(), storeKey(sessionID), token, tokenTTL); err != nil {
		return "", fmt.Errorf("failed to store csrf token: %w", err)
	}
	return token, nil
}

// TokenHandler issues the session's token. Mount it on an authenticated GET
// route; clients echo the token back in the X-CSRF-Token header on
// state-changing requests.
func TokenHandler(store kvstore.Store, logger *zap.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		sessionID, _ := c.Get("user_id").(string)
		if sessionID == "" {
			return c.JSON(http.StatusUnauthorized, echo.Map{
				"error": "Authentication required",
				"code":  "AUTH_REQUIRED",
			})
		}

		token, err := IssueToken(c, store, sessionID)
		if err != nil {
			logger.Error("Failed to issue CSRF token", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error": "Failed to issue CSRF token",
				"code":  "INTERNAL",
			})
		}

		return c.JSON(http.StatusOK, echo.Map{"token": token})
	}
}

// Middleware validates the CSRF token on state-changing methods. Safe methods
// pass through untouched.
func Middleware(cfg Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			switch c.Request().Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			path := c.Request().URL.Path
			for _, skip := range cfg.SkipPaths {
				if strings.HasPrefix(path, skip) {
					return next(c)
				}
			}

			sessionID, _ := c.Get("user_id").(string)
			if sessionID == "" {
				// Unauthenticated state changes are rejected elsewhere.
				return next(c)
			}

			presented := c.Request().Header.Get(HeaderToken)
			if presented == "" {
				cfg.Logger.Warn("Missing CSRF token",
					zap.String("path", path))
				return c.JSON(http.StatusForbidden, echo.Map{
					"error": "CSRF token required",
					"code":  "CSRF_TOKEN_MISSING",
				})
			}

			stored, err := cfg.Store.Get(c.Request().Context(), storeKey(sessionID))
			if err != nil {
				cfg.Logger.Warn("CSRF token not found for session",
					zap.String("path", path),
					zap.Error(err))
				return c.JSON(http.StatusForbidden, echo.Map{
					"error": "CSRF token invalid or expired",
					"code":  "CSRF_TOKEN_INVALID",
				})
			}

			if subtle.ConstantTimeCompare([]byte(presented), []byte(stored)) != 1 {
				cfg.Logger.Warn("CSRF token mismatch",
					zap.String("path", path))
				return c.JSON(http.StatusForbidden, echo.Map{
					"error": "CSRF token invalid or expired",
					"code":  "CSRF_TOKEN_INVALID",
				})
			}

			return next(c)
		}
	}
}

func storeKey(sessionID string) string {
	return "csrf:" + sessionID
}
