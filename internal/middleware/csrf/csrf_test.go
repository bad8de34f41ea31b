package csrf

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/driftmark/billing-service/internal/kvstore"
)

const testSessionID = "550e8400-e29b-41d4-a716-446655440000"

func issueTestToken(t *testing.T, e *echo.Echo, store kvstore.Store) string {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/csrf", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", testSessionID)

	err := TokenHandler(store, zap.NewNop())(c)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body["token"])
	return body["token"]
}

func protectedHandler(store kvstore.Store) echo.HandlerFunc {
	mw := Middleware(Config{Store: store, Logger: zap.NewNop()})
	return mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
}

func TestCSRF_IssuedTokenAccepted(t *testing.T) {
	e := echo.New()
	store := kvstore.NewMemoryStore()
	token := issueTestToken(t, e, store)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/account", nil)
	req.Header.Set(HeaderToken, token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", testSessionID)

	err := protectedHandler(store)(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCSRF_MissingTokenRejected(t *testing.T) {
	e := echo.New()
	store := kvstore.NewMemoryStore()
	issueTestToken(t, e, store)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/account", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", testSessionID)

	err := protectedHandler(store)(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "CSRF_TOKEN_MISSING")
}

func TestCSRF_MismatchedTokenRejected(t *testing.T) {
	e := echo.New()
	store := kvstore.NewMemoryStore()
	issueTestToken(t, e, store)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/account", nil)
	req.Header.Set(HeaderToken, "not-the-issued-token")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", testSessionID)

	err := protectedHandler(store)(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "CSRF_TOKEN_INVALID")
}

func TestCSRF_TokenWithoutIssuanceRejected(t *testing.T) {
	e := echo.New()
	store := kvstore.NewMemoryStore()

	req := httptest.NewRequest(http.MethodPut, "/api/v1/account", nil)
	req.Header.Set(HeaderToken, "some-token")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", testSessionID)

	err := protectedHandler(store)(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "CSRF_TOKEN_INVALID")
}

func TestCSRF_SafeMethodsPassThrough(t *testing.T) {
	e := echo.New()
	store := kvstore.NewMemoryStore()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/account", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", testSessionID)

	err := protectedHandler(store)(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCSRF_ReissueRotatesToken(t *testing.T) {
	e := echo.New()
	store := kvstore.NewMemoryStore()

	first := issueTestToken(t, e, store)
	second := issueTestToken(t, e, store)
	require.NotEqual(t, first, second)

	// Only the latest token is valid for the session.
	req := httptest.NewRequest(http.MethodPut, "/api/v1/account", nil)
	req.Header.Set(HeaderToken, first)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", testSessionID)

	err := protectedHandler(store)(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCSRF_TokenHandlerRequiresSession(t *testing.T) {
	e := echo.New()
	store := kvstore.NewMemoryStore()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/csrf", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := TokenHandler(store, zap.NewNop())(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
