package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/driftmark/billing-service/internal/kvstore"
)

func doRequest(t *testing.T, handler echo.HandlerFunc, path string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, path, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, handler(c))
	return rec
}

func okHandler(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func TestRateLimit_OverLimitRejected(t *testing.T) {
	var limited bool
	mw := Middleware(Config{
		Store:  kvstore.NewMemoryStore(),
		Logger: zap.NewNop(),
		Limit:  2,
		Window: time.Minute,
		OnLimited: func(c echo.Context) {
			limited = true
		},
	})
	handler := mw(okHandler)

	for i := 0; i < 2; i++ {
		rec := doRequest(t, handler, "/api/v1/account")
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doRequest(t, handler, "/api/v1/account")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "RATE_LIMITED")
	assert.True(t, limited)
}

func TestRateLimit_SkipPathsExempt(t *testing.T) {
	mw := Middleware(Config{
		Store:     kvstore.NewMemoryStore(),
		Logger:    zap.NewNop(),
		Limit:     1,
		Window:    time.Minute,
		SkipPaths: []string{"/api/webhooks/stripe", "/api/stripe/webhook"},
	})
	handler := mw(okHandler)

	// Redelivery bursts far above the limit still get through.
	for i := 0; i < 5; i++ {
		rec := doRequest(t, handler, "/api/webhooks/stripe")
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	for i := 0; i < 5; i++ {
		rec := doRequest(t, handler, "/api/stripe/webhook")
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	// Other paths stay limited.
	rec := doRequest(t, handler, "/api/v1/account")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = doRequest(t, handler, "/api/v1/account")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) (string, error) {
	return "", errors.New("store down")
}

func (failingStore) Set(context.Context, string, string, time.Duration) error {
	return errors.New("store down")
}

func (failingStore) Delete(context.Context, string) error {
	return errors.New("store down")
}

func (failingStore) Incr(context.Context, string, time.Duration) (int64, error) {
	return 0, errors.New("store down")
}

func TestRateLimit_StoreFailureFailsOpen(t *testing.T) {
	mw := Middleware(Config{
		Store:  failingStore{},
		Logger: zap.NewNop(),
		Limit:  1,
		Window: time.Minute,
	})
	handler := mw(okHandler)

	for i := 0; i < 3; i++ {
		rec := doRequest(t, handler, "/api/v1/account")
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}
