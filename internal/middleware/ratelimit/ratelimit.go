// Package ratelimit provides a fixed-window request limiter keyed by client
// IP. Counters live in the kvstore so limits hold across replicas when Redis
// backs the store.
package ratelimit

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/driftmark/billing-service/internal/kvstore"
)

// Config holds the configuration for the rate limit middleware
type Config struct {
	Store  kvstore.Store
	Logger *zap.Logger
	// Limit is the number of requests allowed per window.
	Limit int64
	// Window is the fixed window length.
	Window time.Duration
	// SkipPaths are path prefixes exempt from limiting, such as webhook
	// endpoints whose callers authenticate by signature and retry on 429.
	SkipPaths []string
	// OnLimited is called when a request is rejected, so the caller can
	// record a security event.
	OnLimited func(c echo.Context)
}

// Middleware creates the rate limiting middleware. Store failures fail open:
// an unreachable Redis must not take billing traffic down with it.
func Middleware(cfg Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			for _, skip := range cfg.SkipPaths {
				if strings.HasPrefix(path, skip) {
					return next(c)
				}
			}

			key := fmt.Sprintf("ratelimit:%s", c.RealIP())

			count, err := cfg.Store.Incr(c.Request().Context(), key, cfg.Window)
			if err != nil {
				cfg.Logger.Error("Rate limit counter unavailable, allowing request",
					zap.Error(err))
				return next(c)
			}

			if count > cfg.Limit {
				cfg.Logger.Warn("Rate limit exceeded",
					zap.String("ip", c.RealIP()),
					zap.String("path", c.Request().URL.Path),
					zap.Int64("count", count))
				if cfg.OnLimited != nil {
					cfg.OnLimited(c)
				}
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error": "Too many requests",
					"code":  "RATE_LIMITED",
				})
			}

			return next(c)
		}
	}
}
