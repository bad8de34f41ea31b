package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	handlers "github.com/driftmark/billing-service/internal/adapter/handler/http"
	"github.com/driftmark/billing-service/internal/config"
	"github.com/driftmark/billing-service/internal/domain/model"
	"github.com/driftmark/billing-service/internal/domain/plan"
	"github.com/driftmark/billing-service/internal/domain/provider"
	"github.com/driftmark/billing-service/internal/infrastructure/database"
	"github.com/driftmark/billing-service/internal/kvstore"
	"github.com/driftmark/billing-service/internal/middleware/auth"
	"github.com/driftmark/billing-service/internal/middleware/csrf"
	metricsmw "github.com/driftmark/billing-service/internal/middleware/metrics"
	"github.com/driftmark/billing-service/internal/middleware/ratelimit"
	"github.com/driftmark/billing-service/internal/usecase"
	"github.com/driftmark/billing-service/pkg/logger"
)

type Server struct {
	config  *config.Config
	logger  *zap.Logger
	echo    *echo.Echo
	repos   *database.Repositories
	gateway provider.PaymentGateway
	catalog *plan.Catalog
	store   kvstore.Store
}

func NewServer(
	cfg *config.Config,
	log *zap.Logger,
	repos *database.Repositories,
	gateway provider.PaymentGateway,
	catalog *plan.Catalog,
	store kvstore.Store,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = newErrorHandler(log, cfg.Service.IsDevelopment())

	e.Use(middleware.Recover())
	e.Use(logger.NewEchoRequestLogger(log))
	e.Use(metricsmw.Middleware())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.Service.ClientURL},
		AllowMethods: []string{echo.GET, echo.POST, echo.PUT, echo.DELETE},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, csrf.HeaderToken},
	}))

	return &Server{
		config:  cfg,
		logger:  log,
		echo:    e,
		repos:   repos,
		gateway: gateway,
		catalog: catalog,
		store:   store,
	}
}

func (s *Server) Start() error {
	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.config.Server.HTTP.Host, s.config.Server.HTTP.Port)
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	svc := &s.config.Service

	// Usecases
	reconciler := usecase.NewReconciler(s.repos.Account, s.gateway, s.catalog, s.logger)
	checkout := usecase.NewCheckoutService(s.gateway, s.catalog, svc.Checkout.TrialDays, s.logger)

	// Handlers
	webhookHandler := handlers.NewWebhookHandler(
		s.logger, svc.StripeWebhookSecret, reconciler, s.repos.Webhook, s.repos.SecurityEvent)
	checkoutHandler := handlers.NewCheckoutHandler(s.logger, checkout)
	plansHandler := handlers.NewPlansHandler(s.catalog)
	accountHandler := handlers.NewAccountHandler(s.logger, s.repos.Account)
	billingHandler := handlers.NewBillingHandler(
		s.logger, s.repos.Account, s.gateway, svc.ClientURL)

	// Health check
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": "billing",
		})
	})

	// Prometheus scrape endpoint
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Webhook endpoints are authenticated by Stripe's signature, never by
	// JWT. The second path is kept for dashboards configured before the
	// route moved.
	s.echo.POST("/api/webhooks/stripe", webhookHandler.HandleWebhook)
	s.echo.POST("/api/stripe/webhook", webhookHandler.HandleWebhook)

	jwtConfig := auth.JWTConfig{
		Secret: svc.Supabase.JWTSecret,
		Logger: s.logger,
		OnRejected: func(c echo.Context, reason string) {
			s.recordSecurityEvent(c, model.SecurityEventAuthRejected, reason)
		},
	}
	requireJWT := auth.JWTMiddleware(jwtConfig)

	if svc.RateLimit.Enabled {
		s.echo.Use(ratelimit.Middleware(ratelimit.Config{
			Store:  s.store,
			Logger: s.logger,
			Limit:  int64(svc.RateLimit.Limit),
			Window: time.Duration(svc.RateLimit.WindowSeconds) * time.Second,
			// Webhook deliveries are authenticated by Stripe's signature and
			// arrive in bursts on redelivery; limiting them would push
			// legitimate retries into Stripe's failure queue.
			SkipPaths: []string{
				"/api/webhooks/stripe",
				"/api/stripe/webhook",
				"/health",
				"/metrics",
			},
			OnLimited: func(c echo.Context) {
				s.recordSecurityEvent(c, model.SecurityEventRateLimited, "request rate limit exceeded")
			},
		}))
	}

	// Checkout entry point for the storefront
	stripeGroup := s.echo.Group("/api/stripe", requireJWT)
	stripeGroup.POST("/create-checkout-session", checkoutHandler.CreateCheckoutSession)

	v1 := s.echo.Group("/api/v1")
	v1.GET("/plans", plansHandler.ListPlans)

	protected := v1.Group("", requireJWT)
	if svc.CSRFEnabled {
		protected.Use(csrf.Middleware(csrf.Config{
			Store:  s.store,
			Logger: s.logger,
		}))
	}
	// Token issuance rides a safe method, so the CSRF middleware lets it
	// through and clients can always bootstrap a token.
	protected.GET("/csrf", csrf.TokenHandler(s.store, s.logger))

	protected.GET("/account", accountHandler.GetAccount)
	protected.POST("/account", accountHandler.CreateAccount)
	protected.PUT("/account", accountHandler.UpdateProfile)

	protected.POST("/billing/portal", billingHandler.CreatePortalSession)

	protected.GET("/admin/metrics", billingHandler.SubscriptionMetrics)
}

func (s *Server) recordSecurityEvent(c echo.Context, kind, detail string) {
	event := &model.SecurityEvent{
		Kind:     kind,
		SourceIP: c.RealIP(),
		Path:     c.Request().URL.Path,
		Detail:   detail,
	}
	if err := s.repos.SecurityEvent.Record(c.Request().Context(), event); err != nil {
		s.logger.Error("Failed to record security event", zap.Error(err))
	}
}

// newErrorHandler builds the fallback error handler. Error detail is logged
// redacted; production responses carry only a generic message so internals
// never leak to clients.
func newErrorHandler(log *zap.Logger, development bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := "Internal server error"

		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				message = m
			}
		}

		log.Error("request failed",
			zap.Int("status", code),
			zap.String("path", c.Request().URL.Path),
			zap.String("error", logger.Redact(err.Error())),
		)

		if !development && code == http.StatusInternalServerError {
			message = "Internal server error"
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, echo.Map{"error": message})
	}
}
