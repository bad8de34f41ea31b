package http

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/stripe/stripe-go/v79/webhook"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/driftmark/billing-service/internal/domain/model"
	"github.com/driftmark/billing-service/internal/domain/repository"
	"github.com/driftmark/billing-service/internal/middleware/metrics"
	"github.com/driftmark/billing-service/internal/usecase"
)

// WebhookHandler receives Stripe webhooks, verifies their signature and feeds
// verified events to the reconciler.
type WebhookHandler struct {
	logger         *zap.Logger
	webhookSecret  string
	reconciler     *usecase.Reconciler
	webhooks       repository.WebhookRepository
	securityEvents repository.SecurityEventRepository

	// sigFailureLimiter throttles how often signature failures are written to
	// the security log, so a flood of garbage cannot grow the table unbounded.
	sigFailureLimiter *rate.Limiter
}

func NewWebhookHandler(
	logger *zap.Logger,
	webhookSecret string,
	reconciler *usecase.Reconciler,
	webhooks repository.WebhookRepository,
	securityEvents repository.SecurityEventRepository,
) *WebhookHandler {
	return &WebhookHandler{
		logger:            logger,
		webhookSecret:     webhookSecret,
		reconciler:        reconciler,
		webhooks:          webhooks,
		securityEvents:    securityEvents,
		sigFailureLimiter: rate.NewLimiter(rate.Limit(1), 10),
	}
}

// HandleWebhook is the webhook entry point. Signature verification happens on
// the raw body before anything is parsed or persisted.
func (h *WebhookHandler) HandleWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		h.logger.Error("Error reading request body", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Error reading request body"})
	}

	sig := c.Request().Header.Get("Stripe-Signature")

	event, err := webhook.ConstructEventWithOptions(
		body,
		sig,
		h.webhookSecret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		},
	)

	if err != nil {
		h.logger.Warn("Webhook signature verification failed",
			zap.Error(err),
			zap.String("source_ip", c.RealIP()),
		)
		h.recordSignatureFailure(c, err)
		metrics.ObserveWebhook("unknown", "signature_invalid")
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Webhook signature verification failed",
		})
	}

	ctx := c.Request().Context()

	h.logger.Info("Webhook event received",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
	)

	if err := h.webhooks.SaveEvent(ctx, event.ID, string(event.Type), event.Data.Raw); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to record webhook event",
		})
	}

	// Stripe redelivers events; a receipt that already completed is
	// acknowledged without running the handlers again.
	receipt, err := h.webhooks.GetEvent(ctx, event.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to load webhook event",
		})
	}
	if receipt != nil && receipt.Status == model.WebhookStatusCompleted {
		h.logger.Info("Duplicate webhook delivery acknowledged",
			zap.String("event_id", event.ID))
		metrics.ObserveWebhook(string(event.Type), "duplicate")
		return c.JSON(http.StatusOK, echo.Map{"received": true})
	}

	if err := h.reconciler.Handle(ctx, event); err != nil {
		h.logger.Error("Webhook reconciliation failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))

		if markErr := h.webhooks.MarkFailed(ctx, event.ID, err); markErr != nil {
			h.logger.Error("Failed to mark webhook as failed",
				zap.String("event_id", event.ID),
				zap.Error(markErr))
		}

		metrics.ObserveWebhook(string(event.Type), "failed")
		// A non-2xx response makes Stripe retry the delivery.
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Webhook processing failed",
		})
	}

	if err := h.webhooks.MarkProcessed(ctx, event.ID); err != nil {
		h.logger.Error("Failed to mark webhook as processed",
			zap.String("event_id", event.ID),
			zap.Error(err))
	}

	metrics.ObserveWebhook(string(event.Type), "processed")
	return c.JSON(http.StatusOK, echo.Map{"received": true})
}

func (h *WebhookHandler) recordSignatureFailure(c echo.Context, cause error) {
	if !h.sigFailureLimiter.Allow() {
		return
	}

	event := &model.SecurityEvent{
		Kind:     model.SecurityEventSignatureInvalid,
		SourceIP: c.RealIP(),
		Path:     c.Request().URL.Path,
		Detail:   cause.Error(),
	}
	if err := h.securityEvents.Record(c.Request().Context(), event); err != nil {
		h.logger.Error("Failed to record security event", zap.Error(err))
	}
}
