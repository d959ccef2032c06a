package stripewebhooks

import (
	"context"
	"errors"
	"io"
	"net/http"

	"profile-app/internal/app/worker"
	"profile-app/internal/domain/billing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v75/webhook"
)

const maxBodyBytes = 65536

// Submitter hands work to the background supervisor.
type Submitter interface {
	Submit(task worker.Task) error
}

// Applier applies a translated event to local state.
type Applier interface {
	Handle(ctx context.Context, ev billing.Event) error
}

// Handler verifies Stripe deliveries, acknowledges them immediately and
// reconciles them in the background.
type Handler struct {
	secret     string
	queue      Submitter
	reconciler Applier
}

func NewHandler(secret string, queue Submitter, reconciler Applier) *Handler {
	return &Handler{secret: secret, queue: queue, reconciler: reconciler}
}

// POST /webhook
func (h *Handler) StripeWebhook(c *gin.Context) {
	if h.secret == "" {
		// Acknowledge so Stripe stops retrying a delivery we can never verify.
		log.Error().Msg("STRIPE_WEBHOOK_SECRET not configured; webhook dropped")
		c.JSON(http.StatusOK, gin.H{"status": "unconfigured"})
		return
	}

	payload, err := readStripeBody(c, maxBodyBytes)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Error reading request body"})
		return
	}

	event, err := webhook.ConstructEventWithOptions(
		payload,
		c.GetHeader("Stripe-Signature"),
		h.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		log.Warn().Err(err).Msg("stripe signature verification failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature verification failed"})
		return
	}

	logger := log.With().Str("event_id", event.ID).Str("event_type", string(event.Type)).Logger()

	if !billing.Handles(billing.EventType(event.Type)) {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	ev, err := translate(event)
	if err != nil {
		// The body is authentic, so a retry would fail the same way.
		logger.Error().Err(err).Msg("failed to parse verified webhook payload")
		c.JSON(http.StatusOK, gin.H{"status": "unparseable"})
		return
	}

	err = h.queue.Submit(worker.Task{
		Name: "stripe:" + ev.ID,
		Run: func(ctx context.Context) error {
			return h.reconciler.Handle(ctx, ev)
		},
	})
	if err != nil {
		logger.Warn().Err(err).Msg("webhook not queued")
		status := http.StatusServiceUnavailable
		if !errors.Is(err, worker.ErrQueueFull) && !errors.Is(err, worker.ErrClosed) {
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{"error": "Webhook could not be queued"})
		return
	}

	logger.Debug().Msg("webhook queued")
	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

func readStripeBody(c *gin.Context, maxBytes int64) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	return io.ReadAll(c.Request.Body)
}
