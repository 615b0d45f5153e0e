package handlers

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"nyra.shop/app/internal/modules/payments"
)

const (
	headerWebhookSignature = "X-Razorpay-Signature"
	headerWebhookEventID   = "X-Razorpay-Event-Id"

	maxWebhookBody = 1 << 20
)

type WebhookHandler struct {
	svc    *payments.WebhookService
	secret string
	logger *slog.Logger
}

func NewWebhookHandler(svc *payments.WebhookService, webhookSecret string, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{svc: svc, secret: webhookSecret, logger: logger}
}

// Razorpay handles gateway webhook deliveries. The signature is the only
// gate: an unsigned or tampered body gets a 400, everything after that is
// acknowledged with a 200 so the gateway never spirals into redelivery —
// failures past the signature are ours to log and reconcile, not the
// gateway's to retry forever.
func (h *WebhookHandler) Razorpay(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	sig := c.GetHeader(headerWebhookSignature)
	if !payments.VerifyWebhookSignature(body, sig, h.secret) {
		h.logger.WarnContext(c.Request.Context(), "webhook signature rejected",
			"client_ip", c.ClientIP(), "has_signature", sig != "")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	ev, err := payments.ParseWebhookEvent(body, c.GetHeader(headerWebhookEventID))
	if err != nil {
		// Authentic but unparseable; ack so it is not redelivered.
		h.logger.WarnContext(c.Request.Context(), "webhook body unparseable", "err", err)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	if err := h.svc.Handle(c.Request.Context(), "razorpay", ev, body); err != nil {
		h.logger.ErrorContext(c.Request.Context(), "webhook processing failed",
			"event_id", ev.EventID, "type", ev.Type, "err", err)
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
