package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// messageProcessor is the slice of the conversation router the webhook
// invokes.
type messageProcessor interface {
	ProcessMessage(ctx context.Context, chatID, body string, fromMe bool) error
}

// wahaEvent is the WAHA webhook envelope. Only message events carry a
// payload the bot cares about.
type wahaEvent struct {
	Event   string `json:"event"`
	Session string `json:"session"`
	Payload struct {
		From   string `json:"from"`
		Body   string `json:"body"`
		FromMe bool   `json:"fromMe"`
	} `json:"payload"`
}

// WebhookHandler receives WAHA event callbacks.
type WebhookHandler struct {
	processor messageProcessor
	logger    *zap.Logger
}

// NewWebhookHandler builds a new handler.
func NewWebhookHandler(processor messageProcessor, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{processor: processor, logger: logger}
}

// Receive handles one webhook delivery. It always answers 200: WAHA retries
// non-2xx deliveries, and replaying a conversation message would double
// every reply.
func (h *WebhookHandler) Receive(c *gin.Context) {
	var event wahaEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		h.logger.Warn("unparseable webhook payload", zap.Error(err))
		c.Status(http.StatusOK)
		return
	}

	switch event.Event {
	case "message", "message.any":
	default:
		c.Status(http.StatusOK)
		return
	}

	if err := h.processor.ProcessMessage(c.Request.Context(), event.Payload.From, event.Payload.Body, event.Payload.FromMe); err != nil {
		h.logger.Error("failed to process message",
			zap.String("chat_id", event.Payload.From),
			zap.String("session", event.Session),
			zap.Error(err),
		)
	}
	c.Status(http.StatusOK)
}
