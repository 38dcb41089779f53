package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Ananth-NQI/restobot-backend/internal/services"
	"github.com/Ananth-NQI/restobot-backend/pkg/logging"
)

// MessageHandler runs one chat turn and delivers the reply
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg services.InboundMessage) (services.Reply, error)
}

// WhatsAppHandler handles WhatsApp webhook requests
type WhatsAppHandler struct {
	bot    MessageHandler
	logger *logging.Logger
}

// NewWhatsAppHandler creates a new WhatsApp handler
func NewWhatsAppHandler(bot MessageHandler, logger *logging.Logger) *WhatsAppHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &WhatsAppHandler{bot: bot, logger: logger}
}

// TwilioWebhookPayload represents incoming WhatsApp message from Twilio
type TwilioWebhookPayload struct {
	MessageSid          string `form:"MessageSid"`
	AccountSid          string `form:"AccountSid"`
	MessagingServiceSid string `form:"MessagingServiceSid"`
	From                string `form:"From"` // whatsapp:+66891234567
	To                  string `form:"To"`   // our Twilio number
	Body                string `form:"Body"`
	ProfileName         string `form:"ProfileName"`
	NumMedia            string `form:"NumMedia"`
}

// HandleWebhook processes incoming WhatsApp messages
func (h *WhatsAppHandler) HandleWebhook(c *fiber.Ctx) error {
	var payload TwilioWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		h.logger.Warn("invalid webhook payload", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid webhook payload",
		})
	}

	// Status callbacks and media-only messages carry no text.
	if payload.From == "" || strings.TrimSpace(payload.Body) == "" {
		return c.SendStatus(fiber.StatusOK)
	}

	h.logger.Info("📱 WhatsApp message received", "from", payload.From, "message_sid", payload.MessageSid)

	_, err := h.bot.HandleMessage(c.UserContext(), services.InboundMessage{
		UserID:    strings.TrimPrefix(payload.From, "whatsapp:"),
		Text:      payload.Body,
		MessageID: payload.MessageSid,
		ReplyTo:   payload.From,
	})
	switch {
	case errors.Is(err, services.ErrDuplicateMessage):
		return c.SendStatus(fiber.StatusOK)
	case err != nil:
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Failed to deliver reply",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

// TestWebhookPayload drives the bot without Twilio
type TestWebhookPayload struct {
	From      string `json:"from"`
	Message   string `json:"message"`
	MessageID string `json:"message_id"`
}

// HandleTestWebhook processes test messages and returns the reply (for development)
func (h *WhatsAppHandler) HandleTestWebhook(c *fiber.Ctx) error {
	var payload TestWebhookPayload
	if err := c.BodyParser(&payload); err != nil || payload.From == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid test payload",
		})
	}

	h.logger.Debug("🧪 test webhook received", "from", payload.From, "message", payload.Message)

	reply, err := h.bot.HandleMessage(c.UserContext(), services.InboundMessage{
		UserID:    payload.From,
		Text:      payload.Message,
		MessageID: payload.MessageID,
	})
	if errors.Is(err, services.ErrDuplicateMessage) {
		return c.JSON(fiber.Map{
			"success":   true,
			"duplicate": true,
		})
	}
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success":       false,
			"error":         err.Error(),
			"response":      reply.Text,
			"quick_replies": reply.QuickReplies,
		})
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"response":      reply.Text,
		"quick_replies": reply.QuickReplies,
	})
}
