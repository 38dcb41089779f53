package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/Ananth-NQI/restobot-backend/pkg/logging"
)

var ErrTwilioNotConfigured = errors.New("missing Twilio credentials")

// messageCreator is the slice of the Twilio REST API the gateway uses
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioConfig holds the WhatsApp sender settings
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	From       string // Format: "whatsapp:+14155238886"
	// QuickReplyContentSID is a Content API template with one body variable
	// and the shortcut buttons. Empty sends plain text with a shortcut line.
	QuickReplyContentSID string
}

// TwilioService delivers replies over WhatsApp through Twilio
type TwilioService struct {
	client               messageCreator
	from                 string
	quickReplyContentSID string
	logger               *logging.Logger
}

// NewTwilioService creates a new Twilio service instance
func NewTwilioService(cfg TwilioConfig, logger *logging.Logger) (*TwilioService, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.From == "" {
		return nil, ErrTwilioNotConfigured
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return newTwilioService(client.Api, cfg, logger), nil
}

func newTwilioService(client messageCreator, cfg TwilioConfig, logger *logging.Logger) *TwilioService {
	if logger == nil {
		logger = logging.Default()
	}
	return &TwilioService{
		client:               client,
		from:                 cfg.From,
		quickReplyContentSID: cfg.QuickReplyContentSID,
		logger:               logger,
	}
}

// Send delivers one reply. Failures are returned, never retried here.
func (t *TwilioService) Send(ctx context.Context, reply Reply) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if reply.To == "" {
		return fmt.Errorf("twilio: reply has no recipient")
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(WhatsAppAddress(reply.To))

	if t.quickReplyContentSID != "" && len(reply.QuickReplies) > 0 {
		variables, err := sonic.Marshal(map[string]string{"1": reply.Text})
		if err != nil {
			return fmt.Errorf("twilio: marshal content variables: %w", err)
		}
		params.SetContentSid(t.quickReplyContentSID)
		params.SetContentVariables(string(variables))
	} else {
		params.SetBody(RenderPlainText(reply))
	}

	resp, err := t.client.CreateMessage(params)
	if err != nil {
		t.logger.Error("❌ failed to send WhatsApp message", "to", reply.To, "error", err)
		return fmt.Errorf("twilio: send message: %w", err)
	}
	if resp != nil && resp.ErrorCode != nil && *resp.ErrorCode != 0 {
		msg := ""
		if resp.ErrorMessage != nil {
			msg = *resp.ErrorMessage
		}
		return fmt.Errorf("twilio error %d: %s", *resp.ErrorCode, msg)
	}

	sid := ""
	if resp != nil && resp.Sid != nil {
		sid = *resp.Sid
	}
	t.logger.Info("✅ WhatsApp message sent", "to", reply.To, "sid", sid)
	return nil
}

// RenderPlainText appends the shortcut values so users on plain text still
// see what to type.
func RenderPlainText(reply Reply) string {
	if len(reply.QuickReplies) == 0 {
		return reply.Text
	}
	values := make([]string, 0, len(reply.QuickReplies))
	for _, q := range reply.QuickReplies {
		values = append(values, q.Value)
	}
	return reply.Text + "\n\n👉 " + strings.Join(values, " | ")
}

// WhatsAppAddress adds the channel prefix Twilio expects.
func WhatsAppAddress(to string) string {
	if strings.HasPrefix(to, "whatsapp:") {
		return to
	}
	return "whatsapp:" + to
}

// LogGateway stands in when Twilio is not configured; replies only go to the log.
type LogGateway struct {
	logger *logging.Logger
}

func NewLogGateway(logger *logging.Logger) *LogGateway {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogGateway{logger: logger}
}

func (g *LogGateway) Send(_ context.Context, reply Reply) error {
	g.logger.Info("📤 response (not sent - Twilio not configured)", "to", reply.To, "text", reply.Text)
	return nil
}
