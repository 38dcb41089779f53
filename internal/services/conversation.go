package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Ananth-NQI/restobot-backend/internal/config"
	"github.com/Ananth-NQI/restobot-backend/internal/models"
	"github.com/Ananth-NQI/restobot-backend/pkg/logging"
)

// Dialogue replies
const (
	PromptName       = "ยินดีรับจองครับ กรุณาบอกชื่อผู้จอง"
	PromptPhone      = "ได้ครับ รบกวนขอเบอร์โทรด้วยครับ"
	PromptPeople     = "ต้องการจองกี่ท่านครับ"
	PromptDateTime   = "วันและเวลาไหนครับ เช่น 5 ก.ย. 19:00"
	FallbackMessage  = "เกิดข้อผิดพลาด เริ่มใหม่พิมพ์ 'จองโต๊ะ'"
	CancelledMessage = "ยกเลิกการจองแล้วครับ พิมพ์ 'จองโต๊ะ' เพื่อเริ่มใหม่"
	ExpiredMessage   = "การจองหมดเวลาแล้วครับ พิมพ์ 'จองโต๊ะ' เพื่อเริ่มใหม่"
)

var stepPrompts = map[models.Step]string{
	models.StepAskName:     PromptName,
	models.StepAskPhone:    PromptPhone,
	models.StepAskPeople:   PromptPeople,
	models.StepAskDateTime: PromptDateTime,
}

// Turn is the outcome of one message.
type Turn struct {
	UserID string
	Reply  string
	// Intent is set when no dialogue was active.
	Intent Intent
	// From is the step observed at the start of the turn, To the step left
	// behind. Empty means no session.
	From models.Step
	To   models.Step
	// Completed carries the captured fields on the turn that finished the dialogue.
	Completed *models.ReservationFields
	Cancelled bool
	// Anomaly marks a session found in a step outside the dialogue.
	Anomaly bool
}

// Route names the turn for metrics and logs.
func (t Turn) Route() string {
	switch {
	case t.Anomaly:
		return "anomaly"
	case t.Cancelled:
		return "cancelled"
	case t.From != "":
		return string(t.From)
	default:
		return t.Intent.String()
	}
}

// Conversation drives the reservation dialogue and falls back to the command
// router when the user has no dialogue in progress.
type Conversation struct {
	sessions      *SessionManager
	router        *CommandRouter
	restaurant    *config.Restaurant
	validators    map[models.Step]FieldValidator
	cancelKeyword string
	logger        *logging.Logger
}

// ConversationOption configures a Conversation
type ConversationOption func(*Conversation)

// WithValidator replaces the field validator for one step.
func WithValidator(step models.Step, v FieldValidator) ConversationOption {
	return func(c *Conversation) { c.validators[step] = v }
}

// WithCancelKeyword lets a user abort a dialogue by sending text containing
// keyword. Empty keeps every message flowing into the current field.
func WithCancelKeyword(keyword string) ConversationOption {
	return func(c *Conversation) { c.cancelKeyword = strings.TrimSpace(keyword) }
}

// WithConversationLogger sets the logger
func WithConversationLogger(logger *logging.Logger) ConversationOption {
	return func(c *Conversation) { c.logger = logger }
}

// NewConversation wires the dialogue to its session store and content
func NewConversation(sessions *SessionManager, router *CommandRouter, restaurant *config.Restaurant, opts ...ConversationOption) *Conversation {
	c := &Conversation{
		sessions:   sessions,
		router:     router,
		restaurant: restaurant,
		validators: map[models.Step]FieldValidator{
			models.StepAskName:     AcceptNonEmpty,
			models.StepAskPhone:    AcceptNonEmpty,
			models.StepAskPeople:   AcceptNonEmpty,
			models.StepAskDateTime: AcceptNonEmpty,
		},
		logger: logging.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StrictValidators returns the options that enforce phone and party size formats.
func StrictValidators(maxPartySize int) []ConversationOption {
	return []ConversationOption{
		WithValidator(models.StepAskPhone, PhoneValidator),
		WithValidator(models.StepAskPeople, PartySizeValidator(maxPartySize)),
	}
}

// Advance handles one message from userID. The whole read-modify-write runs
// under the user's lock, so two messages from one user never see the same step.
func (c *Conversation) Advance(userID, replyTo, text string) Turn {
	text = strings.TrimSpace(text)

	unlock := c.sessions.Lock(userID)
	defer unlock()

	session, active := c.sessions.Get(userID)
	if !active {
		return c.route(userID, replyTo, text)
	}
	if replyTo != "" {
		session.ReplyTo = replyTo
	}
	return c.step(session, text)
}

func (c *Conversation) route(userID, replyTo, text string) Turn {
	intent := c.router.Classify(text)
	turn := Turn{UserID: userID, Intent: intent}

	if intent != IntentStartReservation {
		turn.Reply = c.router.Answer(intent)
		return turn
	}

	session := models.NewSession(userID, replyTo, c.sessions.now())
	c.sessions.Put(session)
	c.logger.Info("reservation started", "user_id", userID, "session_id", session.ID)

	turn.To = session.Step
	turn.Reply = PromptName
	return turn
}

func (c *Conversation) step(session models.Session, text string) Turn {
	turn := Turn{UserID: session.UserID, From: session.Step, To: session.Step}

	if !session.Step.Valid() {
		c.logger.Error("reservation session in unknown step",
			"user_id", session.UserID, "session_id", session.ID, "step", string(session.Step))
		turn.Anomaly = true
		turn.Reply = FallbackMessage
		return turn
	}

	if c.cancelKeyword != "" && strings.Contains(text, c.cancelKeyword) {
		c.sessions.Remove(session.UserID)
		c.logger.Info("reservation cancelled", "user_id", session.UserID, "session_id", session.ID, "step", string(session.Step))
		turn.To = ""
		turn.Cancelled = true
		turn.Reply = CancelledMessage
		return turn
	}

	value, err := c.validate(session.Step, text)
	if err != nil {
		// Keep the step, refresh activity and ask again.
		c.sessions.Put(session)
		if errors.Is(err, ErrEmptyField) {
			turn.Reply = stepPrompts[session.Step]
		} else {
			turn.Reply = err.Error()
		}
		return turn
	}
	session.Fields.Set(session.Step, value)

	next, more := session.Step.Next()
	if !more {
		fields := session.Fields
		if !fields.Complete() {
			c.logger.Error("reservation session reached the last step with missing fields",
				"user_id", session.UserID, "session_id", session.ID)
			turn.Anomaly = true
			turn.Reply = FallbackMessage
			return turn
		}
		c.sessions.Remove(session.UserID)
		c.logger.Info("reservation completed", "user_id", session.UserID, "session_id", session.ID)

		turn.To = ""
		turn.Completed = &fields
		turn.Reply = c.summary(fields)
		return turn
	}

	session.Step = next
	c.sessions.Put(session)
	turn.To = next
	turn.Reply = stepPrompts[next]
	return turn
}

func (c *Conversation) validate(step models.Step, text string) (string, error) {
	v, ok := c.validators[step]
	if !ok || v == nil {
		v = AcceptNonEmpty
	}
	return v(text)
}

func (c *Conversation) summary(f models.ReservationFields) string {
	return fmt.Sprintf(
		"✅ สรุปการจอง\n"+
			"ชื่อ: %s\n"+
			"โทร: %s\n"+
			"จำนวน: %s คน\n"+
			"วันเวลา: %s\n"+
			"ทีมงานจะติดต่อยืนยันอีกครั้ง โทร %s",
		f.Name, f.Phone, f.People, f.DateTime, c.restaurant.Phone)
}
