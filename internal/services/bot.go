package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Ananth-NQI/restobot-backend/internal/metrics"
	"github.com/Ananth-NQI/restobot-backend/pkg/logging"
)

var ErrDuplicateMessage = errors.New("duplicate message")

// InboundMessage is one chat event from the messaging platform
type InboundMessage struct {
	UserID    string
	Text      string
	MessageID string // platform id, used to drop redeliveries
	ReplyTo   string // opaque reply channel
}

// BotDeps wires a BotService. Tracker, Recorder and Metrics are optional.
type BotDeps struct {
	Conversation *Conversation
	Composer     *ReplyComposer
	Gateway      Gateway
	Tracker      MessageTracker
	Recorder     ReservationRecorder
	Metrics      *metrics.BotMetrics
	Logger       *logging.Logger
	Tracer       trace.Tracer
}

// BotService turns one inbound message into exactly one delivered reply
type BotService struct {
	conversation *Conversation
	composer     *ReplyComposer
	gateway      Gateway
	tracker      MessageTracker
	recorder     ReservationRecorder
	metrics      *metrics.BotMetrics
	logger       *logging.Logger
	tracer       trace.Tracer
}

func NewBotService(deps BotDeps) *BotService {
	if deps.Conversation == nil || deps.Gateway == nil {
		panic("services: conversation and gateway are required")
	}
	if deps.Composer == nil {
		deps.Composer = NewReplyComposer()
	}
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	if deps.Tracer == nil {
		deps.Tracer = otel.Tracer("restobot.internal.services.bot")
	}
	return &BotService{
		conversation: deps.Conversation,
		composer:     deps.Composer,
		gateway:      deps.Gateway,
		tracker:      deps.Tracker,
		recorder:     deps.Recorder,
		metrics:      deps.Metrics,
		logger:       deps.Logger,
		tracer:       deps.Tracer,
	}
}

// HandleMessage runs one turn and delivers its reply. A delivery failure is
// returned; the session change made by the turn stays. When the turn touched
// no session its message id is released, so a redelivery is answered.
func (b *BotService) HandleMessage(ctx context.Context, msg InboundMessage) (Reply, error) {
	start := time.Now()
	ctx, span := b.tracer.Start(ctx, "chat.handle_message")
	defer span.End()

	if msg.ReplyTo == "" {
		msg.ReplyTo = msg.UserID
	}

	if msg.MessageID != "" && b.tracker != nil {
		fresh, err := b.tracker.MarkProcessed(ctx, msg.MessageID)
		if err != nil {
			// Fail open: a tracker outage must not silence the bot.
			b.logger.Warn("message tracker unavailable", "message_id", msg.MessageID, "error", err)
		} else if !fresh {
			b.metrics.ObserveDuplicate()
			b.logger.Info("skipping redelivered message", "message_id", msg.MessageID, "user_id", msg.UserID)
			return Reply{}, ErrDuplicateMessage
		}
	}

	turn := b.conversation.Advance(msg.UserID, msg.ReplyTo, msg.Text)
	span.SetAttributes(attribute.String("chat.route", turn.Route()))
	b.metrics.ObserveInbound(turn.Route())

	switch {
	case turn.Completed != nil:
		b.metrics.ObserveSessionEnded("completed")
		b.record(ctx, turn)
	case turn.Cancelled:
		b.metrics.ObserveSessionEnded("cancelled")
	}

	reply := b.composer.Compose(msg.ReplyTo, turn.Reply)
	if err := b.gateway.Send(ctx, reply); err != nil {
		span.RecordError(err)
		b.metrics.ObserveOutbound("failed")
		b.metrics.ObserveTurnLatency("delivery_failed", time.Since(start).Seconds())
		b.logger.Error("failed to deliver reply", "user_id", msg.UserID, "route", turn.Route(), "error", err)
		if turn.From == "" && turn.To == "" {
			b.release(ctx, msg.MessageID)
		}
		return reply, fmt.Errorf("deliver reply: %w", err)
	}

	b.metrics.ObserveOutbound("sent")
	b.metrics.ObserveTurnLatency("ok", time.Since(start).Seconds())
	b.logger.Debug("turn handled", "user_id", msg.UserID, "route", turn.Route(), "step", string(turn.To))
	return reply, nil
}

func (b *BotService) release(ctx context.Context, messageID string) {
	if messageID == "" || b.tracker == nil {
		return
	}
	if err := b.tracker.Release(ctx, messageID); err != nil {
		b.logger.Warn("failed to release message id", "message_id", messageID, "error", err)
	}
}

func (b *BotService) record(ctx context.Context, turn Turn) {
	if b.recorder == nil {
		return
	}
	if _, err := b.recorder.Record(ctx, turn.UserID, *turn.Completed); err != nil {
		b.metrics.ObserveReservation("failed")
		b.logger.Error("failed to record reservation", "user_id", turn.UserID, "error", err)
		return
	}
	b.metrics.ObserveReservation("recorded")
}
