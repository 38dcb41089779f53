package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/Ananth-NQI/restobot-backend/internal/services"
	"github.com/Ananth-NQI/restobot-backend/pkg/logging"
)

// Pruner is anything holding time-bounded state that needs periodic cleanup.
type Pruner interface {
	Prune() int
}

// SessionExpiryConfig wires a SessionExpiryJob. Composer, Gateway and Pruner
// are optional.
type SessionExpiryConfig struct {
	Sessions *services.SessionManager
	Interval time.Duration
	// Notify sends ExpiredMessage to users whose dialogue was swept.
	Notify   bool
	Composer *services.ReplyComposer
	Gateway  services.Gateway
	Pruner   Pruner
	Logger   *logging.Logger
}

// SessionExpiryJob sweeps idle reservation sessions on a fixed interval
type SessionExpiryJob struct {
	cfg SessionExpiryConfig

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSessionExpiryJob creates the sweeper. It does nothing until Start.
func NewSessionExpiryJob(cfg SessionExpiryConfig) *SessionExpiryJob {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.Composer == nil {
		cfg.Composer = services.NewReplyComposer()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &SessionExpiryJob{cfg: cfg}
}

// Start launches the sweep loop. Calling it twice is a no-op.
func (j *SessionExpiryJob) Start(ctx context.Context) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.cancel != nil {
		j.cfg.Logger.Warn("session expiry job already running")
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.done = make(chan struct{})

	go j.loop(ctx, j.done)
	j.cfg.Logger.Info("🧹 session expiry job started", "interval", j.cfg.Interval.String())
}

// Stop halts the loop and waits for an in-flight sweep to finish.
func (j *SessionExpiryJob) Stop() {
	j.mu.Lock()
	cancel, done := j.cancel, j.done
	j.cancel, j.done = nil, nil
	j.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	j.cfg.Logger.Info("session expiry job stopped")
}

func (j *SessionExpiryJob) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(j.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep and returns how many sessions expired.
func (j *SessionExpiryJob) RunOnce(ctx context.Context) int {
	expired := j.cfg.Sessions.ExpireIdle()
	for _, session := range expired {
		j.cfg.Logger.Info("reservation session expired",
			"user_id", session.UserID, "session_id", session.ID, "step", string(session.Step))
		if j.cfg.Notify && j.cfg.Gateway != nil {
			j.notify(ctx, session.UserID, session.ReplyTo)
		}
	}

	if j.cfg.Pruner != nil {
		if n := j.cfg.Pruner.Prune(); n > 0 {
			j.cfg.Logger.Debug("pruned processed message ids", "count", n)
		}
	}
	return len(expired)
}

func (j *SessionExpiryJob) notify(ctx context.Context, userID, replyTo string) {
	if replyTo == "" {
		replyTo = userID
	}
	reply := j.cfg.Composer.Compose(replyTo, services.ExpiredMessage)
	if err := j.cfg.Gateway.Send(ctx, reply); err != nil {
		j.cfg.Logger.Warn("failed to send expiry notice", "user_id", userID, "error", err)
	}
}
