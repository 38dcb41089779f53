package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// MessageTracker remembers platform message ids so a redelivered webhook is
// consumed once.
type MessageTracker interface {
	// MarkProcessed records id and reports whether it was new.
	MarkProcessed(ctx context.Context, messageID string) (bool, error)
	// Release forgets id so a redelivery is handled again.
	Release(ctx context.Context, messageID string) error
}

// RedisMessageTracker shares seen ids across instances
type RedisMessageTracker struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

func NewRedisMessageTracker(client *redis.Client, ttl time.Duration, tracer trace.Tracer) *RedisMessageTracker {
	if client == nil {
		panic("services: redis client cannot be nil")
	}
	if tracer == nil {
		tracer = otel.Tracer("restobot.internal.services.tracker")
	}
	return &RedisMessageTracker{redis: client, ttl: ttl, tracer: tracer}
}

func (t *RedisMessageTracker) MarkProcessed(ctx context.Context, messageID string) (bool, error) {
	ctx, span := t.tracer.Start(ctx, "chat.mark_processed")
	defer span.End()

	fresh, err := t.redis.SetNX(ctx, processedKey(messageID), 1, t.ttl).Result()
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("tracker: mark processed: %w", err)
	}
	return fresh, nil
}

func (t *RedisMessageTracker) Release(ctx context.Context, messageID string) error {
	if err := t.redis.Del(ctx, processedKey(messageID)).Err(); err != nil {
		return fmt.Errorf("tracker: release: %w", err)
	}
	return nil
}

func processedKey(messageID string) string {
	return fmt.Sprintf("processed_message:%s", messageID)
}

// MemoryMessageTracker is the single-instance fallback when Redis is absent
type MemoryMessageTracker struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
	now  func() time.Time
}

func NewMemoryMessageTracker(ttl time.Duration) *MemoryMessageTracker {
	return &MemoryMessageTracker{
		seen: make(map[string]time.Time),
		ttl:  ttl,
		now:  time.Now,
	}
}

func (t *MemoryMessageTracker) MarkProcessed(_ context.Context, messageID string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if at, ok := t.seen[messageID]; ok && now.Sub(at) < t.ttl {
		return false, nil
	}
	t.seen[messageID] = now
	return true, nil
}

func (t *MemoryMessageTracker) Release(_ context.Context, messageID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.seen, messageID)
	return nil
}

// Prune drops ids older than the TTL and returns how many were removed.
func (t *MemoryMessageTracker) Prune() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	removed := 0
	for id, at := range t.seen {
		if now.Sub(at) >= t.ttl {
			delete(t.seen, id)
			removed++
		}
	}
	return removed
}
