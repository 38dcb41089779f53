package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Ananth-NQI/restobot-backend/internal/config"
	"github.com/Ananth-NQI/restobot-backend/internal/models"
	"github.com/Ananth-NQI/restobot-backend/pkg/logging"
)

const testRestaurantJSON = `{
  "restaurant_name": "ครัวคุณยาย",
  "top_menu": [
    {"emoji": "🍜", "name": "ก๋วยเตี๋ยวเรือ", "price": 60},
    {"emoji": "🍛", "name": "ข้าวกะเพรา", "price": 55.5}
  ],
  "promo_text": "ลด 10% ทุกวันพุธ",
  "hours": "เปิดทุกวัน 10:00-21:00",
  "address": "123 ถนนสุขุมวิท กรุงเทพฯ",
  "order_links": {
    "LINE MAN": "https://lineman.example/kruakhunyai",
    "Grab": "https://grab.example/kruakhunyai"
  },
  "phone": "02-123-4567"
}`

func testRestaurant(t *testing.T) *config.Restaurant {
	t.Helper()
	r, err := config.ParseRestaurant([]byte(testRestaurantJSON))
	require.NoError(t, err)
	return r
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestConversation(t *testing.T, sessions *SessionManager, opts ...ConversationOption) *Conversation {
	t.Helper()
	restaurant := testRestaurant(t)
	opts = append([]ConversationOption{WithConversationLogger(logging.Discard())}, opts...)
	return NewConversation(sessions, NewCommandRouter(restaurant), restaurant, opts...)
}

// recordingGateway keeps every reply it is asked to send
type recordingGateway struct {
	mu      sync.Mutex
	replies []Reply
	err     error
}

func (g *recordingGateway) Send(_ context.Context, reply Reply) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return g.err
	}
	g.replies = append(g.replies, reply)
	return nil
}

func (g *recordingGateway) Sent() []Reply {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Reply, len(g.replies))
	copy(out, g.replies)
	return out
}

type stubRecorder struct {
	mu    sync.Mutex
	calls []models.ReservationFields
	err   error
}

func (r *stubRecorder) Record(_ context.Context, userID string, fields models.ReservationFields) (*models.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, fields)
	if r.err != nil {
		return nil, r.err
	}
	return &models.Reservation{ReservationID: "RSV-test", UserID: userID}, nil
}

type failingTracker struct{}

func (failingTracker) MarkProcessed(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func (failingTracker) Release(context.Context, string) error {
	return errors.New("redis down")
}
