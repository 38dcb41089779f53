package services

import (
	"sync"
	"time"

	"github.com/Ananth-NQI/restobot-backend/internal/models"
)

// SessionManager holds at most one reservation session per user. Turns for
// one user are serialized with Lock; different users only share the short
// map lock.
type SessionManager struct {
	mu         sync.Mutex
	sessions   map[string]models.Session
	locks      map[string]*userLock
	sessionTTL time.Duration
	now        func() time.Time
	onExpire   func(models.Session)
}

type userLock struct {
	mu  sync.Mutex
	ref int
}

// SessionOption configures a SessionManager
type SessionOption func(*SessionManager)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) SessionOption {
	return func(sm *SessionManager) { sm.now = now }
}

// WithExpiryHook is called once for every session dropped for inactivity.
func WithExpiryHook(fn func(models.Session)) SessionOption {
	return func(sm *SessionManager) { sm.onExpire = fn }
}

// NewSessionManager creates a new session manager. A zero ttl disables expiry.
func NewSessionManager(ttl time.Duration, opts ...SessionOption) *SessionManager {
	sm := &SessionManager{
		sessions:   make(map[string]models.Session),
		locks:      make(map[string]*userLock),
		sessionTTL: ttl,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(sm)
	}
	return sm
}

// Lock blocks until the caller owns userID's turn and returns the release func.
func (sm *SessionManager) Lock(userID string) (unlock func()) {
	sm.mu.Lock()
	l, ok := sm.locks[userID]
	if !ok {
		l = &userLock{}
		sm.locks[userID] = l
	}
	l.ref++
	sm.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		sm.mu.Lock()
		l.ref--
		if l.ref == 0 {
			delete(sm.locks, userID)
		}
		sm.mu.Unlock()
	}
}

// Get returns a copy of the user's session. A session idle past the TTL is
// dropped and reported as absent.
func (sm *SessionManager) Get(userID string) (models.Session, bool) {
	sm.mu.Lock()
	session, exists := sm.sessions[userID]
	expired := exists && sm.expired(session)
	if expired {
		delete(sm.sessions, userID)
	}
	sm.mu.Unlock()

	if expired {
		sm.fireExpired(session)
		return models.Session{}, false
	}
	return session, exists
}

// Put stores the session and marks it active now.
func (sm *SessionManager) Put(session models.Session) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	session.LastActive = sm.now()
	sm.sessions[session.UserID] = session
}

// Remove deletes the user's session and reports whether one existed.
func (sm *SessionManager) Remove(userID string) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	_, exists := sm.sessions[userID]
	delete(sm.sessions, userID)
	return exists
}

// ExpireIdle removes every session idle past the TTL. Each removal happens
// under that user's lock so it never interleaves with a turn.
func (sm *SessionManager) ExpireIdle() []models.Session {
	if sm.sessionTTL <= 0 {
		return nil
	}

	sm.mu.Lock()
	var candidates []string
	for userID, session := range sm.sessions {
		if sm.expired(session) {
			candidates = append(candidates, userID)
		}
	}
	sm.mu.Unlock()

	var expired []models.Session
	for _, userID := range candidates {
		unlock := sm.Lock(userID)

		sm.mu.Lock()
		session, exists := sm.sessions[userID]
		if exists && sm.expired(session) {
			delete(sm.sessions, userID)
			expired = append(expired, session)
		} else {
			exists = false
		}
		sm.mu.Unlock()

		unlock()
		if exists {
			sm.fireExpired(session)
		}
	}
	return expired
}

// Count returns the number of sessions held, expired or not.
func (sm *SessionManager) Count() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return len(sm.sessions)
}

// GetActiveSessions returns copies of all live sessions (for monitoring)
func (sm *SessionManager) GetActiveSessions() []models.Session {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	active := make([]models.Session, 0, len(sm.sessions))
	for _, session := range sm.sessions {
		if !sm.expired(session) {
			active = append(active, session)
		}
	}
	return active
}

// SessionStats provides session statistics
type SessionStats struct {
	ActiveSessions  int                 `json:"active_sessions"`
	TotalSessions   int                 `json:"total_sessions"`
	SessionsByStep  map[models.Step]int `json:"sessions_by_step"`
	AverageDuration float64             `json:"average_duration_minutes"`
	SessionTTL      float64             `json:"session_ttl_minutes"`
}

// GetSessionStats returns current session statistics
func (sm *SessionManager) GetSessionStats() *SessionStats {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	stats := &SessionStats{
		TotalSessions:  len(sm.sessions),
		SessionsByStep: make(map[models.Step]int),
		SessionTTL:     sm.sessionTTL.Minutes(),
	}

	now := sm.now()
	totalDuration := 0.0
	for _, session := range sm.sessions {
		if sm.expired(session) {
			continue
		}
		stats.ActiveSessions++
		stats.SessionsByStep[session.Step]++
		totalDuration += now.Sub(session.CreatedAt).Minutes()
	}
	if stats.ActiveSessions > 0 {
		stats.AverageDuration = totalDuration / float64(stats.ActiveSessions)
	}
	return stats
}

func (sm *SessionManager) expired(session models.Session) bool {
	return sm.sessionTTL > 0 && session.IdleFor(sm.now()) > sm.sessionTTL
}

func (sm *SessionManager) fireExpired(session models.Session) {
	if sm.onExpire != nil {
		sm.onExpire(session)
	}
}
