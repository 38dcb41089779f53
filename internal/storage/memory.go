package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Ananth-NQI/restobot-backend/internal/models"
)

// MemoryStore holds the reservation ledger in memory (tests and local runs)
type MemoryStore struct {
	reservations map[string]*models.Reservation
	mu           sync.RWMutex
	counter      uint
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		reservations: make(map[string]*models.Reservation),
	}
}

func (m *MemoryStore) CreateReservation(_ context.Context, r *models.Reservation) (*models.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r.ReservationID == "" {
		return nil, fmt.Errorf("reservation id is required")
	}
	if _, exists := m.reservations[r.ReservationID]; exists {
		return nil, fmt.Errorf("reservation %s already exists", r.ReservationID)
	}

	m.counter++
	now := time.Now()
	stored := *r
	stored.ID = m.counter
	stored.CreatedAt = now
	stored.UpdatedAt = now
	if stored.Status == "" {
		stored.Status = models.ReservationStatusPendingConfirmation
	}

	m.reservations[stored.ReservationID] = &stored
	out := stored
	return &out, nil
}

func (m *MemoryStore) GetReservation(_ context.Context, reservationID string) (*models.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, exists := m.reservations[reservationID]
	if !exists {
		return nil, ErrReservationNotFound
	}
	out := *r
	return &out, nil
}

func (m *MemoryStore) ListReservations(_ context.Context, filter models.ReservationFilter) ([]*models.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]*models.Reservation, 0, len(m.reservations))
	for _, r := range m.reservations {
		if filter.UserID != "" && r.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		out := *r
		results = append(results, &out)
	}

	// Newest first, same as the database store
	sort.Slice(results, func(i, j int) bool { return results[i].ID > results[j].ID })
	if filter.Limit > 0 && len(results) > filter.Limit {
		results = results[:filter.Limit]
	}
	return results, nil
}

func (m *MemoryStore) UpdateReservationStatus(_ context.Context, reservationID string, status string) error {
	if !validStatus(status) {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	r, exists := m.reservations[reservationID]
	if !exists {
		return ErrReservationNotFound
	}
	r.Status = status
	r.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) CountReservations(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.reservations)), nil
}

func (m *MemoryStore) Ping(_ context.Context) error { return nil }

func (m *MemoryStore) Kind() string { return "In-Memory (Testing)" }
