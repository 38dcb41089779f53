package storage

import (
	"context"
	"errors"

	"github.com/Ananth-NQI/restobot-backend/internal/models"
)

var (
	ErrReservationNotFound = errors.New("reservation not found")
	ErrInvalidStatus       = errors.New("invalid reservation status")
)

// Store defines the interface for the reservation ledger
type Store interface {
	CreateReservation(ctx context.Context, r *models.Reservation) (*models.Reservation, error)
	GetReservation(ctx context.Context, reservationID string) (*models.Reservation, error)
	ListReservations(ctx context.Context, filter models.ReservationFilter) ([]*models.Reservation, error)
	UpdateReservationStatus(ctx context.Context, reservationID string, status string) error
	CountReservations(ctx context.Context) (int64, error)

	// Ping reports whether the backing storage is reachable
	Ping(ctx context.Context) error
	// Kind names the backend for health output
	Kind() string
}

func validStatus(status string) bool {
	switch status {
	case models.ReservationStatusPendingConfirmation,
		models.ReservationStatusConfirmed,
		models.ReservationStatusCancelled:
		return true
	}
	return false
}
