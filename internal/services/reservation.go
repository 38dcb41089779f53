package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Ananth-NQI/restobot-backend/internal/models"
	"github.com/Ananth-NQI/restobot-backend/internal/storage"
	"github.com/Ananth-NQI/restobot-backend/pkg/logging"
)

// ReservationRecorder stores a finished dialogue for staff follow-up
type ReservationRecorder interface {
	Record(ctx context.Context, userID string, fields models.ReservationFields) (*models.Reservation, error)
}

// ReservationService writes completed reservations to the ledger and tells staff
type ReservationService struct {
	store          storage.Store
	email          EmailSender
	staffEmail     string
	restaurantName string
	logger         *logging.Logger
}

// NewReservationService creates the recorder. email may be nil.
func NewReservationService(store storage.Store, email EmailSender, staffEmail, restaurantName string, logger *logging.Logger) *ReservationService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ReservationService{
		store:          store,
		email:          email,
		staffEmail:     staffEmail,
		restaurantName: restaurantName,
		logger:         logger,
	}
}

// Record saves the reservation. A failed staff e-mail is logged, not returned.
func (s *ReservationService) Record(ctx context.Context, userID string, fields models.ReservationFields) (*models.Reservation, error) {
	reservation := &models.Reservation{
		ReservationID: "RSV-" + uuid.NewString(),
		UserID:        userID,
		Name:          fields.Name,
		Phone:         fields.Phone,
		People:        fields.People,
		DateTime:      fields.DateTime,
		Status:        models.ReservationStatusPendingConfirmation,
	}

	created, err := s.store.CreateReservation(ctx, reservation)
	if err != nil {
		return nil, fmt.Errorf("record reservation: %w", err)
	}
	s.logger.Info("reservation recorded", "reservation_id", created.ReservationID, "user_id", userID)

	if s.email != nil && s.staffEmail != "" {
		if err := s.email.Send(ctx, s.staffMessage(created)); err != nil {
			s.logger.Warn("failed to notify staff", "reservation_id", created.ReservationID, "error", err)
		}
	}
	return created, nil
}

func (s *ReservationService) staffMessage(r *models.Reservation) EmailMessage {
	return EmailMessage{
		To:      s.staffEmail,
		Subject: fmt.Sprintf("[%s] New table reservation %s", s.restaurantName, r.ReservationID),
		Body: fmt.Sprintf(
			"Reservation: %s\nName: %s\nPhone: %s\nPeople: %s\nDate/time: %s\n\nPlease call the guest to confirm.",
			r.ReservationID, r.Name, r.Phone, r.People, r.DateTime),
	}
}
