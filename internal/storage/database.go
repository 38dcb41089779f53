package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Ananth-NQI/restobot-backend/internal/models"
)

// DatabaseStore keeps the reservation ledger in PostgreSQL through gorm
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore wraps an open gorm connection
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

func (d *DatabaseStore) CreateReservation(ctx context.Context, r *models.Reservation) (*models.Reservation, error) {
	if r.ReservationID == "" {
		return nil, fmt.Errorf("reservation id is required")
	}
	if r.Status == "" {
		r.Status = models.ReservationStatusPendingConfirmation
	}
	if err := d.db.WithContext(ctx).Create(r).Error; err != nil {
		return nil, fmt.Errorf("create reservation: %w", err)
	}
	return r, nil
}

func (d *DatabaseStore) GetReservation(ctx context.Context, reservationID string) (*models.Reservation, error) {
	var r models.Reservation
	err := d.db.WithContext(ctx).Where("reservation_id = ?", reservationID).First(&r).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return &r, nil
}

func (d *DatabaseStore) ListReservations(ctx context.Context, filter models.ReservationFilter) ([]*models.Reservation, error) {
	query := d.db.WithContext(ctx).Model(&models.Reservation{})
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var reservations []*models.Reservation
	if err := query.Order("id desc").Find(&reservations).Error; err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return reservations, nil
}

func (d *DatabaseStore) UpdateReservationStatus(ctx context.Context, reservationID string, status string) error {
	if !validStatus(status) {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}

	result := d.db.WithContext(ctx).Model(&models.Reservation{}).
		Where("reservation_id = ?", reservationID).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("update reservation status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrReservationNotFound
	}
	return nil
}

func (d *DatabaseStore) CountReservations(ctx context.Context) (int64, error) {
	var count int64
	if err := d.db.WithContext(ctx).Model(&models.Reservation{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count reservations: %w", err)
	}
	return count, nil
}

func (d *DatabaseStore) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *DatabaseStore) Kind() string { return "PostgreSQL Database" }
