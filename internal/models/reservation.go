package models

import (
	"gorm.io/gorm"
)

// Reservation is a completed dialogue waiting for staff to confirm by phone.
type Reservation struct {
	gorm.Model
	ReservationID string `json:"reservation_id" gorm:"uniqueIndex"`
	UserID        string `json:"user_id" gorm:"index"`
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	People        string `json:"people"`
	DateTime      string `json:"datetime"`
	Status        string `json:"status"`
}

// Reservation status constants
const (
	ReservationStatusPendingConfirmation = "pending_confirmation"
	ReservationStatusConfirmed           = "confirmed"
	ReservationStatusCancelled           = "cancelled"
)

// ReservationFilter narrows ledger listings.
type ReservationFilter struct {
	UserID string
	Status string
	Limit  int
}
