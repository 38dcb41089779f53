package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/Ananth-NQI/restobot-backend/internal/middleware"
	"github.com/Ananth-NQI/restobot-backend/internal/models"
	"github.com/Ananth-NQI/restobot-backend/internal/services"
	"github.com/Ananth-NQI/restobot-backend/internal/storage"
	"github.com/Ananth-NQI/restobot-backend/pkg/logging"
)

const maxListLimit = 200

// AdminHandler handles staff operations on the reservation ledger
type AdminHandler struct {
	store    storage.Store
	sessions *services.SessionManager
	logger   *logging.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(store storage.Store, sessions *services.SessionManager, logger *logging.Logger) *AdminHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminHandler{store: store, sessions: sessions, logger: logger}
}

// ListReservations returns recorded reservations, newest first
func (h *AdminHandler) ListReservations(c *fiber.Ctx) error {
	filter := models.ReservationFilter{
		UserID: c.Query("user_id"),
		Status: c.Query("status"),
		Limit:  50,
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "limit must be a positive integer",
			})
		}
		filter.Limit = min(limit, maxListLimit)
	}

	reservations, err := h.store.ListReservations(c.UserContext(), filter)
	if err != nil {
		h.logger.Error("failed to list reservations", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch reservations",
		})
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"reservations": reservations,
		"count":        len(reservations),
	})
}

// GetReservation returns one reservation by its public id
func (h *AdminHandler) GetReservation(c *fiber.Ctx) error {
	reservation, err := h.store.GetReservation(c.UserContext(), c.Params("reservationID"))
	if errors.Is(err, storage.ErrReservationNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Reservation not found",
		})
	}
	if err != nil {
		h.logger.Error("failed to get reservation", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch reservation",
		})
	}
	return c.JSON(fiber.Map{
		"success":     true,
		"reservation": reservation,
	})
}

// UpdateReservationStatus confirms or cancels a reservation after staff follow-up
func (h *AdminHandler) UpdateReservationStatus(c *fiber.Ctx) error {
	reservationID := c.Params("reservationID")

	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	err := h.store.UpdateReservationStatus(c.UserContext(), reservationID, req.Status)
	switch {
	case errors.Is(err, storage.ErrInvalidStatus):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Status must be one of pending_confirmation, confirmed, cancelled",
		})
	case errors.Is(err, storage.ErrReservationNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Reservation not found",
		})
	case err != nil:
		h.logger.Error("failed to update reservation", "reservation_id", reservationID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update reservation",
		})
	}

	staff := ""
	if claims, ok := middleware.AdminClaims(c); ok {
		staff = claims.Subject
	}
	h.logger.Info("reservation status updated", "reservation_id", reservationID, "status", req.Status, "staff", staff)
	return c.JSON(fiber.Map{
		"success":        true,
		"reservation_id": reservationID,
		"status":         req.Status,
	})
}

// GetSessionStats reports dialogues currently in progress and the ledger size
func (h *AdminHandler) GetSessionStats(c *fiber.Ctx) error {
	total, err := h.store.CountReservations(c.UserContext())
	if err != nil {
		h.logger.Error("failed to count reservations", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to count reservations",
		})
	}
	return c.JSON(fiber.Map{
		"success":            true,
		"stats":              h.sessions.GetSessionStats(),
		"reservations_total": total,
	})
}
