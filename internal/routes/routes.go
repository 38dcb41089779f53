package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Ananth-NQI/restobot-backend/internal/config"
	"github.com/Ananth-NQI/restobot-backend/internal/handlers"
	"github.com/Ananth-NQI/restobot-backend/internal/middleware"
	"github.com/Ananth-NQI/restobot-backend/pkg/logging"
)

// Deps carries everything the HTTP surface needs
type Deps struct {
	Config   *config.Config
	WhatsApp *handlers.WhatsAppHandler
	Health   *handlers.HealthHandler
	Admin    *handlers.AdminHandler
	Metrics  prometheus.Gatherer
	Logger   *logging.Logger
}

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, deps Deps) {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Default()
	}
	cfg := deps.Config

	app.Get("/", deps.Health.Root)
	app.Get("/health", deps.Health.Check)

	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{})))
	}

	// ========== WEBHOOK ROUTES ==========
	webhooks := app.Group("/webhook")
	if cfg.WebhookValidationEnabled() {
		webhooks.Post("/whatsapp",
			middleware.ValidateTwilioSignature(cfg.TwilioAuthToken, cfg.PublicBaseURL, logger),
			deps.WhatsApp.HandleWebhook)
		logger.Info("🔒 WhatsApp webhook signature validation ENABLED")
	} else {
		webhooks.Post("/whatsapp", deps.WhatsApp.HandleWebhook)
		logger.Warn("⚠️  WhatsApp webhook validation DISABLED")
	}

	// Local testing without Twilio
	if !cfg.IsProduction() {
		app.Post("/test/whatsapp", deps.WhatsApp.HandleTestWebhook)
	}

	// ========== ADMIN ROUTES ==========
	if deps.Admin != nil {
		admin := app.Group("/admin", middleware.AdminJWT(cfg.AdminJWTSecret))
		admin.Get("/reservations", deps.Admin.ListReservations)
		admin.Get("/reservations/:reservationID", deps.Admin.GetReservation)
		admin.Patch("/reservations/:reservationID", deps.Admin.UpdateReservationStatus)
		admin.Get("/sessions", deps.Admin.GetSessionStats)
	}
}
