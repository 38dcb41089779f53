package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/Ananth-NQI/restobot-backend/database"
	"github.com/Ananth-NQI/restobot-backend/internal/config"
	"github.com/Ananth-NQI/restobot-backend/internal/handlers"
	"github.com/Ananth-NQI/restobot-backend/internal/jobs"
	"github.com/Ananth-NQI/restobot-backend/internal/metrics"
	"github.com/Ananth-NQI/restobot-backend/internal/models"
	"github.com/Ananth-NQI/restobot-backend/internal/routes"
	"github.com/Ananth-NQI/restobot-backend/internal/services"
	"github.com/Ananth-NQI/restobot-backend/internal/storage"
	"github.com/Ananth-NQI/restobot-backend/pkg/logging"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}

	appLogger := logging.New(cfg.LogLevel)

	restaurant, err := config.LoadRestaurant(cfg.RestaurantConfig)
	if err != nil {
		log.Fatalf("❌ Failed to load restaurant config: %v", err)
	}

	// Initialize storage
	var store storage.Store
	if cfg.UseMemoryStore {
		appLogger.Warn("⚠️  Using in-memory storage (not for production!)")
		store = storage.NewMemoryStore()
	} else {
		appLogger.Info("📦 Connecting to PostgreSQL database...")
		db, err := database.Connect(cfg)
		if err != nil {
			log.Fatalf("❌ Failed to connect database: %v", err)
		}
		appLogger.Info("🔄 Running database migrations...")
		if err := database.Migrate(db); err != nil {
			log.Fatalf("❌ Failed to migrate database: %v", err)
		}
		store = storage.NewDatabaseStore(db)
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	botMetrics := metrics.NewBotMetrics(registry)

	// Redelivery filter
	var tracker services.MessageTracker
	var pruner jobs.Pruner
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			appLogger.Warn("⚠️  Redis unreachable, using in-memory message tracker", "addr", cfg.RedisAddr, "error", err)
			_ = redisClient.Close()
		} else {
			tracker = services.NewRedisMessageTracker(redisClient, cfg.MessageDedupeTTL, otel.Tracer("restobot.tracker"))
			defer redisClient.Close()
		}
	}
	if tracker == nil {
		memoryTracker := services.NewMemoryMessageTracker(cfg.MessageDedupeTTL)
		tracker, pruner = memoryTracker, memoryTracker
	}

	// Outbound delivery
	var gateway services.Gateway
	twilioService, err := services.NewTwilioService(services.TwilioConfig{
		AccountSID:           cfg.TwilioAccountSID,
		AuthToken:            cfg.TwilioAuthToken,
		From:                 cfg.TwilioWhatsAppFrom,
		QuickReplyContentSID: cfg.TwilioQuickReplyContent,
	}, appLogger)
	if errors.Is(err, services.ErrTwilioNotConfigured) {
		appLogger.Warn("⚠️  Twilio credentials not found - replies will only be logged")
		gateway = services.NewLogGateway(appLogger)
	} else {
		gateway = twilioService
	}

	// Staff notification
	var email services.EmailSender = services.NewStubEmailSender(appLogger)
	if sg := services.NewSendGridSender(services.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, appLogger); sg != nil {
		email = sg
	}

	// Conversation
	sessions := services.NewSessionManager(cfg.SessionTimeout, services.WithExpiryHook(func(models.Session) {
		botMetrics.ObserveSessionEnded("expired")
	}))
	metrics.RegisterActiveSessions(registry, func() int { return len(sessions.GetActiveSessions()) })

	convOpts := []services.ConversationOption{
		services.WithConversationLogger(appLogger.With("component", "conversation")),
		services.WithCancelKeyword(cfg.CancelKeyword),
	}
	if cfg.StrictValidation {
		convOpts = append(convOpts, services.StrictValidators(cfg.MaxPartySize)...)
	}
	conversation := services.NewConversation(sessions, services.NewCommandRouter(restaurant), restaurant, convOpts...)
	composer := services.NewReplyComposer()

	bot := services.NewBotService(services.BotDeps{
		Conversation: conversation,
		Composer:     composer,
		Gateway:      gateway,
		Tracker:      tracker,
		Recorder:     services.NewReservationService(store, email, cfg.StaffEmail, restaurant.Name, appLogger),
		Metrics:      botMetrics,
		Logger:       appLogger.With("component", "bot"),
	})

	// Session sweeper
	expiryJob := jobs.NewSessionExpiryJob(jobs.SessionExpiryConfig{
		Sessions: sessions,
		Interval: cfg.SessionSweepInterval,
		Notify:   cfg.SessionExpiryNotice,
		Composer: composer,
		Gateway:  gateway,
		Pruner:   pruner,
		Logger:   appLogger.With("component", "session_expiry"),
	})
	expiryJob.Start(context.Background())

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName:     "Restobot " + version,
		JSONEncoder: sonic.Marshal,
		JSONDecoder: sonic.Unmarshal,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PATCH, OPTIONS",
	}))

	routes.SetupRoutes(app, routes.Deps{
		Config:   cfg,
		WhatsApp: handlers.NewWhatsAppHandler(bot, appLogger.With("component", "webhook")),
		Health:   handlers.NewHealthHandler(restaurant.Name, version, store, func() int { return len(sessions.GetActiveSessions()) }),
		Admin:    handlers.NewAdminHandler(store, sessions, appLogger.With("component", "admin")),
		Metrics:  registry,
		Logger:   appLogger,
	})

	// Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-quit
		appLogger.Info("🛑 Gracefully shutting down...")
		expiryJob.Stop()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			appLogger.Error("server shutdown failed", "error", err)
		}
	}()

	log.Println("========================================")
	log.Printf("🚀 %s bot starting on port %s", restaurant.Name, cfg.Port)
	log.Printf("📊 Storage: %s", store.Kind())
	log.Printf("🌍 Environment: %s", cfg.Environment)
	log.Printf("📱 WhatsApp: %s", whatsAppStatus(cfg))
	log.Printf("⏱️  Session timeout: %s", cfg.SessionTimeout)
	log.Println("========================================")

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Server stopped: %v", err)
	}
}

func whatsAppStatus(cfg *config.Config) string {
	if !cfg.TwilioConfigured() {
		return "Not configured"
	}
	return "Configured"
}
