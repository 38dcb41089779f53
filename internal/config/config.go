package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all server configuration
type Config struct {
	Port             string
	Environment      string
	LogLevel         string
	RestaurantConfig string
	PublicBaseURL    string

	// Twilio WhatsApp gateway
	TwilioAccountSID         string
	TwilioAuthToken          string
	TwilioWhatsAppFrom       string
	TwilioQuickReplyContent  string
	DisableWebhookValidation bool

	// Reservation ledger
	UseMemoryStore         bool
	DBHost                 string
	DBPort                 string
	DBUser                 string
	DBPass                 string
	DBName                 string
	InstanceConnectionName string

	// Redelivery filter
	RedisAddr        string
	RedisPassword    string
	MessageDedupeTTL time.Duration

	// Reservation dialogue
	SessionTimeout       time.Duration
	SessionSweepInterval time.Duration
	SessionExpiryNotice  bool
	CancelKeyword        string
	StrictValidation     bool
	MaxPartySize         int

	// Admin + staff notification
	AdminJWTSecret    string
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	StaffEmail        string
}

// Load reads .env files (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		if err := godotenv.Load("environments/.env.development"); err != nil {
			log.Println("⚠️  No .env file found - checking environment variables")
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables with defaults.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:                 "8000",
		Environment:          "development",
		LogLevel:             "info",
		RestaurantConfig:     "config.json",
		DBHost:               "localhost",
		DBPort:               "5432",
		DBUser:               "postgres",
		DBName:               "restobot",
		MessageDedupeTTL:     24 * time.Hour,
		SessionTimeout:       30 * time.Minute,
		SessionSweepInterval: 5 * time.Minute,
		MaxPartySize:         20,
		SendGridFromName:     "Restobot",
	}

	setString(&cfg.Port, "PORT")
	setString(&cfg.Environment, "ENVIRONMENT")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.RestaurantConfig, "RESTAURANT_CONFIG")
	setString(&cfg.PublicBaseURL, "PUBLIC_BASE_URL")
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")

	setString(&cfg.TwilioAccountSID, "TWILIO_ACCOUNT_SID")
	setString(&cfg.TwilioAuthToken, "TWILIO_AUTH_TOKEN")
	setString(&cfg.TwilioWhatsAppFrom, "TWILIO_WHATSAPP_FROM")
	setString(&cfg.TwilioQuickReplyContent, "TWILIO_QUICK_REPLY_CONTENT_SID")

	setString(&cfg.DBHost, "DB_HOST")
	setString(&cfg.DBPort, "DB_PORT")
	setString(&cfg.DBUser, "DB_USER")
	setString(&cfg.DBPass, "DB_PASS")
	setString(&cfg.DBName, "DB_NAME")
	setString(&cfg.InstanceConnectionName, "INSTANCE_CONNECTION_NAME")

	setString(&cfg.RedisAddr, "REDIS_ADDR")
	setString(&cfg.RedisPassword, "REDIS_PASSWORD")

	setString(&cfg.CancelKeyword, "RESERVATION_CANCEL_KEYWORD")

	setString(&cfg.AdminJWTSecret, "ADMIN_JWT_SECRET")
	setString(&cfg.SendGridAPIKey, "SENDGRID_API_KEY")
	setString(&cfg.SendGridFromEmail, "SENDGRID_FROM_EMAIL")
	setString(&cfg.SendGridFromName, "SENDGRID_FROM_NAME")
	setString(&cfg.StaffEmail, "STAFF_EMAIL")

	var err error
	if cfg.DisableWebhookValidation, err = getBool("DISABLE_WEBHOOK_VALIDATION", false); err != nil {
		return nil, err
	}
	if cfg.UseMemoryStore, err = getBool("USE_MEMORY_STORE", false); err != nil {
		return nil, err
	}
	if cfg.SessionExpiryNotice, err = getBool("SESSION_EXPIRY_NOTICE", false); err != nil {
		return nil, err
	}
	if cfg.StrictValidation, err = getBool("RESERVATION_STRICT_VALIDATION", false); err != nil {
		return nil, err
	}

	// SESSION_TIMEOUT and SESSION_SWEEP_INTERVAL are in minutes
	if cfg.SessionTimeout, err = getMinutes("SESSION_TIMEOUT", cfg.SessionTimeout); err != nil {
		return nil, err
	}
	if cfg.SessionSweepInterval, err = getMinutes("SESSION_SWEEP_INTERVAL", cfg.SessionSweepInterval); err != nil {
		return nil, err
	}
	if v := os.Getenv("MESSAGE_DEDUPE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid MESSAGE_DEDUPE_TTL: %w", err)
		}
		cfg.MessageDedupeTTL = d
	}

	if v := os.Getenv("MAX_PARTY_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid MAX_PARTY_SIZE: %w", err)
		}
		if n < 1 {
			return nil, fmt.Errorf("invalid MAX_PARTY_SIZE: must be at least 1")
		}
		cfg.MaxPartySize = n
	}

	return cfg, nil
}

// IsProduction reports whether the service runs on Cloud Run with Cloud SQL.
func (c *Config) IsProduction() bool {
	return c.InstanceConnectionName != "" || c.Environment == "production"
}

// TwilioConfigured reports whether outbound WhatsApp delivery is possible.
func (c *Config) TwilioConfigured() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioWhatsAppFrom != ""
}

// WebhookValidationEnabled is false in development or when explicitly disabled.
func (c *Config) WebhookValidationEnabled() bool {
	return c.Environment != "development" && !c.DisableWebhookValidation
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func getBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getMinutes(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	m, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if m <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return time.Duration(m) * time.Minute, nil
}
