package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("SESSION_TIMEOUT", "")
	t.Setenv("ENVIRONMENT", "")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, 30*time.Minute, cfg.SessionTimeout)
	assert.Equal(t, 5*time.Minute, cfg.SessionSweepInterval)
	assert.Equal(t, 24*time.Hour, cfg.MessageDedupeTTL)
	assert.Equal(t, 20, cfg.MaxPartySize)
	assert.Empty(t, cfg.CancelKeyword)
	assert.False(t, cfg.WebhookValidationEnabled())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("PUBLIC_BASE_URL", "https://bot.example.com/")
	t.Setenv("SESSION_TIMEOUT", "10")
	t.Setenv("SESSION_SWEEP_INTERVAL", "1")
	t.Setenv("MESSAGE_DEDUPE_TTL", "2h")
	t.Setenv("USE_MEMORY_STORE", "true")
	t.Setenv("RESERVATION_CANCEL_KEYWORD", "ยกเลิก")
	t.Setenv("MAX_PARTY_SIZE", "8")
	t.Setenv("TWILIO_ACCOUNT_SID", "AC123")
	t.Setenv("TWILIO_AUTH_TOKEN", "token")
	t.Setenv("TWILIO_WHATSAPP_FROM", "whatsapp:+14155238886")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "https://bot.example.com", cfg.PublicBaseURL)
	assert.Equal(t, 10*time.Minute, cfg.SessionTimeout)
	assert.Equal(t, time.Minute, cfg.SessionSweepInterval)
	assert.Equal(t, 2*time.Hour, cfg.MessageDedupeTTL)
	assert.True(t, cfg.UseMemoryStore)
	assert.Equal(t, "ยกเลิก", cfg.CancelKeyword)
	assert.Equal(t, 8, cfg.MaxPartySize)
	assert.True(t, cfg.TwilioConfigured())
	assert.True(t, cfg.IsProduction())
	assert.True(t, cfg.WebhookValidationEnabled())
}

func TestFromEnvInvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"SESSION_TIMEOUT", "abc"},
		{"SESSION_TIMEOUT", "0"},
		{"SESSION_SWEEP_INTERVAL", "-3"},
		{"MESSAGE_DEDUPE_TTL", "forever"},
		{"MAX_PARTY_SIZE", "0"},
		{"USE_MEMORY_STORE", "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := FromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

const sampleRestaurant = `{
  "restaurant_name": "ครัวคุณยาย",
  "top_menu": [
    {"emoji": "🍜", "name": "ก๋วยเตี๋ยวเรือ", "price": 60},
    {"emoji": "🍛", "name": "ข้าวกะเพรา", "price": 55.5}
  ],
  "promo_text": "ลด 10% ทุกวันพุธ",
  "hours": "เปิดทุกวัน 10:00-21:00",
  "address": "123 ถนนสุขุมวิท กรุงเทพฯ",
  "order_links": {
    "LINE MAN": "https://lineman.example/kruakhunyai",
    "Grab": "https://grab.example/kruakhunyai",
    "Foodpanda": "https://foodpanda.example/kruakhunyai"
  },
  "phone": "02-123-4567"
}`

func TestParseRestaurant(t *testing.T) {
	r, err := ParseRestaurant([]byte(sampleRestaurant))
	require.NoError(t, err)

	assert.Equal(t, "ครัวคุณยาย", r.Name)
	require.Len(t, r.TopMenu, 2)
	assert.Equal(t, 55.5, r.TopMenu[1].Price)
	assert.Equal(t, "02-123-4567", r.Phone)

	var names []string
	for pair := r.OrderLinks.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	assert.Equal(t, []string{"LINE MAN", "Grab", "Foodpanda"}, names)
}

func TestParseRestaurantRequiresName(t *testing.T) {
	_, err := ParseRestaurant([]byte(`{"phone": "02-000-0000"}`))
	assert.ErrorIs(t, err, ErrRestaurantNameRequired)
}

func TestParseRestaurantMissingOrderLinks(t *testing.T) {
	r, err := ParseRestaurant([]byte(`{"restaurant_name": "x"}`))
	require.NoError(t, err)
	require.NotNil(t, r.OrderLinks)
	assert.Equal(t, 0, r.OrderLinks.Len())
}

func TestLoadRestaurantFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleRestaurant), 0o600))

	r, err := LoadRestaurant(path)
	require.NoError(t, err)
	assert.Equal(t, "ครัวคุณยาย", r.Name)

	_, err = LoadRestaurant(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
