package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URI", "postgres://localhost/arcana")
	t.Setenv("TELEGRAM_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_ID", "42")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(42), cfg.TelegramChatID)
	assert.Equal(t, "default", cfg.DeviceID)
	assert.Equal(t, "10:00", cfg.DailyContentTime)
	assert.Equal(t, "18:00", cfg.LadderTime)
	assert.Equal(t, 10, cfg.ReminderCap)
	assert.True(t, cfg.ExactAlarms)
	assert.Equal(t, 30*time.Second, cfg.DispatchTimeout)
	assert.Equal(t, time.Minute, cfg.CheckInterval)
	assert.NoError(t, cfg.Validate())
}

func TestLoadRejectsMalformedNumbers(t *testing.T) {
	t.Setenv("REMINDER_CAP", "ten")

	_, err := Load()
	assert.ErrorContains(t, err, "REMINDER_CAP")
}

func TestValidateReportsMissingKeys(t *testing.T) {
	cfg := &Config{
		Timezone:         "Nowhere/Special",
		DailyContentTime: "25:00",
		LadderTime:       "18:00",
		ReminderCap:      10,
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "DATABASE_URI")
	assert.ErrorContains(t, err, "TELEGRAM_TOKEN")
	assert.ErrorContains(t, err, "TELEGRAM_CHAT_ID")
	assert.ErrorContains(t, err, "TIMEZONE")
	assert.ErrorContains(t, err, "DAILY_CONTENT_TIME")
}

func TestParseClock(t *testing.T) {
	h, m, err := ParseClock("07:45")
	require.NoError(t, err)
	assert.Equal(t, 7, h)
	assert.Equal(t, 45, m)

	_, _, err = ParseClock("7pm")
	assert.Error(t, err)
}
