package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURI    string
	TelegramToken  string
	TelegramChatID int64
	DeviceID       string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Timezone         string
	DailyContentTime string // HH:MM
	LadderTime       string // HH:MM
	ReminderCap      int
	ExactAlarms      bool
	DispatchTimeout  time.Duration
	CheckInterval    time.Duration

	AIAPIKey  string
	AIBaseURL string
	AIModel   string

	LogLevel string
	LogPath  string

	MetricsAddr string // empty disables the /metrics listener
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env file is optional in production
	}

	cfg := &Config{
		DatabaseURI:      os.Getenv("DATABASE_URI"),
		TelegramToken:    os.Getenv("TELEGRAM_TOKEN"),
		DeviceID:         getEnvOrDefault("DEVICE_ID", "default"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		Timezone:         getEnvOrDefault("TIMEZONE", "Asia/Taipei"),
		DailyContentTime: getEnvOrDefault("DAILY_CONTENT_TIME", "10:00"),
		LadderTime:       getEnvOrDefault("LADDER_TIME", "18:00"),
		AIAPIKey:         os.Getenv("AI_API_KEY"),
		AIBaseURL:        getEnvOrDefault("AI_BASE_URL", "https://openrouter.ai/api/v1"),
		AIModel:          getEnvOrDefault("AI_MODEL", "openai/gpt-4o-mini"),
		LogLevel:         getEnvOrDefault("LOG_LEVEL", "info"),
		LogPath:          os.Getenv("LOG_PATH"),
		MetricsAddr:      os.Getenv("METRICS_ADDR"),
	}

	var err error
	if cfg.TelegramChatID, err = getInt64("TELEGRAM_CHAT_ID", 0); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.ReminderCap, err = getInt("REMINDER_CAP", 10); err != nil {
		return nil, err
	}
	if cfg.ExactAlarms, err = getBool("EXACT_ALARMS", true); err != nil {
		return nil, err
	}
	if cfg.DispatchTimeout, err = getDuration("DISPATCH_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.CheckInterval, err = getDuration("ALARM_CHECK_INTERVAL", time.Minute); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports every required key that is missing or malformed.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURI == "" {
		errs = append(errs, errors.New("DATABASE_URI is required"))
	}
	if c.TelegramToken == "" {
		errs = append(errs, errors.New("TELEGRAM_TOKEN is required"))
	}
	if c.TelegramChatID == 0 {
		errs = append(errs, errors.New("TELEGRAM_CHAT_ID is required"))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err))
	}
	if _, _, err := ParseClock(c.DailyContentTime); err != nil {
		errs = append(errs, fmt.Errorf("DAILY_CONTENT_TIME: %w", err))
	}
	if _, _, err := ParseClock(c.LadderTime); err != nil {
		errs = append(errs, fmt.Errorf("LADDER_TIME: %w", err))
	}
	if c.ReminderCap <= 0 {
		errs = append(errs, errors.New("REMINDER_CAP must be positive"))
	}
	return errors.Join(errs...)
}

// Location returns the configured timezone, falling back to time.Local.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// ParseClock parses an "HH:MM" time of day.
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time of day %q, want HH:MM", s)
	}
	return t.Hour(), t.Minute(), nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getInt64(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
