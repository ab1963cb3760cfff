package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hray3182/arcana/internal/alarm"
	"github.com/hray3182/arcana/internal/bot"
	"github.com/hray3182/arcana/internal/bot/handlers"
	"github.com/hray3182/arcana/internal/config"
	"github.com/hray3182/arcana/internal/content"
	"github.com/hray3182/arcana/internal/database"
	"github.com/hray3182/arcana/internal/lifecycle"
	"github.com/hray3182/arcana/internal/logger"
	"github.com/hray3182/arcana/internal/metrics"
	"github.com/hray3182/arcana/internal/notify"
	"github.com/hray3182/arcana/internal/reminder"
	"github.com/hray3182/arcana/internal/repository"
	"github.com/hray3182/arcana/internal/state"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	zlog, err := logger.New(logger.Options{Level: cfg.LogLevel, Path: cfg.LogPath})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := run(cfg, zlog); err != nil && !errors.Is(err, context.Canceled) {
		zlog.Error("reminderd stopped", zap.Error(err))
		_ = zlog.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loc := cfg.Location()

	// Connect to database
	db, err := database.New(ctx, cfg.DatabaseURI)
	if err != nil {
		return err
	}
	defer db.Close()
	zlog.Info("connected to database")

	if err := db.Migrate(ctx, zlog); err != nil {
		return err
	}

	accounts := repository.NewAccountRepository(db)
	sessions := repository.NewSessionRepository(db)
	notifications := repository.NewNotificationRepository(db)

	var kv state.KV
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return err
		}
		kv = state.NewRedisKV(rdb)
		zlog.Info("reminder state in redis", zap.String("addr", cfg.RedisAddr))
	} else {
		kv = state.NewMemoryKV()
		zlog.Warn("REDIS_ADDR not set, reminder state will not survive restarts")
	}
	st := state.NewReminders(kv, cfg.DeviceID, zlog)

	clock := alarm.New(alarm.AllowExact(cfg.ExactAlarms), cfg.CheckInterval, zlog)

	opts := reminder.Options{Location: loc}
	if opts.DailyHour, opts.DailyMinute, err = config.ParseClock(cfg.DailyContentTime); err != nil {
		return err
	}
	if opts.LadderHour, opts.LadderMinute, err = config.ParseClock(cfg.LadderTime); err != nil {
		return err
	}
	scheduler := reminder.NewScheduler(clock, st, opts, zlog)

	tgAPI, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return err
	}

	dispatcher := reminder.NewDispatcher(reminder.DispatcherConfig{
		DeviceID: cfg.DeviceID,
		Cap:      cfg.ReminderCap,
		Timeout:  cfg.DispatchTimeout,
	}, scheduler, st, sessions, accounts, notifications, notify.NewTelegram(tgAPI, cfg.TelegramChatID), zlog)

	// Initialize AI client (optional)
	if cfg.AIAPIKey != "" {
		dispatcher.WithContent(content.New(cfg.AIAPIKey, cfg.AIBaseURL, cfg.AIModel, loc))
		zlog.Info("daily teaser enabled", zap.String("model", cfg.AIModel))
	}

	app := lifecycle.New(cfg.DeviceID, scheduler, st, clock, sessions, accounts, zlog)
	now := time.Now()
	if err := app.Boot(ctx, now); err != nil {
		zlog.Warn("boot recovery incomplete", zap.Error(err))
	}
	if err := app.Start(ctx, now); err != nil {
		zlog.Warn("initial start failed", zap.Error(err))
	}

	go clock.Start(ctx, dispatcher)
	defer clock.Wait()

	if cfg.MetricsAddr != "" {
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: metrics.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				zlog.Error("metrics listener failed", zap.Error(err))
			}
		}()
		defer srv.Close()
		zlog.Info("serving metrics", zap.String("addr", cfg.MetricsAddr))
	}

	h := handlers.New(tgAPI, app, notifications, cfg.TelegramChatID, loc, zlog)
	b := bot.New(tgAPI, h, zlog)

	// Handle graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		zlog.Info("shutting down")
		cancel()
	}()

	return b.Start(ctx)
}
