package reminder

import (
	"context"
	"time"

	"github.com/hray3182/arcana/internal/alarm"
	"github.com/hray3182/arcana/internal/metrics"
	"github.com/hray3182/arcana/internal/models"
	"github.com/hray3182/arcana/internal/state"
	"go.uber.org/zap"
)

// Sessions reports the account signed in on a device.
type Sessions interface {
	Current(ctx context.Context, deviceID string) (accountID string, ok bool, err error)
}

type Accounts interface {
	IsPremium(ctx context.Context, accountID string) (bool, error)
}

type NotificationLog interface {
	Create(ctx context.Context, n *models.Notification) error
}

// Notifier shows a notification on the device.
type Notifier interface {
	Show(ctx context.Context, n models.LocalNotification) error
}

// ContentSource optionally supplies the body of the daily notification.
type ContentSource interface {
	DailyBody(ctx context.Context, now time.Time) (string, error)
}

type DispatcherConfig struct {
	DeviceID string
	Cap      int
	Timeout  time.Duration
}

// Dispatcher handles fired alarms. It is an alarm.Receiver.
type Dispatcher struct {
	cfg       DispatcherConfig
	scheduler *Scheduler
	state     *state.Reminders
	sessions  Sessions
	accounts  Accounts
	history   NotificationLog
	notifier  Notifier
	content   ContentSource
	now       func() time.Time
	log       *zap.Logger
}

func NewDispatcher(
	cfg DispatcherConfig,
	scheduler *Scheduler,
	st *state.Reminders,
	sessions Sessions,
	accounts Accounts,
	history NotificationLog,
	notifier Notifier,
	log *zap.Logger,
) *Dispatcher {
	if cfg.Cap <= 0 {
		cfg.Cap = 10
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		cfg:       cfg,
		scheduler: scheduler,
		state:     st,
		sessions:  sessions,
		accounts:  accounts,
		history:   history,
		notifier:  notifier,
		now:       time.Now,
		log:       log.Named("dispatcher").With(zap.String("device_id", cfg.DeviceID)),
	}
}

// WithContent sets the source of daily notification bodies.
func (d *Dispatcher) WithContent(c ContentSource) *Dispatcher {
	d.content = c
	return d
}

// Result describes what a single firing did.
type Result struct {
	Shown     bool
	NextStage models.Stage
	NextAt    time.Time
	Reason    string
}

func (r Result) Rearmed() bool {
	return !r.NextAt.IsZero()
}

func (d *Dispatcher) Receive(ctx context.Context, a alarm.Alarm) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()
	start := time.Now()

	var res Result
	if a.Slot == models.SlotDaily {
		res = d.HandleDaily(ctx)
	} else {
		res = d.HandleStage(ctx, a.Stage)
	}

	fields := []zap.Field{
		zap.String("slot", string(a.Slot)),
		zap.Bool("shown", res.Shown),
		zap.String("reason", res.Reason),
	}
	if res.Rearmed() {
		fields = append(fields, zap.Time("next_at", res.NextAt))
	}
	if res.NextStage != 0 {
		fields = append(fields, zap.Stringer("next_stage", res.NextStage))
	}
	d.log.Info("alarm handled", fields...)
	metrics.RecordAlarm(string(a.Slot), res.Reason, time.Since(start))
}

// HandleStage runs one step of the premium ladder for a fired stage.
func (d *Dispatcher) HandleStage(ctx context.Context, stage models.Stage) Result {
	log := d.log.With(zap.Stringer("stage", stage))

	accountID, ok, err := d.sessions.Current(ctx, d.cfg.DeviceID)
	if err != nil {
		log.Warn("session lookup failed, not re-arming", zap.Error(err))
		return Result{Reason: "session lookup failed"}
	}
	if !ok {
		return Result{Reason: "signed out"}
	}
	log = log.With(zap.String("account_id", accountID))

	premium, err := d.accounts.IsPremium(ctx, accountID)
	if err != nil {
		log.Warn("premium lookup failed, assuming not premium", zap.Error(err))
		premium = false
	}
	if premium {
		d.scheduler.CancelAllPremiumReminders(ctx)
		return Result{Reason: "premium"}
	}

	// Only reachable by replaying an alarm that should never have been armed.
	if d.state.ReminderCount(ctx) >= d.cfg.Cap {
		return Result{Reason: "cap reached"}
	}

	text := textFor(stage)
	shown := d.show(ctx, log, models.LocalNotification{
		Title:    text.Title,
		Body:     text.Body,
		Route:    models.RoutePremium,
		Category: models.NotificationPremium,
	})
	if shown {
		d.record(ctx, log, accountID, text, models.NotificationPremium)
	}

	count, err := d.state.IncrementReminderCount(ctx)
	if err != nil {
		log.Warn("reminder count not persisted", zap.Error(err))
	}
	if stage == models.StageInstant {
		if err := d.state.SetInstantReminderSent(ctx, true); err != nil {
			log.Warn("instant latch not persisted", zap.Error(err))
		}
	}

	res := Result{Shown: shown, Reason: "sent"}
	next, ok := stage.Next(count, d.cfg.Cap)
	if !ok {
		if err := d.state.ClearPendingLadder(ctx); err != nil {
			log.Warn("failed to clear finished ladder", zap.Error(err))
		}
		res.Reason = "ladder finished"
		return res
	}

	at, err := d.scheduler.ScheduleStageReminder(ctx, next, d.now())
	if err != nil {
		log.Error("failed to arm next stage", zap.Stringer("next_stage", next), zap.Error(err))
		return res
	}
	res.NextStage = next
	res.NextAt = at
	return res
}

// HandleDaily shows the daily content notification and re-arms it for the
// next day. Premium status and sign-in do not gate it.
func (d *Dispatcher) HandleDaily(ctx context.Context) Result {
	log := d.log.With(zap.String("slot", string(models.SlotDaily)))
	now := d.now()

	text := dailyText
	if d.content != nil {
		body, err := d.content.DailyBody(ctx, now)
		if err != nil {
			log.Warn("daily content unavailable, using default copy", zap.Error(err))
		} else if body != "" {
			text.Body = body
		}
	}

	shown := d.show(ctx, log, models.LocalNotification{
		Title:    text.Title,
		Body:     text.Body,
		Route:    models.RouteHome,
		Category: models.NotificationDaily,
	})

	if shown {
		accountID, ok, err := d.sessions.Current(ctx, d.cfg.DeviceID)
		switch {
		case err != nil:
			log.Warn("session lookup failed, daily notification not logged", zap.Error(err))
		case ok:
			d.record(ctx, log.With(zap.String("account_id", accountID)), accountID, text, models.NotificationDaily)
		}
	}

	res := Result{Shown: shown, Reason: "sent"}
	at, err := d.scheduler.ScheduleDailyContentAlarm(ctx, now)
	if err != nil {
		log.Error("failed to re-arm daily alarm", zap.Error(err))
		return res
	}
	res.NextAt = at
	return res
}

func (d *Dispatcher) show(ctx context.Context, log *zap.Logger, n models.LocalNotification) bool {
	err := d.notifier.Show(ctx, n)
	metrics.RecordNotification(string(n.Category), err == nil)
	if err != nil {
		log.Warn("failed to show notification", zap.Error(err))
		return false
	}
	return true
}

// record appends to the account's notification log. Failures are logged
// and never stop the ladder.
func (d *Dispatcher) record(ctx context.Context, log *zap.Logger, accountID string, text copyText, typ models.NotificationType) {
	err := d.history.Create(ctx, &models.Notification{
		AccountID: accountID,
		Title:     text.Title,
		Message:   text.Body,
		Type:      typ,
		IsRead:    false,
		CreatedAt: d.now(),
	})
	if err != nil {
		log.Warn("failed to log notification", zap.Error(err))
	}
}
