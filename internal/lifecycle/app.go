// Package lifecycle translates app and device events into reminder
// scheduling calls.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hray3182/arcana/internal/alarm"
	"github.com/hray3182/arcana/internal/models"
	"github.com/hray3182/arcana/internal/reminder"
	"github.com/hray3182/arcana/internal/state"
	"go.uber.org/zap"
)

var ErrSignedOut = errors.New("no account signed in")

type Sessions interface {
	Current(ctx context.Context, deviceID string) (accountID string, ok bool, err error)
	SignIn(ctx context.Context, deviceID, accountID string) error
	SignOut(ctx context.Context, deviceID string) error
}

type Accounts interface {
	GetOrCreate(ctx context.Context, accountID, email string) (*models.Account, error)
	IsPremium(ctx context.Context, accountID string) (bool, error)
	SetPremium(ctx context.Context, accountID string, premium bool) error
}

type Alarms interface {
	Pending(slot models.Slot) (alarm.Alarm, bool)
	PendingAll() []alarm.Alarm
}

type App struct {
	deviceID  string
	scheduler *reminder.Scheduler
	state     *state.Reminders
	alarms    Alarms
	sessions  Sessions
	accounts  Accounts
	log       *zap.Logger
}

func New(
	deviceID string,
	scheduler *reminder.Scheduler,
	st *state.Reminders,
	alarms Alarms,
	sessions Sessions,
	accounts Accounts,
	log *zap.Logger,
) *App {
	if log == nil {
		log = zap.NewNop()
	}
	return &App{
		deviceID:  deviceID,
		scheduler: scheduler,
		state:     st,
		alarms:    alarms,
		sessions:  sessions,
		accounts:  accounts,
		log:       log.Named("lifecycle").With(zap.String("device_id", deviceID)),
	}
}

func (a *App) currentAccount(ctx context.Context) (string, error) {
	accountID, ok, err := a.sessions.Current(ctx, a.deviceID)
	if err != nil {
		return "", fmt.Errorf("failed to look up session: %w", err)
	}
	if !ok {
		return "", ErrSignedOut
	}
	return accountID, nil
}

func (a *App) ensureDaily(ctx context.Context, now time.Time) error {
	if _, ok := a.alarms.Pending(models.SlotDaily); ok {
		return nil
	}
	at, err := a.scheduler.ScheduleDailyContentAlarm(ctx, now)
	if err != nil {
		return err
	}
	a.log.Info("daily content alarm armed", zap.Time("trigger_at", at))
	return nil
}

// Start runs when the app comes to the foreground. A signed-in device
// always has the daily content alarm armed.
func (a *App) Start(ctx context.Context, now time.Time) error {
	if _, err := a.currentAccount(ctx); err != nil {
		if errors.Is(err, ErrSignedOut) {
			return nil
		}
		return err
	}
	return a.ensureDaily(ctx, now)
}

func (a *App) Login(ctx context.Context, accountID, email string, now time.Time) (*models.Account, error) {
	account, err := a.accounts.GetOrCreate(ctx, accountID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if err := a.sessions.SignIn(ctx, a.deviceID, account.AccountID); err != nil {
		return nil, fmt.Errorf("failed to sign in: %w", err)
	}
	a.log.Info("signed in", zap.String("account_id", account.AccountID), zap.Bool("premium", account.IsPremium))

	if err := a.ensureDaily(ctx, now); err != nil {
		return account, err
	}
	return account, nil
}

// Logout cancels every alarm. The reminder counter and the instant latch
// are kept for the next account on this device.
func (a *App) Logout(ctx context.Context) error {
	a.scheduler.CancelDailyContentAlarm(ctx)
	a.scheduler.CancelAllPremiumReminders(ctx)
	if err := a.sessions.SignOut(ctx, a.deviceID); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	a.log.Info("signed out")
	return nil
}

// Background runs when the app is closed. The first close of a non-premium
// install arms the instant reminder; it reports whether it did.
func (a *App) Background(ctx context.Context, now time.Time) (bool, error) {
	accountID, err := a.currentAccount(ctx)
	if err != nil {
		if errors.Is(err, ErrSignedOut) {
			return false, nil
		}
		return false, err
	}

	if a.state.InstantReminderSent(ctx) {
		return false, nil
	}
	if _, ok := a.alarms.Pending(models.SlotInstant); ok {
		return false, nil
	}
	premium, err := a.accounts.IsPremium(ctx, accountID)
	if err != nil {
		a.log.Warn("premium lookup failed, assuming not premium", zap.Error(err))
	}
	if premium {
		return false, nil
	}

	at := a.scheduler.ScheduleInstantReminder(ctx, now)
	a.log.Info("instant reminder armed", zap.Time("trigger_at", at))
	return true, nil
}

// PremiumActivated records a completed purchase and stops the ladder.
func (a *App) PremiumActivated(ctx context.Context) error {
	accountID, err := a.currentAccount(ctx)
	if err != nil {
		return err
	}
	if err := a.accounts.SetPremium(ctx, accountID, true); err != nil {
		return fmt.Errorf("failed to record premium: %w", err)
	}
	a.scheduler.CancelAllPremiumReminders(ctx)
	a.log.Info("premium activated", zap.String("account_id", accountID))
	return nil
}

// Boot re-arms alarms lost with the previous process, from persisted state.
func (a *App) Boot(ctx context.Context, now time.Time) error {
	if a.state.DailyAlarmEnabled(ctx) {
		if err := a.ensureDaily(ctx, now); err != nil {
			return err
		}
	}

	ladder, ok := a.state.PendingLadder(ctx)
	if !ok {
		return nil
	}

	accountID, err := a.currentAccount(ctx)
	if err != nil {
		if errors.Is(err, ErrSignedOut) {
			return nil
		}
		return err
	}

	premium, err := a.accounts.IsPremium(ctx, accountID)
	if err != nil {
		a.log.Warn("premium lookup failed on boot, assuming not premium", zap.Error(err))
	}
	if premium {
		a.scheduler.CancelAllPremiumReminders(ctx)
		return nil
	}

	if err := a.scheduler.RestoreStageReminder(ctx, ladder.Stage, ladder.At, now); err != nil {
		return err
	}
	a.log.Info("ladder alarm restored", zap.Stringer("stage", ladder.Stage), zap.Time("trigger_at", ladder.At))
	return nil
}

type Status struct {
	AccountID string
	Premium   bool
	State     state.Snapshot
	Pending   []alarm.Alarm
}

func (a *App) Status(ctx context.Context) (Status, error) {
	st := Status{
		State:   a.state.Snapshot(ctx),
		Pending: a.alarms.PendingAll(),
	}

	accountID, err := a.currentAccount(ctx)
	switch {
	case errors.Is(err, ErrSignedOut):
		return st, nil
	case err != nil:
		return st, err
	}
	st.AccountID = accountID

	premium, err := a.accounts.IsPremium(ctx, accountID)
	if err != nil {
		return st, fmt.Errorf("failed to read premium flag: %w", err)
	}
	st.Premium = premium
	return st, nil
}
