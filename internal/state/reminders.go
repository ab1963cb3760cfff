// Package state holds the device-local reminder bookkeeping. It is never
// synced to the remote database and survives sign-out.
package state

import (
	"context"
	"strconv"
	"time"

	"github.com/hray3182/arcana/internal/models"
	"go.uber.org/zap"
)

const (
	keyDailyAlarmEnabled   = "daily_alarm_enabled"
	keyInstantReminderSent = "instant_reminder_sent"
	keyReminderCount       = "reminder_count"
	keyLadderStage         = "ladder_stage"
	keyLadderAt            = "ladder_at"
)

// schedulingKeys are wiped by ClearSchedulingFlags. The instant latch and
// the reminder counter are carried forward.
var schedulingKeys = []string{keyDailyAlarmEnabled, keyLadderStage, keyLadderAt}

// Reminders reads and writes one device's reminder state. Backend failures
// are logged and read back as the zero value; reminders are best effort.
type Reminders struct {
	kv     KV
	prefix string
	log    *zap.Logger
}

func NewReminders(kv KV, deviceID string, log *zap.Logger) *Reminders {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reminders{
		kv:     kv,
		prefix: "reminder:" + deviceID + ":",
		log:    log.With(zap.String("device_id", deviceID)),
	}
}

func (r *Reminders) key(name string) string {
	return r.prefix + name
}

func (r *Reminders) getBool(ctx context.Context, name string) bool {
	value, ok, err := r.kv.Get(ctx, r.key(name))
	if err != nil {
		r.log.Warn("reminder state unavailable, assuming false", zap.String("key", name), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		r.log.Warn("corrupt reminder state, assuming false", zap.String("key", name), zap.String("value", value))
		return false
	}
	return b
}

func (r *Reminders) setBool(ctx context.Context, name string, value bool) error {
	if err := r.kv.Set(ctx, r.key(name), strconv.FormatBool(value)); err != nil {
		r.log.Warn("failed to write reminder state", zap.String("key", name), zap.Error(err))
		return err
	}
	return nil
}

func (r *Reminders) DailyAlarmEnabled(ctx context.Context) bool {
	return r.getBool(ctx, keyDailyAlarmEnabled)
}

func (r *Reminders) SetDailyAlarmEnabled(ctx context.Context, enabled bool) error {
	return r.setBool(ctx, keyDailyAlarmEnabled, enabled)
}

func (r *Reminders) InstantReminderSent(ctx context.Context) bool {
	return r.getBool(ctx, keyInstantReminderSent)
}

// SetInstantReminderSent sets the one-time latch. Passing false is
// accepted only so operators can reset a device by hand.
func (r *Reminders) SetInstantReminderSent(ctx context.Context, sent bool) error {
	return r.setBool(ctx, keyInstantReminderSent, sent)
}

func (r *Reminders) ReminderCount(ctx context.Context) int {
	value, ok, err := r.kv.Get(ctx, r.key(keyReminderCount))
	if err != nil {
		r.log.Warn("reminder state unavailable, assuming zero count", zap.Error(err))
		return 0
	}
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		r.log.Warn("corrupt reminder count, assuming zero", zap.String("value", value))
		return 0
	}
	return n
}

// IncrementReminderCount bumps the counter and returns the new value. On a
// backend error the returned count is the last value read plus one so the
// caller can still reason about the cap.
func (r *Reminders) IncrementReminderCount(ctx context.Context) (int, error) {
	n, err := r.kv.Incr(ctx, r.key(keyReminderCount))
	if err != nil {
		r.log.Warn("failed to increment reminder count", zap.Error(err))
		return r.ReminderCount(ctx) + 1, err
	}
	return int(n), nil
}

// Ladder is the pending premium-ladder alarm, kept so it can be re-armed
// after a restart.
type Ladder struct {
	Stage models.Stage
	At    time.Time
}

func (r *Reminders) PendingLadder(ctx context.Context) (Ladder, bool) {
	tag, ok, err := r.kv.Get(ctx, r.key(keyLadderStage))
	if err != nil {
		r.log.Warn("reminder state unavailable, assuming no pending ladder", zap.Error(err))
		return Ladder{}, false
	}
	if !ok {
		return Ladder{}, false
	}
	stage, err := models.ParseStage(tag)
	if err != nil {
		r.log.Warn("corrupt ladder stage", zap.String("value", tag))
		return Ladder{}, false
	}

	at, ok, err := r.kv.Get(ctx, r.key(keyLadderAt))
	if err != nil || !ok {
		return Ladder{}, false
	}
	unix, err := strconv.ParseInt(at, 10, 64)
	if err != nil {
		r.log.Warn("corrupt ladder trigger time", zap.String("value", at))
		return Ladder{}, false
	}
	return Ladder{Stage: stage, At: time.UnixMilli(unix)}, true
}

func (r *Reminders) SetPendingLadder(ctx context.Context, l Ladder) error {
	if err := r.kv.Set(ctx, r.key(keyLadderStage), l.Stage.String()); err != nil {
		r.log.Warn("failed to write ladder stage", zap.Error(err))
		return err
	}
	if err := r.kv.Set(ctx, r.key(keyLadderAt), strconv.FormatInt(l.At.UnixMilli(), 10)); err != nil {
		r.log.Warn("failed to write ladder trigger time", zap.Error(err))
		return err
	}
	return nil
}

func (r *Reminders) ClearPendingLadder(ctx context.Context) error {
	return r.del(ctx, keyLadderStage, keyLadderAt)
}

// ClearSchedulingFlags resets every field except the instant latch and the
// reminder counter.
func (r *Reminders) ClearSchedulingFlags(ctx context.Context) error {
	return r.del(ctx, schedulingKeys...)
}

func (r *Reminders) del(ctx context.Context, names ...string) error {
	keys := make([]string, len(names))
	for i, name := range names {
		keys[i] = r.key(name)
	}
	if err := r.kv.Del(ctx, keys...); err != nil {
		r.log.Warn("failed to clear reminder state", zap.Strings("keys", names), zap.Error(err))
		return err
	}
	return nil
}

// Snapshot is a read-only view used by status output and tests.
type Snapshot struct {
	DailyAlarmEnabled   bool
	InstantReminderSent bool
	ReminderCount       int
	Ladder              *Ladder
}

func (r *Reminders) Snapshot(ctx context.Context) Snapshot {
	s := Snapshot{
		DailyAlarmEnabled:   r.DailyAlarmEnabled(ctx),
		InstantReminderSent: r.InstantReminderSent(ctx),
		ReminderCount:       r.ReminderCount(ctx),
	}
	if l, ok := r.PendingLadder(ctx); ok {
		s.Ladder = &l
	}
	return s
}
