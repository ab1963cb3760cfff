// Package reminder arms the daily content alarm and the premium reminder
// ladder, and handles them when they fire.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hray3182/arcana/internal/alarm"
	"github.com/hray3182/arcana/internal/models"
	"github.com/hray3182/arcana/internal/rrule"
	"github.com/hray3182/arcana/internal/state"
	"go.uber.org/zap"
)

var ErrUnknownStage = errors.New("unknown reminder stage")

// AlarmClock is the alarm facility the scheduler registers with.
type AlarmClock interface {
	Register(slot models.Slot, at time.Time, exactness alarm.Exactness, stage models.Stage) alarm.Alarm
	Cancel(slots ...models.Slot)
	Pending(slot models.Slot) (alarm.Alarm, bool)
}

type Options struct {
	Location     *time.Location
	DailyHour    int
	DailyMinute  int
	LadderHour   int
	LadderMinute int
}

func DefaultOptions() Options {
	return Options{
		Location:   time.Local,
		DailyHour:  10,
		LadderHour: 18,
	}
}

type Scheduler struct {
	clock AlarmClock
	state *state.Reminders
	opts  Options
	log   *zap.Logger
}

func NewScheduler(clock AlarmClock, st *state.Reminders, opts Options, log *zap.Logger) *Scheduler {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		clock: clock,
		state: st,
		opts:  opts,
		log:   log.Named("scheduler"),
	}
}

// NextDailyContentTime is the first daily content time strictly after now.
func (s *Scheduler) NextDailyContentTime(now time.Time) (time.Time, error) {
	return rrule.NextDaily(s.opts.DailyHour, s.opts.DailyMinute, s.opts.Location, now)
}

// ScheduleDailyContentAlarm arms the daily slot for the next content time
// and records that the daily alarm is enabled.
func (s *Scheduler) ScheduleDailyContentAlarm(ctx context.Context, now time.Time) (time.Time, error) {
	at, err := s.NextDailyContentTime(now)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to compute daily content time: %w", err)
	}

	s.clock.Register(models.SlotDaily, at, alarm.Exact, 0)
	if err := s.state.SetDailyAlarmEnabled(ctx, true); err != nil {
		s.log.Warn("daily alarm armed but flag not persisted", zap.Error(err))
	}
	return at, nil
}

func (s *Scheduler) CancelDailyContentAlarm(ctx context.Context) {
	s.clock.Cancel(models.SlotDaily)
	if err := s.state.SetDailyAlarmEnabled(ctx, false); err != nil {
		s.log.Warn("daily alarm cancelled but flag not persisted", zap.Error(err))
	}
}

// ScheduleInstantReminder arms the first-close reminder. Callers check the
// instant latch before calling.
func (s *Scheduler) ScheduleInstantReminder(ctx context.Context, now time.Time) time.Time {
	at := now.Add(models.StageInstant.Delay())
	s.arm(ctx, models.StageInstant, at)
	return at
}

// StageTriggerTime is now plus the stage delay, with the time of day
// replaced by the ladder time.
func (s *Scheduler) StageTriggerTime(stage models.Stage, now time.Time) (time.Time, error) {
	switch stage {
	case models.StageTwentyFourHour, models.StageFiveDay, models.StageWeekly:
	default:
		return time.Time{}, fmt.Errorf("%w: %s", ErrUnknownStage, stage)
	}
	return rrule.SnapToClock(now.Add(stage.Delay()), s.opts.LadderHour, s.opts.LadderMinute, s.opts.Location), nil
}

func (s *Scheduler) ScheduleStageReminder(ctx context.Context, stage models.Stage, now time.Time) (time.Time, error) {
	at, err := s.StageTriggerTime(stage, now)
	if err != nil {
		return time.Time{}, err
	}
	s.arm(ctx, stage, at)
	return at, nil
}

// RestoreStageReminder re-arms a ladder alarm recorded before a restart.
// A trigger time already in the past fires on the next check.
func (s *Scheduler) RestoreStageReminder(ctx context.Context, stage models.Stage, at, now time.Time) error {
	if !stage.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownStage, stage)
	}
	if at.Before(now) {
		at = now
	}
	s.arm(ctx, stage, at)
	return nil
}

func (s *Scheduler) arm(ctx context.Context, stage models.Stage, at time.Time) {
	s.clock.Register(stage.Slot(), at, alarm.Exact, stage)
	if err := s.state.SetPendingLadder(ctx, state.Ladder{Stage: stage, At: at}); err != nil {
		s.log.Warn("ladder alarm armed but not persisted", zap.Stringer("stage", stage), zap.Error(err))
	}
}

// CancelAllPremiumReminders cancels every ladder slot and clears the
// scheduling flags. The reminder counter and the instant latch survive.
func (s *Scheduler) CancelAllPremiumReminders(ctx context.Context) {
	s.clock.Cancel(models.PremiumSlots...)
	if err := s.state.ClearSchedulingFlags(ctx); err != nil {
		s.log.Warn("failed to clear scheduling flags", zap.Error(err))
	}

	// The daily alarm is not part of the ladder; keep its flag truthful.
	if _, ok := s.clock.Pending(models.SlotDaily); ok {
		if err := s.state.SetDailyAlarmEnabled(ctx, true); err != nil {
			s.log.Warn("failed to restore daily alarm flag", zap.Error(err))
		}
	}
	s.log.Info("premium reminders cancelled")
}
