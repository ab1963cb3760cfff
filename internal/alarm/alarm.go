// Package alarm is an in-process stand-in for the platform alarm service.
// Alarms live in named slots; registering into an occupied slot replaces
// whatever was pending there. Alarms are one-shot and are lost when the
// process exits, so callers re-arm them on boot.
package alarm

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hray3182/arcana/internal/models"
	"go.uber.org/zap"
)

type Exactness int

const (
	// Exact alarms wake the clock at their trigger instant.
	Exact Exactness = iota
	// Inexact alarms are delivered by the next periodic sweep after their
	// trigger time, the allow-while-idle behaviour.
	Inexact
)

func (e Exactness) String() string {
	if e == Exact {
		return "exact"
	}
	return "inexact"
}

type Alarm struct {
	Slot         models.Slot
	TriggerAt    time.Time
	Exactness    Exactness
	Stage        models.Stage // zero for the daily content alarm
	RegisteredAt time.Time
}

// Receiver is invoked once per fired alarm.
type Receiver interface {
	Receive(ctx context.Context, a Alarm)
}

type ReceiverFunc func(ctx context.Context, a Alarm)

func (f ReceiverFunc) Receive(ctx context.Context, a Alarm) { f(ctx, a) }

// Permission reports whether exact alarms are currently allowed.
type Permission interface {
	CanScheduleExact() bool
}

type PermissionFunc func() bool

func (f PermissionFunc) CanScheduleExact() bool { return f() }

// AllowExact grants or denies exact alarms unconditionally.
type AllowExact bool

func (a AllowExact) CanScheduleExact() bool { return bool(a) }

type Clock struct {
	mu     sync.Mutex
	alarms map[models.Slot]Alarm

	perm          Permission
	now           func() time.Time
	checkInterval time.Duration
	wakeCh        chan struct{}
	inflight      sync.WaitGroup
	log           *zap.Logger
}

func New(perm Permission, checkInterval time.Duration, log *zap.Logger) *Clock {
	if perm == nil {
		perm = AllowExact(true)
	}
	if checkInterval <= 0 {
		checkInterval = time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Clock{
		alarms:        make(map[models.Slot]Alarm),
		perm:          perm,
		now:           time.Now,
		checkInterval: checkInterval,
		wakeCh:        make(chan struct{}, 1),
		log:           log,
	}
}

// Register arms slot for at, replacing any alarm already pending there. An
// exact request falls back to inexact when the permission is denied.
func (c *Clock) Register(slot models.Slot, at time.Time, exactness Exactness, stage models.Stage) Alarm {
	if exactness == Exact && !c.perm.CanScheduleExact() {
		c.log.Info("exact alarms not permitted, falling back to inexact", zap.String("slot", string(slot)))
		exactness = Inexact
	}

	a := Alarm{
		Slot:         slot,
		TriggerAt:    at,
		Exactness:    exactness,
		Stage:        stage,
		RegisteredAt: c.now(),
	}

	c.mu.Lock()
	prev, replaced := c.alarms[slot]
	c.alarms[slot] = a
	c.mu.Unlock()

	fields := []zap.Field{
		zap.String("slot", string(slot)),
		zap.Time("trigger_at", at),
		zap.Stringer("exactness", exactness),
	}
	if stage != 0 {
		fields = append(fields, zap.Stringer("stage", stage))
	}
	if replaced {
		fields = append(fields, zap.Time("replaced_trigger_at", prev.TriggerAt))
	}
	c.log.Info("alarm registered", fields...)

	c.wake()
	return a
}

// Cancel removes any pending alarm in the given slots. An alarm that has
// already fired is not affected.
func (c *Clock) Cancel(slots ...models.Slot) {
	c.mu.Lock()
	for _, slot := range slots {
		if _, ok := c.alarms[slot]; ok {
			delete(c.alarms, slot)
			c.log.Info("alarm cancelled", zap.String("slot", string(slot)))
		}
	}
	c.mu.Unlock()
	c.wake()
}

func (c *Clock) Pending(slot models.Slot) (Alarm, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.alarms[slot]
	return a, ok
}

// PendingAll returns every pending alarm ordered by trigger time.
func (c *Clock) PendingAll() []Alarm {
	c.mu.Lock()
	out := make([]Alarm, 0, len(c.alarms))
	for _, a := range c.alarms {
		out = append(out, a)
	}
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].TriggerAt.Before(out[j].TriggerAt) })
	return out
}

func (c *Clock) wake() {
	select {
	case c.wakeCh <- struct{}{}:
	default:
		// Already pending
	}
}

// Start runs the clock until ctx is cancelled. Alarms that fire are handed
// to r on their own goroutine; use Wait to drain them.
func (c *Clock) Start(ctx context.Context, r Receiver) {
	c.log.Info("alarm clock started", zap.Duration("check_interval", c.checkInterval))
	ticker := time.NewTicker(c.checkInterval)
	defer ticker.Stop()

	for {
		timer := time.NewTimer(c.nextExactWait(c.now()))

		select {
		case <-ctx.Done():
			timer.Stop()
			c.log.Info("alarm clock stopped")
			return
		case <-timer.C:
			c.fire(ctx, r, c.now(), false)
		case <-ticker.C:
			timer.Stop()
			c.fire(ctx, r, c.now(), true)
		case <-c.wakeCh:
			timer.Stop()
		}
	}
}

// Wait blocks until every dispatched alarm has been handled.
func (c *Clock) Wait() {
	c.inflight.Wait()
}

// FireDue delivers every alarm, exact or not, whose trigger time is not
// after now. It returns the number of alarms fired.
func (c *Clock) FireDue(ctx context.Context, r Receiver, now time.Time) int {
	return c.fire(ctx, r, now, true)
}

func (c *Clock) fire(ctx context.Context, r Receiver, now time.Time, sweep bool) int {
	var due []Alarm

	c.mu.Lock()
	for slot, a := range c.alarms {
		if a.TriggerAt.After(now) {
			continue
		}
		if a.Exactness == Inexact && !sweep {
			continue
		}
		due = append(due, a)
		delete(c.alarms, slot)
	}
	c.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].TriggerAt.Before(due[j].TriggerAt) })

	// Handlers outlive a shutdown of the clock itself.
	handlerCtx := context.WithoutCancel(ctx)
	for _, a := range due {
		c.log.Info("alarm fired",
			zap.String("slot", string(a.Slot)),
			zap.Time("trigger_at", a.TriggerAt),
			zap.Duration("lateness", now.Sub(a.TriggerAt)),
		)
		c.inflight.Add(1)
		go func(a Alarm) {
			defer c.inflight.Done()
			r.Receive(handlerCtx, a)
		}(a)
	}
	return len(due)
}

// nextExactWait is the time until the earliest exact alarm, bounded by the
// sweep interval.
func (c *Clock) nextExactWait(now time.Time) time.Duration {
	wait := c.checkInterval

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, a := range c.alarms {
		if a.Exactness != Exact {
			continue
		}
		d := a.TriggerAt.Sub(now)
		if d < 0 {
			d = 0
		}
		if d < wait {
			wait = d
		}
	}
	return wait
}
