package alarm

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hray3182/arcana/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	fired []Alarm
	ch    chan Alarm
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan Alarm, 16)}
}

func (r *recorder) Receive(_ context.Context, a Alarm) {
	r.mu.Lock()
	r.fired = append(r.fired, a)
	r.mu.Unlock()
	r.ch <- a
}

func (r *recorder) slots() []models.Slot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Slot, len(r.fired))
	for i, a := range r.fired {
		out[i] = a.Slot
	}
	return out
}

func TestRegisterReplacesPendingAlarmInSlot(t *testing.T) {
	c := New(AllowExact(true), time.Minute, nil)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	c.Register(models.SlotLadder, base.Add(24*time.Hour), Exact, models.StageTwentyFourHour)
	c.Register(models.SlotLadder, base.Add(5*24*time.Hour), Exact, models.StageFiveDay)

	a, ok := c.Pending(models.SlotLadder)
	require.True(t, ok)
	assert.Equal(t, models.StageFiveDay, a.Stage)
	assert.True(t, a.TriggerAt.Equal(base.Add(5*24*time.Hour)))
	assert.Len(t, c.PendingAll(), 1)
}

func TestRegisterFallsBackToInexactWithoutPermission(t *testing.T) {
	c := New(AllowExact(false), time.Minute, nil)

	a := c.Register(models.SlotDaily, time.Now().Add(time.Hour), Exact, 0)
	assert.Equal(t, Inexact, a.Exactness)
}

func TestCancelRemovesOnlyNamedSlots(t *testing.T) {
	c := New(nil, time.Minute, nil)
	at := time.Now().Add(time.Hour)

	c.Register(models.SlotDaily, at, Exact, 0)
	c.Register(models.SlotInstant, at, Exact, models.StageInstant)
	c.Register(models.SlotWeekly, at, Exact, models.StageWeekly)

	c.Cancel(models.PremiumSlots...)

	_, ok := c.Pending(models.SlotDaily)
	assert.True(t, ok)
	_, ok = c.Pending(models.SlotInstant)
	assert.False(t, ok)
	_, ok = c.Pending(models.SlotWeekly)
	assert.False(t, ok)
}

func TestFireDueDeliversOnlyDueAlarmsOnce(t *testing.T) {
	c := New(AllowExact(false), time.Minute, nil)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := newRecorder()

	c.Register(models.SlotInstant, now.Add(-time.Minute), Exact, models.StageInstant)
	c.Register(models.SlotDaily, now, Exact, 0)
	c.Register(models.SlotWeekly, now.Add(time.Second), Exact, models.StageWeekly)

	n := c.FireDue(context.Background(), r, now)
	c.Wait()

	assert.Equal(t, 2, n)
	assert.ElementsMatch(t, []models.Slot{models.SlotInstant, models.SlotDaily}, r.slots())

	assert.Equal(t, 0, c.FireDue(context.Background(), r, now))
	_, ok := c.Pending(models.SlotWeekly)
	assert.True(t, ok)
}

func TestNextExactWaitIgnoresInexactAlarms(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	c := New(AllowExact(false), time.Minute, nil)
	c.Register(models.SlotDaily, now.Add(time.Second), Exact, 0)
	assert.Equal(t, time.Minute, c.nextExactWait(now))

	exact := New(AllowExact(true), time.Minute, nil)
	exact.Register(models.SlotDaily, now.Add(time.Second), Exact, 0)
	assert.Equal(t, time.Second, exact.nextExactWait(now))

	exact.Register(models.SlotInstant, now.Add(-time.Second), Exact, models.StageInstant)
	assert.Equal(t, time.Duration(0), exact.nextExactWait(now))
}

func TestStartFiresExactAlarmOnTime(t *testing.T) {
	c := New(AllowExact(true), time.Hour, nil)
	r := newRecorder()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Start(ctx, r)
		close(done)
	}()

	c.Register(models.SlotInstant, time.Now().Add(20*time.Millisecond), Exact, models.StageInstant)

	select {
	case a := <-r.ch:
		assert.Equal(t, models.SlotInstant, a.Slot)
	case <-time.After(2 * time.Second):
		t.Fatal("exact alarm did not fire")
	}

	cancel()
	<-done
	c.Wait()

	_, ok := c.Pending(models.SlotInstant)
	assert.False(t, ok)
}

func TestStartSweepsInexactAlarms(t *testing.T) {
	c := New(AllowExact(false), 25*time.Millisecond, nil)
	r := newRecorder()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Start(ctx, r)

	c.Register(models.SlotDaily, time.Now().Add(10*time.Millisecond), Exact, 0)

	select {
	case a := <-r.ch:
		assert.Equal(t, models.SlotDaily, a.Slot)
		assert.Equal(t, Inexact, a.Exactness)
	case <-time.After(2 * time.Second):
		t.Fatal("inexact alarm was never swept")
	}
}
