package state

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hray3182/arcana/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenKV struct{}

var errDown = errors.New("store unavailable")

func (brokenKV) Get(context.Context, string) (string, bool, error) { return "", false, errDown }
func (brokenKV) Set(context.Context, string, string) error         { return errDown }
func (brokenKV) Incr(context.Context, string) (int64, error)       { return 0, errDown }
func (brokenKV) Del(context.Context, ...string) error              { return errDown }

func TestRemindersDefaults(t *testing.T) {
	ctx := context.Background()
	r := NewReminders(NewMemoryKV(), "dev-1", nil)

	assert.False(t, r.DailyAlarmEnabled(ctx))
	assert.False(t, r.InstantReminderSent(ctx))
	assert.Equal(t, 0, r.ReminderCount(ctx))
	_, ok := r.PendingLadder(ctx)
	assert.False(t, ok)
}

func TestRemindersSetAndIncrement(t *testing.T) {
	ctx := context.Background()
	r := NewReminders(NewMemoryKV(), "dev-1", nil)

	require.NoError(t, r.SetDailyAlarmEnabled(ctx, true))
	require.NoError(t, r.SetInstantReminderSent(ctx, true))
	for i := 1; i <= 3; i++ {
		n, err := r.IncrementReminderCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, n)
	}

	assert.True(t, r.DailyAlarmEnabled(ctx))
	assert.True(t, r.InstantReminderSent(ctx))
	assert.Equal(t, 3, r.ReminderCount(ctx))
}

func TestClearSchedulingFlagsKeepsCounterAndLatch(t *testing.T) {
	ctx := context.Background()
	r := NewReminders(NewMemoryKV(), "dev-1", nil)

	at := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)
	require.NoError(t, r.SetDailyAlarmEnabled(ctx, true))
	require.NoError(t, r.SetInstantReminderSent(ctx, true))
	_, err := r.IncrementReminderCount(ctx)
	require.NoError(t, err)
	require.NoError(t, r.SetPendingLadder(ctx, Ladder{Stage: models.StageFiveDay, At: at}))

	require.NoError(t, r.ClearSchedulingFlags(ctx))

	snap := r.Snapshot(ctx)
	assert.False(t, snap.DailyAlarmEnabled)
	assert.Nil(t, snap.Ladder)
	assert.True(t, snap.InstantReminderSent)
	assert.Equal(t, 1, snap.ReminderCount)
}

func TestPendingLadderRoundTrip(t *testing.T) {
	ctx := context.Background()
	r := NewReminders(NewMemoryKV(), "dev-1", nil)

	at := time.Date(2026, 3, 9, 18, 0, 0, 0, time.UTC)
	require.NoError(t, r.SetPendingLadder(ctx, Ladder{Stage: models.StageWeekly, At: at}))

	l, ok := r.PendingLadder(ctx)
	require.True(t, ok)
	assert.Equal(t, models.StageWeekly, l.Stage)
	assert.True(t, l.At.Equal(at))

	require.NoError(t, r.ClearPendingLadder(ctx))
	_, ok = r.PendingLadder(ctx)
	assert.False(t, ok)
}

func TestDevicesAreIsolated(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	a := NewReminders(kv, "dev-a", nil)
	b := NewReminders(kv, "dev-b", nil)

	require.NoError(t, a.SetInstantReminderSent(ctx, true))
	assert.True(t, a.InstantReminderSent(ctx))
	assert.False(t, b.InstantReminderSent(ctx))
}

func TestRemindersFailOpen(t *testing.T) {
	ctx := context.Background()
	r := NewReminders(brokenKV{}, "dev-1", nil)

	assert.False(t, r.DailyAlarmEnabled(ctx))
	assert.False(t, r.InstantReminderSent(ctx))
	assert.Equal(t, 0, r.ReminderCount(ctx))
	_, ok := r.PendingLadder(ctx)
	assert.False(t, ok)

	n, err := r.IncrementReminderCount(ctx)
	assert.ErrorIs(t, err, errDown)
	assert.Equal(t, 1, n)
	assert.ErrorIs(t, r.SetDailyAlarmEnabled(ctx, true), errDown)
}

func TestCorruptValuesReadAsDefaults(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	r := NewReminders(kv, "dev-1", nil)

	require.NoError(t, kv.Set(ctx, "reminder:dev-1:daily_alarm_enabled", "maybe"))
	require.NoError(t, kv.Set(ctx, "reminder:dev-1:reminder_count", "lots"))
	require.NoError(t, kv.Set(ctx, "reminder:dev-1:ladder_stage", "monthly"))

	assert.False(t, r.DailyAlarmEnabled(ctx))
	assert.Equal(t, 0, r.ReminderCount(ctx))
	_, ok := r.PendingLadder(ctx)
	assert.False(t, ok)
}
