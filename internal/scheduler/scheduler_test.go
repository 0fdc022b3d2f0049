package scheduler

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgeplane/corectl/internal/storage/sqlite"
	"github.com/edgeplane/corectl/internal/supervisor"
	"github.com/edgeplane/corectl/internal/types"
	"github.com/google/uuid"
)

func newTestDB(t *testing.T) *sqlite.SQLiteStorage {
	t.Helper()
	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// fakeClock lets a test drive s.now() deterministically and advance it
// without racing the scheduler goroutine.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestStartRejectsDoubleStart(t *testing.T) {
	db := newTestDB(t)
	sv := supervisor.New(db)
	s := New(db, sv, nil)
	ctx := context.Background()

	require.NoError(t, s.Start(ctx))
	defer s.Stop()

	assert.Error(t, s.Start(ctx))
}

func TestSchedulerFiresIntervalSchedule(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.PutScheduledProcess(ctx, types.ScheduledProcess{Name: "ping", Argv: []string{"/bin/sh", "-c", "exit 0"}}))
	sc := types.Schedule{ID: uuid.New(), Name: "ping-sched", ProcessName: "ping", Type: types.ScheduleInterval, Interval: time.Hour}
	require.NoError(t, db.PutSchedule(ctx, sc))

	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	sv := supervisor.New(db)
	s := New(db, sv, clock.now)

	require.NoError(t, s.Start(ctx))
	defer s.Stop()

	// FirstFireTime for INTERVAL is now+Interval; advance the clock past
	// it and poke the loop to force an immediate re-scan.
	clock.set(clock.now().Add(time.Hour + time.Second))
	s.wake()

	waitUntil(t, 2*time.Second, func() bool {
		tasks, err := db.AllTasks(ctx)
		return err == nil && len(tasks) == 1
	})
}

func TestSchedulerExclusiveScheduleDoesNotOverlap(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.PutScheduledProcess(ctx, types.ScheduledProcess{Name: "slow", Argv: []string{"/bin/sleep", "5"}}))
	sc := types.Schedule{ID: uuid.New(), Name: "slow-sched", ProcessName: "slow", Type: types.ScheduleInterval, Interval: time.Second, Exclusive: true}
	require.NoError(t, db.PutSchedule(ctx, sc))

	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	sv := supervisor.New(db)
	s := New(db, sv, clock.now)

	require.NoError(t, s.Start(ctx))
	defer s.Stop()

	clock.set(clock.now().Add(2 * time.Second))
	s.wake()

	waitUntil(t, 2*time.Second, func() bool { return sv.ActiveTaskCount() == 1 })

	// Advance well past several nominal intervals while the first task is
	// still sleeping; the exclusive schedule must not fire a second
	// overlapping task.
	clock.set(clock.now().Add(10 * time.Second))
	s.wake()
	time.Sleep(200 * time.Millisecond)

	assert.Equal(t, 1, sv.ActiveTaskCount(), "exclusive schedule must not overlap")
}

func TestSchedulerLiveTasksReflectsRunningTask(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.PutScheduledProcess(ctx, types.ScheduledProcess{Name: "slow", Argv: []string{"/bin/sleep", "5"}}))
	sc := types.Schedule{ID: uuid.New(), Name: "slow-sched", ProcessName: "slow", Type: types.ScheduleInterval, Interval: time.Second}
	require.NoError(t, db.PutSchedule(ctx, sc))

	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	sv := supervisor.New(db)
	s := New(db, sv, clock.now)

	require.NoError(t, s.Start(ctx))
	defer s.Stop()

	clock.set(clock.now().Add(2 * time.Second))
	s.wake()

	waitUntil(t, 2*time.Second, func() bool { return len(s.LiveTasks()) == 1 })

	live := s.LiveTasks()
	require.Len(t, live, 1)
	assert.Equal(t, "slow", live[0].ProcessName)
}

func TestStopTerminatesLiveTasksAndStaysPaused(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.PutScheduledProcess(ctx, types.ScheduledProcess{Name: "slow", Argv: []string{"/bin/sleep", "30"}}))
	sc := types.Schedule{ID: uuid.New(), Name: "slow-sched", ProcessName: "slow", Type: types.ScheduleInterval, Interval: time.Second}
	require.NoError(t, db.PutSchedule(ctx, sc))

	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	sv := supervisor.New(db)
	s := New(db, sv, clock.now)

	require.NoError(t, s.Start(ctx))

	clock.set(clock.now().Add(2 * time.Second))
	s.wake()
	waitUntil(t, 2*time.Second, func() bool { return sv.ActiveTaskCount() == 1 })

	require.NoError(t, s.Stop())
	assert.True(t, s.Paused())
	assert.Equal(t, 0, sv.ActiveTaskCount(), "SIGTERM should have ended the sleep")
}
