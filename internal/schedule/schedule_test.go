package schedule

import (
	"testing"
	"time"

	"github.com/edgeplane/corectl/internal/types"
)

func TestFirstFireTimeInterval(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := types.Schedule{Type: types.ScheduleInterval, Interval: 30 * time.Second}

	got := FirstFireTime(s, now)
	want := now.Add(30 * time.Second)
	if !got.Equal(want) {
		t.Errorf("FirstFireTime = %v, want %v", got, want)
	}
}

func TestFirstFireTimeTimedLaterToday(t *testing.T) {
	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	s := types.Schedule{Type: types.ScheduleTimed, Time: time.Date(0, 1, 1, 9, 0, 0, 0, time.UTC)}

	got := FirstFireTime(s, now)
	want := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("FirstFireTime = %v, want %v", got, want)
	}
}

func TestFirstFireTimeTimedAlreadyPastRollsToTomorrow(t *testing.T) {
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	s := types.Schedule{Type: types.ScheduleTimed, Time: time.Date(0, 1, 1, 9, 0, 0, 0, time.UTC)}

	got := FirstFireTime(s, now)
	want := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("FirstFireTime = %v, want %v", got, want)
	}
}

func TestFirstFireTimeStartupIsNow(t *testing.T) {
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	s := types.Schedule{Type: types.ScheduleStartup}

	got := FirstFireTime(s, now)
	if !got.Equal(now) {
		t.Errorf("FirstFireTime(STARTUP) = %v, want %v", got, now)
	}
}

func TestFirstFireTimeManualIsZero(t *testing.T) {
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	s := types.Schedule{Type: types.ScheduleManual}

	if got := FirstFireTime(s, now); !got.IsZero() {
		t.Errorf("FirstFireTime(MANUAL) = %v, want zero", got)
	}
}

func TestNextFireTimeNonExclusiveAdvancesByPeriod(t *testing.T) {
	prev := time.Date(2026, 1, 1, 0, 0, 10, 0, time.UTC)
	now := prev // fired right on time
	s := types.Schedule{Type: types.ScheduleInterval, Interval: 10 * time.Second}

	next, ok := NextFireTime(s, prev, now)
	if !ok {
		t.Fatal("expected ok=true")
	}
	want := prev.Add(10 * time.Second)
	if !next.Equal(want) {
		t.Errorf("next = %v, want %v", next, want)
	}
}

// TestNextFireTimeExclusiveSkipsAheadPastOverrun matches spec.md's literal
// scenario: repeat_seconds=10, exclusive=true, the task ran 35s past
// prevNext, so the next fire must skip whole overdue periods rather than
// immediately re-firing: advance = 10 + ceil(35/10)*10 = 50.
func TestNextFireTimeExclusiveSkipsAheadPastOverrun(t *testing.T) {
	prev := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := prev.Add(35 * time.Second)
	s := types.Schedule{Type: types.ScheduleInterval, Interval: 10 * time.Second, Exclusive: true}

	next, ok := NextFireTime(s, prev, now)
	if !ok {
		t.Fatal("expected ok=true")
	}
	want := prev.Add(50 * time.Second)
	if !next.Equal(want) {
		t.Errorf("next = %v, want %v (advance should be 50s)", next, want)
	}
}

func TestNextFireTimePausedNeverFiresAgain(t *testing.T) {
	prev := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := types.Schedule{Type: types.ScheduleInterval, Interval: 10 * time.Second, Paused: true}

	_, ok := NextFireTime(s, prev, prev)
	if ok {
		t.Error("expected ok=false for a paused schedule")
	}
}

func TestNextFireTimeManualNeverFiresAgain(t *testing.T) {
	prev := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := types.Schedule{Type: types.ScheduleManual}

	_, ok := NextFireTime(s, prev, prev)
	if ok {
		t.Error("expected ok=false for a MANUAL schedule with no repeat period")
	}
}

func TestNextFireTimeTimedAdvancesByWholeDays(t *testing.T) {
	prev := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	s := types.Schedule{Type: types.ScheduleTimed, Repeat: types.RepeatDaily}

	next, ok := NextFireTime(s, prev, prev)
	if !ok {
		t.Fatal("expected ok=true")
	}
	want := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("next = %v, want %v", next, want)
	}
}
