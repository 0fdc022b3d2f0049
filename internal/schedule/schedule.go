// Package schedule implements C4, the fire-time calculator: initializing
// and advancing a Schedule's next_start_time across TIMED, INTERVAL,
// STARTUP and MANUAL kinds.
//
// Grounded on the wall-clock-arithmetic discipline the merrymaker
// scheduler's interval/strategy split and goclaw's cron_store next-run
// bookkeeping both follow: TIMED advances by composing a calendar date
// with a time-of-day rather than by subtracting raw epoch seconds, so a
// daylight-savings transition is absorbed by the local Go time package's
// own date arithmetic instead of producing an off-by-an-hour fire.
package schedule

import (
	"math"
	"time"

	"github.com/edgeplane/corectl/internal/types"
)

// FirstFireTime implements schedule_first_task (spec.md 4.4): the
// next_start_time a freshly loaded Schedule should carry, or the zero
// time for MANUAL schedules which never fire on their own.
func FirstFireTime(s types.Schedule, now time.Time) time.Time {
	switch s.Type {
	case types.ScheduleInterval:
		seconds, ok := s.RepeatSeconds()
		if !ok {
			return time.Time{}
		}
		return now.Add(time.Duration(seconds) * time.Second)
	case types.ScheduleTimed:
		today := atTimeOfDay(now, s.Time)
		if now.After(today) {
			return today.AddDate(0, 0, 1)
		}
		return today
	case types.ScheduleStartup:
		return now
	case types.ScheduleManual:
		return time.Time{}
	default:
		return time.Time{}
	}
}

// atTimeOfDay composes day's calendar date with clock's wall-clock
// hour/minute/second, in day's own location, so DST offsets for that
// specific date are applied by time.Date itself.
func atTimeOfDay(day time.Time, clock time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), 0, day.Location())
}

// NextFireTime implements schedule_next_task (spec.md 4.4): computes the
// Schedule's next next_start_time after a fire, returning the zero time
// and false when the schedule should not fire again (paused, or no
// repeat period configured). prevNext is the next_start_time that just
// elapsed; now is the current wall-clock time, used only to compute the
// exclusive-schedule skip-ahead.
func NextFireTime(s types.Schedule, prevNext, now time.Time) (time.Time, bool) {
	if s.Paused {
		return time.Time{}, false
	}
	repeatSeconds, ok := s.RepeatSeconds()
	if !ok {
		return time.Time{}, false
	}

	advance := time.Duration(repeatSeconds) * time.Second
	if s.Exclusive {
		elapsed := now.Sub(prevNext)
		if elapsed > 0 {
			periods := math.Ceil(float64(elapsed) / float64(advance))
			advance += time.Duration(periods) * time.Duration(repeatSeconds) * time.Second
		}
	}

	if s.Type == types.ScheduleTimed {
		const day = 24 * time.Hour
		days := advance / day
		remainder := advance % day
		return prevNext.AddDate(0, 0, int(days)).Add(remainder), true
	}
	return prevNext.Add(advance), true
}
