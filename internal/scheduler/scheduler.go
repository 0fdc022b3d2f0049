// Package scheduler implements C6, the scheduler main loop: selecting
// the earliest due schedule, sleeping until it fires, honoring wake-up
// interrupts, and enforcing pause/stop semantics.
//
// Design Notes 9 re-architects the source's single-threaded cooperative
// suspend/cancelable-sleep loop as a goroutine selecting on a
// time.Timer plus a buffered poke channel; grounded on the teacher's
// daemon_event_loop.go select-loop-over-tickers-and-channels shape and
// on envconsul's Runner ErrCh/DoneCh pair for the loop's own lifecycle
// signaling.
package scheduler

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/edgeplane/corectl/internal/corerr"
	"github.com/edgeplane/corectl/internal/schedule"
	"github.com/edgeplane/corectl/internal/storage"
	"github.com/edgeplane/corectl/internal/supervisor"
	"github.com/edgeplane/corectl/internal/types"
)

// MaxSleep bounds the main loop's sleep when no schedule has a
// next_start_time (spec.md 4.6).
const MaxSleep = 999_999 * time.Second

// execution is the in-memory ScheduleExecution bookkeeping spec.md 3
// describes: the schedule's current next_start_time plus its live task
// handles.
type execution struct {
	schedule types.Schedule
	next     time.Time // zero means "does not fire again"
	tasks    map[string]*supervisor.Handle
}

// Scheduler is C6: the main loop over every loaded schedule.
type Scheduler struct {
	db  storage.Storage
	sv  *supervisor.Supervisor
	now func() time.Time

	mu         sync.Mutex
	startTime  time.Time
	paused     bool
	processes  map[string]types.ScheduledProcess
	executions map[string]*execution // keyed by schedule ID string

	poke     chan struct{}
	stopped  chan struct{}
	loopDone chan struct{}
}

// New returns a Scheduler over db and sv. nowFn defaults to time.Now
// when nil, overridable in tests that need deterministic fire times.
func New(db storage.Storage, sv *supervisor.Supervisor, nowFn func() time.Time) *Scheduler {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Scheduler{
		db:         db,
		sv:         sv,
		now:        nowFn,
		processes:  make(map[string]types.ScheduledProcess),
		executions: make(map[string]*execution),
		poke:       make(chan struct{}, 1),
	}
}

// Start implements start() (spec.md 4.6): errors if already started,
// otherwise loads scheduled processes and schedules, seeds each
// schedule's first fire time, and spawns the main loop goroutine.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if !s.startTime.IsZero() {
		s.mu.Unlock()
		return corerr.SchedulerState("scheduler already started")
	}
	s.mu.Unlock()

	procs, err := s.db.AllScheduledProcesses(ctx)
	if err != nil {
		return corerr.Storage(err)
	}
	schedules, err := s.db.AllSchedules(ctx)
	if err != nil {
		return corerr.Storage(err)
	}

	s.mu.Lock()
	now := s.now()
	s.startTime = now
	s.paused = false
	for _, p := range procs {
		s.processes[p.Name] = p
	}
	for _, sc := range schedules {
		s.executions[sc.ID.String()] = &execution{
			schedule: sc,
			next:     schedule.FirstFireTime(sc, now),
			tasks:    make(map[string]*supervisor.Handle),
		}
	}
	s.stopped = make(chan struct{})
	s.loopDone = make(chan struct{})
	s.mu.Unlock()

	go s.run(ctx)
	return nil
}

// wake pokes the main loop's sleep, forcing an immediate re-scan.
func (s *Scheduler) wake() {
	select {
	case s.poke <- struct{}{}:
	default:
	}
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.loopDone)
	for {
		least, err := s.checkSchedules(ctx)
		if err != nil {
			log.Printf("scheduler: check_schedules: %v", err)
		}

		s.mu.Lock()
		paused := s.paused
		s.mu.Unlock()
		if paused {
			return
		}

		sleepFor := MaxSleep
		if least != nil {
			if d := least.Sub(s.now()); d > 0 {
				sleepFor = d
			} else {
				sleepFor = 0
			}
		}

		timer := time.NewTimer(sleepFor)
		select {
		case <-timer.C:
		case <-s.poke:
			timer.Stop()
		case <-ctx.Done():
			timer.Stop()
			return
		case <-s.stopped:
			timer.Stop()
			return
		}
	}
}

// checkSchedules implements check_schedules (spec.md 4.6): fires every
// due, non-exclusive-busy schedule, returning the minimum surviving
// next_start_time across all schedules (nil if none have one).
func (s *Scheduler) checkSchedules(ctx context.Context) (*time.Time, error) {
	s.mu.Lock()
	if s.paused {
		s.mu.Unlock()
		return nil, nil
	}
	due := make([]*execution, 0, len(s.executions))
	for _, ex := range s.executions {
		due = append(due, ex)
	}
	s.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].schedule.Name < due[j].schedule.Name })

	now := s.now()
	for _, ex := range due {
		s.mu.Lock()
		if s.paused {
			s.mu.Unlock()
			return nil, nil
		}
		if ex.next.IsZero() {
			s.mu.Unlock()
			continue
		}
		if ex.schedule.Exclusive && len(ex.tasks) > 0 {
			s.mu.Unlock()
			continue
		}
		fire := !now.Before(ex.next)
		s.mu.Unlock()
		if !fire {
			continue
		}

		s.sv.IncrementActive()

		if !ex.schedule.Exclusive {
			prevNext := ex.next
			next, ok := schedule.NextFireTime(ex.schedule, prevNext, now)
			s.mu.Lock()
			if ok {
				ex.next = next
			} else {
				ex.next = time.Time{}
			}
			s.mu.Unlock()
		}

		s.fire(ctx, ex)
	}

	return s.minNext(), nil
}

func (s *Scheduler) minNext() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	var min *time.Time
	for _, ex := range s.executions {
		if ex.next.IsZero() {
			continue
		}
		if min == nil || ex.next.Before(*min) {
			t := ex.next
			min = &t
		}
	}
	return min
}

// fire launches one task for ex's schedule and arranges for the
// supervisor's exit notification to drive on_task_completion.
func (s *Scheduler) fire(ctx context.Context, ex *execution) {
	s.mu.Lock()
	proc, ok := s.processes[ex.schedule.ProcessName]
	s.mu.Unlock()
	if !ok {
		s.sv.OnTaskCompletion(ex.schedule.ProcessName, supervisor.Result{ExitCode: -1, Reason: "unknown scheduled process"})
		return
	}

	startup := ex.schedule.Type == types.ScheduleStartup
	handle, err := s.sv.StartTask(ctx, proc, startup)
	if err != nil {
		log.Printf("scheduler: start_task for %q failed: %v", ex.schedule.Name, err)
		return
	}

	s.mu.Lock()
	ex.tasks[handle.TaskID.String()] = handle
	s.mu.Unlock()

	go s.awaitCompletion(ex, handle)
}

// awaitCompletion implements on_task_completion (spec.md 4.5): blocks
// for the handle's exit, decrements active_task_count, for exclusive
// schedules computes and applies the post-completion next_start_time
// and wakes the loop, then drops the task's bookkeeping (or the whole
// execution, when the schedule will never fire again).
func (s *Scheduler) awaitCompletion(ex *execution, h *supervisor.Handle) {
	res := <-h.ExitCh
	s.sv.OnTaskCompletion(ex.schedule.ProcessName, res)

	s.mu.Lock()
	delete(ex.tasks, h.TaskID.String())
	if ex.schedule.Exclusive {
		prevNext := ex.next
		next, ok := schedule.NextFireTime(ex.schedule, prevNext, res.EndTime)
		if ok {
			ex.next = next
		} else {
			ex.next = time.Time{}
		}
	}
	noMoreFires := ex.next.IsZero()
	if noMoreFires && len(ex.tasks) == 0 {
		delete(s.executions, ex.schedule.ID.String())
	}
	s.mu.Unlock()

	if ex.schedule.Exclusive {
		s.wake()
	}
}

// Stop implements stop() (spec.md 4.6): pauses the loop, best-effort
// SIGTERMs every live task, waits briefly for exits, and errors TIMEOUT
// if any task is still active — the caller may call Stop again.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if s.startTime.IsZero() {
		s.mu.Unlock()
		return nil
	}
	s.paused = true
	var live []*supervisor.Handle
	for _, ex := range s.executions {
		for _, h := range ex.tasks {
			live = append(live, h)
		}
	}
	stopped := s.stopped
	s.mu.Unlock()

	select {
	case <-stopped:
	default:
		close(stopped)
	}
	s.wake()

	for _, h := range live {
		if err := supervisor.Terminate(h); err != nil {
			log.Printf("scheduler: terminate pid %d: %v", h.PID, err)
		}
	}

	time.Sleep(100 * time.Millisecond)

	if s.sv.ActiveTaskCount() > 0 {
		return corerr.Timeout("stop: %d tasks still active", s.sv.ActiveTaskCount())
	}

	s.mu.Lock()
	s.startTime = time.Time{}
	s.mu.Unlock()
	return nil
}

// Paused reports whether the loop is currently paused.
func (s *Scheduler) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// LiveTask is a snapshot of one in-flight task for LiveTasks.
type LiveTask struct {
	TaskID       string
	ScheduleName string
	ProcessName  string
	PID          int
	Startup      bool
}

// LiveTasks returns a snapshot of every task currently running across all
// schedules. STARTUP tasks never get a persisted Task row (spec.md 3, 9),
// so this in-memory view is the only way to observe them; it also covers
// every other schedule kind's in-flight tasks alongside their DB rows.
func (s *Scheduler) LiveTasks() []LiveTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []LiveTask
	for _, ex := range s.executions {
		for _, h := range ex.tasks {
			out = append(out, LiveTask{
				TaskID:       h.TaskID.String(),
				ScheduleName: ex.schedule.Name,
				ProcessName:  ex.schedule.ProcessName,
				PID:          h.PID,
				Startup:      h.Startup,
			})
		}
	}
	return out
}
