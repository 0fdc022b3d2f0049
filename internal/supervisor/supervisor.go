// Package supervisor implements C5, the task supervisor: launching a
// scheduled process's subprocess, persisting its task row, awaiting its
// exit, and recording completion.
//
// Grounded on envconsul's Runner (other_examples/runner.go): ErrCh/
// DoneCh/ExitCh as the channel trio a caller selects on to observe a
// managed child process's lifecycle, generalized here from one
// long-lived watched process to one-shot scheduled runs, each with its
// own Handle returned from StartTask; of the trio, only ExitCh is kept.
package supervisor

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/edgeplane/corectl/internal/corerr"
	"github.com/edgeplane/corectl/internal/storage"
	"github.com/edgeplane/corectl/internal/types"
	"github.com/google/uuid"
)

// Handle is the live bookkeeping for one launched task: the running
// *exec.Cmd plus the channel a caller can block on for its exit code.
type Handle struct {
	TaskID  uuid.UUID
	Cmd     *exec.Cmd
	PID     int
	ExitCh  chan Result
	Startup bool
}

// Result is what on_task_completion needs once a process exits.
type Result struct {
	ExitCode int
	Reason   string
	EndTime  time.Time
}

// Supervisor launches and tracks subprocesses for scheduled tasks.
// ActiveTaskCount is the spec's process-wide active_task_count, floored
// at zero and logged instead of panicking if a decrement would cross it
// (spec.md 4.5).
type Supervisor struct {
	db storage.Storage

	mu              sync.Mutex
	activeTaskCount int
}

// New returns a Supervisor over db, used to persist and complete
// non-STARTUP task rows.
func New(db storage.Storage) *Supervisor {
	return &Supervisor{db: db}
}

// ActiveTaskCount reports the current number of in-flight tasks across
// all schedules (invariant 5, spec.md 8).
func (sv *Supervisor) ActiveTaskCount() int {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	return sv.activeTaskCount
}

func (sv *Supervisor) incrementActive() {
	sv.mu.Lock()
	sv.activeTaskCount++
	sv.mu.Unlock()
}

func (sv *Supervisor) decrementActive() {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	if sv.activeTaskCount == 0 {
		log.Printf("supervisor: active_task_count would go negative, holding at 0")
		return
	}
	sv.activeTaskCount--
}

// StartTask implements start_task (spec.md 4.5): generates a task id,
// launches proc's argv, and — for a non-STARTUP schedule kind — inserts
// the RUNNING task row before returning the Handle the caller awaits.
// active_task_count has already been incremented by the caller (the
// main loop increments it before firing, per spec.md 4.6's
// check_schedules ordering) so a spawn failure here only needs to
// decrement it back.
func (sv *Supervisor) StartTask(ctx context.Context, proc types.ScheduledProcess, startup bool) (*Handle, error) {
	taskID := uuid.New()
	if len(proc.Argv) == 0 {
		sv.decrementActive()
		return nil, corerr.Validation("scheduled process %q has empty argv", proc.Name)
	}

	cmd := exec.Command(proc.Argv[0], proc.Argv[1:]...)
	if err := cmd.Start(); err != nil {
		sv.decrementActive()
		log.Printf("supervisor: spawn of %q failed: %v", proc.Name, err)
		return nil, corerr.Validation("spawn %q: %v", proc.Name, err)
	}

	start := time.Now()
	if !startup {
		task := types.Task{
			ID:          taskID,
			ProcessName: proc.Name,
			State:       types.TaskRunning,
			StartTime:   start,
			PID:         cmd.Process.Pid,
		}
		if err := sv.db.InsertTask(ctx, task); err != nil {
			log.Printf("supervisor: insert task row for %q failed: %v", proc.Name, err)
		}
	}

	h := &Handle{TaskID: taskID, Cmd: cmd, PID: cmd.Process.Pid, ExitCh: make(chan Result, 1), Startup: startup}
	go sv.wait(ctx, h, proc.Name)
	return h, nil
}

func (sv *Supervisor) wait(ctx context.Context, h *Handle, processName string) {
	err := h.Cmd.Wait()
	end := time.Now()
	exitCode := 0
	reason := ""
	if err != nil {
		reason = err.Error()
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}

	if !h.Startup {
		if err := sv.db.CompleteTask(ctx, h.TaskID.String(), exitCode, end, reason); err != nil {
			log.Printf("supervisor: complete task row for %q failed: %v", processName, err)
		}
	}

	h.ExitCh <- Result{ExitCode: exitCode, Reason: reason, EndTime: end}
}

// OnTaskCompletion implements on_task_completion (spec.md 4.5): always
// decrements active_task_count. The caller is responsible for the
// exclusive-schedule reschedule-and-wake and for removing the handle
// from its own schedule_executions bookkeeping; this only performs the
// count bookkeeping shared by every schedule kind.
func (sv *Supervisor) OnTaskCompletion(processName string, res Result) {
	sv.decrementActive()
	if res.ExitCode != 0 {
		log.Printf("supervisor: task for %q exited %d: %s", processName, res.ExitCode, res.Reason)
	}
}

// IncrementActive is called by the scheduler loop before firing a task,
// per spec.md 4.6's check_schedules ordering ("increment active_task_count
// first, then compute next_start_time, then launch").
func (sv *Supervisor) IncrementActive() { sv.incrementActive() }

// Terminate sends SIGTERM to a live handle's process, ignoring
// "process already exited" as spec.md 4.6's stop() requires.
func Terminate(h *Handle) error {
	if h == nil || h.Cmd == nil || h.Cmd.Process == nil {
		return nil
	}
	if err := h.Cmd.Process.Signal(syscall.SIGTERM); err != nil {
		if errIsProcessNotFound(err) {
			return nil
		}
		return fmt.Errorf("terminate pid %d: %w", h.PID, err)
	}
	return nil
}

func errIsProcessNotFound(err error) bool {
	return err == syscall.ESRCH || err.Error() == "os: process already finished"
}
