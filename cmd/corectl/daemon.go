package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/edgeplane/corectl/internal/lock"
	"github.com/edgeplane/corectl/internal/logging"
	"github.com/edgeplane/corectl/internal/procconfig"
	"github.com/edgeplane/corectl/internal/scheduler"
	"github.com/edgeplane/corectl/internal/supervisor"
	"github.com/edgeplane/corectl/internal/types"
	"github.com/edgeplane/corectl/internal/watch"
	"github.com/spf13/cobra"
)

var processesFile string

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the scheduler daemon in the foreground",
}

var daemonRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Acquire the instance lock, start the scheduler, and block until signaled",
	Run: func(_ *cobra.Command, _ []string) {
		runDaemon()
	},
}

// daemonStatusCmd reports liveness the same way the teacher's sync lock
// does: a non-blocking TryLock against the instance lock file. corectl
// has no IPC channel to a running daemon, so "stop" is delivering
// SIGTERM/SIGINT to that process directly (it traps both for a graceful
// scheduler.Stop()); there is no separate "daemon stop" subcommand.
var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether a daemon currently holds the instance lock",
	Run: func(_ *cobra.Command, _ []string) {
		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			fail("%v", err)
		}
		defer a.Close()

		l, err := lock.Acquire(a.settings.LockPath)
		running := err != nil
		if !running {
			_ = l.Release()
		}
		if jsonOutput {
			outputJSON(map[string]any{"running": running, "lock_path": a.settings.LockPath})
			return
		}
		if running {
			fmt.Println("running")
		} else {
			fmt.Println("stopped")
		}
	},
}

func init() {
	daemonRunCmd.Flags().StringVar(&processesFile, "processes-file", "", "TOML file of bootstrap scheduled-process definitions")
	daemonCmd.AddCommand(daemonRunCmd, daemonStatusCmd)
	rootCmd.AddCommand(daemonCmd)
}

// runDaemon implements spec.md 4.6's start()/stop() lifecycle around the
// scheduler main loop: a single-instance file lock, rotating log output,
// optional hot-reload of a bootstrap process list, and graceful shutdown
// on SIGINT/SIGTERM.
func runDaemon() {
	ctx := context.Background()

	a, err := openApp(ctx)
	if err != nil {
		fail("%v", err)
	}
	defer a.Close()

	l, err := lock.Acquire(a.settings.LockPath)
	if err != nil {
		fail("%v", err)
	}
	defer l.Release()

	logger := logging.New(logging.DefaultOptions(a.settings.LogFilePath))
	log.SetOutput(logger.Writer())
	log.SetPrefix(logger.Prefix())
	log.SetFlags(logger.Flags())

	if err := seedProcesses(ctx, a); err != nil {
		log.Printf("daemon: seed processes: %v", err)
	}

	sv := supervisor.New(a.db)
	sched := scheduler.New(a.db, sv, nil)

	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()
	if processesFile != "" {
		fw, err := watch.New(processesFile, 5*time.Second, func() {
			if err := seedProcesses(ctx, a); err != nil {
				log.Printf("daemon: reload processes: %v", err)
			}
		})
		if err != nil {
			log.Printf("daemon: watch %s: %v", processesFile, err)
		} else {
			fw.Start(watchCtx)
			defer fw.Close()
		}
	}

	if err := sched.Start(ctx); err != nil {
		fail("%v", err)
	}
	log.Printf("daemon: scheduler started, db=%s", filepath.Clean(a.settings.DBPath))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Printf("daemon: shutting down")
	if err := sched.Stop(); err != nil {
		log.Printf("daemon: stop: %v", err)
	}
}

// seedProcesses loads the bootstrap process definitions, if configured,
// and upserts each into storage. The scheduler reads scheduled processes
// only in Start, so definitions upserted after it has started are not
// used by it until its next start.
func seedProcesses(ctx context.Context, a *app) error {
	if processesFile == "" {
		return nil
	}
	defs, err := procconfig.LoadProcesses(processesFile)
	if err != nil {
		return err
	}
	for _, d := range defs {
		p := types.ScheduledProcess{Name: d.Name, Argv: d.Argv}
		if err := a.db.PutScheduledProcess(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
