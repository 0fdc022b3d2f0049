package main

import (
	"context"
	"fmt"
	"time"

	"github.com/edgeplane/corectl/internal/types"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	scheduleProcessName string
	scheduleType        string
	scheduleTimeOfDay   string
	scheduleDay         int
	scheduleIntervalSec int
	scheduleRepeat      string
	scheduleExclusive   bool
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Manage persisted schedules and scheduled processes",
}

var scheduleAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Persist a schedule for an already-registered process",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		typ, err := parseScheduleType(scheduleType)
		if err != nil {
			fail("%v", err)
		}
		repeat := parseRepeatKind(scheduleRepeat)

		sc := types.Schedule{
			ID:          uuid.New(),
			Name:        args[0],
			ProcessName: scheduleProcessName,
			Type:        typ,
			Day:         scheduleDay,
			Interval:    time.Duration(scheduleIntervalSec) * time.Second,
			Repeat:      repeat,
			Exclusive:   scheduleExclusive,
		}
		if scheduleTimeOfDay != "" {
			t, err := time.Parse("15:04:05", scheduleTimeOfDay)
			if err != nil {
				fail("parse --time: %v", err)
			}
			sc.Time = t
		}

		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			fail("%v", err)
		}
		defer a.Close()

		if err := a.db.PutSchedule(ctx, sc); err != nil {
			fail("%v", err)
		}
		if jsonOutput {
			outputJSON(sc)
			return
		}
		fmt.Println(sc.ID)
	},
}

var scheduleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List persisted schedules",
	Run: func(_ *cobra.Command, _ []string) {
		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			fail("%v", err)
		}
		defer a.Close()

		schedules, err := a.db.AllSchedules(ctx)
		if err != nil {
			fail("%v", err)
		}
		outputJSON(schedules)
	},
}

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Manage scheduled process definitions",
}

var processAddCmd = &cobra.Command{
	Use:   "add <name> -- <argv...>",
	Short: "Register the argv used to launch a scheduled process",
	Args:  cobra.MinimumNArgs(2),
	Run: func(_ *cobra.Command, args []string) {
		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			fail("%v", err)
		}
		defer a.Close()

		p := types.ScheduledProcess{Name: args[0], Argv: args[1:]}
		if err := a.db.PutScheduledProcess(ctx, p); err != nil {
			fail("%v", err)
		}
		fmt.Println(p.Name)
	},
}

var processListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered scheduled processes",
	Run: func(_ *cobra.Command, _ []string) {
		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			fail("%v", err)
		}
		defer a.Close()

		procs, err := a.db.AllScheduledProcesses(ctx)
		if err != nil {
			fail("%v", err)
		}
		outputJSON(procs)
	},
}

func parseScheduleType(s string) (types.ScheduleType, error) {
	switch s {
	case "TIMED":
		return types.ScheduleTimed, nil
	case "INTERVAL":
		return types.ScheduleInterval, nil
	case "MANUAL":
		return types.ScheduleManual, nil
	case "STARTUP":
		return types.ScheduleStartup, nil
	default:
		return 0, fmt.Errorf("unknown schedule type %q (want TIMED, INTERVAL, MANUAL, or STARTUP)", s)
	}
}

func parseRepeatKind(s string) types.RepeatKind {
	switch s {
	case "HOURLY":
		return types.RepeatHourly
	case "DAILY":
		return types.RepeatDaily
	case "WEEKLY":
		return types.RepeatWeekly
	default:
		return types.RepeatNone
	}
}

func init() {
	scheduleAddCmd.Flags().StringVar(&scheduleProcessName, "process", "", "Name of a registered scheduled process")
	scheduleAddCmd.Flags().StringVar(&scheduleType, "type", "INTERVAL", "TIMED, INTERVAL, MANUAL, or STARTUP")
	scheduleAddCmd.Flags().StringVar(&scheduleTimeOfDay, "time", "", "Time of day HH:MM:SS for TIMED schedules")
	scheduleAddCmd.Flags().IntVar(&scheduleDay, "day", 0, "Day of week (0=Sunday) for weekly TIMED schedules")
	scheduleAddCmd.Flags().IntVar(&scheduleIntervalSec, "interval-seconds", 0, "Interval period in seconds")
	scheduleAddCmd.Flags().StringVar(&scheduleRepeat, "repeat", "", "HOURLY, DAILY, or WEEKLY")
	scheduleAddCmd.Flags().BoolVar(&scheduleExclusive, "exclusive", false, "At most one concurrent task for this schedule")
	_ = scheduleAddCmd.MarkFlagRequired("process")

	scheduleCmd.AddCommand(scheduleAddCmd, scheduleListCmd)
	processCmd.AddCommand(processAddCmd, processListCmd)
	rootCmd.AddCommand(scheduleCmd, processCmd)
}
