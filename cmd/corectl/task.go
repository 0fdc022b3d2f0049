package main

import (
	"context"

	"github.com/spf13/cobra"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Inspect task runs",
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List persisted task rows (STARTUP tasks only appear in a running daemon's live view)",
	Run: func(_ *cobra.Command, _ []string) {
		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			fail("%v", err)
		}
		defer a.Close()

		tasks, err := a.db.AllTasks(ctx)
		if err != nil {
			fail("%v", err)
		}
		outputJSON(tasks)
	},
}

func init() {
	taskCmd.AddCommand(taskListCmd)
	rootCmd.AddCommand(taskCmd)
}
