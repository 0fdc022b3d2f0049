package main

import (
	"context"

	"github.com/spf13/cobra"
)

var interestCallbackArgv []string

var interestCmd = &cobra.Command{
	Use:   "interest",
	Short: "Manage persisted category interests for external callbacks",
}

var interestAddCmd = &cobra.Command{
	Use:   "add <category> <callback-id> --argv <arg> [--argv <arg>...]",
	Short: "Subscribe an external program to a category's changes",
	Long: `Registers callback-id as an external callback (run via argv on every
change to category) and persists the subscription so it survives a daemon
restart. In-process callbacks registered with callback.Register have no CLI
equivalent; only external, exec-backed callbacks can be named this way.`,
	Args: cobra.ExactArgs(2),
	Run: func(_ *cobra.Command, args []string) {
		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			fail("%v", err)
		}
		defer a.Close()

		category, id := args[0], args[1]
		if err := a.callbacks.Persist(ctx, a.db, category, id, interestCallbackArgv); err != nil {
			fail("%v", err)
		}
	},
}

var interestRemoveCmd = &cobra.Command{
	Use:   "remove <category> <callback-id>",
	Short: "Remove a persisted category interest",
	Args:  cobra.ExactArgs(2),
	Run: func(_ *cobra.Command, args []string) {
		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			fail("%v", err)
		}
		defer a.Close()

		if err := a.callbacks.RemovePersisted(ctx, a.db, args[0], args[1]); err != nil {
			fail("%v", err)
		}
	},
}

var interestListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every persisted category interest",
	Run: func(_ *cobra.Command, _ []string) {
		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			fail("%v", err)
		}
		defer a.Close()

		all, err := a.db.AllInterests(ctx)
		if err != nil {
			fail("%v", err)
		}
		outputJSON(all)
	},
}

func init() {
	interestAddCmd.Flags().StringArrayVar(&interestCallbackArgv, "argv", nil, "Argv of the external program to invoke (category name is appended)")
	_ = interestAddCmd.MarkFlagRequired("argv")

	interestCmd.AddCommand(interestAddCmd, interestRemoveCmd, interestListCmd)
	rootCmd.AddCommand(interestCmd)
}
