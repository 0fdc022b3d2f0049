// Command corectl runs the edge/IoT control-plane daemon: the
// configuration store and task scheduler, plus a CLI for operating on
// both against a running or offline database.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	jsonOutput bool
	dbPath     string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "corectl",
	Short: "Edge/IoT configuration store and task scheduler",
	Long: `corectl manages a hierarchical, typed configuration store and a
task scheduler that launches and supervises external processes
according to persisted schedules.`,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output machine-readable JSON")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the corectl database (overrides config)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to corectl's TOML config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// outputJSON writes v as indented JSON to stdout, or prints the error
// and exits nonzero on encode failure.
func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to encode output: %v\n", err)
		os.Exit(1)
	}
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
