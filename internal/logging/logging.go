// Package logging configures corectl's rotating log output. Grounded on
// the teacher's use of gopkg.in/natefinch/lumberjack.v2 for its own
// on-disk logs: a lumberjack.Logger as the log.Logger's io.Writer gives
// size-based rotation without the daemon managing file handles itself.
package logging

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the rotating writer.
type Options struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// DefaultOptions mirrors typical daemon logging defaults: 50MB per file,
// keep 5 backups, compress rotated files, no age-based pruning.
func DefaultOptions(path string) Options {
	return Options{Path: path, MaxSizeMB: 50, MaxBackups: 5, Compress: true}
}

// New returns a *log.Logger writing to a rotating file at opts.Path,
// falling back to stderr if opts.Path is empty (useful for running in
// the foreground during development).
func New(opts Options) *log.Logger {
	var w io.Writer = os.Stderr
	if opts.Path != "" {
		w = &lumberjack.Logger{
			Filename:   opts.Path,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		}
	}
	return log.New(w, "corectl: ", log.LstdFlags|log.Lmicroseconds)
}
