// Package log is a thin wrapper around charmbracelet/log, the structured
// logger github.com/doismellburning/samoyed wires up for its own CLI/daemon
// surface. The engine core (pkg/...) never imports this package — DSP code
// stays allocation-free and log-free on the audio thread, per spec.md's
// realtime-safety invariants — so this is exclusively for cmd/enginedemo's
// startup, shutdown, and config-reporting messages.
package log

import (
	"os"

	charmlog "github.com/charmbracelet/log"
)

// Logger is the package's structured logger, exported so callers can attach
// key/value pairs with .With before logging a line.
type Logger = charmlog.Logger

var base = charmlog.NewWithOptions(os.Stderr, charmlog.Options{
	ReportTimestamp: true,
	TimeFormat:      "15:04:05",
})

// New returns a child logger scoped to the given component name, mirroring
// charmbracelet/log's sub-logger idiom rather than a single package-global
// logger.
func New(component string) *Logger {
	return base.With("component", component)
}

// SetLevel adjusts the base logger's verbosity; cmd/enginedemo calls this
// once at startup when its --verbose flag is set.
func SetLevel(level charmlog.Level) {
	base.SetLevel(level)
}

const (
	LevelDebug = charmlog.DebugLevel
	LevelInfo  = charmlog.InfoLevel
	LevelWarn  = charmlog.WarnLevel
	LevelError = charmlog.ErrorLevel
)
