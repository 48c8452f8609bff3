// Package logger provides structured diagnostic logging using zerolog.
// Diagnostics go to stderr so they never mix with exported log data on
// stdout.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var global = zerolog.New(os.Stderr).Level(zerolog.WarnLevel).With().Timestamp().Logger()

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}

// Init configures the global logger level and output.
func Init(level string, out io.Writer) error {
	lvl := zerolog.WarnLevel
	if level != "" {
		parsed, err := zerolog.ParseLevel(level)
		if err != nil {
			return err
		}
		lvl = parsed
	}
	if out == nil {
		out = os.Stderr
	}
	global = zerolog.New(out).Level(lvl).With().Timestamp().Logger()
	return nil
}

// Get returns the global logger.
func Get() zerolog.Logger {
	return global
}

// WithComponent returns a child logger tagged with a component name.
func WithComponent(name string) zerolog.Logger {
	return global.With().Str("component", name).Logger()
}
