/**
 * Logging for the watchdog
 *
 * zerolog console output on stdout. The watch loop's per-frame diagnostics
 * are the sole feedback channel for a supervising process; they are meant to
 * be read, not parsed.
 */

package logging

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var root zerolog.Logger

func init() {
	root = newRoot(os.Getenv("LOG_LEVEL"))
}

// Init reconfigures the root logger level. Called once from main after the
// environment is loaded.
func Init(level string) {
	root = newRoot(level)
}

// Component returns a logger tagged with a component name.
func Component(name string) zerolog.Logger {
	return root.With().Str("component", name).Logger()
}

func newRoot(level string) zerolog.Logger {
	lvl := zerolog.DebugLevel
	if level != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(level)); err == nil {
			lvl = parsed
		}
	}
	w := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}
