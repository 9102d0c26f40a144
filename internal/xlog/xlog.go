// Package xlog builds the zerolog logger shared across the probe's
// components. Grounded on the structured, leveled logging idiom used
// throughout the example pack's service repos; no teacher file owns a
// logger of its own, since the teacher is a pure wire-format library.
package xlog

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New builds a zerolog.Logger at the given level, writing JSON to w unless
// pretty is true, in which case output goes through zerolog's human
// readable console writer.
func New(w io.Writer, level string, pretty bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Caller().Logger()
}

// Default builds a logger writing to stderr, for use before configuration
// has been loaded.
func Default() zerolog.Logger {
	return New(os.Stderr, "info", true)
}
