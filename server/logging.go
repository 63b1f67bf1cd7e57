package main

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the process-wide logger. Components derive children from it
// with a "component" field.
var Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

// SetupLogging configures the global logger from the log section
func SetupLogging(cfg LogConfig, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stderr
	}

	var level zerolog.Level
	switch strings.ToLower(cfg.Level) {
	case "trace":
		level = zerolog.TraceLevel
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	case "disabled", "off":
		level = zerolog.Disabled
	default:
		level = zerolog.InfoLevel
	}

	w := out
	if cfg.Format != "json" {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	}
	Logger = zerolog.New(w).Level(level).With().Timestamp().Logger()
	return Logger
}

// componentLogger returns a child of the global logger
func componentLogger(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}
