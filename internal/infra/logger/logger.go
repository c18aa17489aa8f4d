// Package logger provides structured logging using zerolog.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

// Config represents logger configuration.
type Config struct {
	Output string // "stdout", "stderr", or file path
	Level  string // "debug", "info", "warn", "error"
}

// Init initializes the global zerolog logger with the given configuration.
func Init(cfg Config) error {
	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.TimeOnly

	var logger zerolog.Logger
	switch strings.ToLower(cfg.Output) {
	case "stdout", "":
		logger = consoleLogger(os.Stdout)
	case "stderr":
		logger = consoleLogger(os.Stderr)
	default:
		// File output, JSON formatted
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return err
		}
		logger = zerolog.New(f).With().Timestamp().Logger()
	}

	zerolog.DefaultContextLogger = &logger
	zlog.Logger = logger
	return nil
}

// consoleLogger builds a color console logger for terminal output.
func consoleLogger(out io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.TimeOnly,
	}).With().Timestamp().Logger()
}

// parseLevel parses the log level string.
func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
