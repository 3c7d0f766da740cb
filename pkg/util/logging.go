package util

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
)

var Logger zerolog.Logger

var logFilePath = LogFilePath

func init() {
	Logger = zerolog.New(io.Discard)
}

// SetupLogger configures the package logger. Verbosity 0 keeps warnings only, each further
// level adds info, debug and trace. Log lines always go to stderr, never to the render
// output. Once verbose, they are also mirrored into the XDG state log file when it can be
// opened; a quiet run leaves the filesystem alone.
func SetupLogger(verbosity int, console io.Writer) {
	level := zerolog.WarnLevel
	switch verbosity {
	case 0:
	case 1:
		level = zerolog.InfoLevel
	case 2:
		level = zerolog.DebugLevel
	default:
		level = zerolog.TraceLevel
	}

	writers := []io.Writer{zerolog.ConsoleWriter{Out: console, TimeFormat: time.Kitchen}}

	var err error
	logFile := logFilePath()
	if verbosity > 0 {
		var file *os.File
		if file, err = openLogFile(logFile); err == nil {
			writers = append(writers, file)
		}
	}

	Logger = zerolog.New(io.MultiWriter(writers...)).Level(level).With().Timestamp().Logger()

	if err != nil {
		Logger.Debug().Err(err).Str("path", logFile).Msg("Log file unavailable, logging to console only")
	}

	if verbosity >= 2 {
		Logger = Logger.With().Caller().Logger()
	}
}

// RedirectLogger sends all log output to w at debug level. Used by tests.
func RedirectLogger(w io.Writer) {
	Logger = zerolog.New(w).Level(zerolog.DebugLevel).With().Timestamp().Logger()
}

// Component returns the logger tagged with the given component name.
func Component(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}

func LogFilePath() string {
	return filepath.Join(xdg.StateHome, "mdcat", "mdcat.log")
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return file, nil
}
