// Package logging builds the root zerolog logger from configuration.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"

	"github.com/llehouerou/ncstream/internal/config"
)

// Options controls where log lines go.
type Options struct {
	Level string
	// File is the log file path. Empty logs to stderr, unless Terminal is
	// set, in which case DefaultFile is used.
	File string
	// Terminal is set when a full-screen UI owns the terminal.
	Terminal bool
	// Stderr is the console destination; nil means os.Stderr.
	Stderr io.Writer
}

// OptionsFrom derives Options from the [log] config section.
func OptionsFrom(cfg config.LogConfig, terminal bool) Options {
	return Options{Level: cfg.Level, File: cfg.File, Terminal: terminal}
}

// DefaultFile returns the log file used while the UI is running.
func DefaultFile() (string, error) {
	return xdg.StateFile("ncstream/ncstream.log")
}

// New creates the root logger. The returned close function releases the log
// file, if any.
func New(opts Options) (zerolog.Logger, func() error, error) {
	level := parseLevel(opts.Level)
	noop := func() error { return nil }

	path := opts.File
	if path == "" && opts.Terminal {
		p, err := DefaultFile()
		if err != nil {
			return zerolog.Nop(), noop, fmt.Errorf("resolve log file: %w", err)
		}
		path = p
	}

	if path == "" {
		out := opts.Stderr
		if out == nil {
			out = os.Stderr
		}
		// Use pretty console output if logging to stderr
		logger := zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).
			Level(level).
			With().
			Timestamp().
			Logger()
		return logger, noop, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return zerolog.Nop(), noop, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), noop, fmt.Errorf("open log file: %w", err)
	}

	logger := zerolog.New(f).
		Level(level).
		With().
		Timestamp().
		Logger()
	return logger, f.Close, nil
}

func parseLevel(s string) zerolog.Level {
	switch s {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
