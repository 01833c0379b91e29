package config

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// NewLogger returns a stderr logger whose level comes from LOG_LEVEL
// (debug, info, warn, error). Unknown levels fall back to info.
func NewLogger(prefix string) *log.Logger {
	return NewLoggerTo(os.Stderr, prefix)
}

// NewLoggerTo is NewLogger writing to w.
func NewLoggerTo(w io.Writer, prefix string) *log.Logger {
	level, err := log.ParseLevel(GetEnv("LOG_LEVEL", "info"))
	if err != nil {
		level = log.InfoLevel
	}
	return log.NewWithOptions(w, log.Options{
		Prefix:          prefix,
		Level:           level,
		ReportTimestamp: true,
	})
}

// NewFileLogger is for processes that own the terminal. It appends to the
// file named by LOG_FILE and discards everything when LOG_FILE is unset.
// The returned close function is never nil.
func NewFileLogger(prefix string) (*log.Logger, func() error, error) {
	path := GetEnv("LOG_FILE", "")
	if path == "" {
		return NewLoggerTo(io.Discard, prefix), func() error { return nil }, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("config: open log file: %w", err)
	}
	return NewLoggerTo(f, prefix), f.Close, nil
}
