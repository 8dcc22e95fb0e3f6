// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package logging provides leveled, componentized logging on top of
// charmbracelet/log.
package logging

import (
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/term"
)

// Logger is the logging handle components hold. It is a thin wrapper
// so call sites don't depend on charmbracelet/log directly.
type Logger struct {
	l *log.Logger
}

var (
	defaultOnce   sync.Once
	defaultLogger *Logger
)

// Default returns the process-wide default logger.
func Default() *Logger {
	defaultOnce.Do(func() {
		defaultLogger = &Logger{l: newBaseLogger()}
	})
	return defaultLogger
}

func newBaseLogger() *log.Logger {
	opts := log.Options{ReportTimestamp: true}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return log.NewWithOptions(os.Stderr, opts)
	}
	opts.Formatter = log.LogfmtFormatter
	return log.NewWithOptions(os.Stderr, opts)
}

// With returns a child logger carrying the given key/value pairs on
// every subsequent log line, e.g. logging.Default().With("component", "probe").
func (lg *Logger) With(keyvals ...any) *Logger {
	return &Logger{l: lg.l.With(keyvals...)}
}

func (lg *Logger) Debug(msg string, keyvals ...any) { lg.l.Debug(msg, keyvals...) }
func (lg *Logger) Info(msg string, keyvals ...any)  { lg.l.Info(msg, keyvals...) }
func (lg *Logger) Warn(msg string, keyvals ...any)  { lg.l.Warn(msg, keyvals...) }
func (lg *Logger) Error(msg string, keyvals ...any) { lg.l.Error(msg, keyvals...) }
