// Package logging provides the structured logger used across tisdk.
//
// Library packages accept the Logger interface and default to Nop, so they
// can be used without any logging setup. The CLI wires a charmbracelet/log
// backed implementation through New.
package logging

import (
	"io"

	"github.com/charmbracelet/log"
)

// Logger provides structured logging with key-value pairs.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(msg string, keysAndValues ...interface{}) {}
func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Warn(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return nopLogger{}
}

// OrNop returns l, or Nop when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return Nop()
	}
	return l
}

type charmLogger struct {
	l *log.Logger
}

// New returns a Logger writing to w. Debug output is only emitted when
// verbose is set.
func New(w io.Writer, verbose bool) Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return &charmLogger{
		l: log.NewWithOptions(w, log.Options{
			Prefix:          "tisdk",
			Level:           level,
			ReportTimestamp: verbose,
		}),
	}
}

func (c *charmLogger) Debug(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, keysAndValues...)
}

func (c *charmLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Info(msg, keysAndValues...)
}

func (c *charmLogger) Warn(msg string, keysAndValues ...interface{}) {
	c.l.Warn(msg, keysAndValues...)
}

func (c *charmLogger) Error(msg string, keysAndValues ...interface{}) {
	c.l.Error(msg, keysAndValues...)
}
