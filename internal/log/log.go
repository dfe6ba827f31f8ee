// Package log provides the structured logger every component in sdk/trace
// and sdk/metric routes its WARN/DEBUG/ERROR failure-model output through
// (spec §7). It wraps logrus the way the teacher's internal/log package
// wraps its own backend: a single package-level logger, field-based
// context, and a SetOutput/Logger pair tests use to capture output.
package log

import (
	"os"

	"github.com/sirupsen/logrus"
)

var std = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

// SetOutput replaces the package logger with l, e.g. a logger from
// logrus/hooks/test in tests.
func SetOutput(l *logrus.Logger) { std = l }

// Logger returns the package-level logger for direct use (e.g. installing
// a test hook).
func Logger() *logrus.Logger { return std }

// Fields is re-exported so callers don't need a direct logrus import for
// the common case.
type Fields = logrus.Fields

// Warn logs at WARN with the given fields. Used for handled failures that
// are never raised to the caller: exporter failures, a rejected negative
// counter delta, a failed sampling-strategy fetch, an over-budget shutdown.
func Warn(fields Fields, msg string) {
	std.WithFields(fields).Warn(msg)
}

// Debug logs at DEBUG with the given fields. Used for the redundant-End()
// StateViolation: idempotence is required, so it is reported quietly
// rather than raised.
func Debug(fields Fields, msg string) {
	std.WithFields(fields).Debug(msg)
}

// Error logs at ERROR with the given fields.
func Error(fields Fields, msg string) {
	std.WithFields(fields).Error(msg)
}
