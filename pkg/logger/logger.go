// Package logger provides structured logging with JSON or text output,
// backed by logrus.
package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger keeps the call-site shape callers already use
// (Info/Warn/Error/Debug/Fatal with trailing key-value pairs) while
// delegating formatting, level filtering, and field ordering to logrus.
type Logger struct {
	entry *logrus.Entry
}

// New creates a new logger instance. format is "json" or anything else
// for text. level is a logrus level name ("debug", "info", "warn", ...);
// an unrecognized level falls back to info.
func New(level, format string) (*Logger, error) {
	l := logrus.New()
	l.SetOutput(os.Stdout)

	if format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	return &Logger{entry: logrus.NewEntry(l)}, nil
}

// Sync is a no-op; logrus writes synchronously. Kept so call sites that
// defer logger.Sync() need no change.
func (l *Logger) Sync() {}

func fields(kvs []interface{}) logrus.Fields {
	f := make(logrus.Fields, len(kvs)/2)
	for i := 0; i+1 < len(kvs); i += 2 {
		key, ok := kvs[i].(string)
		if !ok {
			continue
		}
		f[key] = kvs[i+1]
	}
	return f
}

// Info logs an informational message.
func (l *Logger) Info(msg string, kvs ...interface{}) {
	l.entry.WithFields(fields(kvs)).Info(msg)
}

// Error logs an error message.
func (l *Logger) Error(msg string, kvs ...interface{}) {
	l.entry.WithFields(fields(kvs)).Error(msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, kvs ...interface{}) {
	l.entry.WithFields(fields(kvs)).Warn(msg)
}

// Debug logs a debug message; suppressed unless the logger's level is debug.
func (l *Logger) Debug(msg string, kvs ...interface{}) {
	l.entry.WithFields(fields(kvs)).Debug(msg)
}

// Fatal logs a fatal message and exits with status 1.
func (l *Logger) Fatal(msg string, kvs ...interface{}) {
	l.entry.WithFields(fields(kvs)).Fatal(msg)
}

// With returns a child Logger carrying additional fields on every
// subsequent call, matching logrus's own WithFields idiom.
func (l *Logger) With(kvs ...interface{}) *Logger {
	return &Logger{entry: l.entry.WithFields(fields(kvs))}
}
