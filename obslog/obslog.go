// Package obslog provides level-gated structured logging for the
// acquisition core, backed by logrus.
// Author: momentics <momentics@gmail.com>
package obslog

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Level is an alias of logrus.Level; the constants below let callers
// pick a level without importing logrus directly.
type Level = logrus.Level

const (
	LevelDebug Level = logrus.DebugLevel
	LevelInfo  Level = logrus.InfoLevel
	LevelWarn  Level = logrus.WarnLevel
	LevelError Level = logrus.ErrorLevel
)

// Config holds logging configuration.
type Config struct {
	Level  Level
	Output io.Writer
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		Level:  LevelInfo,
		Output: os.Stderr,
	}
}

// Logger wraps a configured logrus instance, exposing a component-scoped
// entry via With().
type Logger struct {
	base *logrus.Logger
}

// NewLogger creates a new Logger from the given config.
func NewLogger(cfg *Config) *Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(cfg.Level)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return &Logger{base: l}
}

// With returns a component-scoped entry, e.g. obslog.Default().With("component", "acquire").
func (lg *Logger) With(key string, value any) *logrus.Entry {
	return lg.base.WithField(key, value)
}

var (
	defaultLogger *Logger
	mu            sync.RWMutex
)

// Default returns the process-wide default logger, creating it on first use.
func Default() *Logger {
	mu.RLock()
	if defaultLogger != nil {
		defer mu.RUnlock()
		return defaultLogger
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if defaultLogger == nil {
		defaultLogger = NewLogger(nil)
	}
	return defaultLogger
}

// SetDefault replaces the process-wide default logger.
func SetDefault(l *Logger) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = l
}

// Component returns a logrus.Entry scoped to the given component name,
// using the process-wide default logger.
func Component(name string) *logrus.Entry {
	return Default().With("component", name)
}
