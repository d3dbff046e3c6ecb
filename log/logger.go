// Copyright (c) 2026 The WorkMesh developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"context"
	"log/slog"
	"math"
	"os"
	"runtime"
	"sync/atomic"
	"time"
)

const errorKey = "LOG_ERROR"

const (
	legacyLevelCrit = iota
	legacyLevelError
	legacyLevelWarn
	legacyLevelInfo
	legacyLevelDebug
	legacyLevelTrace
)

const (
	levelMaxVerbosity slog.Level = math.MinInt

	LevelTrace slog.Level = -8
	LevelDebug            = slog.LevelDebug
	LevelInfo             = slog.LevelInfo
	LevelWarn             = slog.LevelWarn
	LevelError            = slog.LevelError
	LevelCrit  slog.Level = 12
)

// FromLegacyLevel converts from old Geth verbosity level constants
// to levels defined by slog.
func FromLegacyLevel(lvl int) slog.Level {
	switch lvl {
	case legacyLevelCrit:
		return LevelCrit
	case legacyLevelError:
		return slog.LevelError
	case legacyLevelWarn:
		return slog.LevelWarn
	case legacyLevelInfo:
		return slog.LevelInfo
	case legacyLevelDebug:
		return slog.LevelDebug
	case legacyLevelTrace:
		return LevelTrace
	default:
		break
	}

	// out-of-range levels clamp to the nearest end of the scale
	if lvl > legacyLevelTrace {
		return LevelTrace
	}
	return LevelCrit
}

// LevelString returns a string containing the name of a Lvl.
func LevelString(l slog.Level) string {
	switch l {
	case LevelTrace:
		return "trace"
	case slog.LevelDebug:
		return "debug"
	case slog.LevelInfo:
		return "info"
	case slog.LevelWarn:
		return "warn"
	case slog.LevelError:
		return "error"
	case LevelCrit:
		return "crit"
	default:
		return "unknown"
	}
}

// A Logger writes key/value pairs to a Handler.
type Logger interface {
	// With returns a new Logger that has this logger's attributes plus the given attributes
	With(ctx ...any) Logger

	// New returns a new Logger that has this logger's attributes plus the given attributes. Identical to 'With'.
	New(ctx ...any) Logger

	// Log logs a message at the specified level with context key/value pairs
	Log(level slog.Level, msg string, ctx ...any)

	// Trace log a message at the trace level with context key/value pairs
	Trace(msg string, ctx ...any)

	// Debug logs a message at the debug level with context key/value pairs
	Debug(msg string, ctx ...any)

	// Info logs a message at the info level with context key/value pairs
	Info(msg string, ctx ...any)

	// Warn logs a message at the warn level with context key/value pairs
	Warn(msg string, ctx ...any)

	// Error logs a message at the error level with context key/value pairs
	Error(msg string, ctx ...any)

	// Crit logs a message at the crit level with context key/value pairs, and exits
	Crit(msg string, ctx ...any)

	// Write logs a message at the specified level
	Write(level slog.Level, msg string, attrs ...any)

	// Enabled reports whether l emits log records at the given context and level.
	Enabled(ctx context.Context, level slog.Level) bool

	// Handler returns the underlying handler of the inner logger.
	Handler() slog.Handler
}

type logger struct {
	inner *slog.Logger
}

// NewLogger returns a logger with the specified handler set.
func NewLogger(h slog.Handler) Logger {
	return &logger{
		slog.New(h),
	}
}

func (l *logger) Handler() slog.Handler {
	return l.inner.Handler()
}

// Write logs a message at the specified level.
func (l *logger) Write(level slog.Level, msg string, attrs ...any) {
	if !l.inner.Enabled(context.Background(), level) {
		return
	}

	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])

	if len(attrs)%2 != 0 {
		attrs = append(attrs, nil, errorKey, "Normalized odd number of arguments by adding nil")
	}
	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add(attrs...)
	l.inner.Handler().Handle(context.Background(), r)
}

func (l *logger) Log(level slog.Level, msg string, attrs ...any) {
	l.Write(level, msg, attrs...)
}

func (l *logger) With(ctx ...any) Logger {
	return &logger{l.inner.With(ctx...)}
}

func (l *logger) New(ctx ...any) Logger {
	return l.With(ctx...)
}

// Enabled reports whether l emits log records at the given context and level.
func (l *logger) Enabled(ctx context.Context, level slog.Level) bool {
	return l.inner.Enabled(ctx, level)
}

func (l *logger) Trace(msg string, ctx ...any) {
	l.Write(LevelTrace, msg, ctx...)
}

func (l *logger) Debug(msg string, ctx ...any) {
	l.Write(slog.LevelDebug, msg, ctx...)
}

func (l *logger) Info(msg string, ctx ...any) {
	l.Write(slog.LevelInfo, msg, ctx...)
}

func (l *logger) Warn(msg string, ctx ...any) {
	l.Write(slog.LevelWarn, msg, ctx...)
}

func (l *logger) Error(msg string, ctx ...any) {
	l.Write(slog.LevelError, msg, ctx...)
}

func (l *logger) Crit(msg string, ctx ...any) {
	l.Write(LevelCrit, msg, ctx...)
	os.Exit(1)
}

var root atomic.Value

func init() {
	root.Store(&logger{slog.New(DiscardHandler())})
}

// SetDefault sets the default global logger.
func SetDefault(l Logger) {
	root.Store(l)
	if lg, ok := l.(*logger); ok {
		slog.SetDefault(lg.inner)
	}
}

// Root returns the root logger.
func Root() Logger {
	return root.Load().(Logger)
}

// WithContext returns a logger carrying the given context attribute.
// Package-level loggers are created this way:
//
//	var logger = log.WithContext("pkg", "ledger")
func WithContext(key string, value any) Logger {
	return &ctxLogger{key: key, value: value}
}

// ctxLogger defers root lookup until log time, so packages may create
// their loggers before the root handler is configured.
type ctxLogger struct {
	key   string
	value any
}

func (c *ctxLogger) resolved() Logger {
	return Root().With(c.key, c.value)
}

func (c *ctxLogger) With(ctx ...any) Logger        { return c.resolved().With(ctx...) }
func (c *ctxLogger) New(ctx ...any) Logger         { return c.resolved().With(ctx...) }
func (c *ctxLogger) Handler() slog.Handler         { return c.resolved().Handler() }
func (c *ctxLogger) Write(level slog.Level, msg string, attrs ...any) {
	c.resolved().Write(level, msg, attrs...)
}
func (c *ctxLogger) Log(level slog.Level, msg string, ctx ...any) {
	c.resolved().Write(level, msg, ctx...)
}
func (c *ctxLogger) Trace(msg string, ctx ...any) { c.resolved().Trace(msg, ctx...) }
func (c *ctxLogger) Debug(msg string, ctx ...any) { c.resolved().Debug(msg, ctx...) }
func (c *ctxLogger) Info(msg string, ctx ...any)  { c.resolved().Info(msg, ctx...) }
func (c *ctxLogger) Warn(msg string, ctx ...any)  { c.resolved().Warn(msg, ctx...) }
func (c *ctxLogger) Error(msg string, ctx ...any) { c.resolved().Error(msg, ctx...) }
func (c *ctxLogger) Crit(msg string, ctx ...any)  { c.resolved().Crit(msg, ctx...) }
func (c *ctxLogger) Enabled(ctx context.Context, level slog.Level) bool {
	return c.resolved().Enabled(ctx, level)
}

// Trace logs a message at the trace level with context key/value pairs.
func Trace(msg string, ctx ...any) { Root().Write(LevelTrace, msg, ctx...) }

// Debug logs a message at the debug level with context key/value pairs.
func Debug(msg string, ctx ...any) { Root().Write(slog.LevelDebug, msg, ctx...) }

// Info logs a message at the info level with context key/value pairs.
func Info(msg string, ctx ...any) { Root().Write(slog.LevelInfo, msg, ctx...) }

// Warn logs a message at the warn level with context key/value pairs.
func Warn(msg string, ctx ...any) { Root().Write(slog.LevelWarn, msg, ctx...) }

// Error logs a message at the error level with context key/value pairs.
func Error(msg string, ctx ...any) { Root().Write(slog.LevelError, msg, ctx...) }

// Crit logs a message at the crit level with context key/value pairs, and exits.
func Crit(msg string, ctx ...any) {
	Root().Write(LevelCrit, msg, ctx...)
	os.Exit(1)
}
