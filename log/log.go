// Copyright (c) 2025 The Tidelock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
	"time"
)

// Logger writes key-value structured records.
type Logger interface {
	// New returns a logger carrying extra context key-value pairs.
	New(ctx ...any) Logger

	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
}

const (
	LevelTrace = slog.Level(-8)
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

var rootHandler atomic.Pointer[slog.Handler]

func init() {
	h := DiscardHandler()
	rootHandler.Store(&h)
}

// SetDefault sets the handler of the root logger. Loggers already derived
// with WithContext pick up the new handler on their next write.
func SetDefault(h slog.Handler) {
	rootHandler.Store(&h)
}

// Root returns the root logger.
func Root() Logger {
	return &logger{}
}

// WithContext returns a logger derived from the root logger carrying
// the given context key-value pairs.
func WithContext(ctx ...any) Logger {
	return Root().New(ctx...)
}

// LevelFromVerbosity maps a numeric verbosity (0=error .. 4=trace) to a level.
func LevelFromVerbosity(v int) slog.Level {
	switch v {
	case 0:
		return LevelError
	case 1:
		return LevelWarn
	case 2:
		return LevelInfo
	case 3:
		return LevelDebug
	default:
		return LevelTrace
	}
}

// logger carries its context pairs and resolves the root handler on every
// write, so handler swaps via SetDefault reach loggers derived earlier.
type logger struct {
	ctx []any
}

func (l *logger) New(ctx ...any) Logger {
	merged := make([]any, 0, len(l.ctx)+len(ctx))
	merged = append(merged, l.ctx...)
	merged = append(merged, ctx...)
	return &logger{merged}
}

func (l *logger) write(level slog.Level, msg string, ctx ...any) {
	h := *rootHandler.Load()
	if !h.Enabled(context.Background(), level) {
		return
	}
	r := slog.NewRecord(time.Now(), level, msg, 0)
	r.Add(l.ctx...)
	r.Add(ctx...)
	_ = h.Handle(context.Background(), r)
}

func (l *logger) Trace(msg string, ctx ...any) { l.write(LevelTrace, msg, ctx...) }
func (l *logger) Debug(msg string, ctx ...any) { l.write(LevelDebug, msg, ctx...) }
func (l *logger) Info(msg string, ctx ...any)  { l.write(LevelInfo, msg, ctx...) }
func (l *logger) Warn(msg string, ctx ...any)  { l.write(LevelWarn, msg, ctx...) }
func (l *logger) Error(msg string, ctx ...any) { l.write(LevelError, msg, ctx...) }

// NewJSONHandler returns a handler emitting JSON records to stderr.
func NewJSONHandler(lvl slog.Level) slog.Handler {
	return slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
}
