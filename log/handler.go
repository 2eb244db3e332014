// Copyright (c) 2025 The Tidelock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

type discardHandler struct{}

// DiscardHandler returns a no-op handler.
func DiscardHandler() slog.Handler {
	return &discardHandler{}
}

func (h *discardHandler) Handle(_ context.Context, _ slog.Record) error { return nil }

func (h *discardHandler) Enabled(_ context.Context, _ slog.Level) bool { return false }

func (h *discardHandler) WithGroup(_ string) slog.Handler { return h }

func (h *discardHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }

// TerminalHandler formats records for human readability on a terminal:
//
//	[LEVEL] [TIME] MESSAGE key=value key=value ...
type TerminalHandler struct {
	mu       sync.Mutex
	wr       io.Writer
	lvl      slog.Level
	useColor bool
	attrs    []slog.Attr
}

// NewTerminalHandler returns a terminal handler which drops records below lvl,
// with color-coded level output when useColor is set.
func NewTerminalHandler(wr io.Writer, lvl slog.Level, useColor bool) *TerminalHandler {
	return &TerminalHandler{
		wr:       wr,
		lvl:      lvl,
		useColor: useColor,
	}
}

func (h *TerminalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.lvl
}

func (h *TerminalHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	buf := make([]byte, 0, 128)
	buf = append(buf, h.levelTag(r.Level)...)
	buf = append(buf, " ["...)
	buf = r.Time.AppendFormat(buf, "Jan 02 15:04:05")
	buf = append(buf, "] "...)
	buf = append(buf, r.Message...)

	appendAttr := func(a slog.Attr) bool {
		buf = append(buf, ' ')
		buf = append(buf, a.Key...)
		buf = append(buf, '=')
		buf = fmt.Appendf(buf, "%v", a.Value.Any())
		return true
	}
	for _, a := range h.attrs {
		appendAttr(a)
	}
	r.Attrs(appendAttr)
	buf = append(buf, '\n')

	_, err := h.wr.Write(buf)
	return err
}

func (h *TerminalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TerminalHandler{
		wr:       h.wr,
		lvl:      h.lvl,
		useColor: h.useColor,
		attrs:    append(h.attrs[:len(h.attrs):len(h.attrs)], attrs...),
	}
}

func (h *TerminalHandler) WithGroup(_ string) slog.Handler { return h }

const (
	colorRed    = 31
	colorYellow = 33
	colorGreen  = 32
	colorCyan   = 36
	colorGray   = 37
)

func (h *TerminalHandler) levelTag(level slog.Level) string {
	var tag string
	var color int
	switch {
	case level >= LevelError:
		tag, color = "[EROR]", colorRed
	case level >= LevelWarn:
		tag, color = "[WARN]", colorYellow
	case level >= LevelInfo:
		tag, color = "[INFO]", colorGreen
	case level >= LevelDebug:
		tag, color = "[DBUG]", colorCyan
	default:
		tag, color = "[TRCE]", colorGray
	}
	if h.useColor {
		return fmt.Sprintf("\x1b[%dm%s\x1b[0m", color, tag)
	}
	return tag
}
