package logger

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// ///////////////////////////////////////////////
// System Event Log
// ///////////////////////////////////////////////

// EventWriter is the subset of a syslog writer the event handler needs.
// *log/syslog.Writer satisfies it.
type EventWriter interface {
	Debug(m string) error
	Notice(m string) error
	Warning(m string) error
	Err(m string) error
	Crit(m string) error
}

// EventHandler is a slog.Handler that forwards records to the system event
// log. The event log stamps time, host, tag and pid itself, so a line is
// just the message followed by " | key=value" attributes.
//
// Level mapping: trace/debug -> debug, info -> notice, warn -> warning,
// error -> err, fail -> crit.
type EventHandler struct {
	w     EventWriter
	mu    *sync.Mutex
	level slog.Level
	attrs []slog.Attr
	group string
}

// NewEventHandler creates an EventHandler writing to w.
func NewEventHandler(w EventWriter, level slog.Level) *EventHandler {
	return &EventHandler{w: w, level: level, mu: &sync.Mutex{}}
}

// Enabled reports whether the handler handles records at the given level.
func (h *EventHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

// Handle writes r at the event log priority matching its level.
func (h *EventHandler) Handle(_ context.Context, r slog.Record) error {
	var buf strings.Builder
	buf.WriteString(r.Message)
	writeAttrs(&buf, h.group, h.attrs, r)
	msg := buf.String()

	h.mu.Lock()
	defer h.mu.Unlock()
	switch {
	case r.Level < LevelInfo:
		return h.w.Debug(msg)
	case r.Level < LevelWarn:
		return h.w.Notice(msg)
	case r.Level < LevelError:
		return h.w.Warning(msg)
	case r.Level < LevelFail:
		return h.w.Err(msg)
	default:
		return h.w.Crit(msg)
	}
}

// WithAttrs returns a new EventHandler with the given attributes pre-applied.
func (h *EventHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &EventHandler{w: h.w, mu: h.mu, level: h.level, attrs: newAttrs, group: h.group}
}

// WithGroup returns a new EventHandler with the given group name.
func (h *EventHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	newGroup := name
	if h.group != "" {
		newGroup = h.group + "." + name
	}
	return &EventHandler{w: h.w, mu: h.mu, level: h.level, attrs: h.attrs, group: newGroup}
}

// nopCloser is returned alongside the discard logger when no event log is
// reachable.
type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// discardEventLog is the fallback used when the system event log cannot be
// opened.
func discardEventLog() (*slog.Logger, io.Closer) {
	return slog.New(slog.DiscardHandler), nopCloser{}
}
