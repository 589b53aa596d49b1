// Package logger provides the daemon's two log sinks: an append-only file log
// and the system event log.
//
// File log format, one line per record:
//
//	Mon Jan  2 15:04:05 2006: message | key=value, key2=value2
//
// Custom levels beyond the standard slog set:
//   - LevelTrace (-8): verbose diagnostic tracing
//   - LevelFail  (12): unrecoverable errors
package logger

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// ///////////////////////////////////////////////
// Custom Levels
// ///////////////////////////////////////////////

const (
	LevelTrace slog.Level = -8
	LevelDebug slog.Level = slog.LevelDebug // -4
	LevelInfo  slog.Level = slog.LevelInfo  // 0
	LevelWarn  slog.Level = slog.LevelWarn  // 4
	LevelError slog.Level = slog.LevelError // 8
	LevelFail  slog.Level = 12
)

// ParseLevel converts a level string to slog.Level.
// Supports: trace, debug, info, warn, error, fail (case-insensitive).
// Returns LevelInfo for unrecognized strings.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "trace":
		return LevelTrace
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	case "fail":
		return LevelFail
	default:
		return LevelInfo
	}
}

// ///////////////////////////////////////////////
// Handler
// ///////////////////////////////////////////////

// TimeLayout is the ctime(3) style timestamp that prefixes every file log line.
const TimeLayout = "Mon Jan _2 15:04:05 2006"

// Handler is a slog.Handler that formats log records as:
//
//	Mon Jan  2 15:04:05 2006: message | key=value, ...
//
// Timestamps are local time. Write errors are dropped: logging is
// diagnostic and an unwritable log must never take the daemon down.
type Handler struct {
	// w is the destination writer for formatted log output.
	w io.Writer
	// mu serializes writes to w so concurrent log calls do not interleave.
	mu *sync.Mutex
	// level is the minimum severity that this handler will emit.
	level slog.Level
	// attrs holds pre-applied attributes added via [Handler.WithAttrs].
	attrs []slog.Attr
	// group is the dot-separated attribute key prefix set via [Handler.WithGroup].
	group string
}

// NewHandler creates a Handler that writes to w, filtering records below level.
func NewHandler(w io.Writer, level slog.Level) *Handler {
	return &Handler{w: w, level: level, mu: &sync.Mutex{}}
}

// Enabled reports whether the handler handles records at the given level.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

// Handle formats and writes a log record.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var buf strings.Builder

	buf.WriteString(r.Time.Local().Format(TimeLayout))
	buf.WriteString(": ")
	buf.WriteString(r.Message)
	writeAttrs(&buf, h.group, h.attrs, r)
	buf.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, _ = io.WriteString(h.w, buf.String())
	return nil
}

// writeAttrs appends " | k=v, k2=v2" for the pre-applied and record
// attributes, or nothing when there are none.
func writeAttrs(buf *strings.Builder, group string, pre []slog.Attr, r slog.Record) {
	all := make([]slog.Attr, 0, len(pre)+r.NumAttrs())
	all = append(all, pre...)
	r.Attrs(func(a slog.Attr) bool {
		all = append(all, a)
		return true
	})
	if len(all) == 0 {
		return
	}

	buf.WriteString(" | ")
	for i, a := range all {
		if i > 0 {
			buf.WriteString(", ")
		}
		if group != "" {
			buf.WriteString(group)
			buf.WriteString(".")
		}
		buf.WriteString(a.Key)
		buf.WriteString("=")
		buf.WriteString(a.Value.String())
	}
}

// WithAttrs returns a new Handler with the given attributes pre-applied.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &Handler{w: h.w, mu: h.mu, level: h.level, attrs: newAttrs, group: h.group}
}

// WithGroup returns a new Handler with the given group name.
// Attributes logged through the returned handler will have keys
// prefixed with the group name (e.g., "group.key").
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	newGroup := name
	if h.group != "" {
		newGroup = h.group + "." + name
	}
	return &Handler{w: h.w, mu: h.mu, level: h.level, attrs: h.attrs, group: newGroup}
}

// ///////////////////////////////////////////////
// Logger Constructor
// ///////////////////////////////////////////////

// NewLogger creates a slog.Logger that appends to a rotating log file.
// The file is opened lazily on the first record, so an unwritable path is
// not an error here; records are simply lost. The returned io.Closer must be
// closed to release the file.
func NewLogger(logPath string, minLevel slog.Level, maxSizeMB int) (*slog.Logger, io.Closer) {
	lj := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    maxSizeMB,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   false,
	}

	return slog.New(NewHandler(lj, minLevel)), lj
}

// ///////////////////////////////////////////////
// Helper Functions
// ///////////////////////////////////////////////

// Trace logs a message at LevelTrace.
func Trace(logger *slog.Logger, msg string, args ...any) {
	logger.Log(context.Background(), LevelTrace, msg, args...)
}

// Fail logs a message at LevelFail.
func Fail(logger *slog.Logger, msg string, args ...any) {
	logger.Log(context.Background(), LevelFail, msg, args...)
}

// ///////////////////////////////////////////////
// ReadTail
// ///////////////////////////////////////////////

// ReadTail returns the last n lines from the file at path.
// Returns an error if the file doesn't exist or can't be read.
func ReadTail(path string, lines int) (string, error) {
	if lines <= 0 {
		return "", nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	buf := make([]string, 0, lines)
	idx := 0

	for scanner.Scan() {
		if len(buf) < lines {
			buf = append(buf, scanner.Text())
		} else {
			buf[idx%lines] = scanner.Text()
		}
		idx++
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading log file: %w", err)
	}

	// Reorder the circular buffer so lines are in chronological order.
	if len(buf) < lines {
		return strings.Join(buf, "\n"), nil
	}
	start := idx % lines
	ordered := make([]string, 0, lines)
	ordered = append(ordered, buf[start:]...)
	ordered = append(ordered, buf[:start]...)
	return strings.Join(ordered, "\n"), nil
}
