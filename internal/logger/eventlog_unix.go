// System event log via syslog(3).
//
// This file is compiled on platforms where log/syslog is available.

//go:build !windows && !plan9

package logger

import (
	"fmt"
	"io"
	"log/slog"
	"log/syslog"
)

// OpenEventLog connects to the local syslog daemon under the LOG_USER
// facility, tagging every entry with tag and the process id. When syslog is
// unreachable it returns a logger that discards everything together with the
// connection error, so callers can carry on either way.
func OpenEventLog(tag string) (*slog.Logger, io.Closer, error) {
	w, err := syslog.New(syslog.LOG_NOTICE|syslog.LOG_USER, tag)
	if err != nil {
		l, c := discardEventLog()
		return l, c, fmt.Errorf("open syslog: %w", err)
	}
	return slog.New(NewEventHandler(w, LevelDebug)), w, nil
}
