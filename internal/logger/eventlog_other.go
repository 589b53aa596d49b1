//go:build windows || plan9

package logger

import (
	"errors"
	"io"
	"log/slog"
)

// OpenEventLog always returns a discarding logger: there is no syslog on
// this platform.
func OpenEventLog(tag string) (*slog.Logger, io.Closer, error) {
	l, c := discardEventLog()
	return l, c, errors.ErrUnsupported
}
