package main

import (
	"errors"
	"fmt"
	"io"

	"tools.zach/dev/slrdaemon/internal/config"
	"tools.zach/dev/slrdaemon/internal/lock"
	"tools.zach/dev/slrdaemon/internal/logger"
)

// ///////////////////////////////////////////////
// Control Commands
// ///////////////////////////////////////////////

// errNotRunning is returned by reload and stop when no instance holds the
// lock.
var errNotRunning = errors.New("not running")

// control handles -s. Liveness is decided by probing the instance lock, so
// a stale lock file left by a dead daemon reads as not running. It never
// takes the lock for longer than the probe and never writes the log.
func control(sc config.ServiceConfig, command string, lines int, stdout io.Writer) error {
	switch command {
	case "status", "reload", "stop":
	default:
		return &usageError{err: fmt.Errorf("unknown control command %q: want status, reload or stop", command)}
	}

	st, err := lock.Probe(sc.LockPath)
	if err != nil && !st.Held {
		return err
	}

	switch command {
	case "status":
		if !st.Held {
			fmt.Fprintln(stdout, "not running")
			return exitStatus(1)
		}
		if st.PID > 0 {
			fmt.Fprintf(stdout, "running (pid %d)\n", st.PID)
		} else {
			fmt.Fprintln(stdout, "running (pid unknown)")
		}
		if lines > 0 {
			tail, err := logger.ReadTail(sc.LogTarget, lines)
			if err != nil {
				return fmt.Errorf("read log: %w", err)
			}
			if tail != "" {
				fmt.Fprintln(stdout, tail)
			}
		}
		return nil
	default:
		if !st.Held {
			return errNotRunning
		}
		if st.PID <= 0 {
			return fmt.Errorf("lock held but no pid recorded in %s", sc.LockPath)
		}
		if err := sendControl(st.PID, command); err != nil {
			return fmt.Errorf("%s pid %d: %w", command, st.PID, err)
		}
		return nil
	}
}
