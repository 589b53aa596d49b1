//go:build !windows

package daemon

import (
	"fmt"
	"os"

	godaemon "github.com/sevlyar/go-daemon"
	"golang.org/x/sys/unix"

	"tools.zach/dev/slrdaemon/internal/lock"
)

func defaultSysOps() sysOps {
	return sysOps{
		reborn:    reborn,
		umask:     unix.Umask,
		chdir:     os.Chdir,
		acquire:   lock.Acquire,
		setsid:    unix.Setsid,
		getsid:    func() (int, error) { return unix.Getsid(0) },
		getpid:    os.Getpid,
		getpgrp:   unix.Getpgrp,
		nullStdio: redirectStdio,
	}
}

// IsChild reports whether this process is the background copy started by
// [Manager.Detach].
func IsChild() bool {
	return godaemon.WasReborn()
}

// reborn re-executes the current binary with the same arguments and the
// given environment. It returns the child in the original process and nil in
// the child. The child starts in a new session with stdio on /dev/null.
func reborn(env []string) (*os.Process, error) {
	dctx := &godaemon.Context{Env: childEnv(env)}
	return dctx.Reborn()
}

// childEnv adds go-daemon's child marker to env. go-daemon substitutes the
// full inherited environment for an empty one, so the list must never be
// empty even when nothing matched the keep patterns.
func childEnv(env []string) []string {
	out := make([]string, 0, len(env)+1)
	out = append(out, env...)
	return append(out, godaemon.MARK_NAME+"="+godaemon.MARK_VALUE)
}

// redirectStdio points descriptors 0, 1 and 2 at /dev/null. Leaving them
// closed would let the next open land on a standard descriptor.
func redirectStdio() error {
	fd, err := unix.Open(os.DevNull, unix.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("open %s: %w", os.DevNull, err)
	}
	for std := 0; std <= 2; std++ {
		if fd == std {
			continue
		}
		if err := unix.Dup2(fd, std); err != nil {
			return fmt.Errorf("redirect fd %d: %w", std, err)
		}
	}
	if fd > 2 {
		unix.Close(fd)
	}
	return nil
}
