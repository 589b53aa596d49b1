//go:build windows

package daemon

import (
	"errors"
	"os"

	"tools.zach/dev/slrdaemon/internal/lock"
)

// Only foreground mode works here: there is no fork, session or umask.
func defaultSysOps() sysOps {
	unsupported := func() error { return errors.ErrUnsupported }
	return sysOps{
		reborn:    func([]string) (*os.Process, error) { return nil, errors.ErrUnsupported },
		umask:     func(int) int { return 0 },
		chdir:     os.Chdir,
		acquire:   lock.Acquire,
		setsid:    func() (int, error) { return 0, errors.ErrUnsupported },
		getsid:    func() (int, error) { return 0, nil },
		getpid:    os.Getpid,
		getpgrp:   func() int { return 0 },
		nullStdio: unsupported,
	}
}

// IsChild always reports false: there is no background copy on Windows.
func IsChild() bool {
	return false
}
