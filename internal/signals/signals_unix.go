//go:build !windows

package signals

import (
	"os"
	"syscall"
)

var (
	// hangupSignals request a reload.
	hangupSignals = []os.Signal{syscall.SIGHUP}
	// terminateSignals request shutdown.
	terminateSignals = []os.Signal{syscall.SIGTERM}
	// ignoredSignals keep job control and child exits from touching the
	// daemon. Ignoring SIGCHLD also lets the kernel reap any children.
	ignoredSignals = []os.Signal{
		syscall.SIGCHLD,
		syscall.SIGTSTP,
		syscall.SIGTTOU,
		syscall.SIGTTIN,
	}
	// ignoredUnlessIgnored are ignored only when the process did not
	// already inherit them as ignored.
	ignoredUnlessIgnored = []os.Signal{os.Interrupt}
)
