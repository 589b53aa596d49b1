//go:build !windows

package main

import "golang.org/x/sys/unix"

// sendControl delivers the signal behind a reload or stop command.
func sendControl(pid int, command string) error {
	sig := unix.SIGTERM
	if command == "reload" {
		sig = unix.SIGHUP
	}
	return unix.Kill(pid, sig)
}
