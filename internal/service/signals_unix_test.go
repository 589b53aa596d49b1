//go:build !windows

package service

import "syscall"

var (
	hangup    = syscall.SIGHUP
	terminate = syscall.SIGTERM
)
