// Package daemon turns the foreground process into a detached,
// single-instance background service.
//
// [Manager.Detach] runs a fixed sequence of steps, each a precondition for the
// next:
//
//  1. duplicate the process; the original returns [ErrParent] and exits
//  2. install the file-creation mask
//  3. change into the work directory
//  4. take the single-instance lock ([ErrAlreadyRunning] when held elsewhere)
//  5. install signal dispositions
//  6. start a new session, dropping the controlling terminal
//  7. point stdin, stdout and stderr at /dev/null
//
// Duplication is a re-exec of the current binary: Go cannot fork a running
// runtime, so the child starts from main again and picks up at step 2.
// Foreground mode skips steps 1, 6 and 7.
package daemon

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"tools.zach/dev/slrdaemon/internal/lock"
)

// ///////////////////////////////////////////////
// Errors
// ///////////////////////////////////////////////

var (
	// ErrParent is returned to the original process once the background
	// copy has been started. The caller should exit successfully.
	ErrParent = errors.New("daemon: continuing in background process")
	// ErrAlreadyRunning is returned when another instance holds the lock.
	// The caller should exit successfully.
	ErrAlreadyRunning = errors.New("daemon: another instance is already running")
)

// Step names one stage of [Manager.Detach].
type Step string

const (
	StepFork    Step = "fork"
	StepChdir   Step = "chdir"
	StepLock    Step = "lock"
	StepSession Step = "setsid"
	StepStdio   Step = "stdio"
)

// DetachError is a fatal failure of one detachment step.
type DetachError struct {
	Step Step
	Err  error
}

func (e *DetachError) Error() string {
	return fmt.Sprintf("detach: %s: %v", e.Step, e.Err)
}

func (e *DetachError) Unwrap() error { return e.Err }

// ///////////////////////////////////////////////
// Types
// ///////////////////////////////////////////////

// Context is the process identity after a successful [Manager.Detach].
type Context struct {
	// PID is the daemon's process id.
	PID int
	// SessionID is the session the daemon runs in; zero when unknown.
	SessionID int
	// ProcessGroup is the daemon's process group id.
	ProcessGroup int
	// WorkDir is the directory the daemon changed into.
	WorkDir string
	// Lock is the held instance lock. It must stay reachable until exit.
	Lock *lock.Handle
}

// Options configures detachment.
type Options struct {
	// WorkDir is the directory to change into.
	WorkDir string
	// Umask is the file-creation mask to install.
	Umask int
	// LockPath is the single-instance lock file.
	LockPath string
	// EnvKeep lists glob patterns of environment variable names handed to the
	// background process.
	EnvKeep []string
	// Foreground skips duplication, session creation and stdio redirection.
	Foreground bool
}

// SignalInstaller installs the daemon's signal dispositions.
type SignalInstaller interface {
	Install()
}

// sysOps are the OS primitives Detach is built from.
type sysOps struct {
	reborn    func(env []string) (*os.Process, error)
	umask     func(mask int) int
	chdir     func(dir string) error
	acquire   func(path string) (*lock.Handle, error)
	setsid    func() (int, error)
	getsid    func() (int, error)
	getpid    func() int
	getpgrp   func() int
	nullStdio func() error
}

// ///////////////////////////////////////////////
// Manager
// ///////////////////////////////////////////////

// Manager runs the detachment sequence.
type Manager struct {
	opts    Options
	signals SignalInstaller
	events  *slog.Logger
	sys     sysOps
}

// New returns a Manager. events receives failures that happen before the
// file log is usable.
func New(opts Options, signals SignalInstaller, events *slog.Logger) *Manager {
	return &Manager{
		opts:    opts,
		signals: signals,
		events:  events,
		sys:     defaultSysOps(),
	}
}

// Detach runs the detachment sequence and returns the daemon's [Context].
//
// In the original process it returns [ErrParent] as soon as the background
// copy is started. When the lock is held by another instance it returns
// [ErrAlreadyRunning]. Every other failure is a *[DetachError]; nothing is
// retried and the caller is expected to exit.
func (m *Manager) Detach() (*Context, error) {
	if !m.opts.Foreground {
		child, err := m.sys.reborn(FilterEnv(os.Environ(), m.opts.EnvKeep))
		if err != nil {
			return nil, &DetachError{Step: StepFork, Err: err}
		}
		if child != nil {
			return nil, ErrParent
		}
	}

	m.sys.umask(m.opts.Umask)

	if err := m.sys.chdir(m.opts.WorkDir); err != nil {
		m.events.Error("could not change working directory", "dir", m.opts.WorkDir, "error", err)
		return nil, &DetachError{Step: StepChdir, Err: err}
	}

	h, err := m.sys.acquire(m.opts.LockPath)
	if err != nil {
		if errors.Is(err, lock.ErrLocked) {
			return nil, ErrAlreadyRunning
		}
		return nil, &DetachError{Step: StepLock, Err: err}
	}

	m.signals.Install()

	var sid int
	if m.opts.Foreground {
		if sid, err = m.sys.getsid(); err != nil {
			m.events.Warn("could not read session id", "error", err)
			sid = 0
		}
	} else {
		sid, err = m.newSession()
		if err != nil {
			m.events.Error("could not create process group", "error", err)
			return nil, &DetachError{Step: StepSession, Err: err}
		}
		if err := m.sys.nullStdio(); err != nil {
			return nil, &DetachError{Step: StepStdio, Err: err}
		}
	}

	return &Context{
		PID:          m.sys.getpid(),
		SessionID:    sid,
		ProcessGroup: m.sys.getpgrp(),
		WorkDir:      m.opts.WorkDir,
		Lock:         h,
	}, nil
}

// newSession makes the process a session leader. The background copy is
// spawned into a fresh session already, in which case setsid fails with
// EPERM and the existing session is kept.
func (m *Manager) newSession() (int, error) {
	sid, err := m.sys.setsid()
	if err == nil {
		return sid, nil
	}
	if cur, gerr := m.sys.getsid(); gerr == nil && cur == m.sys.getpid() {
		return cur, nil
	}
	return 0, err
}
