// Package signals turns asynchronous OS signals into a small, atomically
// updated state machine that the service loop polls.
//
//	Running --hangup--> ReloadRequested --(loop acknowledges)--> Running
//	Running/ReloadRequested --terminate--> Terminating (terminal)
//
// Signal delivery only flips the state word. Nothing here logs, locks a
// mutex on the delivery path, or touches files; the loop decides what to do.
package signals

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
)

// ///////////////////////////////////////////////
// State
// ///////////////////////////////////////////////

// State is the controller's view of what the OS has asked for.
type State int32

const (
	Running State = iota
	ReloadRequested
	Terminating
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case ReloadRequested:
		return "reload-requested"
	case Terminating:
		return "terminating"
	default:
		return "unknown"
	}
}

// ///////////////////////////////////////////////
// Controller
// ///////////////////////////////////////////////

// Controller owns the signal dispositions of the process and the resulting
// [State]. The zero value is not usable; call [New].
type Controller struct {
	state atomic.Int32

	ctx    context.Context
	cancel context.CancelFunc

	// mu guards installed and stopped; it is never taken on delivery.
	mu        sync.Mutex
	installed bool
	stopped   bool
	// One channel per kind: os/signal drops a signal when the buffer is
	// full, and a queued hangup must not cost a terminate.
	hup  chan os.Signal
	term chan os.Signal
	quit chan struct{}
	done chan struct{}
}

// New returns a Controller in the Running state. Its [Controller.Context] is
// derived from parent and is cancelled when the Terminating state is
// reached.
func New(parent context.Context) *Controller {
	ctx, cancel := context.WithCancel(parent)
	return &Controller{
		ctx:    ctx,
		cancel: cancel,
		hup:    make(chan os.Signal, 1),
		term:   make(chan os.Signal, 1),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Install registers the dispositions for the fixed signal set and starts
// delivering handled signals to the state machine. Calling it more than once
// has no further effect.
//
// Kill cannot be caught, blocked or ignored on POSIX systems, so no
// disposition is requested for it.
func (c *Controller) Install() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.installed || c.stopped {
		return
	}
	c.installed = true

	if len(hangupSignals) > 0 {
		signal.Notify(c.hup, hangupSignals...)
	}
	signal.Notify(c.term, terminateSignals...)
	if len(ignoredSignals) > 0 {
		signal.Ignore(ignoredSignals...)
	}
	for _, sig := range ignoredUnlessIgnored {
		if !signal.Ignored(sig) {
			signal.Ignore(sig)
		}
	}
	go c.dispatch()
}

// dispatch forwards each delivered signal to [Controller.Deliver] until
// [Controller.Stop] closes quit.
func (c *Controller) dispatch() {
	defer close(c.done)
	for {
		select {
		case sig := <-c.term:
			c.Deliver(sig)
		case sig := <-c.hup:
			c.Deliver(sig)
		case <-c.quit:
			return
		}
	}
}

// Deliver applies sig to the state machine as if the OS had delivered it.
// Signals outside the handled set are ignored.
func (c *Controller) Deliver(sig os.Signal) {
	switch {
	case contains(terminateSignals, sig):
		c.state.Store(int32(Terminating))
		c.cancel()
	case contains(hangupSignals, sig):
		c.state.CompareAndSwap(int32(Running), int32(ReloadRequested))
	}
}

// CurrentState returns the current state.
func (c *Controller) CurrentState() State {
	return State(c.state.Load())
}

// AckReload moves ReloadRequested back to Running and reports whether a
// reload was pending. It never leaves Terminating.
func (c *Controller) AckReload() bool {
	return c.state.CompareAndSwap(int32(ReloadRequested), int32(Running))
}

// Context returns a context that is cancelled once terminate is delivered.
func (c *Controller) Context() context.Context {
	return c.ctx
}

// Stop detaches the controller from signal delivery. Dispositions for
// ignored signals stay in place and the state is left as it is. Install
// after Stop does nothing.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.stopped = true
	if !c.installed {
		return
	}
	signal.Stop(c.hup)
	signal.Stop(c.term)
	close(c.quit)
	<-c.done
}

func contains(set []os.Signal, sig os.Signal) bool {
	for _, s := range set {
		if s == sig {
			return true
		}
	}
	return false
}
