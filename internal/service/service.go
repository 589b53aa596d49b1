// Package service runs the daemon's periodic unit of work.
//
// A [Loop] alternates between one call to its [Work] and a fixed sleep. It
// polls a [Control] between iterations: a pending reload is acknowledged
// and handed to the [Reloader] on the first wake-up after it was requested,
// and cancellation of the context ends the loop without another iteration.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"tools.zach/dev/slrdaemon/internal/logger"
)

// ///////////////////////////////////////////////
// Extension Points
// ///////////////////////////////////////////////

// Work is one unit of periodic work. A returned error is logged and the loop
// carries on.
type Work interface {
	Run(ctx context.Context) error
}

// WorkFunc adapts a function to [Work].
type WorkFunc func(ctx context.Context) error

func (f WorkFunc) Run(ctx context.Context) error { return f(ctx) }

// NoticeWork writes a fixed notice to the system event log on every run.
type NoticeWork struct {
	Events *slog.Logger
	// TestMode is carried for work implementations that care; NoticeWork
	// only records it.
	TestMode bool
}

func (w NoticeWork) Run(context.Context) error {
	if w.TestMode {
		w.Events.Info("Running", "test_mode", true)
		return nil
	}
	w.Events.Info("Running")
	return nil
}

// Reloader is invoked after a reload has been requested.
type Reloader interface {
	Reload(ctx context.Context) error
}

// NopReloader accepts reload requests and does nothing.
type NopReloader struct{}

func (NopReloader) Reload(context.Context) error { return nil }

// Control is the loop's view of the signal state machine.
type Control interface {
	// AckReload clears a pending reload request and reports whether one
	// was pending.
	AckReload() bool
}

// ///////////////////////////////////////////////
// Loop
// ///////////////////////////////////////////////

// Loop runs Work every interval until its context is cancelled.
type Loop struct {
	interval time.Duration
	work     Work
	reloader Reloader
	control  Control
	log      *slog.Logger
}

// NewLoop returns a Loop. A nil reloader is replaced with [NopReloader].
func NewLoop(interval time.Duration, work Work, reloader Reloader, control Control, log *slog.Logger) *Loop {
	if reloader == nil {
		reloader = NopReloader{}
	}
	return &Loop{
		interval: interval,
		work:     work,
		reloader: reloader,
		control:  control,
		log:      log,
	}
}

// Run executes the loop. It returns nil when ctx is cancelled, which is the
// only way it ends. The sleep between iterations is cut short only by
// cancellation; a reload request waits for the next natural wake-up.
func (l *Loop) Run(ctx context.Context) error {
	timer := time.NewTimer(l.interval)
	defer timer.Stop()

	for iteration := 1; ; iteration++ {
		if ctx.Err() != nil {
			return nil
		}

		if l.control.AckReload() {
			l.log.Info("reload requested")
			if err := l.reloader.Reload(ctx); err != nil {
				l.log.Error("reload failed", "error", err)
			}
		}

		logger.Trace(l.log, "cycle", "iteration", iteration)
		if err := l.work.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			l.log.Error("work failed", "iteration", iteration, "error", err)
		}

		timer.Reset(l.interval)
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}
	}
}
