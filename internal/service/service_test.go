//go:build !windows

// Package service tests check iteration spacing, cancellation during the
// sleep, deferred reload handling and that work errors are not fatal.
package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"tools.zach/dev/slrdaemon/internal/logger"
	"tools.zach/dev/slrdaemon/internal/signals"
)

// ///////////////////////////////////////////////
// Helpers
// ///////////////////////////////////////////////

// recorder is a Work that records the time of each run and signals on ran.
type recorder struct {
	mu    sync.Mutex
	times []time.Time
	ran   chan int
	err   error
}

func newRecorder() *recorder {
	return &recorder{ran: make(chan int, 100)}
}

func (r *recorder) Run(context.Context) error {
	r.mu.Lock()
	r.times = append(r.times, time.Now())
	n := len(r.times)
	r.mu.Unlock()
	r.ran <- n
	return r.err
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.times)
}

type countingReloader struct{ n atomic.Int32 }

func (c *countingReloader) Reload(context.Context) error {
	c.n.Add(1)
	return nil
}

func waitRun(t *testing.T, r *recorder, want int) {
	t.Helper()
	select {
	case n := <-r.ran:
		if n != want {
			t.Fatalf("run %d observed, want %d", n, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for run %d", want)
	}
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func startLoop(t *testing.T, l *Loop, ctx context.Context) <-chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	return done
}

// ///////////////////////////////////////////////
// Scheduling
// ///////////////////////////////////////////////

func TestLoopSpacing(t *testing.T) {
	const interval = 50 * time.Millisecond
	r := newRecorder()
	ctrl := signals.New(context.Background())
	l := NewLoop(interval, r, nil, ctrl, discard())

	done := startLoop(t, l, ctrl.Context())
	for i := 1; i <= 3; i++ {
		waitRun(t, r, i)
	}
	ctrl.Deliver(terminate)
	if err := <-done; err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for i := 1; i < len(r.times); i++ {
		if gap := r.times[i].Sub(r.times[i-1]); gap < interval {
			t.Errorf("gap between run %d and %d = %v, want >= %v", i, i+1, gap, interval)
		}
	}
}

func TestLoopCancelledBeforeStart(t *testing.T) {
	r := newRecorder()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := NewLoop(time.Hour, r, nil, signals.New(context.Background()), discard())
	if err := l.Run(ctx); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if n := r.count(); n != 0 {
		t.Errorf("work ran %d times, want 0", n)
	}
}

func TestLoopTerminateDuringSleep(t *testing.T) {
	r := newRecorder()
	ctrl := signals.New(context.Background())
	l := NewLoop(time.Hour, r, nil, ctrl, discard())

	done := startLoop(t, l, ctrl.Context())
	waitRun(t, r, 1)
	ctrl.Deliver(terminate)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not return after terminate")
	}
	if n := r.count(); n != 1 {
		t.Errorf("work ran %d times, want 1", n)
	}
	if got := ctrl.CurrentState(); got != signals.Terminating {
		t.Errorf("state = %v, want terminating", got)
	}
}

// ///////////////////////////////////////////////
// Reload
// ///////////////////////////////////////////////

func TestLoopReloadObservedAtNextWakeUp(t *testing.T) {
	const interval = 100 * time.Millisecond
	r := newRecorder()
	rl := &countingReloader{}
	ctrl := signals.New(context.Background())
	l := NewLoop(interval, r, rl, ctrl, discard())

	done := startLoop(t, l, ctrl.Context())
	waitRun(t, r, 1)

	ctrl.Deliver(hangup)
	if got := ctrl.CurrentState(); got != signals.ReloadRequested {
		t.Fatalf("state after hangup = %v, want reload-requested", got)
	}
	if n := rl.n.Load(); n != 0 {
		t.Errorf("reload ran %d times during sleep, want 0", n)
	}

	waitRun(t, r, 2)
	if n := rl.n.Load(); n != 1 {
		t.Errorf("reload ran %d times after wake-up, want 1", n)
	}
	if got := ctrl.CurrentState(); got != signals.Running {
		t.Errorf("state after reload = %v, want running", got)
	}

	waitRun(t, r, 3)
	if n := rl.n.Load(); n != 1 {
		t.Errorf("reload ran %d times, want exactly 1", n)
	}

	ctrl.Deliver(terminate)
	<-done
}

func TestLoopReloadLogged(t *testing.T) {
	var buf bytes.Buffer
	r := newRecorder()
	ctrl := signals.New(context.Background())
	ctrl.Deliver(hangup)

	l := NewLoop(time.Hour, r, nil, ctrl, slog.New(logger.NewHandler(&buf, logger.LevelInfo)))
	done := startLoop(t, l, ctrl.Context())
	waitRun(t, r, 1)
	ctrl.Deliver(terminate)
	<-done

	if !strings.Contains(buf.String(), "reload requested") {
		t.Errorf("log = %q, want a reload notice", buf.String())
	}
}

// ///////////////////////////////////////////////
// Work Errors
// ///////////////////////////////////////////////

func TestLoopWorkErrorNotFatal(t *testing.T) {
	var buf bytes.Buffer
	r := newRecorder()
	r.err = errors.New("upstream unavailable")
	ctrl := signals.New(context.Background())
	l := NewLoop(10*time.Millisecond, r, nil, ctrl, slog.New(logger.NewHandler(&buf, logger.LevelInfo)))

	done := startLoop(t, l, ctrl.Context())
	waitRun(t, r, 1)
	waitRun(t, r, 2)
	ctrl.Deliver(terminate)
	if err := <-done; err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !strings.Contains(buf.String(), "work failed") || !strings.Contains(buf.String(), "upstream unavailable") {
		t.Errorf("log = %q, want the work error", buf.String())
	}
}

// ///////////////////////////////////////////////
// NoticeWork
// ///////////////////////////////////////////////

func TestNoticeWork(t *testing.T) {
	tests := []struct {
		name     string
		testMode bool
		want     string
	}{
		{"normal", false, "Running\n"},
		{"test mode", true, "Running | test_mode=true\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			w := NoticeWork{Events: slog.New(logger.NewHandler(&buf, logger.LevelInfo)), TestMode: tt.testMode}
			if err := w.Run(context.Background()); err != nil {
				t.Fatalf("Run() error: %v", err)
			}
			if !strings.HasSuffix(buf.String(), ": "+tt.want) {
				t.Errorf("output = %q, want suffix %q", buf.String(), ": "+tt.want)
			}
		})
	}
}

func TestWorkFunc(t *testing.T) {
	called := false
	var w Work = WorkFunc(func(context.Context) error {
		called = true
		return nil
	})
	if err := w.Run(context.Background()); err != nil || !called {
		t.Errorf("WorkFunc.Run() = %v, called = %v", err, called)
	}
}
