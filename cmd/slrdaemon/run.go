package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"github.com/google/uuid"

	"tools.zach/dev/slrdaemon/internal/config"
	"tools.zach/dev/slrdaemon/internal/daemon"
	"tools.zach/dev/slrdaemon/internal/logger"
	"tools.zach/dev/slrdaemon/internal/service"
	"tools.zach/dev/slrdaemon/internal/signals"
)

// runDaemon detaches, takes the instance lock and runs the service loop
// until SIGTERM. It returns 0 in the original process once the background
// copy is running and when another instance already holds the lock.
func runDaemon(sc config.ServiceConfig, stderr io.Writer) int {
	events, eventsCloser, err := logger.OpenEventLog(sc.ProgramName)
	if err != nil {
		fmt.Fprintf(stderr, "%s: system log unavailable: %v\n", sc.ProgramName, err)
	}
	defer eventsCloser.Close()

	// The background copy runs main again; only the first pass announces.
	if !daemon.IsChild() {
		events.Info("Successfully started " + sc.ProgramName)
	}

	ctrl := signals.New(context.Background())
	defer ctrl.Stop()

	mgr := daemon.New(daemon.Options{
		WorkDir:    sc.WorkDir,
		Umask:      sc.Umask,
		LockPath:   sc.LockPath,
		EnvKeep:    sc.EnvKeep,
		Foreground: sc.Foreground,
	}, ctrl, events)

	dctx, err := mgr.Detach()
	switch {
	case errors.Is(err, daemon.ErrParent):
		return 0
	case errors.Is(err, daemon.ErrAlreadyRunning):
		events.Info("another instance is running, exiting", "lock", sc.LockPath)
		return 0
	case err != nil:
		logger.Fail(events, "could not start", "error", err)
		fmt.Fprintf(stderr, "%s: %v\n", sc.ProgramName, err)
		return 1
	}
	// The lock is held by the descriptor; it must outlive the loop.
	defer runtime.KeepAlive(dctx.Lock)

	log, logCloser := logger.NewLogger(sc.LogTarget, logger.ParseLevel(sc.LogLevel), sc.LogMaxSizeMB)
	defer logCloser.Close()
	slog.SetDefault(log)

	attrs := []any{
		"version", resolveVersion(),
		"instance", uuid.NewString(),
		"pid", dctx.PID,
	}
	if dctx.SessionID != 0 {
		attrs = append(attrs, "sid", dctx.SessionID)
	}
	attrs = append(attrs,
		"pgid", dctx.ProcessGroup,
		"cycle", sc.CycleInterval,
		"test_mode", sc.TestMode,
	)
	log.Info(sc.ProgramName+" started", attrs...)

	work := service.NoticeWork{Events: events, TestMode: sc.TestMode}
	loop := service.NewLoop(sc.CycleInterval, work, service.NopReloader{}, ctrl, log)
	if err := loop.Run(ctrl.Context()); err != nil {
		log.Error("service loop failed", "error", err)
	}

	events.Info(sc.ProgramName + " terminating")
	log.Info("terminating")
	return 0
}
