// Package main implements slrdaemon, a minimal single-instance background
// service that detaches from its terminal and runs a periodic unit of work
// until it receives SIGTERM.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"tools.zach/dev/slrdaemon/internal/config"
)

// ///////////////////////////////////////////////
// Version
// ///////////////////////////////////////////////

// version is set at build time with -ldflags "-X main.version=0.1.0". When it
// is not set, resolveVersion reads the VCS info that Go embeds automatically.
var version = "dev"

// resolveVersion returns the build version string. If [version] was set via
// ldflags it is returned as-is; otherwise the embedded VCS revision and dirty
// state are used to construct a "dev+<hash>" tag.
func resolveVersion() string {
	if version != "dev" {
		return version
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return version
	}
	var revision string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if revision == "" {
		return version
	}
	hash := revision[:min(7, len(revision))]
	if dirty {
		return "dev+" + hash + ".dirty"
	}
	return "dev+" + hash
}

// ///////////////////////////////////////////////
// Command Line
// ///////////////////////////////////////////////

const usageString = "[-t][-v][-c seconds][-f logfile]"

// options holds the parsed command-line flags.
type options struct {
	version    bool
	testMode   bool
	cycle      string
	logFile    string
	configPath string
	foreground bool
	control    string
	lines      int
}

// runFunc runs the daemon with the resolved configuration and returns the
// process exit status.
type runFunc func(sc config.ServiceConfig, stderr io.Writer) int

// exitStatus is returned from a command to request a specific exit status
// without printing anything further.
type exitStatus int

func (e exitStatus) Error() string { return fmt.Sprintf("exit status %d", int(e)) }

// usageError marks a command-line error that should be followed by the usage
// line.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// newRootCommand builds the slrdaemon command. run is invoked only once the
// configuration is complete and valid and no control command was given.
func newRootCommand(prog string, stdout, stderr io.Writer, run runFunc) *cobra.Command {
	var o options

	cmd := &cobra.Command{
		Use:           prog + " " + usageString,
		Short:         "Minimal single-instance background service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if o.version {
				fmt.Fprintf(stdout, "%s %s\n", prog, resolveVersion())
				return nil
			}

			sc, err := resolveConfig(cmd.Flags(), &o, prog)
			if err != nil {
				return err
			}

			if o.control != "" {
				return control(sc, o.control, o.lines, stdout)
			}
			if cmd.Flags().Changed("lines") {
				return &usageError{err: errors.New("-L requires -s status")}
			}

			if code := run(sc, stderr); code != 0 {
				return exitStatus(code)
			}
			return nil
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	f := cmd.Flags()
	f.BoolVarP(&o.version, "version", "v", false, "Print version and exit")
	f.BoolVarP(&o.testMode, "test", "t", false, "Enable test mode")
	f.StringVarP(&o.cycle, "cycle", "c", "", "Seconds between work cycles")
	f.StringVarP(&o.logFile, "logfile", "f", "", "Log file path")
	f.StringVarP(&o.configPath, "config", "C", "", "Configuration file path")
	f.BoolVarP(&o.foreground, "foreground", "F", false, "Stay in the foreground")
	f.StringVarP(&o.control, "signal", "s", "", "Control a running instance: status, reload or stop")
	f.IntVarP(&o.lines, "lines", "L", 0, "With -s status, print the last n log lines")

	return cmd
}

// resolveConfig layers the configuration file and the command-line flags
// over the defaults and freezes the result.
func resolveConfig(flags *pflag.FlagSet, o *options, prog string) (config.ServiceConfig, error) {
	path := o.configPath
	if path != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return config.ServiceConfig{}, fmt.Errorf("resolve config path: %w", err)
		}
		path = abs
	}

	cfg, err := config.Load(path)
	if err != nil {
		return config.ServiceConfig{}, err
	}

	if flags.Changed("cycle") {
		n, err := config.ParseCycle(o.cycle)
		if err != nil {
			return config.ServiceConfig{}, err
		}
		cfg.Service.CycleSeconds = n
	}
	if flags.Changed("logfile") {
		p, err := config.ParseLogFile(o.logFile)
		if err != nil {
			return config.ServiceConfig{}, err
		}
		cfg.Log.File = p
	}
	if o.testMode {
		cfg.Service.TestMode = true
	}
	if o.foreground {
		cfg.Daemon.Foreground = true
	}

	if err := cfg.Validate(); err != nil {
		return config.ServiceConfig{}, err
	}
	return cfg.ServiceConfig(prog), nil
}

// execute runs the command line and returns the process exit status. Only
// [main] calls os.Exit.
func execute(prog string, args []string, stdout, stderr io.Writer, run runFunc) int {
	cmd := newRootCommand(prog, stdout, stderr, run)
	cmd.SetArgs(args)

	err := cmd.Execute()
	if err == nil {
		return 0
	}

	var status exitStatus
	if errors.As(err, &status) {
		return int(status)
	}

	fmt.Fprintf(stderr, "%s: %v\n", prog, err)
	var ue *usageError
	if errors.As(err, &ue) {
		fmt.Fprintf(stderr, "Usage: %s %s\n", prog, usageString)
	}
	return 1
}

// ///////////////////////////////////////////////
// Main
// ///////////////////////////////////////////////

func main() {
	prog := filepath.Base(os.Args[0])
	os.Exit(execute(prog, os.Args[1:], os.Stdout, os.Stderr, runDaemon))
}
