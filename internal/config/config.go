// Package config provides configuration loading and defaults for the daemon.
//
// Settings come from three layers: built-in defaults, an optional TOML file,
// and command-line flags. The merged result is frozen into a [ServiceConfig]
// once at startup and never changes for the life of the process.
package config

//go:generate go run ../../cmd/genconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"
	"tools.zach/dev/slrdaemon/internal/paths"
)

// DefaultCycleSeconds is the pause between two work invocations when neither
// the config file nor -c sets one.
const DefaultCycleSeconds = 5

// DefaultUmask is the file-creation mask the daemon installs after detaching.
const DefaultUmask = 0o027

// ///////////////////////////////////////////////
// Errors
// ///////////////////////////////////////////////

var (
	// ErrBadCycle reports a cycle time that is not a positive integer.
	ErrBadCycle = errors.New("unreadable cycle time argument")
	// ErrBadLogFile reports a log file argument with no usable path in it.
	ErrBadLogFile = errors.New("unreadable log file argument")
)

// ///////////////////////////////////////////////
// Configuration Types
// ///////////////////////////////////////////////

// Config represents the on-disk configuration file.
type Config struct {
	// Service holds work-loop settings.
	Service ServiceSection `toml:"service"`
	// Daemon holds detachment and single-instance settings.
	Daemon DaemonConfig `toml:"daemon"`
	// Log holds file logging settings.
	Log LogConfig `toml:"log"`
}

// ServiceSection holds work-loop settings.
type ServiceSection struct {
	// CycleSeconds is the sleep between two work invocations.
	CycleSeconds int `toml:"cycle_seconds"`
	// TestMode is handed to the work unit untouched.
	TestMode bool `toml:"test_mode"`
}

// DaemonConfig holds detachment and single-instance settings.
type DaemonConfig struct {
	// WorkDir is the directory the daemon changes into after detaching.
	WorkDir string `toml:"work_dir"`
	// LockFile is the single-instance lock path, relative to WorkDir unless absolute.
	LockFile string `toml:"lock_file"`
	// Umask is the file-creation mask installed after detaching.
	Umask int `toml:"umask"`
	// EnvKeep lists glob patterns of environment variable names passed to the
	// detached process. Everything else is dropped.
	EnvKeep []string `toml:"env_keep"`
	// Foreground skips process duplication and session creation.
	Foreground bool `toml:"foreground"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// File is the log file path, relative to the daemon work dir unless absolute.
	File string `toml:"file"`
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string `toml:"level"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation.
	MaxSizeMB int `toml:"max_size_mb"`
}

// ServiceConfig is the immutable runtime view handed to every component.
// Paths are already resolved against WorkDir.
type ServiceConfig struct {
	ProgramName   string
	TestMode      bool
	CycleInterval time.Duration
	LogTarget     string
	LockPath      string
	WorkDir       string
	Umask         int
	EnvKeep       []string
	Foreground    bool
	LogLevel      string
	LogMaxSizeMB  int
}

// ///////////////////////////////////////////////
// Default Configuration
// ///////////////////////////////////////////////

// DefaultConfig returns a Config populated with the stock daemon layout:
// work in /tmp, lock /tmp/daemon.lock, log /tmp/daemon.log, five-second cycle.
func DefaultConfig() *Config {
	return &Config{
		Service: ServiceSection{
			CycleSeconds: DefaultCycleSeconds,
		},
		Daemon: DaemonConfig{
			WorkDir:  paths.RunningDir,
			LockFile: paths.LockFile,
			Umask:    DefaultUmask,
			EnvKeep:  []string{"PATH", "HOME", "LANG", "LC_*", "TZ"},
		},
		Log: LogConfig{
			File:      paths.LogFile,
			Level:     "info",
			MaxSizeMB: 10,
		},
	}
}

// ExampleConfig returns a Config suitable for generating the example file.
func ExampleConfig() *Config {
	return DefaultConfig()
}

// ///////////////////////////////////////////////
// Loading
// ///////////////////////////////////////////////

// Load reads and parses the configuration file at path on top of
// [DefaultConfig]. An empty path yields the defaults. Unknown keys are
// rejected so that typos do not silently fall back to defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("parse config: unknown keys %s", strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// ///////////////////////////////////////////////
// Command-Line Arguments
// ///////////////////////////////////////////////

// ParseCycle parses the -c argument. It must be a whole number of seconds,
// at least one.
func ParseCycle(arg string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadCycle, arg)
	}
	if n < 1 {
		return 0, fmt.Errorf("%w: %d is below one second", ErrBadCycle, n)
	}
	return n, nil
}

// ParseLogFile parses the -f argument. Surrounding blanks are dropped and
// only the first word is used, so a blank argument is rejected.
func ParseLogFile(arg string) (string, error) {
	fields := strings.Fields(arg)
	if len(fields) == 0 {
		return "", ErrBadLogFile
	}
	return fields[0], nil
}

// ///////////////////////////////////////////////
// Validation
// ///////////////////////////////////////////////

// validLogLevels is the set of accepted log level strings.
var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

// Validate checks that all configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	if c.Service.CycleSeconds < 1 {
		return fmt.Errorf("cycle_seconds must be >= 1, got %d", c.Service.CycleSeconds)
	}

	if c.Daemon.WorkDir == "" {
		return errors.New("work_dir must not be empty")
	}

	// Lock and log paths are resolved against work_dir and then opened from
	// inside it, so a relative work_dir would be applied twice.
	if !filepath.IsAbs(c.Daemon.WorkDir) && !strings.HasPrefix(c.Daemon.WorkDir, "/") {
		return fmt.Errorf("work_dir must be an absolute path, got %q", c.Daemon.WorkDir)
	}

	if c.Daemon.LockFile == "" {
		return errors.New("lock_file must not be empty")
	}

	if c.Daemon.Umask < 0 || c.Daemon.Umask > 0o777 {
		return fmt.Errorf("umask must be within 0..0777, got %#o", c.Daemon.Umask)
	}

	for _, p := range c.Daemon.EnvKeep {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid env_keep pattern %q", p)
		}
	}

	if c.Log.File == "" {
		return errors.New("log file must not be empty")
	}

	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log.level %q: must be trace, debug, info, warn, or error", c.Log.Level)
	}

	if c.Log.MaxSizeMB <= 0 {
		return fmt.Errorf("max_size_mb must be > 0, got %d", c.Log.MaxSizeMB)
	}

	return nil
}

// ///////////////////////////////////////////////
// Runtime View
// ///////////////////////////////////////////////

// ServiceConfig freezes c into the runtime view. Relative lock and log paths
// are resolved against the work dir the daemon will change into.
func (c *Config) ServiceConfig(programName string) ServiceConfig {
	dir := paths.RunDir{Root: c.Daemon.WorkDir}
	keep := make([]string, len(c.Daemon.EnvKeep))
	copy(keep, c.Daemon.EnvKeep)
	return ServiceConfig{
		ProgramName:   programName,
		TestMode:      c.Service.TestMode,
		CycleInterval: time.Duration(c.Service.CycleSeconds) * time.Second,
		LogTarget:     dir.Resolve(c.Log.File),
		LockPath:      dir.Resolve(c.Daemon.LockFile),
		WorkDir:       c.Daemon.WorkDir,
		Umask:         c.Daemon.Umask,
		EnvKeep:       keep,
		Foreground:    c.Daemon.Foreground,
		LogLevel:      c.Log.Level,
		LogMaxSizeMB:  c.Log.MaxSizeMB,
	}
}
