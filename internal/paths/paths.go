// Package paths centralizes file and directory names used across the project.
// Well-known locations for the lock file, log file and working directory are
// defined here as the single source of truth.
package paths

import "path/filepath"

// ///////////////////////////////////////////////
// Constants
// ///////////////////////////////////////////////

// Well-known names. The lock and log files live in the running directory
// unless overridden.
const (
	RunningDir = "/tmp"
	LockFile   = "daemon.lock"
	LogFile    = "daemon.log"
)

// ExampleConfigFile is the annotated example written by cmd/genconfig,
// relative to the repo root.
const ExampleConfigFile = "slrdaemon.example.toml"

// ///////////////////////////////////////////////
// RunDir
// ///////////////////////////////////////////////

// RunDir resolves paths against the daemon's running directory.
type RunDir struct {
	Root string
}

// Resolve returns p unchanged when absolute, otherwise joined onto Root.
// The daemon changes into Root before opening anything, so relative names
// given on the command line end up here.
func (d RunDir) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(d.Root, p)
}
