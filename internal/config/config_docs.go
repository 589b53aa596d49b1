package config

// ///////////////////////////////////////////////
// Documentation Types
// ///////////////////////////////////////////////

// FieldDoc holds documentation and alternative examples for a single config field.
// The genconfig tool uses [FieldDoc] values to annotate the generated example file.
type FieldDoc struct {
	// Comment is shown as a header comment above the field in the example config.
	Comment string

	// Alternatives are shown as commented-out lines below the active value.
	Alternatives []string
}

// ///////////////////////////////////////////////
// Field Documentation Map
// ///////////////////////////////////////////////

// ConfigDocs maps TOML field paths (dot-separated, e.g. "daemon.lock_file")
// to their [FieldDoc] entries.
var ConfigDocs = map[string]FieldDoc{
	// ── Service ──────────────────────────────────────────────────
	"service": {
		Comment: "Work loop. Command-line flags override every value here.",
	},
	"service.cycle_seconds": {
		Comment: "Seconds to sleep between two work invocations (-c). Minimum 1.",
		Alternatives: []string{
			"cycle_seconds = 300",
		},
	},
	"service.test_mode": {
		Comment: "Handed to the work unit as-is (-t).",
	},

	// ── Daemon ───────────────────────────────────────────────────
	"daemon": {
		Comment: "Detachment and single-instance settings.",
	},
	"daemon.work_dir": {
		Comment: "Absolute directory the daemon changes into after detaching.\nRelative lock_file and log.file paths are resolved against it.",
	},
	"daemon.lock_file": {
		Comment: "Single-instance lock. Holds the daemon pid, so\n  kill -HUP $(cat /tmp/daemon.lock)\nrequests a reload and\n  kill $(cat /tmp/daemon.lock)\nstops it.",
	},
	"daemon.umask": {
		Comment: "File-creation mask installed after detaching.",
	},
	"daemon.env_keep": {
		Comment: "Environment variable names (glob patterns) kept for the detached process.",
		Alternatives: []string{
			`env_keep = ["*"]`,
		},
	},
	"daemon.foreground": {
		Comment: "Stay attached to the terminal and session (-F). Useful under systemd or s6.",
	},

	// ── Log ──────────────────────────────────────────────────────
	"log": {
		Comment: "File log. Lines look like \"Mon Jan  2 15:04:05 2006: message\".",
	},
	"log.file": {
		Comment: "Log file path (-f).",
	},
	"log.level": {
		Comment: "Minimum level: trace, debug, info, warn, error.",
	},
	"log.max_size_mb": {
		Comment: "Rotate the log once it grows past this many megabytes.",
	},
}
