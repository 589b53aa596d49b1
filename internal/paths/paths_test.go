package paths

import (
	"path/filepath"
	"testing"
)

// ///////////////////////////////////////////////
// Constant Value Tests
// ///////////////////////////////////////////////

func TestConstantValues(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"RunningDir", RunningDir, "/tmp"},
		{"LockFile", LockFile, "daemon.lock"},
		{"LogFile", LogFile, "daemon.log"},
		{"ExampleConfigFile", ExampleConfigFile, "slrdaemon.example.toml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
			}
		})
	}
}

// ///////////////////////////////////////////////
// RunDir Tests
// ///////////////////////////////////////////////

func TestRunDirResolve(t *testing.T) {
	d := RunDir{Root: "/tmp"}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"relative", "daemon.log", filepath.Join("/tmp", "daemon.log")},
		{"nested relative", "logs/daemon.log", filepath.Join("/tmp", "logs", "daemon.log")},
		{"absolute", "/var/log/daemon.log", "/var/log/daemon.log"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.Resolve(tt.in); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
