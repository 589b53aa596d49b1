package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	slrdaemon "tools.zach/dev/slrdaemon"
	"tools.zach/dev/slrdaemon/internal/config"
	"tools.zach/dev/slrdaemon/internal/paths"
)

// ///////////////////////////////////////////////
// sectionName Tests
// ///////////////////////////////////////////////

func TestSectionName(t *testing.T) {
	tests := []struct {
		section string
		want    string
	}{
		{"service", "Service"},
		{"Daemon", "Daemon"},
		{"l", "L"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := sectionName(tt.section); got != tt.want {
			t.Errorf("sectionName(%q) = %q, want %q", tt.section, got, tt.want)
		}
	}
}

// ///////////////////////////////////////////////
// render Tests
// ///////////////////////////////////////////////

func renderExample(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	if err := render(&buf, config.ExampleConfig()); err != nil {
		t.Fatalf("render: %v", err)
	}
	return buf.String()
}

func TestRenderAnnotates(t *testing.T) {
	out := renderExample(t)

	for _, want := range []string{
		"# slrdaemon Configuration",
		"# ///// Service /////",
		"# ///// Daemon /////",
		"# ///// Log /////",
		"[service]",
		"cycle_seconds = 5",
		"# cycle_seconds = 300",
		"umask = 0o027",
		`lock_file = "daemon.lock"`,
		"# Seconds to sleep between two work invocations (-c). Minimum 1.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered config missing %q", want)
		}
	}
}

func TestRenderDocumentsEveryKey(t *testing.T) {
	out := renderExample(t)
	for path, doc := range config.ConfigDocs {
		first, _, _ := strings.Cut(doc.Comment, "\n")
		if first != "" && !strings.Contains(out, "# "+first) {
			t.Errorf("comment for %s not rendered", path)
		}
	}
}

// The example must load back into the defaults it was rendered from.
func TestRenderRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "example.toml")
	if err := os.WriteFile(path, []byte(renderExample(t)), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(rendered example) error: %v", err)
	}
	want := config.DefaultConfig()
	if cfg.Daemon.Umask != want.Daemon.Umask {
		t.Errorf("umask = %#o, want %#o", cfg.Daemon.Umask, want.Daemon.Umask)
	}
	if cfg.Service.CycleSeconds != want.Service.CycleSeconds {
		t.Errorf("cycle_seconds = %d, want %d", cfg.Service.CycleSeconds, want.Service.CycleSeconds)
	}
	if strings.Join(cfg.Daemon.EnvKeep, ",") != strings.Join(want.Daemon.EnvKeep, ",") {
		t.Errorf("env_keep = %v, want %v", cfg.Daemon.EnvKeep, want.Daemon.EnvKeep)
	}
}

func TestExampleFileUpToDate(t *testing.T) {
	if got := renderExample(t); got != string(slrdaemon.ExampleConfigTOML) {
		t.Errorf("%s is stale; run go generate ./internal/config\n--- rendered ---\n%s", paths.ExampleConfigFile, got)
	}
}
