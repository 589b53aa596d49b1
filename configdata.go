// Package slrdaemon embeds the annotated example configuration.
//
// cmd/genconfig regenerates slrdaemon.example.toml; its tests compare the
// rendered output against [ExampleConfigTOML] so the checked-in file cannot
// drift from the config defaults.
package slrdaemon

import _ "embed"

// ExampleConfigTOML holds the raw bytes of slrdaemon.example.toml.
//
//go:embed slrdaemon.example.toml
var ExampleConfigTOML []byte
