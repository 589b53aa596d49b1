// Package main implements the genconfig tool that writes the annotated
// slrdaemon.example.toml from config.ExampleConfig().
//
// It is invoked by go generate via the directive in internal/config/config.go.
package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"tools.zach/dev/slrdaemon/internal/atomicfile"
	"tools.zach/dev/slrdaemon/internal/config"
	"tools.zach/dev/slrdaemon/internal/paths"
)

func main() {
	// go generate runs from internal/config; ../../ is the repo root.
	outPath := filepath.Join("..", "..", paths.ExampleConfigFile)

	err := atomicfile.WriteFunc(outPath, 0o644, func(w io.Writer) error {
		return render(w, config.ExampleConfig())
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", outPath, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s\n", paths.ExampleConfigFile)
}

// render encodes cfg as TOML and annotates it with [config.ConfigDocs]:
// a banner per section, comments above keys and commented-out
// alternatives below them.
func render(w io.Writer, cfg *config.Config) error {
	var raw bytes.Buffer
	if err := toml.NewEncoder(&raw).Encode(cfg); err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	out := []string{
		"# ///////////////////////////////////////////////",
		"# slrdaemon Configuration",
		"# ///////////////////////////////////////////////",
	}

	var section string
	for _, line := range strings.Split(raw.String(), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if strings.HasPrefix(trimmed, "[") {
			section = strings.Trim(trimmed, "[] ")
			out = append(out, "", fmt.Sprintf("# ///// %s /////", sectionName(section)), "")
			out = appendComment(out, config.ConfigDocs[section].Comment)
			out = append(out, trimmed)
			continue
		}

		key, _, ok := strings.Cut(trimmed, "=")
		if !ok {
			out = append(out, trimmed)
			continue
		}
		key = strings.TrimSpace(key)

		// The encoder writes integers in decimal; a mask reads better in octal.
		if section == "daemon" && key == "umask" {
			trimmed = fmt.Sprintf("umask = 0o%03o", cfg.Daemon.Umask)
		}

		doc := config.ConfigDocs[section+"."+key]
		out = appendComment(out, doc.Comment)
		out = append(out, trimmed)
		for _, alt := range doc.Alternatives {
			out = append(out, "# "+alt)
		}
	}

	_, err := io.WriteString(w, strings.Join(out, "\n")+"\n")
	return err
}

func appendComment(out []string, comment string) []string {
	if comment == "" {
		return out
	}
	for _, cl := range strings.Split(comment, "\n") {
		out = append(out, strings.TrimRight("# "+cl, " "))
	}
	return out
}

// sectionName capitalizes a section header for its banner.
func sectionName(section string) string {
	if section == "" {
		return ""
	}
	return strings.ToUpper(section[:1]) + section[1:]
}
