//go:build ignore
// +build ignore

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	cfg "github.com/ArkLabsHQ/escrowd/internal/config"
)

const outFile = "../../docs/environment.md"

func main() {
	var b strings.Builder
	b.WriteString("# Environment Variables\n\n")
	b.WriteString("Generated from `config.EnvSpecs()` by `go generate ./internal/config`. ")
	b.WriteString("**Do not edit manually.**\n\n")
	b.WriteString("| Variable | Default | Type | Description | Notes |\n")
	b.WriteString("|----------|---------|------|-------------|-------|\n")

	for _, s := range cfg.EnvSpecs() {
		def := "-"
		if s.Default != "" {
			def = "`" + s.Default + "`"
		}
		fmt.Fprintf(
			&b, "| `%s` | %s | `%s` | %s | %s |\n",
			s.FullName, def, s.Type, escape(s.Description), escape(s.Notes),
		)
	}

	if err := os.MkdirAll(filepath.Dir(outFile), 0o755); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := os.WriteFile(outFile, []byte(b.String()), 0o644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// escape keeps pipes in descriptions from breaking the table.
func escape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
