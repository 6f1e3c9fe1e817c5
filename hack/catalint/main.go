// Command catalint validates catalog YAML documents outside the
// embedded-FS indirection, so a catalog author can iterate on disk
// before the next build embeds it.
//
// Usage: go run ./hack/catalint <catalog.yaml> [more.yaml ...]
package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ashlark/prism/pkg"
)

type catalogDoc struct {
	Extensions []string `yaml:"extensions"`
	Rules      []struct {
		Kind        string `yaml:"kind"`
		Pattern     string `yaml:"pattern"`
		Open        string `yaml:"open"`
		Close       string `yaml:"close"`
		InterpOpen  string `yaml:"interp_open"`
		InterpClose string `yaml:"interp_close"`
		Escapable   bool   `yaml:"escapable"`
	} `yaml:"rules"`
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: catalint <catalog.yaml> [more.yaml ...]")
		os.Exit(1)
	}

	failed := false
	for _, path := range os.Args[1:] {
		if err := lint(path); err != nil {
			fmt.Printf("❌ %s: %v\n", path, err)
			failed = true
			continue
		}
		fmt.Printf("✅ %s\n", path)
	}

	if failed {
		os.Exit(1)
	}
}

func lint(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	var doc catalogDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	if len(doc.Extensions) == 0 {
		return fmt.Errorf("no extensions declared")
	}

	h := prism.New(4, prism.WithEngine("go"))
	defer h.Close()

	for i, r := range doc.Rules {
		kind := prism.Kind(r.Kind)
		var err error
		switch {
		case r.InterpOpen != "" || r.InterpClose != "":
			err = h.BoundedInterp(kind, r.Open, r.Close, r.InterpOpen, r.InterpClose, r.Escapable)
		case r.Open != "" || r.Close != "":
			err = h.Bounded(kind, r.Open, r.Close, r.Escapable)
		default:
			err = h.Keyword(kind, r.Pattern)
		}
		if err != nil {
			return fmt.Errorf("rule %d (kind %q): %w", i, r.Kind, err)
		}
	}
	return nil
}
