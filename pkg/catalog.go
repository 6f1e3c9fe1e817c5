package prism

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalogs/*.yaml
var catalogFS embed.FS

// catalogDoc is the on-disk shape of one embedded catalogue YAML
// document: the extensions it applies to, plus its rules in
// document order.
type catalogDoc struct {
	Extensions []string      `yaml:"extensions"`
	Rules      []catalogRule `yaml:"rules"`
}

// catalogRule is one rule entry in a catalogue document. Exactly one
// of the keyword/bounded/interpolation field groups should be set;
// Open/Close present with InterpOpen/InterpClose empty means Bounded,
// both groups present means BoundedInterp, neither means Keyword.
type catalogRule struct {
	Kind string `yaml:"kind"`

	// Keyword rule.
	Pattern string `yaml:"pattern"`

	// Bounded / BoundedInterp rule.
	Open        string `yaml:"open"`
	Close       string `yaml:"close"`
	InterpOpen  string `yaml:"interp_open"`
	InterpClose string `yaml:"interp_close"`
	Escapable   bool   `yaml:"escapable"`
}

var (
	catalogByExt   map[string]catalogDoc
	catalogLoadErr error
)

func init() {
	catalogByExt, catalogLoadErr = loadCatalogs(catalogFS)
}

// loadCatalogs reads every embedded *.yaml document and indexes it by
// each of its declared extensions. Documents are read in file-name
// order, and when two declare the same extension the later one wins.
func loadCatalogs(fsys embed.FS) (map[string]catalogDoc, error) {
	entries, err := fsys.ReadDir("catalogs")
	if err != nil {
		return nil, fmt.Errorf("prism: read embedded catalogs directory: %w", err)
	}

	byExt := make(map[string]catalogDoc)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		data, err := fsys.ReadFile("catalogs/" + name)
		if err != nil {
			return nil, fmt.Errorf("prism: read embedded catalog %s: %w", name, err)
		}
		var doc catalogDoc
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("prism: parse embedded catalog %s: %w", name, err)
		}
		for _, ext := range doc.Extensions {
			byExt[ext] = doc
		}
	}
	return byExt, nil
}

// FromExtension builds a Highlighter pre-loaded with the packaged
// rule catalogue for a file extension (e.g. ".go", ".py"), or reports
// ok == false if no catalogue document declares that extension.
//
// A malformed embedded catalogue is a build-time programmer error
// (catalogues ship inside the binary, never read from a user path) and
// panics rather than returning an error, the same way the standard
// library panics on a malformed embed.FS access.
func FromExtension(ext string, tabWidth int, opts ...Option) (*Highlighter, bool) {
	if catalogLoadErr != nil {
		panic(catalogLoadErr)
	}
	doc, ok := catalogByExt[ext]
	if !ok {
		return nil, false
	}

	h := New(tabWidth, opts...)
	for _, r := range doc.Rules {
		if err := applyCatalogRule(h, r); err != nil {
			panic(fmt.Errorf("prism: catalog rule for extension %s: %w", ext, err))
		}
	}
	return h, true
}

func applyCatalogRule(h *Highlighter, r catalogRule) error {
	kind := Kind(r.Kind)
	switch {
	case r.InterpOpen != "" || r.InterpClose != "":
		return h.BoundedInterp(kind, r.Open, r.Close, r.InterpOpen, r.InterpClose, r.Escapable)
	case r.Open != "" || r.Close != "":
		return h.Bounded(kind, r.Open, r.Close, r.Escapable)
	default:
		return h.Keyword(kind, r.Pattern)
	}
}

// Extensions reports every file extension with a packaged catalogue,
// sorted, for discovery use by hosts (e.g. a CLI's -help text).
func Extensions() []string {
	exts := make([]string, 0, len(catalogByExt))
	for ext := range catalogByExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
