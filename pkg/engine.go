package prism

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/flier/gohs/hyperscan"
)

// Match is a single keyword-pattern hit on a line, reported in byte
// offsets. PatternIndex is the position of the pattern within the slice
// most recently passed to CompileKeywords.
type Match struct {
	PatternIndex int
	Start, End   int
}

// PatternEngine is the Matcher's pluggable regex backend. Every engine
// must agree on leftmost, non-overlapping, non-zero-width matches per
// pattern; callers reconcile matches across patterns themselves.
type PatternEngine interface {
	// CompileKeywords (re)compiles the full set of keyword patterns.
	// Called again, with the complete pattern list, every time a new
	// keyword rule is registered.
	CompileKeywords(patterns []string) error

	// FindAllInLine returns every non-zero-width match of every
	// compiled pattern against line.
	FindAllInLine(line string) []Match

	// Close releases engine resources (database handles, and similar).
	Close() error

	// Name identifies the engine for diagnostics.
	Name() string
}

// GoRegexEngine implements PatternEngine using the standard library's
// regexp package. It is always available and is the default backend.
type GoRegexEngine struct {
	patterns []*regexp.Regexp
}

// NewGoRegexEngine creates a Go-regexp-backed pattern engine.
func NewGoRegexEngine() *GoRegexEngine {
	return &GoRegexEngine{}
}

func (e *GoRegexEngine) CompileKeywords(patterns []string) error {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return &RegexCompileError{Pattern: p, Err: err}
		}
		compiled[i] = re
	}
	e.patterns = compiled
	return nil
}

func (e *GoRegexEngine) FindAllInLine(line string) []Match {
	var out []Match
	for i, re := range e.patterns {
		for _, loc := range re.FindAllStringIndex(line, -1) {
			if loc[0] == loc[1] {
				continue // zero-width matches are never emitted
			}
			out = append(out, Match{PatternIndex: i, Start: loc[0], End: loc[1]})
		}
	}
	return out
}

func (e *GoRegexEngine) Close() error { return nil }

func (e *GoRegexEngine) Name() string { return "go-regexp" }

// HyperscanEngine implements PatternEngine using Hyperscan/Vectorscan as
// a fast multi-pattern pre-filter: a combined block database reports,
// per line, which pattern IDs appear at all; only patterns that hit are
// then re-run through a precompiled Go regexp to recover precise,
// possibly-repeated match boundaries (Hyperscan's block mode does not
// cheaply report every occurrence of every pattern with exact start
// offsets the way Go's regexp does). This keeps Hyperscan's value ---
// skipping regexp work entirely on lines that match nothing --- without
// giving up per-match precision.
type HyperscanEngine struct {
	database    hyperscan.BlockDatabase
	scratchPool sync.Pool
	goPatterns  []*regexp.Regexp
}

// NewHyperscanEngine creates a Hyperscan-backed pattern engine.
func NewHyperscanEngine() *HyperscanEngine {
	return &HyperscanEngine{}
}

func (e *HyperscanEngine) CompileKeywords(patterns []string) error {
	goPatterns := make([]*regexp.Regexp, len(patterns))
	hsPatterns := make([]*hyperscan.Pattern, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return &RegexCompileError{Pattern: p, Err: err}
		}
		goPatterns[i] = re

		hsPatterns[i] = hyperscan.NewPattern(p, hyperscan.DotAll)
		hsPatterns[i].Id = i
	}

	database, err := hyperscan.NewBlockDatabase(hsPatterns...)
	if err != nil {
		return fmt.Errorf("prism: compile hyperscan patterns: %w", err)
	}

	if e.database != nil {
		_ = e.database.Close()
	}
	e.database = database
	e.goPatterns = goPatterns
	e.scratchPool = sync.Pool{
		New: func() any {
			scratch, err := hyperscan.NewManagedScratch(database)
			if err != nil {
				return nil
			}
			return scratch
		},
	}
	return nil
}

func (e *HyperscanEngine) FindAllInLine(line string) []Match {
	if e.database == nil {
		return nil
	}

	scratchIface := e.scratchPool.Get()
	if scratchIface == nil {
		return e.findAllInLineFallback(line)
	}
	scratch := scratchIface.(*hyperscan.Scratch)
	defer e.scratchPool.Put(scratch)

	hit := make(map[int]bool)
	err := e.database.Scan([]byte(line), scratch, func(id uint, from, to uint64, flags uint, data any) error {
		hit[int(id)] = true
		return nil
	}, nil)
	if err != nil {
		return e.findAllInLineFallback(line)
	}

	var out []Match
	for id := range hit {
		re := e.goPatterns[id]
		for _, loc := range re.FindAllStringIndex(line, -1) {
			if loc[0] == loc[1] {
				continue
			}
			out = append(out, Match{PatternIndex: id, Start: loc[0], End: loc[1]})
		}
	}
	return out
}

// findAllInLineFallback is used when Hyperscan scratch space could not
// be obtained; it degrades to plain Go regexp rather than dropping
// matches silently.
func (e *HyperscanEngine) findAllInLineFallback(line string) []Match {
	var out []Match
	for i, re := range e.goPatterns {
		for _, loc := range re.FindAllStringIndex(line, -1) {
			if loc[0] == loc[1] {
				continue
			}
			out = append(out, Match{PatternIndex: i, Start: loc[0], End: loc[1]})
		}
	}
	return out
}

func (e *HyperscanEngine) Close() error {
	if e.database != nil {
		return e.database.Close()
	}
	return nil
}

func (e *HyperscanEngine) Name() string { return "hyperscan" }

// hyperscanAvailable reports whether the Hyperscan/Vectorscan shared
// library can compile and scan a trivial pattern on this host.
func hyperscanAvailable() bool {
	e := NewHyperscanEngine()
	defer e.Close()
	if err := e.CompileKeywords([]string{"x"}); err != nil {
		return false
	}
	return len(e.FindAllInLine("x")) == 1
}

// Matcher owns keyword-pattern compilation and re-compiles the selected
// PatternEngine's combined database each time a new keyword pattern is
// registered. Bounded/BoundedInterp open/close/interpolation patterns
// bypass Matcher entirely (see RuleSet.Bounded): they need precise,
// single-pattern, from-a-given-column search semantics that a
// multi-pattern engine like Hyperscan cannot offer without the same
// Go-regexp refinement Matcher already does for keywords, so they are
// compiled directly with regexp.Compile.
type Matcher struct {
	engine   PatternEngine
	patterns []string
}

// newMatcher creates a Matcher bound to the named engine: "go",
// "hyperscan", or "auto" (Hyperscan when available, Go regexp
// otherwise).
func newMatcher(engineName string) *Matcher {
	return &Matcher{engine: selectEngine(engineName)}
}

func selectEngine(name string) PatternEngine {
	switch name {
	case "hyperscan":
		return NewHyperscanEngine()
	case "go":
		return NewGoRegexEngine()
	default:
		if hyperscanAvailable() {
			return NewHyperscanEngine()
		}
		return NewGoRegexEngine()
	}
}

// AddKeyword validates pattern, appends it, and recompiles the engine's
// combined database. On success it returns the pattern's index in
// Matcher's pattern list (stable for the lifetime of the Matcher). On
// failure the Matcher is left unchanged.
func (m *Matcher) AddKeyword(pattern string) (int, error) {
	if _, err := regexp.Compile(pattern); err != nil {
		return -1, &RegexCompileError{Pattern: pattern, Err: err}
	}

	patterns := append(append([]string{}, m.patterns...), pattern)
	if err := m.engine.CompileKeywords(patterns); err != nil {
		// The selected engine rejected a pattern Go's regexp accepted
		// (can happen with Hyperscan's stricter PCRE subset): fall back
		// to Go regexp permanently for this Matcher rather than fail
		// registration outright.
		fallback := NewGoRegexEngine()
		if fbErr := fallback.CompileKeywords(patterns); fbErr != nil {
			return -1, fbErr
		}
		_ = m.engine.Close()
		m.engine = fallback
	}
	m.patterns = patterns
	return len(m.patterns) - 1, nil
}

// FindAllInLine delegates to the selected engine.
func (m *Matcher) FindAllInLine(line string) []Match {
	return m.engine.FindAllInLine(line)
}

// Close releases the underlying engine's resources.
func (m *Matcher) Close() error {
	return m.engine.Close()
}

// EngineName reports which backend is currently active.
func (m *Matcher) EngineName() string {
	return m.engine.Name()
}
