// Package prism implements a regex-driven, incremental syntax
// highlighter meant to be embedded inside interactive text editors.
//
// A host constructs a Highlighter, registers lexical rules (keywords,
// bounded multi-line regions such as comments and strings, and bounded
// regions with interpolation holes), calls Run once with the buffer's
// lines, and from then on drives Edit/Insert/Remove as the buffer
// changes. Line converts a line's highlighting state into the ordered
// token stream a renderer consumes.
//
// Basic usage:
//
//	h := prism.New(4)
//	h.Keyword("keyword", `\b(func|return|if|else)\b`)
//	h.Bounded("comment", `/\*`, `\*/`, false)
//	h.Run([]string{"/* hi */", "func main() {}"})
//	tokens, _ := h.Line(1, "func main() {}")
package prism

// Highlighter is the library's public façade: a RuleSet plus the
// SpanTable it produces, bundled with the raw buffer needed to
// incrementally re-tokenize it.
//
// Highlighter is not internally synchronized (§5): a single instance
// must be owned by one host at a time. Concurrent or reentrant
// Edit/Insert/Remove calls are detected best-effort and reported as
// ContractViolationError; a Run that overlaps another mutation leaves
// the state untouched and reports nothing. Line is not guarded.
type Highlighter struct {
	tabWidth   int
	engineName string

	ruleSet *RuleSet
	lines   []string
	table   SpanTable

	busy bool
}

// Option configures a Highlighter at construction time.
type Option func(*Highlighter)

// WithEngine selects the Matcher's pattern engine: "go", "hyperscan", or
// "auto" (the default; Hyperscan when available, Go regexp otherwise).
func WithEngine(name string) Option {
	return func(h *Highlighter) { h.engineName = name }
}

// New creates an empty Highlighter. tabWidth must be positive; values
// less than 1 are treated as 1.
func New(tabWidth int, opts ...Option) *Highlighter {
	h := &Highlighter{tabWidth: tabWidth, engineName: "auto"}
	if h.tabWidth < 1 {
		h.tabWidth = 1
	}
	for _, opt := range opts {
		opt(h)
	}
	h.ruleSet = NewRuleSet(h.engineName)
	return h
}

// Keyword appends a single-line keyword/regex rule. See RuleSet.Keyword.
func (h *Highlighter) Keyword(kind Kind, pattern string) error {
	return h.ruleSet.Keyword(kind, pattern)
}

// Bounded appends a multi-line bounded rule. See RuleSet.Bounded.
func (h *Highlighter) Bounded(kind Kind, open, close string, escapable bool) error {
	return h.ruleSet.Bounded(kind, open, close, escapable)
}

// BoundedInterp appends a bounded rule with interpolation holes. See
// RuleSet.BoundedInterp.
func (h *Highlighter) BoundedInterp(kind Kind, open, close, interpOpen, interpClose string, escapable bool) error {
	return h.ruleSet.BoundedInterp(kind, open, close, interpOpen, interpClose, escapable)
}

// Join registers many keyword rules in order. See RuleSet.Join.
func (h *Highlighter) Join(defs []KeywordDef) error {
	return h.ruleSet.Join(defs)
}

// EngineName reports which pattern engine backend is active.
func (h *Highlighter) EngineName() string {
	return h.ruleSet.matcher.EngineName()
}

// Run performs the full-buffer tokenization pass, building the
// SpanTable from scratch. Rules registered after Run require a fresh
// Run to take effect on lines tokenized before they were added.
func (h *Highlighter) Run(lines []string) {
	if err := h.guard(); err != nil {
		// Run on a busy Highlighter is still a contract violation, but
		// Run has no error return in the external interface (§6); the
		// previous state is simply left untouched.
		return
	}
	defer h.unguard()

	h.lines = append([]string(nil), lines...)
	h.table = run(h.ruleSet, h.lines)
}

// Line converts line i's current highlighting state into an ordered
// token stream.
func (h *Highlighter) Line(i int, raw string, opts ...RenderOption) ([]Token, error) {
	if i < 0 || i >= len(h.table.Lines) {
		return nil, &IndexOutOfRangeError{Op: "line", Index: i, Len: len(h.table.Lines)}
	}
	var cfg renderConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return renderLine(h.table.Lines[i], raw, h.tabWidth, cfg), nil
}

// SpanTable returns the highlighter's current per-line state. The
// returned value is a snapshot; mutating it has no effect on the
// Highlighter.
func (h *Highlighter) SpanTable() SpanTable {
	var lines []LineState
	for _, ls := range h.table.Lines {
		ls.Spans = append([]Span(nil), ls.Spans...)
		for _, m := range []**OpenMarker{&ls.OpensWith, &ls.ClosesWith} {
			if *m != nil {
				c := **m
				*m = &c
			}
		}
		lines = append(lines, ls)
	}
	return SpanTable{Lines: lines}
}

// Close releases the Matcher's underlying pattern-engine resources
// (the Hyperscan database, when that backend is active; a no-op
// otherwise). Pooled Hyperscan scratch space is not freed here.
func (h *Highlighter) Close() error {
	return h.ruleSet.matcher.Close()
}

func (h *Highlighter) guard() error {
	if h.busy {
		return &ContractViolationError{Detail: "concurrent or reentrant Highlighter mutation"}
	}
	h.busy = true
	return nil
}

func (h *Highlighter) unguard() { h.busy = false }
