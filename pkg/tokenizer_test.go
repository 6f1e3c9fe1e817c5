package prism

import (
	"reflect"
	"testing"
)

// Scenario 1 (§8): a bounded region spanning two lines.
func TestScenarioBoundedCommentAcrossLines(t *testing.T) {
	rs := NewRuleSet("go")
	if err := rs.Bounded("comment", `/\*`, `\*/`, false); err != nil {
		t.Fatalf("Bounded: %v", err)
	}

	table := run(rs, []string{"/* a", "b */ c"})

	want0 := []Span{{Start: 0, End: 4, Kind: "comment"}}
	if !reflect.DeepEqual(table.Lines[0].Spans, want0) {
		t.Errorf("line 0 spans = %+v, want %+v", table.Lines[0].Spans, want0)
	}
	if table.Lines[0].ClosesWith == nil || table.Lines[0].ClosesWith.Kind != "comment" {
		t.Errorf("line 0 should carry an open comment, got %+v", table.Lines[0].ClosesWith)
	}

	// The closer ends right after "*/"; the trailing " c" is plain and so
	// does not appear in Spans at all.
	want1 := []Span{{Start: 0, End: 4, Kind: "comment"}}
	if !reflect.DeepEqual(table.Lines[1].Spans, want1) {
		t.Errorf("line 1 spans = %+v, want %+v", table.Lines[1].Spans, want1)
	}
	if table.Lines[1].ClosesWith != nil {
		t.Errorf("line 1 should not carry an open comment, got %+v", table.Lines[1].ClosesWith)
	}
}

// Scenario 2 (§8): an interpolation hole excludes keyword re-entry.
func TestScenarioInterpolationHoleExcludesKeywords(t *testing.T) {
	rs := NewRuleSet("go")
	if err := rs.BoundedInterp("string", `"`, `"`, `\{`, `\}`, true); err != nil {
		t.Fatalf("BoundedInterp: %v", err)
	}
	if err := rs.Keyword("keyword", `\bname\b`); err != nil {
		t.Fatalf("Keyword: %v", err)
	}

	table := run(rs, []string{`"hi {name} bye"`})
	spans := table.Lines[0].Spans

	want := []Span{
		{Start: 0, End: 4, Kind: "string"},
		{Start: 10, End: 15, Kind: "string"},
	}
	if !reflect.DeepEqual(spans, want) {
		t.Errorf("spans = %+v, want %+v (the {name} hole must stay unclassified)", spans, want)
	}
}

// Scenario 3 (§8): plain keyword reconciliation.
func TestScenarioKeywordSpans(t *testing.T) {
	rs := NewRuleSet("go")
	if err := rs.Keyword("keyword", `\b(pub|fn)\b`); err != nil {
		t.Fatalf("Keyword: %v", err)
	}
	if err := rs.Keyword("boolean", `\btrue\b`); err != nil {
		t.Fatalf("Keyword: %v", err)
	}

	table := run(rs, []string{"pub fn x() { true }"})
	want := []Span{
		{Start: 0, End: 3, Kind: "keyword"},
		{Start: 4, End: 6, Kind: "keyword"},
		{Start: 13, End: 17, Kind: "boolean"},
	}
	if !reflect.DeepEqual(table.Lines[0].Spans, want) {
		t.Errorf("spans = %+v, want %+v", table.Lines[0].Spans, want)
	}
}

// Scenario 4 (§8): incremental edit moving a closer changes a later line.
func TestScenarioEditMovesCloser(t *testing.T) {
	h := New(1, WithEngine("go"))
	defer h.Close()
	if err := h.Bounded("comment", `/\*`, `\*/`, false); err != nil {
		t.Fatalf("Bounded: %v", err)
	}

	h.Run([]string{"/* a", "b", "c */"})
	if h.table.Lines[2].OpensWith == nil {
		t.Fatalf("line 2 should initially open inside the comment")
	}

	if err := h.Edit(1, "b */"); err != nil {
		t.Fatalf("Edit: %v", err)
	}

	if h.table.Lines[2].OpensWith != nil {
		t.Errorf("line 2 should no longer open inside a comment after the edit, got %+v", h.table.Lines[2].OpensWith)
	}
	if len(h.table.Lines[2].Spans) != 0 {
		t.Errorf("line 2 should have no comment spans after the edit, got %+v", h.table.Lines[2].Spans)
	}
}

// Scenario 5 (§8): no rules at all yields a single plain token per line.
func TestScenarioNoRulesYieldsPlainTokens(t *testing.T) {
	h := New(1, WithEngine("go"))
	defer h.Close()
	h.Run([]string{"x", "y", "z"})

	for i, raw := range []string{"x", "y", "z"} {
		tokens, err := h.Line(i, raw)
		if err != nil {
			t.Fatalf("Line(%d): %v", i, err)
		}
		if len(tokens) != 1 || !tokens[0].Plain || tokens[0].Text != raw {
			t.Errorf("Line(%d) = %+v, want a single plain token %q", i, tokens, raw)
		}
	}
}

// Scenario 6 (§8): zero-width keyword matches never produce spans.
func TestScenarioZeroWidthKeywordNeverMatches(t *testing.T) {
	rs := NewRuleSet("go")
	if err := rs.Keyword("word", `a*`); err != nil {
		t.Fatalf("Keyword: %v", err)
	}

	table := run(rs, []string{"bbb"})
	if len(table.Lines[0].Spans) != 0 {
		t.Errorf("spans = %+v, want none", table.Lines[0].Spans)
	}
}

func TestEscapableCloserIsSkipped(t *testing.T) {
	rs := NewRuleSet("go")
	if err := rs.Bounded("string", `"`, `"`, true); err != nil {
		t.Fatalf("Bounded: %v", err)
	}

	table := run(rs, []string{`"a\"b"`})
	want := []Span{{Start: 0, End: 6, Kind: "string"}}
	if !reflect.DeepEqual(table.Lines[0].Spans, want) {
		t.Errorf("spans = %+v, want %+v (escaped quote must not close the string)", table.Lines[0].Spans, want)
	}
}

func TestNonEscapableCloserCloses(t *testing.T) {
	rs := NewRuleSet("go")
	if err := rs.Bounded("string", `"`, `"`, false); err != nil {
		t.Fatalf("Bounded: %v", err)
	}

	table := run(rs, []string{`"a\"b"`})
	want := []Span{
		{Start: 0, End: 4, Kind: "string"},
		{Start: 5, End: 6, Kind: "string"},
	}
	if !reflect.DeepEqual(table.Lines[0].Spans, want) {
		t.Errorf("spans = %+v, want %+v", table.Lines[0].Spans, want)
	}
}

func TestOverlapReconciliationPrecedence(t *testing.T) {
	rs := NewRuleSet("go")
	// Both rules match at column 0; the longer match wins on equal start.
	if err := rs.Keyword("a", `foobar`); err != nil {
		t.Fatalf("Keyword: %v", err)
	}
	if err := rs.Keyword("b", `foo`); err != nil {
		t.Fatalf("Keyword: %v", err)
	}

	table := run(rs, []string{"foobar"})
	want := []Span{{Start: 0, End: 6, Kind: "a"}}
	if !reflect.DeepEqual(table.Lines[0].Spans, want) {
		t.Errorf("spans = %+v, want %+v (longer match wins on equal start)", table.Lines[0].Spans, want)
	}
}

func TestOverlapReconciliationSmallerStartWins(t *testing.T) {
	rs := NewRuleSet("go")
	if err := rs.Keyword("a", `abcd`); err != nil {
		t.Fatalf("Keyword: %v", err)
	}
	if err := rs.Keyword("b", `bc`); err != nil {
		t.Fatalf("Keyword: %v", err)
	}

	table := run(rs, []string{"xabcd"})
	want := []Span{{Start: 1, End: 5, Kind: "a"}}
	if !reflect.DeepEqual(table.Lines[0].Spans, want) {
		t.Errorf("spans = %+v, want %+v (smaller start wins)", table.Lines[0].Spans, want)
	}
}

func TestCarryContinuityInvariant(t *testing.T) {
	rs := NewRuleSet("go")
	if err := rs.Bounded("comment", `/\*`, `\*/`, false); err != nil {
		t.Fatalf("Bounded: %v", err)
	}

	table := run(rs, []string{"/* a", "b", "c */", "d"})
	if !table.CheckCarryContinuity() {
		t.Error("expected carry continuity to hold")
	}
}

func TestUnclosedBoundedRegionPersistsToEOF(t *testing.T) {
	rs := NewRuleSet("go")
	if err := rs.Bounded("comment", `/\*`, `\*/`, false); err != nil {
		t.Fatalf("Bounded: %v", err)
	}

	table := run(rs, []string{"/* never closes", "still in it", "still here"})
	for i, line := range table.Lines {
		if i > 0 && line.OpensWith == nil {
			t.Errorf("line %d should open inside the unclosed comment", i)
		}
		if len(line.Spans) != 1 || line.Spans[0].Kind != "comment" {
			t.Errorf("line %d spans = %+v, want entirely comment", i, line.Spans)
		}
	}
	if table.Lines[len(table.Lines)-1].ClosesWith == nil {
		t.Error("the last line should still carry an open comment")
	}
}

func TestDeterminismRunTwice(t *testing.T) {
	rs := NewRuleSet("go")
	if err := rs.Keyword("keyword", `\bif\b`); err != nil {
		t.Fatalf("Keyword: %v", err)
	}
	lines := []string{"if x {}", "if y {}"}

	a := run(rs, lines)
	b := run(rs, lines)
	if !reflect.DeepEqual(a, b) {
		t.Error("run() is not deterministic across identical calls")
	}
}

func TestKeywordNeverIntersectsBoundedSpan(t *testing.T) {
	rs := NewRuleSet("go")
	if err := rs.Bounded("string", `"`, `"`, true); err != nil {
		t.Fatalf("Bounded: %v", err)
	}
	if err := rs.Keyword("keyword", `\bif\b`); err != nil {
		t.Fatalf("Keyword: %v", err)
	}

	table := run(rs, []string{`if "if" {}`})
	for _, s := range table.Lines[0].Spans {
		if s.Kind == "keyword" && s.Start >= 3 && s.End <= 7 {
			t.Errorf("keyword span %+v should not have matched inside the string", s)
		}
	}
}

func TestTabInsideStringRetainsKind(t *testing.T) {
	rs := NewRuleSet("go")
	if err := rs.Bounded("string", `"`, `"`, true); err != nil {
		t.Fatalf("Bounded: %v", err)
	}
	h := New(4, WithEngine("go"))
	defer h.Close()
	h.ruleSet = rs
	line := "\"a\tb\""
	h.Run([]string{line})

	tokens, err := h.Line(0, line)
	if err != nil {
		t.Fatalf("Line: %v", err)
	}
	for _, tok := range tokens {
		if tok.Plain {
			t.Errorf("expected every token to carry the string kind, got plain token %+v", tok)
		}
	}
}
