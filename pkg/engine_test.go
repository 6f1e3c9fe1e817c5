package prism

import "testing"

func TestGoRegexEngineCompileError(t *testing.T) {
	e := NewGoRegexEngine()
	defer e.Close()

	if err := e.CompileKeywords([]string{`[unclosed`}); err == nil {
		t.Error("expected a compile error for an invalid pattern")
	}
}

func TestGoRegexEngineFindAllInLine(t *testing.T) {
	e := NewGoRegexEngine()
	defer e.Close()

	if err := e.CompileKeywords([]string{`\bfoo\b`, `\d+`}); err != nil {
		t.Fatalf("CompileKeywords: %v", err)
	}

	matches := e.FindAllInLine("foo 123 foo 456")
	if len(matches) != 4 {
		t.Fatalf("got %d matches, want 4: %+v", len(matches), matches)
	}
}

func TestGoRegexEngineDropsZeroWidth(t *testing.T) {
	e := NewGoRegexEngine()
	defer e.Close()

	if err := e.CompileKeywords([]string{`x*`}); err != nil {
		t.Fatalf("CompileKeywords: %v", err)
	}

	matches := e.FindAllInLine("ab")
	if len(matches) != 0 {
		t.Fatalf("expected zero-width matches to be dropped, got %+v", matches)
	}
}

func TestMatcherGoEngineReportsGoRegexp(t *testing.T) {
	m := newMatcher("go")
	if _, err := m.AddKeyword(`\bfoo\b`); err != nil {
		t.Fatalf("AddKeyword: %v", err)
	}
	if m.EngineName() != "go-regexp" {
		t.Fatalf("expected go-regexp engine, got %s", m.EngineName())
	}
}

func TestMatcherAddKeywordRejectsInvalidRegex(t *testing.T) {
	m := newMatcher("go")
	if _, err := m.AddKeyword(`[unclosed`); err == nil {
		t.Error("expected an error for an invalid pattern")
	}
}

func TestMatcherFindAllInLineAcrossMultiplePatterns(t *testing.T) {
	m := newMatcher("go")
	if _, err := m.AddKeyword(`\bif\b`); err != nil {
		t.Fatalf("AddKeyword: %v", err)
	}
	if _, err := m.AddKeyword(`\belse\b`); err != nil {
		t.Fatalf("AddKeyword: %v", err)
	}

	matches := m.FindAllInLine("if x { } else { }")
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2: %+v", len(matches), matches)
	}
}

func TestSelectEngineExplicit(t *testing.T) {
	if name := selectEngine("go").Name(); name != "go-regexp" {
		t.Errorf("selectEngine(go) = %s, want go-regexp", name)
	}
}
