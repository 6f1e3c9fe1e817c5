package prism

import "testing"

func TestFromExtensionUnknownReportsNotOK(t *testing.T) {
	_, ok := FromExtension(".nope", 4)
	if ok {
		t.Error("expected ok == false for an extension with no packaged catalog")
	}
}

func TestFromExtensionGoHighlightsKeywords(t *testing.T) {
	h, ok := FromExtension(".go", 4, WithEngine("go"))
	if !ok {
		t.Fatal("expected a packaged .go catalog")
	}
	defer h.Close()

	line := "func main() {}"
	h.Run([]string{line})
	tokens, err := h.Line(0, line)
	if err != nil {
		t.Fatalf("Line: %v", err)
	}

	var sawKeyword bool
	for _, tok := range tokens {
		if !tok.Plain && tok.Kind == "keyword" && tok.Text == "func" {
			sawKeyword = true
		}
	}
	if !sawKeyword {
		t.Errorf("expected a keyword token for \"func\", got %+v", tokens)
	}
}

func TestFromExtensionJavaScriptSharesCatalogAcrossExtensions(t *testing.T) {
	for _, ext := range []string{".js", ".ts", ".jsx", ".tsx"} {
		if _, ok := FromExtension(ext, 4); !ok {
			t.Errorf("expected a packaged catalog for %s", ext)
		}
	}
}

func TestExtensionsIsSorted(t *testing.T) {
	exts := Extensions()
	for i := 1; i < len(exts); i++ {
		if exts[i-1] > exts[i] {
			t.Errorf("Extensions() not sorted: %v", exts)
		}
	}
}

func TestPythonFStringInterpolationHole(t *testing.T) {
	h, ok := FromExtension(".py", 4, WithEngine("go"))
	if !ok {
		t.Fatal("expected a packaged .py catalog")
	}
	defer h.Close()

	line := `x = f"hi {name}"`
	h.Run([]string{line})
	tokens, err := h.Line(0, line)
	if err != nil {
		t.Fatalf("Line: %v", err)
	}

	var got string
	for _, tok := range tokens {
		got += tok.Text
	}
	if got != line {
		t.Errorf("reconstructed = %q, want %q", got, line)
	}
}
