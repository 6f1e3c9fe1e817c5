package prism

import "strings"

// Token is one piece of a rendered line: either a highlighted run
// (Plain == false, Kind set) or a plain run (Plain == true).
type Token struct {
	Text  string
	Kind  Kind
	Plain bool
}

type viewportRange struct {
	start, end int
}

type renderConfig struct {
	viewport *viewportRange
}

// RenderOption configures a single Line call.
type RenderOption func(*renderConfig)

// WithViewport clips the rendered token stream to the given display
// column range [start, end). Clipped leading/trailing partial tokens
// retain their kind.
func WithViewport(start, end int) RenderOption {
	return func(c *renderConfig) { c.viewport = &viewportRange{start: start, end: end} }
}

// expandedChar is one post-tab-expansion display column.
type expandedChar struct {
	text string
	kind *Kind
}

// renderLine implements §4.5: classify every raw character by its
// covering span, expand tabs after classification (so a tab inside a
// string still carries the string kind), optionally clip to a viewport,
// then coalesce into a token stream.
func renderLine(state LineState, raw string, tabWidth int, cfg renderConfig) []Token {
	chars := expandLine(raw, state.Spans, tabWidth)
	chars = clipViewport(chars, cfg.viewport)
	return coalesceTokens(chars)
}

func expandLine(raw string, spans []Span, tabWidth int) []expandedChar {
	if tabWidth < 1 {
		tabWidth = 1
	}
	out := make([]expandedChar, 0, len(raw))
	col := 0
	spanIdx := 0
	for _, r := range raw {
		for spanIdx < len(spans) && spans[spanIdx].End <= col {
			spanIdx++
		}
		var k *Kind
		if spanIdx < len(spans) && spans[spanIdx].Start <= col && col < spans[spanIdx].End {
			kk := spans[spanIdx].Kind
			k = &kk
		}

		if r == '\t' {
			for j := 0; j < tabWidth; j++ {
				out = append(out, expandedChar{text: " ", kind: k})
			}
		} else {
			out = append(out, expandedChar{text: string(r), kind: k})
		}
		col++
	}
	return out
}

func clipViewport(chars []expandedChar, viewport *viewportRange) []expandedChar {
	if viewport == nil {
		return chars
	}
	start, end := viewport.start, viewport.end
	if start < 0 {
		start = 0
	}
	if end > len(chars) {
		end = len(chars)
	}
	if start >= end {
		return nil
	}
	return chars[start:end]
}

func coalesceTokens(chars []expandedChar) []Token {
	var tokens []Token
	var sb strings.Builder
	var curKind *Kind
	first := true

	flush := func() {
		if sb.Len() == 0 {
			return
		}
		if curKind == nil {
			tokens = append(tokens, Token{Text: sb.String(), Plain: true})
		} else {
			tokens = append(tokens, Token{Text: sb.String(), Kind: *curKind})
		}
		sb.Reset()
	}

	for _, c := range chars {
		if first || !sameKind(curKind, c.kind) {
			flush()
			curKind = c.kind
			first = false
		}
		sb.WriteString(c.text)
	}
	flush()
	return tokens
}

func sameKind(a, b *Kind) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
