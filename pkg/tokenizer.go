package prism

import (
	"regexp"
	"sort"
	"unicode/utf8"
)

// byteRange is a [start, end) byte-offset range, used internally by the
// tokenizer before columns are converted to runes for the public Span
// type.
type byteRange struct {
	start, end int
}

// boundedLine is Phase A's result for a single line.
type boundedLine struct {
	spans      []Span // byte offsets; converted to runes by the caller
	holes      []byteRange
	closesWith *OpenMarker
}

// run performs the full-buffer Tokenizer pass (§4.3): Phase A bounded
// scan followed by Phase B keyword reconciliation, for every line.
func run(rs *RuleSet, lines []string) SpanTable {
	states := make([]LineState, len(lines))

	var carry *OpenMarker
	holesByLine := make([][]byteRange, len(lines))
	for i, line := range lines {
		opensWith := carry
		bl := scanBoundedLine(rs.rules, line, carry)
		states[i] = LineState{Spans: bl.spans, OpensWith: opensWith, ClosesWith: bl.closesWith}
		holesByLine[i] = bl.holes
		carry = bl.closesWith
	}

	for i, line := range lines {
		spans := tokenizeKeywords(rs, line, states[i].Spans, holesByLine[i])
		states[i].Spans = toRuneSpans(line, spans)
	}

	return SpanTable{Lines: states}
}

// scanBoundedLine implements Phase A for one line: it walks bounded
// regions (opening fresh ones, continuing a carried-in one, switching
// into and back out of interpolation holes) left to right.
func scanBoundedLine(rules []Rule, line string, carryIn *OpenMarker) boundedLine {
	var spans []Span
	var holes []byteRange

	var cur *OpenMarker
	if carryIn != nil {
		c := *carryIn
		cur = &c
	}

	pos := 0
	regionStart := 0

	for {
		if cur == nil {
			s, e, idx, ok := findLeftmostOpen(rules, line, pos)
			if !ok {
				break
			}
			cur = &OpenMarker{RuleIndex: idx, Kind: rules[idx].kind, Mode: ModeBody}
			regionStart = s
			pos = e
		}

		rule := rules[cur.RuleIndex]

		if cur.Mode == ModeBody {
			closeLoc := findFirstUnescaped(rule.close, line, pos, rule.escapable)
			var interpLoc *byteRange
			if rule.shape == shapeBoundedInterp {
				interpLoc = findFirstUnescaped(rule.interpOpen, line, pos, rule.escapable)
			}

			switch {
			case closeLoc == nil && interpLoc == nil:
				if regionStart < len(line) {
					spans = append(spans, Span{Start: regionStart, End: len(line), Kind: rule.kind})
				}
				return boundedLine{spans: spans, holes: holes, closesWith: cur}

			case interpLoc != nil && (closeLoc == nil || interpLoc.start <= closeLoc.start):
				if interpLoc.start > regionStart {
					spans = append(spans, Span{Start: regionStart, End: interpLoc.start, Kind: rule.kind})
				}
				cur.Mode = ModeInterp
				regionStart = interpLoc.start
				pos = interpLoc.end

			default:
				if closeLoc.end > regionStart {
					spans = append(spans, Span{Start: regionStart, End: closeLoc.end, Kind: rule.kind})
				}
				pos = closeLoc.end
				cur = nil
			}
			continue
		}

		// cur.Mode == ModeInterp: the interpolation hole is plain text
		// and is never itself re-tokenized.
		closeLoc := findFirstUnescaped(rule.interpClose, line, pos, rule.escapable)
		if closeLoc == nil {
			if regionStart < len(line) {
				holes = append(holes, byteRange{start: regionStart, end: len(line)})
			}
			return boundedLine{spans: spans, holes: holes, closesWith: cur}
		}
		holes = append(holes, byteRange{start: regionStart, end: closeLoc.end})
		pos = closeLoc.end
		regionStart = pos
		cur.Mode = ModeBody
	}

	return boundedLine{spans: spans, holes: holes, closesWith: nil}
}

// findLeftmostOpen finds the earliest bounded-rule opener at or after
// byte offset from. Ties (same start column) are broken by registration
// order. Zero-width opener matches are ignored.
func findLeftmostOpen(rules []Rule, line string, from int) (start, end, ruleIdx int, ok bool) {
	bestStart, bestEnd, bestIdx := -1, -1, -1
	for i, r := range rules {
		if r.shape != shapeBounded && r.shape != shapeBoundedInterp {
			continue
		}
		loc := r.open.FindStringIndex(line[from:])
		if loc == nil {
			continue
		}
		s, e := loc[0]+from, loc[1]+from
		if s == e {
			continue
		}
		if bestStart == -1 || s < bestStart {
			bestStart, bestEnd, bestIdx = s, e, i
		}
		// s == bestStart: first-seen (lowest i, since we iterate in
		// registration order) already wins, so nothing to do.
	}
	if bestStart == -1 {
		return 0, 0, 0, false
	}
	return bestStart, bestEnd, bestIdx, true
}

// findFirstUnescaped finds the first match of re at or after byte
// offset from, skipping any occurrence escapable marks as escaped (its
// first character immediately preceded by a backslash).
func findFirstUnescaped(re *regexp.Regexp, line string, from int, escapable bool) *byteRange {
	pos := from
	for pos <= len(line) {
		loc := re.FindStringIndex(line[pos:])
		if loc == nil {
			return nil
		}
		s, e := loc[0]+pos, loc[1]+pos
		if escapable && s > 0 && line[s-1] == '\\' {
			if e == s {
				e = s + 1
			}
			pos = e
			continue
		}
		return &byteRange{start: s, end: e}
	}
	return nil
}

// candidateSpan is a keyword-layer candidate carrying its originating
// rule's registration index, needed for the §4.2 tie-break.
type candidateSpan struct {
	start, end int
	kind       Kind
	ruleIdx    int
}

// tokenizeKeywords implements Phase B for one line: run every keyword
// rule, drop candidates intersecting any Phase-A span or interpolation
// hole, and reconcile overlaps per §4.2.
func tokenizeKeywords(rs *RuleSet, line string, boundedSpans []Span, holes []byteRange) []Span {
	matches := rs.matcher.FindAllInLine(line)
	if len(matches) == 0 {
		return boundedSpans
	}

	candidates := make([]candidateSpan, 0, len(matches))
	for _, m := range matches {
		if m.Start == m.End {
			continue
		}
		if intersectsSpans(boundedSpans, m.Start, m.End) || intersectsRanges(holes, m.Start, m.End) {
			continue
		}
		rule := rs.ruleForPattern(m.PatternIndex)
		candidates = append(candidates, candidateSpan{
			start:   m.Start,
			end:     m.End,
			kind:    rule.kind,
			ruleIdx: rs.keywordRules[m.PatternIndex],
		})
	}
	if len(candidates) == 0 {
		return boundedSpans
	}

	reconciled := reconcileKeywords(candidates)

	merged := make([]Span, 0, len(boundedSpans)+len(reconciled))
	merged = append(merged, boundedSpans...)
	for _, c := range reconciled {
		merged = append(merged, Span{Start: c.start, End: c.end, Kind: c.kind})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Start < merged[j].Start })
	return merged
}

// reconcileKeywords applies §4.2's sweep. Presorting by (start asc, end
// desc, rule asc) already encodes every tie-break the spec names, so the
// sweep itself reduces to "the first-sorted candidate in an overlapping
// run wins; discard the rest".
func reconcileKeywords(candidates []candidateSpan) []candidateSpan {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].start != candidates[j].start {
			return candidates[i].start < candidates[j].start
		}
		if candidates[i].end != candidates[j].end {
			return candidates[i].end > candidates[j].end
		}
		return candidates[i].ruleIdx < candidates[j].ruleIdx
	})

	var result []candidateSpan
	var accepted *candidateSpan
	for i := range candidates {
		c := candidates[i]
		if accepted == nil || c.start >= accepted.end {
			if accepted != nil {
				result = append(result, *accepted)
			}
			acc := c
			accepted = &acc
		}
		// else: overlaps the accepted span, which already wins every
		// §4.2 tie-break by construction of the presort; discard c.
	}
	if accepted != nil {
		result = append(result, *accepted)
	}
	return result
}

func intersectsSpans(spans []Span, start, end int) bool {
	for _, s := range spans {
		if start < s.End && s.Start < end {
			return true
		}
	}
	return false
}

func intersectsRanges(ranges []byteRange, start, end int) bool {
	for _, r := range ranges {
		if start < r.end && r.start < end {
			return true
		}
	}
	return false
}

// toRuneSpans converts byte-offset spans into the character-column
// spans the public API promises (§3: "cols are character indices, not
// byte indices").
func toRuneSpans(line string, spans []Span) []Span {
	if len(spans) == 0 {
		return spans
	}
	out := make([]Span, len(spans))
	for i, s := range spans {
		out[i] = Span{
			Start: utf8.RuneCountInString(line[:s.Start]),
			End:   utf8.RuneCountInString(line[:s.End]),
			Kind:  s.Kind,
		}
	}
	return out
}
