package prism

// Edit replaces the text of line i.
func (h *Highlighter) Edit(i int, text string) error {
	if err := h.guard(); err != nil {
		return err
	}
	defer h.unguard()

	if i < 0 || i >= len(h.lines) {
		return &IndexOutOfRangeError{Op: "edit", Index: i, Len: len(h.lines)}
	}
	h.lines[i] = text
	h.rescanFrom(i)
	return nil
}

// Insert inserts a new line at index i, shifting later lines down. i may
// equal len(lines) to append.
func (h *Highlighter) Insert(i int, text string) error {
	if err := h.guard(); err != nil {
		return err
	}
	defer h.unguard()

	if i < 0 || i > len(h.lines) {
		return &IndexOutOfRangeError{Op: "insert", Index: i, Len: len(h.lines)}
	}

	h.lines = append(h.lines, "")
	copy(h.lines[i+1:], h.lines[i:])
	h.lines[i] = text

	h.table.Lines = append(h.table.Lines, LineState{})
	copy(h.table.Lines[i+1:], h.table.Lines[i:])
	h.table.Lines[i] = LineState{}

	h.rescanFrom(i)
	return nil
}

// Remove deletes line i, shifting later lines up.
func (h *Highlighter) Remove(i int) error {
	if err := h.guard(); err != nil {
		return err
	}
	defer h.unguard()

	if i < 0 || i >= len(h.lines) {
		return &IndexOutOfRangeError{Op: "remove", Index: i, Len: len(h.lines)}
	}

	h.lines = append(h.lines[:i], h.lines[i+1:]...)
	h.table.Lines = append(h.table.Lines[:i], h.table.Lines[i+1:]...)

	// Removing a line may merge two carries (the line before and the
	// line after it become adjacent); starting from i-1 lets Phase A
	// naturally re-derive the merged carry rather than special-casing
	// it, per §4.4's edge case note.
	start := i
	if start > 0 {
		start--
	}
	if start >= len(h.lines) {
		start = len(h.lines) - 1
	}
	if start >= 0 {
		h.rescanFrom(start)
	}
	return nil
}

// rescanFrom re-runs Phase A/B starting at line i with the carry
// snapshotted from line i-1, stopping at the first line after i whose
// new ClosesWith reconverges with what was already stored there (line i
// itself is never a stopping point, since Insert leaves it with an
// empty placeholder state) --- every
// line after that point is provably unaffected (§4.4).
func (h *Highlighter) rescanFrom(i int) {
	var carry *OpenMarker
	if i > 0 {
		carry = h.table.Lines[i-1].ClosesWith
	}

	for j := i; j < len(h.lines); j++ {
		old := h.table.Lines[j]
		opensWith := carry

		bl := scanBoundedLine(h.ruleSet.rules, h.lines[j], carry)
		spans := tokenizeKeywords(h.ruleSet, h.lines[j], bl.spans, bl.holes)

		h.table.Lines[j] = LineState{
			Spans:      toRuneSpans(h.lines[j], spans),
			OpensWith:  opensWith,
			ClosesWith: bl.closesWith,
		}
		carry = bl.closesWith

		if j > i && markersEqual(bl.closesWith, old.ClosesWith) {
			return
		}
	}
}
