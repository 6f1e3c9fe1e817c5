package prism

import "regexp"

// ruleShape tags which of the three rule variants a Rule holds.
type ruleShape int

const (
	shapeKeyword ruleShape = iota
	shapeBounded
	shapeBoundedInterp
)

// Rule is one entry of a RuleSet. Construct rules through RuleSet's
// Keyword/Bounded/BoundedInterp/Join methods rather than directly; the
// zero value is not a usable Rule.
type Rule struct {
	shape ruleShape
	kind  Kind

	// keywordIndex indexes into the owning RuleSet's Matcher pattern
	// list, valid when shape == shapeKeyword.
	keywordIndex int

	// open/close/interpOpen/interpClose are compiled directly with
	// regexp.Compile, bypassing Matcher: bounded scanning needs precise
	// single-pattern search from an arbitrary column, which a
	// multi-pattern engine buys nothing for.
	open        *regexp.Regexp
	close       *regexp.Regexp
	interpOpen  *regexp.Regexp
	interpClose *regexp.Regexp
	escapable   bool
}

// KeywordDef is one entry passed to RuleSet.Join.
type KeywordDef struct {
	Kind    Kind
	Pattern string
}

// RuleSet is an ordered, append-only (until Run) store of lexical rules.
// Registration order is precedence order: earlier rules win ties (see
// §4.2/§4.3 of the highlighter's tokenization contract).
type RuleSet struct {
	rules   []Rule
	matcher *Matcher

	// keywordRules[i] is the index into rules of the keyword rule whose
	// Matcher pattern index is i.
	keywordRules []int
}

// NewRuleSet creates an empty RuleSet backed by the named pattern engine
// ("go", "hyperscan", or "auto").
func NewRuleSet(engineName string) *RuleSet {
	return &RuleSet{matcher: newMatcher(engineName)}
}

// Keyword appends a single-line regex rule tagged kind. Matches that
// would cross a line boundary are implicitly confined to the line by
// the tokenizer (see Tokenizer, Phase B).
func (rs *RuleSet) Keyword(kind Kind, pattern string) error {
	if !kind.Valid() {
		return ErrInvalidKind
	}
	idx, err := rs.matcher.AddKeyword(pattern)
	if err != nil {
		return err
	}
	rs.keywordRules = append(rs.keywordRules, len(rs.rules))
	rs.rules = append(rs.rules, Rule{shape: shapeKeyword, kind: kind, keywordIndex: idx})
	return nil
}

// ruleForPattern maps a Matcher pattern index (as reported on a Match)
// back to the RuleSet rule that registered it.
func (rs *RuleSet) ruleForPattern(patternIndex int) *Rule {
	return &rs.rules[rs.keywordRules[patternIndex]]
}

// Bounded appends a rule whose matches may span multiple lines,
// delimited by open and close regexes. When escapable is true, a close
// occurrence immediately preceded by a backslash does not close the
// region.
func (rs *RuleSet) Bounded(kind Kind, open, close string, escapable bool) error {
	if !kind.Valid() {
		return ErrInvalidKind
	}
	openRe, err := compileRegex(open)
	if err != nil {
		return err
	}
	closeRe, err := compileRegex(close)
	if err != nil {
		return err
	}
	rs.rules = append(rs.rules, Rule{
		shape:     shapeBounded,
		kind:      kind,
		open:      openRe,
		close:     closeRe,
		escapable: escapable,
	})
	return nil
}

// BoundedInterp appends a Bounded rule that also carries interpolation
// holes: sub-ranges between interpOpen/interpClose rendered as plain
// text. Interpolation holes do not themselves re-enter any rule.
func (rs *RuleSet) BoundedInterp(kind Kind, open, close, interpOpen, interpClose string, escapable bool) error {
	if !kind.Valid() {
		return ErrInvalidKind
	}
	openRe, err := compileRegex(open)
	if err != nil {
		return err
	}
	closeRe, err := compileRegex(close)
	if err != nil {
		return err
	}
	iOpenRe, err := compileRegex(interpOpen)
	if err != nil {
		return err
	}
	iCloseRe, err := compileRegex(interpClose)
	if err != nil {
		return err
	}
	rs.rules = append(rs.rules, Rule{
		shape:       shapeBoundedInterp,
		kind:        kind,
		open:        openRe,
		close:       closeRe,
		interpOpen:  iOpenRe,
		interpClose: iCloseRe,
		escapable:   escapable,
	})
	return nil
}

// Join registers many keyword rules in order, as a convenience over
// repeated Keyword calls. Order is preserved (and so is precedence).
func (rs *RuleSet) Join(defs []KeywordDef) error {
	for _, d := range defs {
		if err := rs.Keyword(d.Kind, d.Pattern); err != nil {
			return err
		}
	}
	return nil
}

// Len reports how many rules are registered.
func (rs *RuleSet) Len() int { return len(rs.rules) }

func compileRegex(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &RegexCompileError{Pattern: pattern, Err: err}
	}
	return re, nil
}
