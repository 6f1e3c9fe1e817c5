package prism

// Kind is a user-chosen label for a class of highlighted tokens, such as
// "keyword" or "string". Two Kinds are equal iff their underlying values
// are equal.
type Kind string

// Valid reports whether k is usable as a rule's kind. The empty Kind is
// never valid.
func (k Kind) Valid() bool { return k != "" }
