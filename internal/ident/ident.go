// Package ident canonicalizes ledger identifiers and compares them.
//
// Identifiers reach the resolver in several representations: object ids
// with or without a 0x prefix, upper- or lower-case hex, decimal table
// keys. Normalize maps them onto one form; Matches compares two of them,
// falling back to an 8-character suffix comparison when the full forms
// differ.
package ident

import "strings"

// SuffixLen is the number of trailing characters compared by the suffix
// heuristic.
const SuffixLen = 8

// MatchKind reports which rule matched two identifiers.
type MatchKind int

const (
	// MatchNone means the identifiers do not match.
	MatchNone MatchKind = iota
	// MatchExact means the normalized forms are equal.
	MatchExact
	// MatchSuffix means only the trailing SuffixLen characters are equal.
	MatchSuffix
)

// String returns the lower-case name used in logs and CLI output.
func (k MatchKind) String() string {
	switch k {
	case MatchExact:
		return "exact"
	case MatchSuffix:
		return "suffix"
	default:
		return "none"
	}
}

// Normalize lower-cases id, trims surrounding whitespace and strips any
// leading "0x" prefix. Prefix stripping repeats until the string is stable,
// which keeps Normalize idempotent for inputs like "0x0xab".
func Normalize(id string) string {
	s := strings.ToLower(strings.TrimSpace(id))
	for strings.HasPrefix(s, "0x") {
		s = strings.TrimSpace(s[2:])
	}
	return s
}

// Matches reports whether a and b identify the same record.
func Matches(a, b string) bool {
	return Classify(a, b) != MatchNone
}

// Classify compares a and b. Exact equality of normalized forms is checked
// first; the suffix rule only applies when neither form is empty.
func Classify(a, b string) MatchKind {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return MatchNone
	}
	if na == nb {
		return MatchExact
	}
	if suffix(na) == suffix(nb) {
		return MatchSuffix
	}
	return MatchNone
}

// suffix returns the trailing SuffixLen characters of a normalized id,
// left-padded with '0' when the id is shorter. Padding lets a bare table key
// such as "7" line up with the zero-padded tail of a full object id.
func suffix(s string) string {
	if len(s) >= SuffixLen {
		return s[len(s)-SuffixLen:]
	}
	return strings.Repeat("0", SuffixLen-len(s)) + s
}
