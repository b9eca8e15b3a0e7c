package resolve

import "github.com/roach88/ledgerlens/internal/ident"

// Candidate sources, in the order they are tried within one entry.
const (
	SourceObjectID       = "object_id"
	SourceEmbeddedKey    = "embedded_key"
	SourceEnumerationKey = "enumeration_key"
	SourceEntryRef       = "entry_ref"
	SourceCorrelatedKey  = "correlated_key"
)

// candidate is one identifier under which a record might be addressed.
type candidate struct {
	source string
	value  string
}

// pick selects the first item with a candidate matching id. All items are
// checked for an exact match before any suffix match is accepted, so an
// exact hit later in the list beats a suffix hit earlier in it. Within each
// pass, items are taken in the given order.
func pick[T any](id string, items []T, candidates func(T) []candidate) (int, candidate, ident.MatchKind) {
	for _, want := range []ident.MatchKind{ident.MatchExact, ident.MatchSuffix} {
		for i, item := range items {
			for _, c := range candidates(item) {
				if ident.Classify(c.value, id) == want {
					return i, c, want
				}
			}
		}
	}
	return -1, candidate{}, ident.MatchNone
}

// anyMatch reports whether any candidate matches id by either rule.
func anyMatch(id string, cands []candidate) bool {
	for _, c := range cands {
		if ident.Matches(c.value, id) {
			return true
		}
	}
	return false
}
