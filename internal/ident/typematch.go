package ident

import "strings"

// TypeMatches reports whether a fully-qualified ledger type such as
// "0x2a::marketplace::Project<0x2::sui::SUI>" satisfies filter.
//
// Both are split on "::" with generic parameters removed. The filter matches
// when its segments equal the trailing segments of the type, segment for
// segment. Address segments compare with zero padding removed. A filter that is a
// plain substring of a segment never matches: "marketplace::Project" does not
// select "0x2a::marketplace::ProjectApplication".
//
// An empty filter matches every type.
func TypeMatches(typ, filter string) bool {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return true
	}

	ts := typeSegments(typ)
	fs := typeSegments(filter)
	if len(fs) == 0 || len(fs) > len(ts) {
		return false
	}

	offset := len(ts) - len(fs)
	for i, f := range fs {
		t := ts[offset+i]
		if i == 0 && offset+i == 0 {
			// Leading address segment.
			if normalizeAddress(t) != normalizeAddress(f) {
				return false
			}
			continue
		}
		if t != f {
			return false
		}
	}
	return true
}

// normalizeAddress drops the 0x prefix and leading zero padding, so "0x2"
// and "0x0000000000000000000000000000000000000000000000000000000000000002"
// compare equal.
func normalizeAddress(s string) string {
	n := strings.TrimLeft(Normalize(s), "0")
	if n == "" {
		return "0"
	}
	return n
}

// typeSegments splits a type string into its "::" segments after stripping
// the outermost generic parameter list.
func typeSegments(typ string) []string {
	typ = strings.TrimSpace(typ)
	if i := strings.IndexByte(typ, '<'); i >= 0 {
		typ = typ[:i]
	}
	if typ == "" {
		return nil
	}

	parts := strings.Split(typ, "::")
	out := parts[:0]
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil
		}
		out = append(out, p)
	}
	return out
}
