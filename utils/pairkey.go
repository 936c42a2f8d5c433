package utils

import (
	"cmp"
	"strings"
)

// KeySeparator joins identifiers inside composite store keys.
const KeySeparator = "#"

// Canonicalize orders two identifiers so that (x, y) and (y, x) produce the same pair.
func Canonicalize[T cmp.Ordered](x, y T) (lo, hi T) {
	if cmp.Compare(x, y) > 0 {
		return y, x
	}
	return x, y
}

// PairKey encodes an unordered pair as a single order-independent string key.
func PairKey(x, y string) string {
	lo, hi := Canonicalize(x, y)
	return JoinKey(lo, hi)
}

// JoinKey builds a composite key. Parts must already be validated with ValidIdentifier.
func JoinKey(parts ...string) string {
	return strings.Join(parts, KeySeparator)
}

// ValidIdentifier reports whether id can participate in a composite key without ambiguity.
func ValidIdentifier(id string) bool {
	return strings.TrimSpace(id) != "" && !strings.Contains(id, KeySeparator)
}
