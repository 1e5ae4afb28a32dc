package domain

import "strings"

// SortPair returns the two user ids in canonical (lexicographic) order.
func SortPair(a, b string) (low, high string) {
	if strings.Compare(a, b) <= 0 {
		return a, b
	}
	return b, a
}

// PairID derives the canonical conversation id for an unordered user pair.
// It is pure and order-independent: PairID(a, b) == PairID(b, a), so both
// participants resolve to the same conversation row no matter who initiates.
func PairID(a, b string) string {
	low, high := SortPair(a, b)
	return low + "_" + high
}
