package domain

import "strings"

// NormalizeHumanName trims leading/trailing whitespace and collapses internal whitespace runs.
// It is used for display names, nicknames and spouse-name cross references.
func NormalizeHumanName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// SameHumanName reports whether two free-text names refer to the same person.
// Blank names never match.
func SameHumanName(a, b string) bool {
	na := NormalizeHumanName(a)
	nb := NormalizeHumanName(b)
	if na == "" || nb == "" {
		return false
	}
	return strings.EqualFold(na, nb)
}
