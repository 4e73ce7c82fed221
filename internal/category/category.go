// Package category provides helpers for Plaid-style hierarchical transaction
// categories. Categories arrive as a path of strings, most general first
// (for example ["Food and Drink", "Restaurants", "Coffee Shop"]), and all
// matching in the detectors is case-insensitive substring matching against
// any element of that path.
package category

import "strings"

// Normalize upper-cases and trims a single category element.
func Normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Contains reports whether any element of the category path contains the
// keyword, case-insensitively. An empty keyword never matches.
func Contains(path []string, keyword string) bool {
	kw := Normalize(keyword)
	if kw == "" {
		return false
	}
	for _, elem := range path {
		if strings.Contains(Normalize(elem), kw) {
			return true
		}
	}
	return false
}

// ContainsAny reports whether any element of the path contains any of the
// keywords.
func ContainsAny(path []string, keywords ...string) bool {
	for _, kw := range keywords {
		if Contains(path, kw) {
			return true
		}
	}
	return false
}

// Primary returns the most general element of the path, or "" for an empty
// path.
func Primary(path []string) string {
	if len(path) == 0 {
		return ""
	}
	return path[0]
}
