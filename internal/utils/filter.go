package utils

import (
	"strings"
	"unicode/utf8"
)

// NormalizeQuery trims surrounding whitespace from a search query.
func NormalizeQuery(q string) string {
	return strings.TrimSpace(q)
}

// IsValidQuery reports whether q, counted in runes, lies within
// [minLen, maxLen]. A maxLen <= 0 disables the upper bound.
// The empty query is always valid: it lists the top items.
func IsValidQuery(q string, minLen, maxLen int) bool {
	if q == "" {
		return true
	}
	if !utf8.ValidString(q) {
		return false
	}
	n := utf8.RuneCountInString(q)
	if n < minLen {
		return false
	}
	return maxLen <= 0 || n <= maxLen
}

// IsRepetitive checks if a string is one character repeated 3+ times, like "aaa".
func IsRepetitive(s string) bool {
	if len(s) <= 2 {
		return false
	}
	first := s[0]
	for i := 1; i < len(s); i++ {
		if s[i] != first {
			return false
		}
	}
	return true
}
