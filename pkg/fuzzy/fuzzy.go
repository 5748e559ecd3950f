// Package fuzzy ranks candidate strings against a loosely typed pattern.
//
// It backs the launcher's fallback path: when a prefix search comes back empty
// ("vscdoe", "clndr"), candidates whose characters appear in order are scored
// with bonuses for word starts, camelCase humps and adjacent runs.
package fuzzy

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Scoring constants
const (
	firstCharMatchBonus            = 15
	adjacentMatchBonus             = 10
	separatorMatchBonus            = 12
	camelCaseMatchBonus            = 12
	unmatchedLeadingCharPenalty    = -3
	maxUnmatchedLeadingCharPenalty = -9
	maxWeightBonus                 = 30
)

// Candidate is a string to match along with a popularity weight.
type Candidate struct {
	Text   string
	Weight int
}

// Match is a candidate that matched, with its score and matched rune positions.
type Match struct {
	Index          int
	Text           string
	Score          int
	MatchedIndexes []int
}

// Matcher holds the candidate set.
type Matcher struct {
	candidates []Candidate
	lowered    []string
}

// NewMatcher creates a matcher over candidates. The slice is not copied.
func NewMatcher(candidates []Candidate) *Matcher {
	lowered := make([]string, len(candidates))
	for i, c := range candidates {
		lowered[i] = strings.ToLower(c.Text)
	}
	return &Matcher{
		candidates: candidates,
		lowered:    lowered,
	}
}

// Reweighted returns a matcher over the same texts with the weight of
// candidate i set to weight(i). m is left unchanged.
func (m *Matcher) Reweighted(weight func(i int) int) *Matcher {
	candidates := make([]Candidate, len(m.candidates))
	for i, c := range m.candidates {
		candidates[i] = Candidate{Text: c.Text, Weight: weight(i)}
	}
	return &Matcher{candidates: candidates, lowered: m.lowered}
}

// Find returns up to limit matches for pattern, best first.
// Patterns shorter than two characters never match.
func (m *Matcher) Find(pattern string, limit int) []Match {
	if len(pattern) < 2 {
		return nil
	}

	lowerPattern := strings.ToLower(pattern)
	patternRunes := []rune(lowerPattern)
	var matches []Match

	for i, cand := range m.candidates {
		lc := m.lowered[i]
		if len(lc) == 0 || lowerPattern[0] != lc[0] {
			continue
		}

		match := Match{
			Index:          i,
			Text:           cand.Text,
			MatchedIndexes: make([]int, 0, len(patternRunes)),
		}
		if !runFuzzyMatch(patternRunes, cand.Text, &match) {
			continue
		}

		match.Score += len(match.MatchedIndexes) - utf8.RuneCountInString(lc)
		if cand.Weight > 0 {
			match.Score += min(cand.Weight/10, maxWeightBonus)
		}
		matches = append(matches, match)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// runFuzzyMatch reports whether every pattern rune occurs in candidate in
// order, accumulating the score into match. Runes are taken at their first
// occurrence.
func runFuzzyMatch(pattern []rune, candidate string, match *Match) bool {
	var last rune
	var currAdjacentMatchBonus int
	patternIndex := 0
	lastMatched := -2
	i := 0

	for _, curr := range candidate {
		if patternIndex < len(pattern) && equalFold(curr, pattern[patternIndex]) {
			score := 0

			if i == 0 {
				score += firstCharMatchBonus
			}
			if i > 0 && unicode.IsLower(last) && unicode.IsUpper(curr) {
				score += camelCaseMatchBonus
			}
			if i > 0 && isSeparator(last) {
				score += separatorMatchBonus
			}

			if lastMatched == i-1 {
				currAdjacentMatchBonus += adjacentMatchBonus
				score += currAdjacentMatchBonus
			} else {
				currAdjacentMatchBonus = 0
			}

			if len(match.MatchedIndexes) == 0 {
				score += max(i*unmatchedLeadingCharPenalty, maxUnmatchedLeadingCharPenalty)
			}

			match.Score += score
			match.MatchedIndexes = append(match.MatchedIndexes, i)
			lastMatched = i
			patternIndex++
		}

		last = curr
		i++
	}

	return patternIndex >= len(pattern)
}

func isSeparator(r rune) bool {
	return r == ' ' || r == '_' || r == '-' || r == '.' || r == '/'
}

func equalFold(a, b rune) bool {
	if a == b {
		return true
	}
	if a < utf8.RuneSelf && b < utf8.RuneSelf {
		if 'A' <= a && a <= 'Z' {
			a += 'a' - 'A'
		}
		if 'A' <= b && b <= 'Z' {
			b += 'a' - 'A'
		}
		return a == b
	}
	return strings.EqualFold(string(a), string(b))
}
