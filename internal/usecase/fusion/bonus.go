package fusion

import (
	"strings"

	"github.com/xrash/smetrics"
)

// matchBonus walks the exact-match ladder top down and returns the first
// matching tier's bonus. Lower tiers are only reachable when every tier
// above failed, so the prefix and early tiers key off the first query word
// rather than the full phrase.
func (e *Engine) matchBonus(name, query string) float64 {
	w := e.weights

	rawName := strings.TrimSpace(name)
	rawQuery := strings.TrimSpace(query)
	if rawName == "" || rawQuery == "" {
		return 0
	}

	if strings.EqualFold(rawName, rawQuery) {
		return w.ExactBonus
	}

	cleanName := cleanText(rawName)
	cleanQuery := cleanText(rawQuery)
	if cleanName != "" && cleanName == cleanQuery {
		return w.CleanedExactBonus
	}

	if strings.Contains(strings.ToLower(rawName), strings.ToLower(rawQuery)) {
		return w.ContainsFullBonus
	}
	if cleanQuery != "" && strings.Contains(cleanName, cleanQuery) {
		return w.ContainsCleanedBonus
	}

	queryWords := strings.Fields(cleanQuery)
	for _, pair := range adjacentPairs(queryWords) {
		if strings.Contains(cleanName, pair) {
			return w.PhraseBonus
		}
	}

	if len(queryWords) > 0 {
		first := queryWords[0]
		if strings.HasPrefix(cleanName, first) {
			return w.PrefixBonus
		}
		if idx := strings.Index(cleanName, first); idx >= 0 && idx < w.EarlyWindow {
			return w.EarlyBonus
		}
	}

	if e.fuzzyMatch(cleanName, cleanQuery) {
		return w.FuzzyBonus
	}

	return 0
}

// fuzzyMatch compares the cleaned query against the same-length name prefix
// and against each individual name word. Operands shorter than
// FuzzyMinTokenLen never match.
func (e *Engine) fuzzyMatch(cleanName, cleanQuery string) bool {
	w := e.weights
	if len(cleanQuery) < w.FuzzyMinTokenLen {
		return false
	}

	nameRunes := []rune(cleanName)
	queryLen := len([]rune(cleanQuery))
	if len(nameRunes) > queryLen {
		nameRunes = nameRunes[:queryLen]
	}
	if prefix := string(nameRunes); len(prefix) >= w.FuzzyMinTokenLen && e.similar(prefix, cleanQuery) {
		return true
	}

	for _, word := range strings.Fields(cleanName) {
		if len(word) < w.FuzzyMinTokenLen {
			continue
		}
		if e.similar(word, cleanQuery) {
			return true
		}
	}
	return false
}

// similar reports whether (maxLen - editDistance) / maxLen clears the
// similarity floor.
func (e *Engine) similar(a, b string) bool {
	dist := smetrics.WagnerFischer(a, b, 1, 1, 1)
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return false
	}
	return float64(maxLen-dist)/float64(maxLen) >= e.weights.FuzzySimilarityMin
}
