package fusion

import (
	"strings"
	"unicode"
)

// cleanText lowercases text, replaces every non-alphanumeric run with a
// single space and trims. All ladder predicates below the raw tiers compare
// names and queries in this form.
func cleanText(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}

// wordCount counts whitespace-separated words.
func wordCount(s string) int {
	return len(strings.Fields(s))
}

// adjacentPairs returns every adjacent word pair of words joined by a space.
func adjacentPairs(words []string) []string {
	if len(words) < 2 {
		return nil
	}
	pairs := make([]string, 0, len(words)-1)
	for i := 0; i+1 < len(words); i++ {
		pairs = append(pairs, words[i]+" "+words[i+1])
	}
	return pairs
}
