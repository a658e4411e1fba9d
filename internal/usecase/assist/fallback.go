package assist

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kailas-cloud/rankdex/internal/domain/search/filter"
	"github.com/kailas-cloud/rankdex/internal/domain/search/mode"
)

// FallbackConfig tunes the deterministic stand-ins used when AI is unavailable.
type FallbackConfig struct {
	// ComplexMinWords is the word count from which a query counts as complex.
	ComplexMinWords int
	// KnownCategories is the vocabulary scanned for soft category hints.
	KnownCategories []string
}

// DefaultFallbackConfig returns the production fallback tuning.
func DefaultFallbackConfig() FallbackConfig {
	return FallbackConfig{
		ComplexMinWords: 4,
		KnownCategories: []string{"wine", "cheese", "beer", "spirits", "snacks", "coffee"},
	}
}

// Price phrases understood without AI. Currency symbols are optional.
var (
	priceBetweenRe = regexp.MustCompile(`(?i)(?:between|from)\s*\$?(\d+(?:\.\d+)?)\s*(?:and|to|-)\s*\$?(\d+(?:\.\d+)?)`)
	priceUnderRe   = regexp.MustCompile(`(?i)(?:under|below|less than|at most|up to)\s*\$?(\d+(?:\.\d+)?)`)
	priceOverRe    = regexp.MustCompile(`(?i)(?:over|above|more than|at least)\s*\$?(\d+(?:\.\d+)?)`)
)

// fallbackClassify calls a query complex once it reads like a description
// rather than a product name.
func fallbackClassify(query string, cfg FallbackConfig) mode.Mode {
	if len(strings.Fields(query)) >= cfg.ComplexMinWords {
		return mode.Complex
	}
	return mode.Simple
}

// fallbackFilters extracts a price range and soft category hints from the
// query text. Hard constraints stay limited to price; categories only ever
// hint.
func fallbackFilters(query string, cfg FallbackConfig) filter.Set {
	var conds []filter.Condition

	if gte, lte, ok := extractPriceRange(query); ok {
		if rng, err := filter.NewRangeFilter(gte, lte); err == nil {
			if cond, err := filter.NewRange("price", rng); err == nil {
				conds = append(conds, cond)
			}
		}
	}

	lowered := strings.ToLower(query)
	var soft []string
	for _, cat := range cfg.KnownCategories {
		if cat == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(cat)) {
			soft = append(soft, cat)
		}
	}

	set, err := filter.NewSet(conds, soft)
	if err != nil {
		// Перебор по числу хинтов возможен только при абсурдном конфиге
		set, _ = filter.NewSet(conds, nil)
	}
	return set
}

func extractPriceRange(query string) (gte, lte *float64, ok bool) {
	if m := priceBetweenRe.FindStringSubmatch(query); m != nil {
		lo, err1 := strconv.ParseFloat(m[1], 64)
		hi, err2 := strconv.ParseFloat(m[2], 64)
		if err1 == nil && err2 == nil && lo <= hi {
			return &lo, &hi, true
		}
	}
	if m := priceUnderRe.FindStringSubmatch(query); m != nil {
		if hi, err := strconv.ParseFloat(m[1], 64); err == nil {
			return nil, &hi, true
		}
	}
	if m := priceOverRe.FindStringSubmatch(query); m != nil {
		if lo, err := strconv.ParseFloat(m[1], 64); err == nil {
			return &lo, nil, true
		}
	}
	return nil, nil, false
}
