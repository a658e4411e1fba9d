package filter

import (
	"fmt"
	"sort"
	"strings"
)

// Limits on filter set size.
const (
	MaxConditions = 16
	MaxSoftHints  = 8
)

// Set holds the hard filter conditions and soft category hints for one search.
// Hard conditions constrain the candidate set on the engine side; soft hints
// only influence ordering and never exclude documents.
type Set struct {
	must []Condition
	soft []string
}

// NewSet validates and creates a filter Set. Conditions are sorted by key and
// soft hints are lowercased, deduplicated and sorted, so equal filter sets
// always serialize identically.
func NewSet(must []Condition, soft []string) (Set, error) {
	if len(must) > MaxConditions {
		return Set{}, fmt.Errorf("too many filter conditions (max %d)", MaxConditions)
	}
	if len(soft) > MaxSoftHints {
		return Set{}, fmt.Errorf("too many soft hints (max %d)", MaxSoftHints)
	}

	conds := make([]Condition, len(must))
	copy(conds, must)
	sort.SliceStable(conds, func(i, j int) bool {
		if conds[i].key != conds[j].key {
			return conds[i].key < conds[j].key
		}
		return conds[i].match < conds[j].match
	})

	return Set{must: conds, soft: normalizeHints(soft)}, nil
}

func normalizeHints(soft []string) []string {
	if len(soft) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(soft))
	out := make([]string, 0, len(soft))
	for _, h := range soft {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "" {
			continue
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}

// Must returns the hard conditions.
func (s Set) Must() []Condition { return s.must }

// Soft returns the soft category hints.
func (s Set) Soft() []string { return s.soft }

// IsEmpty reports whether the set has no conditions and no hints.
func (s Set) IsEmpty() bool {
	return len(s.must) == 0 && len(s.soft) == 0
}

// Merge combines s with extra. Conditions already present in s win on key
// collisions; soft hints from both sides are combined.
func (s Set) Merge(extra Set) (Set, error) {
	taken := make(map[string]struct{}, len(s.must))
	for _, c := range s.must {
		taken[c.key] = struct{}{}
	}

	merged := make([]Condition, 0, len(s.must)+len(extra.must))
	merged = append(merged, s.must...)
	for _, c := range extra.must {
		if _, ok := taken[c.key]; ok {
			continue
		}
		merged = append(merged, c)
	}

	return NewSet(merged, append(append([]string{}, s.soft...), extra.soft...))
}

// Condition is a single filter clause: either a tag match or a numeric range.
type Condition struct {
	key       string
	match     string
	rangeExpr *Range
}

// NewMatch creates an exact tag match condition.
func NewMatch(key, match string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if match == "" {
		return Condition{}, fmt.Errorf("match value is required for key %q", key)
	}
	return Condition{key: key, match: match}, nil
}

// NewRange creates a numeric range condition.
func NewRange(key string, r Range) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	return Condition{key: key, rangeExpr: &r}, nil
}

// Key returns the field name.
func (c Condition) Key() string { return c.key }

// Match returns the exact match value.
func (c Condition) Match() string { return c.match }

// Range returns the numeric range expression.
func (c Condition) Range() *Range { return c.rangeExpr }

// IsMatch reports whether this is a match condition.
func (c Condition) IsMatch() bool { return c.match != "" }

// IsRange reports whether this is a range condition.
func (c Condition) IsRange() bool { return c.rangeExpr != nil }

// Range is a numeric range with gte/lte boundaries.
type Range struct {
	gte *float64
	lte *float64
}

// NewRangeFilter validates and creates a Range. At least one boundary required.
func NewRangeFilter(gte, lte *float64) (Range, error) {
	if gte == nil && lte == nil {
		return Range{}, fmt.Errorf("at least one range boundary is required")
	}
	if gte != nil && lte != nil && *gte > *lte {
		return Range{}, fmt.Errorf("range lower bound %v exceeds upper bound %v", *gte, *lte)
	}
	return Range{gte: gte, lte: lte}, nil
}

// GTE returns the lower inclusive bound.
func (r Range) GTE() *float64 { return r.gte }

// LTE returns the upper inclusive bound.
func (r Range) LTE() *float64 { return r.lte }
