package rankdex

import (
	"fmt"

	"github.com/kailas-cloud/rankdex/internal/domain/search/filter"
	"github.com/kailas-cloud/rankdex/internal/domain/search/result"
	deliveryuc "github.com/kailas-cloud/rankdex/internal/usecase/delivery"
)

// Batch is one delivered page of ranked results.
type Batch struct {
	Items       []Result
	Mode        string // "simple" or "complex"
	BatchNumber int
	HasMore     bool
	NextToken   string // set when HasMore
}

// Result is one ranked catalog product.
type Result struct {
	ID       string
	Name     string
	Category string
	Type     string
	Price    float64
	Score    float64
	Tier     string // "high_confidence" or "related"; empty for complex queries
}

// FilterCondition is one hard constraint: either an exact Match or a Range,
// never both.
type FilterCondition struct {
	Key   string
	Match string
	Range *RangeFilter
}

// RangeFilter bounds a numeric field. Either side may be nil.
type RangeFilter struct {
	GTE *float64
	LTE *float64
}

func toInternalFilters(must []FilterCondition, soft []string) (filter.Set, error) {
	conds := make([]filter.Condition, 0, len(must))
	for _, c := range must {
		cond, err := toInternalCondition(c)
		if err != nil {
			return filter.Set{}, err
		}
		conds = append(conds, cond)
	}

	set, err := filter.NewSet(conds, soft)
	if err != nil {
		return filter.Set{}, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	return set, nil
}

func toInternalCondition(c FilterCondition) (filter.Condition, error) {
	if c.Match != "" && c.Range != nil {
		return filter.Condition{}, fmt.Errorf("%w: filter %q sets both match and range", ErrInvalidFilter, c.Key)
	}

	if c.Range != nil {
		rng, err := filter.NewRangeFilter(c.Range.GTE, c.Range.LTE)
		if err != nil {
			return filter.Condition{}, fmt.Errorf("%w: filter %q: %v", ErrInvalidFilter, c.Key, err)
		}
		cond, err := filter.NewRange(c.Key, rng)
		if err != nil {
			return filter.Condition{}, fmt.Errorf("%w: filter %q: %v", ErrInvalidFilter, c.Key, err)
		}
		return cond, nil
	}

	cond, err := filter.NewMatch(c.Key, c.Match)
	if err != nil {
		return filter.Condition{}, fmt.Errorf("%w: filter %q: %v", ErrInvalidFilter, c.Key, err)
	}
	return cond, nil
}

func fromInternalBatch(b deliveryuc.Batch) *Batch {
	return &Batch{
		Items:       fromRanked(b.Docs),
		Mode:        string(b.Mode),
		BatchNumber: b.BatchNumber,
		HasMore:     b.HasMore,
		NextToken:   b.NextToken,
	}
}

func fromRanked(docs []result.Ranked) []Result {
	out := make([]Result, len(docs))
	for i, r := range docs {
		p := r.Product()
		out[i] = Result{
			ID:       p.ID(),
			Name:     p.Name(),
			Category: p.Category(),
			Type:     p.Type(),
			Price:    p.Price(),
			Score:    r.SortKey() + r.Boost(),
			Tier:     string(r.Tier()),
		}
	}
	return out
}
