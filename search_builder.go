package rankdex

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/rankdex/internal/domain/search/request"
)

// SearchBuilder is a fluent builder for search queries.
type SearchBuilder struct {
	client *Client

	query     string
	batchSize int
	must      []FilterCondition
	soft      []string
}

// BatchSize sets how many results the first batch delivers (default 20,
// capped at 50).
func (b *SearchBuilder) BatchSize(n int) *SearchBuilder {
	b.batchSize = n
	return b
}

// Where adds a hard exact-match constraint.
func (b *SearchBuilder) Where(key, value string) *SearchBuilder {
	b.must = append(b.must, FilterCondition{Key: key, Match: value})
	return b
}

// Between adds a hard inclusive range constraint.
func (b *SearchBuilder) Between(key string, gte, lte float64) *SearchBuilder {
	b.must = append(b.must, FilterCondition{Key: key, Range: &RangeFilter{GTE: &gte, LTE: &lte}})
	return b
}

// Under adds a hard upper bound.
func (b *SearchBuilder) Under(key string, lte float64) *SearchBuilder {
	b.must = append(b.must, FilterCondition{Key: key, Range: &RangeFilter{LTE: &lte}})
	return b
}

// Over adds a hard lower bound.
func (b *SearchBuilder) Over(key string, gte float64) *SearchBuilder {
	b.must = append(b.must, FilterCondition{Key: key, Range: &RangeFilter{GTE: &gte}})
	return b
}

// Prefer adds soft category hints. Matching documents rank higher but
// nothing is excluded.
func (b *SearchBuilder) Prefer(categories ...string) *SearchBuilder {
	b.soft = append(b.soft, categories...)
	return b
}

// Do runs the pipeline and returns the first batch. Use Client.NextBatch
// with the returned NextToken to continue.
func (b *SearchBuilder) Do(ctx context.Context) (*Batch, error) {
	filters, err := toInternalFilters(b.must, b.soft)
	if err != nil {
		return nil, err
	}

	req, err := request.New(b.query, b.batchSize, filters)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}

	batch, err := b.client.delivery.Search(ctx, &req)
	if err != nil {
		return nil, err
	}
	return fromInternalBatch(batch), nil
}
