package assist

import (
	"context"

	"github.com/kailas-cloud/rankdex/internal/domain/search/filter"
)

// Classifier decides whether a query carries descriptive intent.
type Classifier interface {
	ClassifyComplexity(ctx context.Context, query string) (bool, error)
}

// FilterExtractor pulls structured filters out of free-form query text.
type FilterExtractor interface {
	ExtractFilters(ctx context.Context, query string) (filter.Set, error)
}

// Reranker reorders candidate IDs by relevance to the query.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []Candidate) ([]string, error)
}

// Candidate is the slice of a ranked hit a reranker sees.
type Candidate struct {
	ID       string
	Name     string
	Category string
	Price    float64
}
