package delivery

import (
	"context"

	"github.com/kailas-cloud/rankdex/internal/domain"
	"github.com/kailas-cloud/rankdex/internal/domain/product"
	"github.com/kailas-cloud/rankdex/internal/domain/search/filter"
	"github.com/kailas-cloud/rankdex/internal/domain/search/mode"
	"github.com/kailas-cloud/rankdex/internal/domain/search/result"
	"github.com/kailas-cloud/rankdex/internal/token"
)

// Searcher defines the storage contract for candidate retrieval. Both
// searches are mandatory: a failing source aborts the batch instead of
// silently degrading ranking quality.
type Searcher interface {
	SearchLexical(
		ctx context.Context, query string, filters filter.Set, limit int,
	) ([]product.Product, error)

	SearchVector(
		ctx context.Context, vector []float32, filters filter.Set, limit int,
	) ([]product.Product, error)
}

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Assist provides governed query understanding. Implementations never fail:
// every capability degrades to a deterministic fallback.
type Assist interface {
	Classify(ctx context.Context, query string) mode.Mode
	ExtractFilters(ctx context.Context, query string) filter.Set
	Rerank(ctx context.Context, query string, hits []result.Ranked) []result.Ranked
}

// Expander widens later batches of exploratory queries with documents similar
// to their strongest hits.
type Expander interface {
	Eligible(complexQuery bool, batchNumber int, hits []result.Ranked) bool
	Expand(ctx context.Context, hits []result.Ranked, hard filter.Set) []result.Ranked
}

// TokenCodec signs and verifies continuation tokens.
type TokenCodec interface {
	Encode(t token.Token) (string, error)
	Decode(encoded string) (token.Token, error)
}
