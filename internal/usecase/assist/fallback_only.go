package assist

import (
	"context"

	"github.com/kailas-cloud/rankdex/internal/domain/search/filter"
	"github.com/kailas-cloud/rankdex/internal/domain/search/mode"
	"github.com/kailas-cloud/rankdex/internal/domain/search/result"
)

// FallbackOnly answers every capability from the deterministic fallbacks,
// with no model and no breakers. Embedded deployments run on it when no AI
// provider is configured.
type FallbackOnly struct {
	fallback FallbackConfig
}

// NewFallbackOnly creates a model-free assist.
func NewFallbackOnly(fallback FallbackConfig) *FallbackOnly {
	return &FallbackOnly{fallback: fallback}
}

// Classify labels the query by word count.
func (f *FallbackOnly) Classify(_ context.Context, query string) mode.Mode {
	return fallbackClassify(query, f.fallback)
}

// ExtractFilters reads price phrases and category mentions from the query text.
func (f *FallbackOnly) ExtractFilters(_ context.Context, query string) filter.Set {
	return fallbackFilters(query, f.fallback)
}

// Rerank keeps the fusion order.
func (f *FallbackOnly) Rerank(_ context.Context, _ string, hits []result.Ranked) []result.Ranked {
	return hits
}
