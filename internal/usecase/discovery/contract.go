package discovery

import (
	"context"

	"github.com/kailas-cloud/rankdex/internal/domain/product"
	"github.com/kailas-cloud/rankdex/internal/domain/search/request"
)

// NeighborSearcher runs filtered nearest-neighbour lookups around a stored vector.
type NeighborSearcher interface {
	SearchSimilar(ctx context.Context, vec []float32, req *request.SimilarRequest) ([]product.Product, error)
}

// CatalogReader exposes per-document embeddings persisted with the catalog.
type CatalogReader interface {
	Embedding(ctx context.Context, id string) ([]float32, error)
}
