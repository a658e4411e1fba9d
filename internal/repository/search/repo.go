package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/rankdex/internal/db"
	"github.com/kailas-cloud/rankdex/internal/domain/product"
	"github.com/kailas-cloud/rankdex/internal/domain/search/filter"
	"github.com/kailas-cloud/rankdex/internal/domain/search/request"
	"github.com/kailas-cloud/rankdex/internal/repository/catalog"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchBM25(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

// Repo adapts FT.SEARCH to the retrieval contracts of the ranking pipeline.
type Repo struct {
	store store
	fuzzy int
}

// New creates a search repository. fuzzy is the per-term edit distance for
// lexical queries (0 disables fuzzy matching).
func New(s store, fuzzy int) *Repo {
	return &Repo{store: s, fuzzy: fuzzy}
}

// SearchLexical runs the BM25 branch over product names.
func (r *Repo) SearchLexical(
	ctx context.Context, query string, filters filter.Set, limit int,
) ([]product.Product, error) {
	q := &db.TextQuery{
		IndexName:    catalog.IndexName(),
		Field:        catalog.FieldName,
		Query:        query,
		Fuzzy:        r.fuzzy,
		Filters:      filters,
		TopK:         limit,
		ReturnFields: hydrationFields(),
	}

	sr, err := r.store.SearchBM25(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}
	return parseProducts(sr), nil
}

// SearchVector runs the KNN branch over product embeddings.
func (r *Repo) SearchVector(
	ctx context.Context, vector []float32, filters filter.Set, limit int,
) ([]product.Product, error) {
	q := &db.KNNQuery{
		IndexName:    catalog.IndexName(),
		VectorField:  catalog.FieldEmbedding,
		Filters:      filters,
		Vector:       vector,
		K:            limit,
		ReturnFields: hydrationFields(),
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return parseProducts(sr), nil
}

// SearchSimilar finds nearest neighbours of a seed vector, dropping the
// anchor document itself.
func (r *Repo) SearchSimilar(
	ctx context.Context, vector []float32, req *request.SimilarRequest,
) ([]product.Product, error) {
	q := &db.KNNQuery{
		IndexName:   catalog.IndexName(),
		VectorField: catalog.FieldEmbedding,
		Filters:     req.Filters(),
		Vector:      vector,
		// the anchor is usually its own nearest neighbour
		K:            req.Limit() + 1,
		ReturnFields: hydrationFields(),
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("similar search: %w", err)
	}

	neighbours := make([]product.Product, 0, req.Limit())
	for _, p := range parseProducts(sr) {
		if p.ID() == req.ExcludeID() {
			continue
		}
		neighbours = append(neighbours, p)
		if len(neighbours) == req.Limit() {
			break
		}
	}
	return neighbours, nil
}

// hydrationFields lists the hash fields needed to rebuild a product. The
// embedding blob stays on the record.
func hydrationFields() []string {
	return []string{catalog.FieldName, catalog.FieldCategory, catalog.FieldType, catalog.FieldPrice}
}

// parseProducts converts search entries into products, preserving engine order.
func parseProducts(sr *db.SearchResult) []product.Product {
	if sr == nil || sr.Total == 0 {
		return nil
	}

	prefix := catalog.KeyPrefix()
	products := make([]product.Product, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		id := strings.TrimPrefix(entry.Key, prefix)
		price, _ := strconv.ParseFloat(entry.Fields[catalog.FieldPrice], 64)
		products = append(products, product.Reconstruct(
			id,
			entry.Fields[catalog.FieldName],
			entry.Fields[catalog.FieldCategory],
			entry.Fields[catalog.FieldType],
			price,
		))
	}
	return products
}
