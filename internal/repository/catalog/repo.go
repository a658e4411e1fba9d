package catalog

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/kailas-cloud/rankdex/internal/db"
	"github.com/kailas-cloud/rankdex/internal/domain"
	"github.com/kailas-cloud/rankdex/internal/domain/product"
)

// store is the consumer interface for catalog reads (ISP).
type store interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Repo reads product records from the catalog store. The catalog is owned by
// the ingestion pipeline; this service never writes to it.
type Repo struct {
	store store
}

// New creates a catalog repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Product loads a single catalog record.
func (r *Repo) Product(ctx context.Context, id string) (product.Product, error) {
	fields, err := r.store.HGetAll(ctx, ProductKey(id))
	if err != nil {
		return product.Product{}, fmt.Errorf("load product %s: %w", id, err)
	}
	if len(fields) == 0 {
		return product.Product{}, domain.ErrProductNotFound
	}
	return fromFields(id, fields), nil
}

// Products loads multiple records in one round trip, skipping missing ids.
// Order follows the input ids.
func (r *Repo) Products(ctx context.Context, ids []string) ([]product.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = ProductKey(id)
	}

	maps, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	products := make([]product.Product, 0, len(ids))
	for i, fields := range maps {
		if len(fields) == 0 {
			continue
		}
		products = append(products, fromFields(ids[i], fields))
	}
	return products, nil
}

// Embedding returns the stored vector of a product. Discovery reads seed
// vectors from here instead of re-embedding seed names.
func (r *Repo) Embedding(ctx context.Context, id string) ([]float32, error) {
	fields, err := r.store.HGetAll(ctx, ProductKey(id))
	if err != nil {
		return nil, fmt.Errorf("load embedding %s: %w", id, err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrProductNotFound
	}

	raw, ok := fields[FieldEmbedding]
	if !ok {
		return nil, fmt.Errorf("product %s has no embedding", id)
	}
	vec := bytesToVector(raw)
	if vec == nil {
		return nil, fmt.Errorf("product %s: malformed embedding blob", id)
	}
	return vec, nil
}

// EnsureIndex creates the product search index if it does not exist yet.
// Safe to call on every startup.
func (r *Repo) EnsureIndex(ctx context.Context, dim int) error {
	exists, err := r.store.IndexExists(ctx, IndexName())
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	if exists {
		return nil
	}

	def, err := IndexDefinition(dim)
	if err != nil {
		return fmt.Errorf("index definition: %w", err)
	}

	// Concurrent replicas may race past the existence check.
	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// IndexReady reports whether the product search index is queryable. The
// health endpoint uses it to surface a flushed or unprovisioned store.
func (r *Repo) IndexReady(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, IndexName())
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	if !exists {
		return fmt.Errorf("index %s is missing", IndexName())
	}
	return nil
}

// fromFields hydrates a product from flat hash fields.
func fromFields(id string, fields map[string]string) product.Product {
	price, _ := strconv.ParseFloat(fields[FieldPrice], 64)
	return product.Reconstruct(id, fields[FieldName], fields[FieldCategory], fields[FieldType], price)
}

// bytesToVector deserializes a little-endian float32 blob.
func bytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b) == 0 || len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
