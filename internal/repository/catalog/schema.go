package catalog

import (
	"github.com/kailas-cloud/rankdex/internal/db"
	"github.com/kailas-cloud/rankdex/internal/domain"
)

// Hash fields of a product record.
const (
	FieldName      = "name"
	FieldCategory  = "category"
	FieldType      = "type"
	FieldPrice     = "price"
	FieldEmbedding = "embedding"
)

// HNSW build parameters for the product embedding field.
const (
	hnswM           = 16
	hnswEFConstruct = 200
)

// KeyPrefix returns the storage key prefix of product records.
func KeyPrefix() string {
	return domain.KeyPrefix + "products:"
}

// ProductKey returns the storage key of a product id.
func ProductKey(id string) string {
	return KeyPrefix() + id
}

// IndexName returns the name of the product search index.
func IndexName() string {
	return domain.KeyPrefix + "products:idx"
}

// IndexDefinition builds the product index schema: BM25 over the name,
// tag/numeric attribute filters, and an HNSW embedding field.
func IndexDefinition(dim int) (*db.IndexDefinition, error) {
	return db.NewIndex(IndexName()).
		Prefix(KeyPrefix()).
		Text(FieldName).
		Tag(FieldCategory).
		Tag(FieldType).
		Numeric(FieldPrice).
		VectorHNSW(FieldEmbedding, dim, db.DistanceCosine, hnswM, hnswEFConstruct).
		Build()
}
