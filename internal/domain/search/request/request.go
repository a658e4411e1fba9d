package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/rankdex/internal/domain/search/filter"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength   = 512
	DefaultBatchSize = 20
	MaxBatchSize     = 50
)

// Request is a validated search query.
type Request struct {
	query     string
	batchSize int
	filters   filter.Set
}

// New validates and normalizes search parameters.
// Defaults: batchSize=20. BatchSize is clamped to MaxBatchSize.
func New(query string, batchSize int, filters filter.Set) (Request, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, fmt.Errorf("query is required")
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if batchSize > MaxBatchSize {
		batchSize = MaxBatchSize
	}

	return Request{
		query:     query,
		batchSize: batchSize,
		filters:   filters,
	}, nil
}

// Query returns the search query text.
func (r *Request) Query() string { return r.query }

// BatchSize returns the number of documents to deliver per batch.
func (r *Request) BatchSize() int { return r.batchSize }

// Filters returns the client-supplied hard filter set.
func (r *Request) Filters() filter.Set { return r.filters }
