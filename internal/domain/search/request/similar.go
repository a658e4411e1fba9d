package request

import (
	"fmt"

	"github.com/kailas-cloud/rankdex/internal/domain/search/filter"
)

// Neighbour query limits.
const (
	DefaultNeighborLimit = 20
	MaxNeighborLimit     = 100
)

// SimilarRequest is a validated nearest-neighbour query around an existing document.
type SimilarRequest struct {
	excludeID string
	filters   filter.Set
	limit     int
}

// NewSimilar validates and normalizes similar request parameters.
// The anchor document itself is always excluded from results.
func NewSimilar(excludeID string, filters filter.Set, limit int) (SimilarRequest, error) {
	if excludeID == "" {
		return SimilarRequest{}, fmt.Errorf("anchor document id is required")
	}
	if limit <= 0 {
		limit = DefaultNeighborLimit
	}
	if limit > MaxNeighborLimit {
		limit = MaxNeighborLimit
	}

	return SimilarRequest{
		excludeID: excludeID,
		filters:   filters,
		limit:     limit,
	}, nil
}

// ExcludeID returns the anchor document identifier.
func (r *SimilarRequest) ExcludeID() string { return r.excludeID }

// Filters returns the hard filter set carried over from the original search.
func (r *SimilarRequest) Filters() filter.Set { return r.filters }

// Limit returns the number of neighbours to retrieve.
func (r *SimilarRequest) Limit() int { return r.limit }
