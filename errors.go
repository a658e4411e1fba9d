package rankdex

import (
	"github.com/kailas-cloud/rankdex/internal/domain"
)

// Sentinel errors surfaced by Search and NextBatch. Match with errors.Is.
var (
	// ErrInvalidQuery signals an empty or oversized query.
	ErrInvalidQuery = domain.ErrInvalidQuery
	// ErrInvalidFilter signals a malformed filter condition.
	ErrInvalidFilter = domain.ErrInvalidFilter
	// ErrTokenMalformed signals a continuation token that failed structural
	// or signature checks.
	ErrTokenMalformed = domain.ErrTokenMalformed
	// ErrTokenExpired signals a continuation token past its TTL.
	ErrTokenExpired = domain.ErrTokenExpired
	// ErrUpstreamSearch signals a failure in a mandatory search source.
	// Retryable on the caller's side.
	ErrUpstreamSearch = domain.ErrUpstreamSearch
	// ErrEmbeddingProvider signals an embedding provider failure.
	ErrEmbeddingProvider = domain.ErrEmbeddingProviderError
	// ErrUnknownCapability signals a breaker reset for an unregistered capability.
	ErrUnknownCapability = domain.ErrUnknownCapability
)
