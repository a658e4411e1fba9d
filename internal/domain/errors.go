package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuery signals a malformed search query.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrInvalidFilter signals a malformed filter condition.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrTokenMalformed signals a continuation token that failed structural or signature checks.
	ErrTokenMalformed = errors.New("continuation token malformed")
	// ErrTokenExpired signals a continuation token past its TTL.
	ErrTokenExpired = errors.New("continuation token expired")
	// ErrUpstreamSearch signals a failure in a mandatory search provider.
	ErrUpstreamSearch = errors.New("upstream search failed")
	// ErrAIUnavailable signals an AI capability failure; always absorbed by the governor.
	ErrAIUnavailable = errors.New("ai capability unavailable")
	// ErrProductNotFound signals a missing catalog record.
	ErrProductNotFound = errors.New("product not found")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrEmbeddingQuotaExceeded signals that the embedding token budget is spent
	// and the budget action is reject.
	ErrEmbeddingQuotaExceeded = errors.New("embedding token quota exceeded")
	// ErrUnknownCapability signals a breaker lookup for a capability that is not registered.
	ErrUnknownCapability = errors.New("unknown ai capability")
)

// UpstreamError wraps ErrUpstreamSearch with the failing provider name.
// Upstream search is a mandatory dependency: these errors surface to the
// caller and are retryable on their side.
type UpstreamError struct {
	Source string // "lexical" or "vector"
	Err    error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s search: %v", e.Source, e.Err)
}

func (e *UpstreamError) Unwrap() []error { return []error{ErrUpstreamSearch, e.Err} }

// NewUpstreamError creates an upstream provider error.
func NewUpstreamError(source string, err error) error {
	return &UpstreamError{Source: source, Err: err}
}
