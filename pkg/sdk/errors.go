package rankdex

import (
	"errors"
	"fmt"
)

// Sentinel errors for API failure classes. Use errors.Is() to check; the
// concrete *APIError carries the raw status, code and message.
var (
	ErrInvalidQuery      = errors.New("rankdex: invalid query")
	ErrInvalidFilter     = errors.New("rankdex: invalid filter")
	ErrTokenMalformed    = errors.New("rankdex: malformed continuation token")
	ErrTokenExpired      = errors.New("rankdex: expired continuation token")
	ErrUnauthorized      = errors.New("rankdex: unauthorized")
	ErrQuotaExceeded     = errors.New("rankdex: embedding token quota exceeded")
	ErrUpstreamSearch    = errors.New("rankdex: upstream search failed")
	ErrUnknownCapability = errors.New("rankdex: unknown capability")
)

// APIError is an error response from the rankdex API.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("rankdex: %s (%s, http %d)", e.Message, e.Code, e.StatusCode)
}

// Unwrap maps the machine-readable code to its sentinel.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case "invalid_query":
		return ErrInvalidQuery
	case "invalid_filter":
		return ErrInvalidFilter
	case "token_malformed":
		return ErrTokenMalformed
	case "token_expired":
		return ErrTokenExpired
	case "unauthorized":
		return ErrUnauthorized
	case "embedding_quota_exceeded":
		return ErrQuotaExceeded
	case "upstream_search_failed", "embedding_provider_error":
		return ErrUpstreamSearch
	case "unknown_capability":
		return ErrUnknownCapability
	}
	return nil
}
