package token

import (
	"fmt"
	"sort"
	"time"

	"github.com/kailas-cloud/rankdex/internal/domain/search/filter"
)

// Token is a self-contained continuation cursor for one batch chain.
// It is immutable once issued; advancing the chain mints a new value.
type Token struct {
	query        string
	filters      filter.Set
	complexQuery bool
	delivered    []string
	batchNumber  int
	issuedAt     time.Time
}

// New validates and creates a Token. Delivered IDs are deduplicated and
// sorted so equal chains always encode identically.
func New(
	query string,
	filters filter.Set,
	complexQuery bool,
	delivered []string,
	batchNumber int,
	issuedAt time.Time,
) (Token, error) {
	if query == "" {
		return Token{}, fmt.Errorf("token query is required")
	}
	if batchNumber < 1 {
		return Token{}, fmt.Errorf("token batch number must be >= 1, got %d", batchNumber)
	}
	if issuedAt.IsZero() {
		return Token{}, fmt.Errorf("token issue time is required")
	}

	return Token{
		query:        query,
		filters:      filters,
		complexQuery: complexQuery,
		delivered:    normalizeIDs(delivered),
		batchNumber:  batchNumber,
		issuedAt:     issuedAt,
	}, nil
}

func normalizeIDs(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}

// Advance returns the successor token: delivered set grows by returnedIDs,
// batch number increments, issue time refreshes. The receiver is unchanged.
func (t Token) Advance(returnedIDs []string, issuedAt time.Time) Token {
	merged := make([]string, 0, len(t.delivered)+len(returnedIDs))
	merged = append(merged, t.delivered...)
	merged = append(merged, returnedIDs...)

	return Token{
		query:        t.query,
		filters:      t.filters,
		complexQuery: t.complexQuery,
		delivered:    normalizeIDs(merged),
		batchNumber:  t.batchNumber + 1,
		issuedAt:     issuedAt,
	}
}

// Query returns the original search query text.
func (t Token) Query() string { return t.query }

// Filters returns the normalized filter set resolved for this chain.
func (t Token) Filters() filter.Set { return t.filters }

// IsComplex reports whether the chain's query was classified as complex.
func (t Token) IsComplex() bool { return t.complexQuery }

// DeliveredIDs returns the sorted set of already delivered document IDs.
func (t Token) DeliveredIDs() []string { return t.delivered }

// DeliveredSet returns the delivered IDs as a lookup set.
func (t Token) DeliveredSet() map[string]struct{} {
	set := make(map[string]struct{}, len(t.delivered))
	for _, id := range t.delivered {
		set[id] = struct{}{}
	}
	return set
}

// BatchNumber returns the number of batches delivered so far in this chain.
func (t Token) BatchNumber() int { return t.batchNumber }

// IssuedAt returns the token issue time.
func (t Token) IssuedAt() time.Time { return t.issuedAt }
