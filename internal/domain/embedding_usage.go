package domain

import "context"

type embeddingUsageKey struct{}

// EmbeddingUsage collects embedding token spend for a single request.
// The handler seeds a mutable pointer into the context before calling the
// delivery pipeline; the pipeline records after embedding the query; the
// handler reads the result for response headers. A cache hit records 0
// tokens but still marks the collector used.
type EmbeddingUsage struct {
	TotalTokens int
	Used        bool
}

// NewContextWithUsage returns a context carrying a fresh usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *EmbeddingUsage) {
	u := &EmbeddingUsage{}
	return context.WithValue(ctx, embeddingUsageKey{}, u), u
}

// UsageFromContext extracts the usage collector. Returns nil when the
// caller did not seed one (in-process clients, tests).
func UsageFromContext(ctx context.Context) *EmbeddingUsage {
	u, _ := ctx.Value(embeddingUsageKey{}).(*EmbeddingUsage)
	return u
}

// AddTokens records consumed tokens. Safe on a nil collector.
func (u *EmbeddingUsage) AddTokens(n int) {
	if u != nil {
		u.TotalTokens += n
		u.Used = true
	}
}
