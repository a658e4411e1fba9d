package metrics

// Metrics holds embedding spend counters for a time period. Cost is not
// tracked: the service has no provider price table, tokens are the unit
// budgets are set in.
type Metrics struct {
	embeddingRequests int
	tokens            int
}

// New creates a Metrics snapshot.
func New(requests, tokens int) Metrics {
	return Metrics{embeddingRequests: requests, tokens: tokens}
}

// EmbeddingRequests returns the number of provider embedding calls.
// Cache hits do not count: they never reach the provider.
func (m Metrics) EmbeddingRequests() int { return m.embeddingRequests }

// Tokens returns the total tokens consumed.
func (m Metrics) Tokens() int { return m.tokens }
