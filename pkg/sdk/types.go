package rankdex

import "time"

// SearchRequest starts a new search.
type SearchRequest struct {
	Query     string   `json:"query"`
	BatchSize int      `json:"batch_size,omitempty"`
	Filters   *Filters `json:"filters,omitempty"`
}

// Filters holds hard constraints and soft ranking hints.
type Filters struct {
	Must []FilterCondition `json:"must,omitempty"`
	Soft []string          `json:"soft,omitempty"`
}

// FilterCondition is a single hard constraint: a tag match or a numeric range.
type FilterCondition struct {
	Key   string       `json:"key"`
	Match string       `json:"match,omitempty"`
	Range *RangeFilter `json:"range,omitempty"`
}

// RangeFilter defines numeric range boundaries. Nil bounds are open.
type RangeFilter struct {
	GTE *float64 `json:"gte,omitempty"`
	LTE *float64 `json:"lte,omitempty"`
}

// Float returns a pointer to v, for inline range literals.
func Float(v float64) *float64 { return &v }

// Batch is one delivered page of ranked results.
type Batch struct {
	Items       []Result `json:"items"`
	Mode        string   `json:"mode"`
	BatchNumber int      `json:"batch_number"`
	HasMore     bool     `json:"has_more"`
	NextToken   string   `json:"next_token,omitempty"`
}

// Result is a single ranked product.
type Result struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category,omitempty"`
	Type     string  `json:"type,omitempty"`
	Price    float64 `json:"price"`
	Score    float64 `json:"score"`
	Tier     string  `json:"tier,omitempty"`
}

// BreakerStatus is the state of one AI capability's circuit breaker.
type BreakerStatus struct {
	Capability   string `json:"capability"`
	Open         bool   `json:"open"`
	FailureCount int    `json:"failure_count"`
	RetryInMs    int64  `json:"retry_in_ms,omitempty"`
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            `json:"status"` // "ok", "degraded", "error"
	Checks map[string]string `json:"checks"` // component → "ok"/"error"
}

// UsagePeriod is the aggregation granularity for usage reports.
type UsagePeriod string

// UsagePeriod constants.
const (
	PeriodDay   UsagePeriod = "day"
	PeriodMonth UsagePeriod = "month"
	PeriodTotal UsagePeriod = "total"
)

// UsageReport contains embedding usage and budget state for one period.
// Period bounds are absent for the total period.
type UsageReport struct {
	Period        string       `json:"period"`
	PeriodStartAt *time.Time   `json:"period_start_at,omitempty"`
	PeriodEndAt   *time.Time   `json:"period_end_at,omitempty"`
	Usage         UsageMetrics `json:"usage"`
	Budget        BudgetStatus `json:"budget"`
}

// UsageMetrics tracks embedding resource consumption.
type UsageMetrics struct {
	EmbeddingRequests int `json:"embedding_requests"`
	Tokens            int `json:"tokens"`
}

// BudgetStatus tracks embedding token quota state. ResetsAt is nil when the
// budget is unlimited.
type BudgetStatus struct {
	TokensLimit     int        `json:"tokens_limit"`
	TokensRemaining int        `json:"tokens_remaining"`
	IsExhausted     bool       `json:"is_exhausted"`
	Unlimited       bool       `json:"unlimited"`
	ResetsAt        *time.Time `json:"resets_at,omitempty"`
}
