package chi

import (
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/rankdex/internal/domain/search/filter"
	"github.com/kailas-cloud/rankdex/internal/domain/search/result"
	domusage "github.com/kailas-cloud/rankdex/internal/domain/usage"
	"github.com/kailas-cloud/rankdex/internal/governor"
	deliveryuc "github.com/kailas-cloud/rankdex/internal/usecase/delivery"
)

// errorCode is the machine-readable error class in API responses.
type errorCode string

const (
	codeBadRequest        errorCode = "bad_request"
	codeUnauthorized      errorCode = "unauthorized"
	codeInvalidQuery      errorCode = "invalid_query"
	codeInvalidFilter     errorCode = "invalid_filter"
	codeTokenMalformed    errorCode = "token_malformed"
	codeTokenExpired      errorCode = "token_expired"
	codeUpstreamSearch    errorCode = "upstream_search_failed"
	codeEmbeddingProvider errorCode = "embedding_provider_error"
	codeQuotaExceeded     errorCode = "embedding_quota_exceeded"
	codeUnknownCapability errorCode = "unknown_capability"
	codeInternalError     errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

// searchRequest is the POST /api/v1/search payload.
type searchRequest struct {
	Query     string         `json:"query"`
	BatchSize *int           `json:"batch_size,omitempty"`
	Filters   *filterPayload `json:"filters,omitempty"`
}

// continueRequest is the POST /api/v1/search/continue payload.
type continueRequest struct {
	Token     string `json:"token"`
	BatchSize *int   `json:"batch_size,omitempty"`
}

// filterPayload carries client-side hard conditions and soft ranking hints.
type filterPayload struct {
	Must []filterCondition `json:"must,omitempty"`
	Soft []string          `json:"soft,omitempty"`
}

// filterCondition is one hard clause: an exact match or a numeric range.
type filterCondition struct {
	Key   string        `json:"key"`
	Match *string       `json:"match,omitempty"`
	Range *rangePayload `json:"range,omitempty"`
}

type rangePayload struct {
	GTE *float64 `json:"gte,omitempty"`
	LTE *float64 `json:"lte,omitempty"`
}

// batchResponse is one delivered page of ranked results.
type batchResponse struct {
	Items       []resultItem `json:"items"`
	Mode        string       `json:"mode"`
	BatchNumber int          `json:"batch_number"`
	HasMore     bool         `json:"has_more"`
	NextToken   *string      `json:"next_token,omitempty"`
}

type resultItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category,omitempty"`
	Type     string  `json:"type,omitempty"`
	Price    float64 `json:"price"`
	Score    float64 `json:"score"`
	Tier     string  `json:"tier,omitempty"`
}

type breakersResponse struct {
	Items []breakerItem `json:"items"`
}

type breakerItem struct {
	Capability   string `json:"capability"`
	Open         bool   `json:"open"`
	FailureCount int    `json:"failure_count"`
	RetryInMs    int64  `json:"retry_in_ms,omitempty"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// usageResponse is the GET /api/v1/usage payload.
type usageResponse struct {
	Period        string       `json:"period"`
	PeriodStartAt *time.Time   `json:"period_start_at,omitempty"`
	PeriodEndAt   *time.Time   `json:"period_end_at,omitempty"`
	Usage         usageMetrics `json:"usage"`
	Budget        budgetStatus `json:"budget"`
}

type usageMetrics struct {
	EmbeddingRequests int `json:"embedding_requests"`
	Tokens            int `json:"tokens"`
}

type budgetStatus struct {
	TokensLimit     int        `json:"tokens_limit"`
	TokensRemaining int        `json:"tokens_remaining"`
	IsExhausted     bool       `json:"is_exhausted"`
	Unlimited       bool       `json:"unlimited"`
	ResetsAt        *time.Time `json:"resets_at,omitempty"`
}

// filtersFromPayload converts the wire filter payload into a domain set.
func filtersFromPayload(p *filterPayload) (filter.Set, error) {
	if p == nil {
		return filter.Set{}, nil
	}

	conds := make([]filter.Condition, 0, len(p.Must))
	for _, c := range p.Must {
		cond, err := conditionFromPayload(c)
		if err != nil {
			return filter.Set{}, err
		}
		conds = append(conds, cond)
	}

	set, err := filter.NewSet(conds, p.Soft)
	if err != nil {
		return filter.Set{}, fmt.Errorf("filter set: %w", err)
	}
	return set, nil
}

func conditionFromPayload(c filterCondition) (filter.Condition, error) {
	if c.Match != nil && c.Range != nil {
		return filter.Condition{},
			fmt.Errorf("filter condition for %q must have match or range, not both", c.Key)
	}
	if c.Match != nil {
		cond, err := filter.NewMatch(c.Key, *c.Match)
		if err != nil {
			return filter.Condition{}, fmt.Errorf("match filter: %w", err)
		}
		return cond, nil
	}
	if c.Range != nil {
		rf, err := filter.NewRangeFilter(c.Range.GTE, c.Range.LTE)
		if err != nil {
			return filter.Condition{}, fmt.Errorf("range filter: %w", err)
		}
		cond, err := filter.NewRange(c.Key, rf)
		if err != nil {
			return filter.Condition{}, fmt.Errorf("range condition: %w", err)
		}
		return cond, nil
	}
	return filter.Condition{}, errors.New("filter condition must have either match or range")
}

func batchToResponse(b deliveryuc.Batch) batchResponse {
	items := make([]resultItem, len(b.Docs))
	for i, d := range b.Docs {
		items[i] = resultToItem(d)
	}

	resp := batchResponse{
		Items:       items,
		Mode:        string(b.Mode),
		BatchNumber: b.BatchNumber,
		HasMore:     b.HasMore,
	}
	if b.NextToken != "" {
		tok := b.NextToken
		resp.NextToken = &tok
	}
	return resp
}

func resultToItem(r result.Ranked) resultItem {
	p := r.Product()
	return resultItem{
		ID:       p.ID(),
		Name:     p.Name(),
		Category: p.Category(),
		Type:     p.Type(),
		Price:    p.Price(),
		Score:    r.SortKey() + r.Boost(),
		Tier:     string(r.Tier()),
	}
}

func reportToResponse(r domusage.Report) usageResponse {
	resp := usageResponse{
		Period: string(r.Period()),
		Usage: usageMetrics{
			EmbeddingRequests: r.Metrics().EmbeddingRequests(),
			Tokens:            r.Metrics().Tokens(),
		},
		Budget: budgetStatus{
			TokensLimit:     r.Budget().TokensLimit(),
			TokensRemaining: r.Budget().TokensRemaining(),
			IsExhausted:     r.Budget().IsExhausted(),
			Unlimited:       r.Budget().Unlimited(),
		},
	}

	if r.PeriodStart() > 0 {
		start := time.UnixMilli(r.PeriodStart()).UTC()
		end := time.UnixMilli(r.PeriodEnd()).UTC()
		resp.PeriodStartAt = &start
		resp.PeriodEndAt = &end
	}

	if !r.Budget().Unlimited() && r.Budget().ResetsAt() > 0 {
		resetsAt := time.UnixMilli(r.Budget().ResetsAt()).UTC()
		resp.Budget.ResetsAt = &resetsAt
	}

	return resp
}

func breakersToResponse(items []governor.CapabilityStatus) breakersResponse {
	out := make([]breakerItem, len(items))
	for i, it := range items {
		out[i] = breakerItem{
			Capability:   string(it.Capability),
			Open:         it.Status.Open,
			FailureCount: it.Status.FailureCount,
			RetryInMs:    it.Status.RetryIn.Milliseconds(),
		}
	}
	return breakersResponse{Items: out}
}
