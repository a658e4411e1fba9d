package usage

import (
	"github.com/kailas-cloud/rankdex/internal/domain/usage/budget"
	"github.com/kailas-cloud/rankdex/internal/domain/usage/metrics"
)

// Period is the aggregation granularity for usage reports.
type Period string

// Aggregation period constants.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
	PeriodTotal Period = "total"
)

// ParsePeriod maps a raw query value onto a Period.
// Unknown or empty values fall back to PeriodMonth.
func ParsePeriod(raw string) Period {
	switch p := Period(raw); p {
	case PeriodDay, PeriodMonth, PeriodTotal:
		return p
	default:
		return PeriodMonth
	}
}

// Report is an embedding usage report for one aggregation period. Query
// embedding is the only place the service spends provider tokens, so a
// report covers the whole deployment.
type Report struct {
	period      Period
	periodStart int64
	periodEnd   int64
	metrics     metrics.Metrics
	budget      budget.Budget
}

// NewReport creates a usage report. Period bounds are unix millis;
// zero bounds mean the period has no boundaries (total).
func NewReport(period Period, start, end int64, m metrics.Metrics, b budget.Budget) Report {
	return Report{
		period:      period,
		periodStart: start,
		periodEnd:   end,
		metrics:     m,
		budget:      b,
	}
}

// Period returns the aggregation granularity.
func (r *Report) Period() Period { return r.period }

// PeriodStart returns the period start timestamp (unix millis).
func (r *Report) PeriodStart() int64 { return r.periodStart }

// PeriodEnd returns the period end timestamp (unix millis).
func (r *Report) PeriodEnd() int64 { return r.periodEnd }

// Metrics returns the usage counters.
func (r *Report) Metrics() metrics.Metrics { return r.metrics }

// Budget returns the budget status.
func (r *Report) Budget() budget.Budget { return r.budget }
