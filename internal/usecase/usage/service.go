package usage

import (
	"context"
	"time"

	domusage "github.com/kailas-cloud/rankdex/internal/domain/usage"
	"github.com/kailas-cloud/rankdex/internal/domain/usage/budget"
	"github.com/kailas-cloud/rankdex/internal/domain/usage/metrics"
)

// Service builds embedding usage reports.
type Service struct {
	br BudgetReader
}

// New creates a Service. br may be nil (no budget configured): reports then
// carry zero counters and an unlimited budget.
func New(br BudgetReader) *Service {
	return &Service{br: br}
}

// GetReport assembles a usage report for the given period. The remaining
// window is derived from budget counters, so day and month reflect what the
// tracker enforces; total has no lifetime counter and reports the widest
// persisted window, the month.
func (s *Service) GetReport(_ context.Context, period domusage.Period) domusage.Report {
	now := time.Now().UTC()
	var start, end int64
	var limit, used, remaining, requests int64

	switch period {
	case domusage.PeriodDay:
		dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		start = dayStart.UnixMilli()
		end = dayStart.Add(24 * time.Hour).UnixMilli()
		if s.br != nil {
			limit = s.br.DailyLimit()
			used = s.br.DailyUsed()
			remaining = s.br.RemainingDaily()
			requests = s.br.RequestsDaily()
		}
	case domusage.PeriodMonth:
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		start = monthStart.UnixMilli()
		end = monthStart.AddDate(0, 1, 0).UnixMilli()
		if s.br != nil {
			limit = s.br.MonthlyLimit()
			used = s.br.MonthlyUsed()
			remaining = s.br.RemainingMonthly()
			requests = s.br.RequestsMonthly()
		}
	default: // total: no period boundaries
		if s.br != nil {
			limit = s.br.MonthlyLimit()
			used = s.br.MonthlyUsed()
			remaining = s.br.RemainingMonthly()
			requests = s.br.RequestsMonthly()
		}
	}

	exhausted := limit > 0 && remaining <= 0

	b := budget.New(int(limit), int(remaining), exhausted, end)
	m := metrics.New(int(requests), int(used))

	return domusage.NewReport(period, start, end, m, b)
}
