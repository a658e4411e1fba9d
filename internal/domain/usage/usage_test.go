package usage

import (
	"testing"

	"github.com/kailas-cloud/rankdex/internal/domain/usage/budget"
	"github.com/kailas-cloud/rankdex/internal/domain/usage/metrics"
)

func TestNewReport(t *testing.T) {
	m := metrics.New(412, 98600)
	b := budget.New(250000, 151400, false, 1767225600000)

	r := NewReport(PeriodMonth, 1764547200000, 1767225600000, m, b)

	if r.Period() != PeriodMonth {
		t.Errorf("Period() = %q", r.Period())
	}
	if r.PeriodStart() != 1764547200000 {
		t.Errorf("PeriodStart() = %d", r.PeriodStart())
	}
	if r.PeriodEnd() != 1767225600000 {
		t.Errorf("PeriodEnd() = %d", r.PeriodEnd())
	}
	if r.Metrics().EmbeddingRequests() != 412 {
		t.Errorf("Metrics().EmbeddingRequests() = %d", r.Metrics().EmbeddingRequests())
	}
	if r.Metrics().Tokens() != 98600 {
		t.Errorf("Metrics().Tokens() = %d", r.Metrics().Tokens())
	}
	if r.Budget().TokensLimit() != 250000 {
		t.Errorf("Budget().TokensLimit() = %d", r.Budget().TokensLimit())
	}
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		raw  string
		want Period
	}{
		{"day", PeriodDay},
		{"month", PeriodMonth},
		{"total", PeriodTotal},
		{"", PeriodMonth},
		{"year", PeriodMonth},
		{"DAY", PeriodMonth},
	}
	for _, tt := range tests {
		if got := ParsePeriod(tt.raw); got != tt.want {
			t.Errorf("ParsePeriod(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestPeriodConstants(t *testing.T) {
	if PeriodDay != "day" {
		t.Errorf("PeriodDay = %q", PeriodDay)
	}
	if PeriodMonth != "month" {
		t.Errorf("PeriodMonth = %q", PeriodMonth)
	}
	if PeriodTotal != "total" {
		t.Errorf("PeriodTotal = %q", PeriodTotal)
	}
}
