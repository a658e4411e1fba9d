package assist

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/rankdex/internal/domain/search/filter"
	"github.com/kailas-cloud/rankdex/internal/governor"
)

type mockClassifier struct {
	complexQuery bool
	err          error
	calls        int
}

func (m *mockClassifier) ClassifyComplexity(_ context.Context, _ string) (bool, error) {
	m.calls++
	return m.complexQuery, m.err
}

type mockExtractor struct {
	set   filter.Set
	err   error
	calls int
}

func (m *mockExtractor) ExtractFilters(_ context.Context, _ string) (filter.Set, error) {
	m.calls++
	if m.err != nil {
		return filter.Set{}, m.err
	}
	return m.set, nil
}

type mockReranker struct {
	ids   []string
	err   error
	calls int
	got   []Candidate
}

func (m *mockReranker) Rerank(_ context.Context, _ string, candidates []Candidate) ([]string, error) {
	m.calls++
	m.got = candidates
	if m.err != nil {
		return nil, m.err
	}
	return m.ids, nil
}

func newTestService(t *testing.T, c *mockClassifier, e *mockExtractor, r *mockReranker) *Service {
	t.Helper()
	gov := governor.New(governor.Config{
		Threshold:   3,
		Cooldown:    30 * time.Second,
		CallTimeout: 100 * time.Millisecond,
	})
	return New(c, e, r, gov, DefaultFallbackConfig(), 30, zap.NewNop())
}
