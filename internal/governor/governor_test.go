package governor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/rankdex/internal/domain"
)

func newTestGovernor() *Governor {
	return New(Config{
		Threshold:   3,
		Cooldown:    30 * time.Second,
		CallTimeout: 50 * time.Millisecond,
	})
}

func TestExecute_Success(t *testing.T) {
	g := newTestGovernor()

	got, fellBack := Execute(context.Background(), g, CapabilityClassify,
		func(_ context.Context) (string, error) { return "complex", nil },
		func() string { return "simple" },
	)
	if fellBack {
		t.Error("fallback used on successful call")
	}
	if got != "complex" {
		t.Errorf("got %q, want call result", got)
	}
}

func TestExecute_FailureUsesFallback(t *testing.T) {
	g := newTestGovernor()

	got, fellBack := Execute(context.Background(), g, CapabilityClassify,
		func(_ context.Context) (string, error) { return "", errors.New("model overloaded") },
		func() string { return "simple" },
	)
	if !fellBack {
		t.Error("fallback flag not set on failure")
	}
	if got != "simple" {
		t.Errorf("got %q, want fallback result", got)
	}
	if s := g.Status()[CapabilityClassify]; s.FailureCount != 1 {
		t.Errorf("FailureCount = %d, want 1", s.FailureCount)
	}
}

func TestExecute_OpenBreakerSkipsTransport(t *testing.T) {
	g := newTestGovernor()
	boom := func(_ context.Context) (int, error) { return 0, errors.New("down") }

	for i := 0; i < 3; i++ {
		Execute(context.Background(), g, CapabilityRerank, boom, func() int { return -1 })
	}
	if s := g.Status()[CapabilityRerank]; !s.Open {
		t.Fatal("breaker not open after 3 failures")
	}

	var transportCalled bool
	got, fellBack := Execute(context.Background(), g, CapabilityRerank,
		func(_ context.Context) (int, error) {
			transportCalled = true
			return 42, nil
		},
		func() int { return -1 },
	)
	if transportCalled {
		t.Error("transport invoked while breaker open")
	}
	if !fellBack || got != -1 {
		t.Errorf("got (%d, %v), want fallback", got, fellBack)
	}
}

func TestExecute_TimeoutCountsAsFailure(t *testing.T) {
	g := newTestGovernor()

	got, fellBack := Execute(context.Background(), g, CapabilityExtractFilters,
		func(ctx context.Context) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
		func() string { return "fallback" },
	)
	if !fellBack || got != "fallback" {
		t.Errorf("got (%q, %v), want fallback on timeout", got, fellBack)
	}
	if s := g.Status()[CapabilityExtractFilters]; s.FailureCount != 1 {
		t.Errorf("FailureCount = %d, want timeout counted", s.FailureCount)
	}
}

func TestExecute_ClientCancelNotCounted(t *testing.T) {
	g := newTestGovernor()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, fellBack := Execute(ctx, g, CapabilityClassify,
		func(ctx context.Context) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
		func() string { return "fallback" },
	)
	if !fellBack {
		t.Error("cancelled call should still be served by fallback")
	}
	if s := g.Status()[CapabilityClassify]; s.FailureCount != 0 {
		t.Errorf("FailureCount = %d, client cancellation must not count", s.FailureCount)
	}
}

func TestExecute_BreakerIsolationPerCapability(t *testing.T) {
	g := newTestGovernor()
	boom := func(_ context.Context) (int, error) { return 0, errors.New("down") }

	for i := 0; i < 3; i++ {
		Execute(context.Background(), g, CapabilityClassify, boom, func() int { return -1 })
	}

	if s := g.Status()[CapabilityClassify]; !s.Open {
		t.Error("classify breaker should be open")
	}
	if s := g.Status()[CapabilityRerank]; s.Open || s.FailureCount != 0 {
		t.Error("rerank breaker affected by classify failures")
	}
}

func TestReset(t *testing.T) {
	g := newTestGovernor()
	boom := func(_ context.Context) (int, error) { return 0, errors.New("down") }
	for i := 0; i < 3; i++ {
		Execute(context.Background(), g, CapabilityClassify, boom, func() int { return -1 })
	}

	if err := g.Reset(CapabilityClassify); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if s := g.Status()[CapabilityClassify]; s.Open || s.FailureCount != 0 {
		t.Errorf("Status after Reset = %+v", s)
	}
}

func TestReset_UnknownCapability(t *testing.T) {
	g := newTestGovernor()

	err := g.Reset("translate")
	if !errors.Is(err, domain.ErrUnknownCapability) {
		t.Errorf("error = %v, want ErrUnknownCapability", err)
	}
}

func TestStatusSorted(t *testing.T) {
	g := newTestGovernor()

	statuses := g.StatusSorted()
	if len(statuses) != 3 {
		t.Fatalf("len = %d, want 3", len(statuses))
	}
	want := []Capability{CapabilityClassify, CapabilityExtractFilters, CapabilityRerank}
	for i, cs := range statuses {
		if cs.Capability != want[i] {
			t.Errorf("statuses[%d] = %q, want %q", i, cs.Capability, want[i])
		}
	}
}
