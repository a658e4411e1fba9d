package governor

import (
	"testing"
	"time"
)

func newTestBreaker(threshold int, cooldown time.Duration) (*Breaker, *time.Time) {
	b := NewBreaker(threshold, cooldown)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }
	return b, &now
}

func TestBreaker_ClosedAllows(t *testing.T) {
	b, _ := newTestBreaker(3, 30*time.Second)

	proceed, probe := b.allow()
	if !proceed || probe {
		t.Errorf("allow() = (%v, %v), want (true, false)", proceed, probe)
	}
}

func TestBreaker_OpensAtThreshold(t *testing.T) {
	b, _ := newTestBreaker(3, 30*time.Second)

	b.recordFailure(false)
	b.recordFailure(false)
	if s := b.Status(); s.Open {
		t.Fatal("breaker open after 2 failures, threshold is 3")
	}

	b.recordFailure(false)
	s := b.Status()
	if !s.Open {
		t.Fatal("breaker closed after 3 consecutive failures")
	}
	if s.FailureCount != 3 {
		t.Errorf("FailureCount = %d, want 3", s.FailureCount)
	}
	if proceed, _ := b.allow(); proceed {
		t.Error("open breaker admitted a call before cooldown")
	}
}

func TestBreaker_SuccessResetsRun(t *testing.T) {
	b, _ := newTestBreaker(3, 30*time.Second)

	b.recordFailure(false)
	b.recordFailure(false)
	b.recordSuccess(false)
	if s := b.Status(); s.FailureCount != 0 {
		t.Errorf("FailureCount = %d after success, want 0", s.FailureCount)
	}

	// Серия началась заново
	b.recordFailure(false)
	b.recordFailure(false)
	if s := b.Status(); s.Open {
		t.Error("breaker open after interrupted failure run")
	}
	b.recordFailure(false)
	if s := b.Status(); !s.Open {
		t.Error("breaker closed after fresh 3-failure run")
	}
}

func TestBreaker_ProbeAfterCooldown(t *testing.T) {
	b, now := newTestBreaker(3, 30*time.Second)

	for i := 0; i < 3; i++ {
		b.recordFailure(false)
	}

	*now = now.Add(29 * time.Second)
	if proceed, _ := b.allow(); proceed {
		t.Fatal("call admitted before cooldown elapsed")
	}

	*now = now.Add(time.Second)
	proceed, probe := b.allow()
	if !proceed || !probe {
		t.Fatalf("allow() = (%v, %v), want trial call", proceed, probe)
	}

	// Пока проба в полёте — остальные в fallback
	if proceed, _ := b.allow(); proceed {
		t.Error("second call admitted during active trial")
	}
}

func TestBreaker_ProbeSuccessCloses(t *testing.T) {
	b, now := newTestBreaker(3, 30*time.Second)
	for i := 0; i < 3; i++ {
		b.recordFailure(false)
	}
	*now = now.Add(30 * time.Second)

	_, probe := b.allow()
	b.recordSuccess(probe)

	s := b.Status()
	if s.Open {
		t.Error("breaker still open after successful trial")
	}
	if s.FailureCount != 0 {
		t.Errorf("FailureCount = %d, want 0", s.FailureCount)
	}
	if proceed, probe := b.allow(); !proceed || probe {
		t.Error("closed breaker should admit normal calls")
	}
}

func TestBreaker_ProbeFailureRestartsCooldown(t *testing.T) {
	b, now := newTestBreaker(3, 30*time.Second)
	for i := 0; i < 3; i++ {
		b.recordFailure(false)
	}

	*now = now.Add(30 * time.Second)
	_, probe := b.allow()
	if !probe {
		t.Fatal("expected trial call")
	}
	b.recordFailure(probe)

	s := b.Status()
	if !s.Open {
		t.Fatal("breaker closed after failed trial")
	}
	if s.RetryIn != 30*time.Second {
		t.Errorf("RetryIn = %v, want full cooldown restart", s.RetryIn)
	}

	if proceed, _ := b.allow(); proceed {
		t.Error("call admitted right after failed trial")
	}
	*now = now.Add(30 * time.Second)
	if proceed, probe := b.allow(); !proceed || !probe {
		t.Error("trial not admitted after restarted cooldown")
	}
}

func TestBreaker_AbandonFreesProbeSlot(t *testing.T) {
	b, now := newTestBreaker(3, 30*time.Second)
	for i := 0; i < 3; i++ {
		b.recordFailure(false)
	}
	*now = now.Add(30 * time.Second)

	_, probe := b.allow()
	b.abandon(probe)

	if proceed, probe := b.allow(); !proceed || !probe {
		t.Error("trial slot not released after abandon")
	}
}

func TestBreaker_StatusRetryIn(t *testing.T) {
	b, now := newTestBreaker(3, 30*time.Second)

	if s := b.Status(); s.RetryIn != 0 {
		t.Errorf("RetryIn = %v for closed breaker, want 0", s.RetryIn)
	}

	for i := 0; i < 3; i++ {
		b.recordFailure(false)
	}
	*now = now.Add(10 * time.Second)
	if s := b.Status(); s.RetryIn != 20*time.Second {
		t.Errorf("RetryIn = %v, want 20s", s.RetryIn)
	}

	*now = now.Add(25 * time.Second)
	if s := b.Status(); s.RetryIn != 0 {
		t.Errorf("RetryIn = %v past cooldown, want 0", s.RetryIn)
	}
}

func TestBreaker_Reset(t *testing.T) {
	b, _ := newTestBreaker(3, 30*time.Second)
	for i := 0; i < 3; i++ {
		b.recordFailure(false)
	}

	b.Reset()

	s := b.Status()
	if s.Open || s.FailureCount != 0 {
		t.Errorf("Status after Reset = %+v, want closed and clean", s)
	}
	if proceed, probe := b.allow(); !proceed || probe {
		t.Error("reset breaker should admit normal calls")
	}
}
