package governor

import (
	"sync"
	"time"
)

// Breaker is a per-capability circuit breaker. It opens after a run of
// consecutive failures and lets a single trial call through once the
// cooldown has elapsed; the trial outcome decides whether it closes.
type Breaker struct {
	threshold int
	cooldown  time.Duration
	now       func() time.Time

	mu           sync.Mutex
	failureCount int
	open         bool
	openedAt     time.Time
	probeActive  bool
}

// Status is a point-in-time view of a breaker.
type Status struct {
	FailureCount int           `json:"failure_count"`
	Open         bool          `json:"open"`
	RetryIn      time.Duration `json:"retry_in"`
}

// NewBreaker creates a closed breaker.
func NewBreaker(threshold int, cooldown time.Duration) *Breaker {
	return &Breaker{
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
	}
}

// allow reports whether a call may proceed and whether it runs as the
// open-state trial. While a trial is in flight every other call is rejected.
func (b *Breaker) allow() (proceed, probe bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return true, false
	}
	if b.now().Sub(b.openedAt) < b.cooldown {
		return false, false
	}
	if b.probeActive {
		return false, false
	}
	b.probeActive = true
	return true, true
}

// recordSuccess clears the failure run; a successful trial closes the breaker.
func (b *Breaker) recordSuccess(probe bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failureCount = 0
	if probe {
		b.open = false
		b.probeActive = false
	}
}

// recordFailure counts a failure; at threshold the breaker opens. A failed
// trial keeps the breaker open and restarts the cooldown.
func (b *Breaker) recordFailure(probe bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if probe {
		b.openedAt = b.now()
		b.probeActive = false
		return
	}

	b.failureCount++
	if !b.open && b.failureCount >= b.threshold {
		b.open = true
		b.openedAt = b.now()
	}
}

// abandon releases the trial slot without recording an outcome.
func (b *Breaker) abandon(probe bool) {
	if !probe {
		return
	}
	b.mu.Lock()
	b.probeActive = false
	b.mu.Unlock()
}

// Status returns the current failure count, open flag and time until the
// next trial call is admitted (0 when closed or already due).
func (b *Breaker) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := Status{FailureCount: b.failureCount, Open: b.open}
	if b.open {
		if wait := b.cooldown - b.now().Sub(b.openedAt); wait > 0 {
			s.RetryIn = wait
		}
	}
	return s
}

// Reset forces the breaker closed and clears its failure run.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.open = false
	b.failureCount = 0
	b.probeActive = false
}
