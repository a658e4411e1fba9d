package governor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/kailas-cloud/rankdex/internal/domain"
)

// Capability identifies one governed AI call type.
type Capability string

// Governed capabilities.
const (
	CapabilityClassify       Capability = "classify"
	CapabilityExtractFilters Capability = "extract_filters"
	CapabilityRerank         Capability = "rerank"
)

// Capabilities returns all governed capabilities in stable order.
func Capabilities() []Capability {
	return []Capability{CapabilityClassify, CapabilityExtractFilters, CapabilityRerank}
}

// Config holds breaker tuning shared by all capabilities.
type Config struct {
	// Threshold is the consecutive-failure count that opens a breaker.
	Threshold int
	// Cooldown is how long a breaker stays open before admitting a trial call.
	Cooldown time.Duration
	// CallTimeout bounds each governed AI call; overruns count as failures.
	CallTimeout time.Duration
}

// Governor holds one breaker per AI capability for the process lifetime.
// A capability whose breaker rejects a call is served by its deterministic
// fallback instead; AI unavailability never surfaces to callers.
type Governor struct {
	breakers    map[Capability]*Breaker
	callTimeout time.Duration
}

// New creates a Governor with a closed breaker per capability.
func New(cfg Config) *Governor {
	breakers := make(map[Capability]*Breaker, len(Capabilities()))
	for _, c := range Capabilities() {
		breakers[c] = NewBreaker(cfg.Threshold, cfg.Cooldown)
	}
	return &Governor{breakers: breakers, callTimeout: cfg.CallTimeout}
}

// Status returns the current state of every breaker keyed by capability.
func (g *Governor) Status() map[Capability]Status {
	out := make(map[Capability]Status, len(g.breakers))
	for c, b := range g.breakers {
		out[c] = b.Status()
	}
	return out
}

// StatusSorted returns per-capability states in stable capability order.
func (g *Governor) StatusSorted() []CapabilityStatus {
	out := make([]CapabilityStatus, 0, len(g.breakers))
	for c, b := range g.breakers {
		out = append(out, CapabilityStatus{Capability: c, Status: b.Status()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Capability < out[j].Capability })
	return out
}

// CapabilityStatus pairs a capability with its breaker state.
type CapabilityStatus struct {
	Capability Capability
	Status     Status
}

// Reset forces the named capability's breaker closed.
func (g *Governor) Reset(c Capability) error {
	b, ok := g.breakers[c]
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownCapability, c)
	}
	b.Reset()
	return nil
}

func (g *Governor) breaker(c Capability) *Breaker {
	return g.breakers[c]
}

// Execute runs call under the capability's breaker with the configured
// timeout. On rejection, failure or timeout it returns fallback() and
// reports that the fallback served the request. Client-side cancellation
// is not held against the provider.
func Execute[T any](
	ctx context.Context,
	g *Governor,
	c Capability,
	call func(ctx context.Context) (T, error),
	fallback func() T,
) (T, bool) {
	b := g.breaker(c)
	if b == nil {
		return fallback(), true
	}

	proceed, probe := b.allow()
	if !proceed {
		return fallback(), true
	}

	callCtx, cancel := context.WithTimeout(ctx, g.callTimeout)
	defer cancel()

	v, err := call(callCtx)
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			b.abandon(probe)
			return fallback(), true
		}
		b.recordFailure(probe)
		return fallback(), true
	}

	b.recordSuccess(probe)
	return v, false
}
