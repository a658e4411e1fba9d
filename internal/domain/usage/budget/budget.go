package budget

// Budget is a snapshot of embedding token budget state for one window.
type Budget struct {
	tokensLimit     int
	tokensRemaining int
	isExhausted     bool
	resetsAt        int64 // unix millis, converted to ISO 8601 at transport layer
}

// New creates a Budget snapshot.
func New(limit, remaining int, isExhausted bool, resetsAt int64) Budget {
	return Budget{
		tokensLimit:     limit,
		tokensRemaining: remaining,
		isExhausted:     isExhausted,
		resetsAt:        resetsAt,
	}
}

// TokensLimit returns the token cap for the window.
func (b Budget) TokensLimit() int { return b.tokensLimit }

// TokensRemaining returns tokens left before the cap.
func (b Budget) TokensRemaining() int { return b.tokensRemaining }

// IsExhausted reports whether the budget is spent.
func (b Budget) IsExhausted() bool { return b.isExhausted }

// Unlimited reports whether no token cap is configured for the window.
func (b Budget) Unlimited() bool { return b.tokensLimit <= 0 }

// ResetsAt returns the window reset timestamp (unix millis).
func (b Budget) ResetsAt() int64 { return b.resetsAt }
