package result

import (
	"github.com/kailas-cloud/rankdex/internal/domain/product"
)

// Tier labels the confidence band assigned to a hit on simple queries.
type Tier string

// Tier constants.
const (
	// TierHighConfidence marks strong literal matches and cross-vocabulary hits.
	TierHighConfidence Tier = "high_confidence"
	// TierRelated marks the remaining hits of a tiered result set.
	TierRelated Tier = "related"
)

// RankAbsent is the rank value for a document missing from a source list.
const RankAbsent = -1

// Ranked is a single fused search hit with its scoring provenance.
type Ranked struct {
	product     product.Product
	lexicalRank int
	vectorRank  int
	rrf         float64
	bonus       float64
	boost       float64
	softMatches int
	tier        Tier
}

// New creates a ranked hit. Pass RankAbsent for a source list the document
// did not appear in.
func New(p product.Product, lexicalRank, vectorRank int, rrf, bonus float64, softMatches int) Ranked {
	return Ranked{
		product:     p,
		lexicalRank: lexicalRank,
		vectorRank:  vectorRank,
		rrf:         rrf,
		bonus:       bonus,
		softMatches: softMatches,
	}
}

// WithTier returns a copy labelled with the given tier.
func (r Ranked) WithTier(t Tier) Ranked {
	r.tier = t
	return r
}

// WithBoost returns a copy carrying a discovery path boost.
func (r Ranked) WithBoost(b float64) Ranked {
	r.boost = b
	return r
}

// Product returns the underlying catalog record.
func (r Ranked) Product() product.Product { return r.product }

// ID returns the document identifier.
func (r Ranked) ID() string { return r.product.ID() }

// LexicalRank returns the 0-based position in the lexical list, RankAbsent if missing.
func (r Ranked) LexicalRank() int { return r.lexicalRank }

// VectorRank returns the 0-based position in the vector list, RankAbsent if missing.
func (r Ranked) VectorRank() int { return r.vectorRank }

// RRF returns the fused reciprocal-rank score.
func (r Ranked) RRF() float64 { return r.rrf }

// Bonus returns the exact-match bonus.
func (r Ranked) Bonus() float64 { return r.bonus }

// Boost returns the discovery path boost, 0 outside discovery batches.
func (r Ranked) Boost() float64 { return r.boost }

// SoftMatches returns the number of soft category hints this hit matched.
func (r Ranked) SoftMatches() int { return r.softMatches }

// Tier returns the confidence tier, empty when untiered.
func (r Ranked) Tier() Tier { return r.tier }

// SortKey returns bonus + rrf, the primary descending ordering key.
// Bonus tier gaps dominate any attainable rrf, so ordering is monotonic
// across bonus tiers.
func (r Ranked) SortKey() float64 { return r.bonus + r.rrf }
