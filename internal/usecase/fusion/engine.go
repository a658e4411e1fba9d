package fusion

import (
	"sort"
	"strings"

	"github.com/kailas-cloud/rankdex/internal/domain/product"
	"github.com/kailas-cloud/rankdex/internal/domain/search/result"
)

// Weights holds every tunable scoring constant of the ranking pipeline.
type Weights struct {
	// RRFConstant is the reciprocal-rank damping constant (Cormack et al. 2009).
	RRFConstant float64
	// VectorWeightLong multiplies the vector term for long queries.
	VectorWeightLong float64
	// LongQueryWords is the word count from which a query counts as long.
	LongQueryWords int

	// Bonus ladder, strictly descending. Tier gaps dwarf any attainable
	// rrf score, so bonuses dominate the final ordering.
	ExactBonus           float64
	CleanedExactBonus    float64
	ContainsFullBonus    float64
	ContainsCleanedBonus float64
	PhraseBonus          float64
	PrefixBonus          float64
	EarlyBonus           float64
	FuzzyBonus           float64

	// EarlyWindow is the clean-name char window for the early-occurrence tier.
	EarlyWindow int
	// FuzzySimilarityMin is the edit-distance similarity floor for the fuzzy tier.
	FuzzySimilarityMin float64
	// FuzzyMinTokenLen excludes short tokens from fuzzy comparison.
	FuzzyMinTokenLen int

	// Cross-vocabulary promotion: vector rank at most this...
	CrossVocabVectorRank int
	// ...while the lexical rank is beyond this (or absent).
	CrossVocabLexicalRank int
}

// DefaultWeights returns the production scoring constants.
func DefaultWeights() Weights {
	return Weights{
		RRFConstant:           60,
		VectorWeightLong:      2.0,
		LongQueryWords:        3,
		ExactBonus:            10000,
		CleanedExactBonus:     9000,
		ContainsFullBonus:     8000,
		ContainsCleanedBonus:  7000,
		PhraseBonus:           6000,
		PrefixBonus:           5000,
		EarlyBonus:            4000,
		FuzzyBonus:            3000,
		EarlyWindow:           10,
		FuzzySimilarityMin:    0.75,
		FuzzyMinTokenLen:      3,
		CrossVocabVectorRank:  5,
		CrossVocabLexicalRank: 10,
	}
}

// Engine fuses bounded lexical and vector hit lists into one scored,
// deterministically ordered candidate list.
type Engine struct {
	weights Weights
}

// NewEngine creates a fusion engine.
func NewEngine(w Weights) *Engine {
	return &Engine{weights: w}
}

// Weights returns the engine's scoring constants.
func (e *Engine) Weights() Weights { return e.weights }

// Fuse merges the two source lists, scores every distinct document and
// returns the candidates ordered by bonus, soft-hint matches, rrf, with
// input order breaking remaining ties. Ranks are 0-based positions;
// a document absent from a source contributes nothing for that source.
func (e *Engine) Fuse(query string, lexical, vector []product.Product, softHints []string) []result.Ranked {
	type entry struct {
		p       product.Product
		lexRank int
		vecRank int
	}

	order := make([]string, 0, len(lexical)+len(vector))
	merged := make(map[string]*entry, len(lexical)+len(vector))

	for i := range lexical {
		p := lexical[i]
		id := p.ID()
		if _, ok := merged[id]; ok {
			continue
		}
		merged[id] = &entry{p: p, lexRank: i, vecRank: result.RankAbsent}
		order = append(order, id)
	}
	for i := range vector {
		p := vector[i]
		id := p.ID()
		if ex, ok := merged[id]; ok {
			if ex.vecRank == result.RankAbsent {
				ex.vecRank = i
			}
			continue
		}
		merged[id] = &entry{p: p, lexRank: result.RankAbsent, vecRank: i}
		order = append(order, id)
	}

	vectorWeight := 1.0
	if wordCount(query) >= e.weights.LongQueryWords {
		vectorWeight = e.weights.VectorWeightLong
	}

	hints := make([]string, 0, len(softHints))
	for _, h := range softHints {
		if c := cleanText(h); c != "" {
			hints = append(hints, c)
		}
	}

	out := make([]result.Ranked, 0, len(order))
	for _, id := range order {
		en := merged[id]
		rrf := e.rrfTerm(en.lexRank) + vectorWeight*e.rrfTerm(en.vecRank)
		bonus := e.matchBonus(en.p.Name(), query)
		out = append(out, result.New(en.p, en.lexRank, en.vecRank, rrf, bonus, softMatches(en.p, hints)))
	}

	sortRanked(out)
	return out
}

func (e *Engine) rrfTerm(rank int) float64 {
	if rank == result.RankAbsent {
		return 0
	}
	return 1.0 / (e.weights.RRFConstant + float64(rank))
}

// softMatches counts the soft hints matched by the product's category or type.
func softMatches(p product.Product, cleanedHints []string) int {
	if len(cleanedHints) == 0 {
		return 0
	}
	cat, typ := cleanText(p.Category()), cleanText(p.Type())
	n := 0
	for _, h := range cleanedHints {
		if strings.Contains(cat, h) || strings.Contains(typ, h) {
			n++
		}
	}
	return n
}

// sortRanked applies the canonical result ordering: bonus desc, soft-hint
// matches desc, rrf desc, stable on input order.
func sortRanked(hits []result.Ranked) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Bonus() != hits[j].Bonus() {
			return hits[i].Bonus() > hits[j].Bonus()
		}
		if hits[i].SoftMatches() != hits[j].SoftMatches() {
			return hits[i].SoftMatches() > hits[j].SoftMatches()
		}
		return hits[i].RRF() > hits[j].RRF()
	})
}
