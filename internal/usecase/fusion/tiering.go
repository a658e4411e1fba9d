package fusion

import (
	"github.com/kailas-cloud/rankdex/internal/domain/search/result"
)

// ApplyTiers labels each hit of a simple query's result list in place.
// Strong literal matches are high confidence; so are cross-vocabulary hits
// the vector search ranked highly while the lexical search missed them.
// Everything else is related. Ordering is untouched.
func (e *Engine) ApplyTiers(hits []result.Ranked) []result.Ranked {
	for i, h := range hits {
		hits[i] = h.WithTier(e.tierFor(h))
	}
	return hits
}

func (e *Engine) tierFor(h result.Ranked) result.Tier {
	if h.Bonus() > e.weights.PhraseBonus {
		return result.TierHighConfidence
	}

	crossVocab := h.VectorRank() != result.RankAbsent &&
		h.VectorRank() <= e.weights.CrossVocabVectorRank &&
		(h.LexicalRank() == result.RankAbsent || h.LexicalRank() > e.weights.CrossVocabLexicalRank)
	if crossVocab {
		return result.TierHighConfidence
	}

	return result.TierRelated
}
