package assist

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/rankdex/internal/domain/search/filter"
	"github.com/kailas-cloud/rankdex/internal/domain/search/mode"
	"github.com/kailas-cloud/rankdex/internal/domain/search/result"
	"github.com/kailas-cloud/rankdex/internal/governor"
	"github.com/kailas-cloud/rankdex/internal/metrics"
)

// Service fronts the governed AI capabilities. Every method resolves to a
// deterministic answer: the model when available, the paired fallback
// otherwise. AI unavailability never propagates as an error.
type Service struct {
	classifier  Classifier
	extractor   FilterExtractor
	reranker    Reranker
	gov         *governor.Governor
	fallback    FallbackConfig
	rerankDepth int
	log         *zap.Logger
}

// New creates an assist service.
func New(
	classifier Classifier,
	extractor FilterExtractor,
	reranker Reranker,
	gov *governor.Governor,
	fallback FallbackConfig,
	rerankDepth int,
	log *zap.Logger,
) *Service {
	return &Service{
		classifier:  classifier,
		extractor:   extractor,
		reranker:    reranker,
		gov:         gov,
		fallback:    fallback,
		rerankDepth: rerankDepth,
		log:         log,
	}
}

// Classify labels the query simple or complex.
func (s *Service) Classify(ctx context.Context, query string) mode.Mode {
	m, fellBack := governor.Execute(ctx, s.gov, governor.CapabilityClassify,
		func(ctx context.Context) (mode.Mode, error) {
			complexQuery, err := s.classifier.ClassifyComplexity(ctx, query)
			if err != nil {
				return "", err
			}
			if complexQuery {
				return mode.Complex, nil
			}
			return mode.Simple, nil
		},
		func() mode.Mode { return fallbackClassify(query, s.fallback) },
	)
	s.observe(governor.CapabilityClassify, fellBack)
	return m
}

// ExtractFilters derives structured filters from the query text.
func (s *Service) ExtractFilters(ctx context.Context, query string) filter.Set {
	set, fellBack := governor.Execute(ctx, s.gov, governor.CapabilityExtractFilters,
		func(ctx context.Context) (filter.Set, error) {
			return s.extractor.ExtractFilters(ctx, query)
		},
		func() filter.Set { return fallbackFilters(query, s.fallback) },
	)
	s.observe(governor.CapabilityExtractFilters, fellBack)
	return set
}

// Rerank reorders the head of an already-fused hit list. The tail beyond
// the rerank depth keeps its fusion order; the identity fallback leaves
// everything untouched.
func (s *Service) Rerank(ctx context.Context, query string, hits []result.Ranked) []result.Ranked {
	depth := s.rerankDepth
	if depth > len(hits) {
		depth = len(hits)
	}
	if depth < 2 {
		return hits
	}

	head := hits[:depth]
	candidates := make([]Candidate, len(head))
	for i, h := range head {
		p := h.Product()
		candidates[i] = Candidate{
			ID:       p.ID(),
			Name:     p.Name(),
			Category: p.Category(),
			Price:    p.Price(),
		}
	}

	orderedIDs, fellBack := governor.Execute(ctx, s.gov, governor.CapabilityRerank,
		func(ctx context.Context) ([]string, error) {
			return s.reranker.Rerank(ctx, query, candidates)
		},
		func() []string { return nil },
	)
	s.observe(governor.CapabilityRerank, fellBack)
	if fellBack || len(orderedIDs) == 0 {
		return hits
	}

	return applyOrder(hits, head, orderedIDs)
}

// applyOrder rebuilds the head per the model's ID order. Unknown IDs are
// dropped, unmentioned head documents follow in their fusion order.
func applyOrder(hits, head []result.Ranked, orderedIDs []string) []result.Ranked {
	byID := make(map[string]result.Ranked, len(head))
	for _, h := range head {
		byID[h.ID()] = h
	}

	reordered := make([]result.Ranked, 0, len(hits))
	taken := make(map[string]struct{}, len(orderedIDs))
	for _, id := range orderedIDs {
		h, ok := byID[id]
		if !ok {
			continue
		}
		if _, dup := taken[id]; dup {
			continue
		}
		taken[id] = struct{}{}
		reordered = append(reordered, h)
	}
	for _, h := range head {
		if _, ok := taken[h.ID()]; !ok {
			reordered = append(reordered, h)
		}
	}

	return append(reordered, hits[len(head):]...)
}

func (s *Service) observe(c governor.Capability, fellBack bool) {
	if fellBack {
		metrics.AssistFallbacksTotal.WithLabelValues(string(c)).Inc()
		s.log.Debug("assist fallback served", zap.String("capability", string(c)))
	}
	st := s.gov.Status()[c]
	open := 0.0
	if st.Open {
		open = 1
	}
	metrics.BreakerOpen.WithLabelValues(string(c)).Set(open)
}
