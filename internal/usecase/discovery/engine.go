package discovery

import (
	"context"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/rankdex/internal/domain/product"
	"github.com/kailas-cloud/rankdex/internal/domain/search/filter"
	"github.com/kailas-cloud/rankdex/internal/domain/search/request"
	"github.com/kailas-cloud/rankdex/internal/domain/search/result"
	"github.com/kailas-cloud/rankdex/internal/metrics"
)

// Default expansion parameters.
const (
	// DefaultSeedBonusThreshold is the minimum match bonus a fused hit needs
	// to anchor a neighbourhood expansion.
	DefaultSeedBonusThreshold = 8000.0
	// DefaultMaxSeeds caps how many anchors get a nearest-neighbour pass.
	DefaultMaxSeeds = 3
	// DefaultNeighborLimit is the per-seed neighbour fetch size.
	DefaultNeighborLimit = 20
	// DefaultSimilarityBoost elevates documents reached through vector
	// similarity alone.
	DefaultSimilarityBoost = 2500.0
	// DefaultDualPathBoost elevates documents reached through both the soft
	// category path and vector similarity.
	DefaultDualPathBoost = 5000.0
)

// Config tunes the expansion pass.
type Config struct {
	SeedBonusThreshold float64
	MaxSeeds           int
	NeighborLimit      int
	SimilarityBoost    float64
	DualPathBoost      float64
}

// DefaultConfig returns the production expansion parameters.
func DefaultConfig() Config {
	return Config{
		SeedBonusThreshold: DefaultSeedBonusThreshold,
		MaxSeeds:           DefaultMaxSeeds,
		NeighborLimit:      DefaultNeighborLimit,
		SimilarityBoost:    DefaultSimilarityBoost,
		DualPathBoost:      DefaultDualPathBoost,
	}
}

// Engine widens later batches of an exploratory query with documents similar
// to its strongest hits. Purely additive: existing hits keep their relative
// order at the top, expansion only reshuffles and extends the long tail.
type Engine struct {
	neighbors NeighborSearcher
	catalog   CatalogReader
	cfg       Config
	log       *zap.Logger
}

// NewEngine creates an expansion engine.
func NewEngine(neighbors NeighborSearcher, catalog CatalogReader, cfg Config, log *zap.Logger) *Engine {
	if cfg.SeedBonusThreshold <= 0 {
		cfg.SeedBonusThreshold = DefaultSeedBonusThreshold
	}
	if cfg.MaxSeeds <= 0 {
		cfg.MaxSeeds = DefaultMaxSeeds
	}
	if cfg.NeighborLimit <= 0 {
		cfg.NeighborLimit = DefaultNeighborLimit
	}
	if cfg.SimilarityBoost <= 0 {
		cfg.SimilarityBoost = DefaultSimilarityBoost
	}
	if cfg.DualPathBoost <= 0 {
		cfg.DualPathBoost = DefaultDualPathBoost
	}

	return &Engine{
		neighbors: neighbors,
		catalog:   catalog,
		cfg:       cfg,
		log:       log,
	}
}

// Eligible reports whether the batch being built qualifies for expansion:
// an exploratory query, second batch or later, and at least one fused hit
// strong enough to seed a neighbourhood.
func (e *Engine) Eligible(complexQuery bool, batchNumber int, hits []result.Ranked) bool {
	if !complexQuery || batchNumber < 2 {
		return false
	}
	for _, h := range hits {
		if h.Bonus() >= e.cfg.SeedBonusThreshold {
			return true
		}
	}
	return false
}

// Expand augments the fused list with neighbours of its strongest hits.
// Hard filters are applied to every neighbour query, so expansion can never
// leak documents the original search would have excluded. Any per-seed
// failure degrades to a smaller expansion, never to an error.
func (e *Engine) Expand(ctx context.Context, hits []result.Ranked, hard filter.Set) []result.Ranked {
	head, tail := e.split(hits)
	if len(head) == 0 {
		return hits
	}

	seeds := head
	if len(seeds) > e.cfg.MaxSeeds {
		seeds = seeds[:e.cfg.MaxSeeds]
	}

	lists := make([][]product.Product, len(seeds))
	g, gctx := errgroup.WithContext(ctx)
	for i, s := range seeds {
		g.Go(func() error {
			docs, err := e.neighborsOf(gctx, s, hard)
			if err != nil {
				e.log.Warn("discovery: neighbour pass skipped",
					zap.String("seed_id", s.ID()),
					zap.Error(err))
				return nil
			}
			lists[i] = docs
			return nil
		})
	}
	_ = g.Wait()

	metrics.DiscoveryExpansionsTotal.Inc()

	return append(head, e.mergeTail(head, tail, lists)...)
}

// split partitions fused hits into the seed-grade head, kept verbatim at the
// front, and the tail the merge pass is allowed to reorder.
func (e *Engine) split(hits []result.Ranked) (head, tail []result.Ranked) {
	for _, h := range hits {
		if h.Bonus() >= e.cfg.SeedBonusThreshold {
			head = append(head, h)
		} else {
			tail = append(tail, h)
		}
	}
	return head, tail
}

func (e *Engine) neighborsOf(ctx context.Context, seed result.Ranked, hard filter.Set) ([]product.Product, error) {
	vec, err := e.catalog.Embedding(ctx, seed.ID())
	if err != nil {
		return nil, err
	}

	req, err := request.NewSimilar(seed.ID(), hard, e.cfg.NeighborLimit)
	if err != nil {
		return nil, err
	}

	return e.neighbors.SearchSimilar(ctx, vec, &req)
}

// mergeTail folds neighbour lists into the fused tail. A fused document also
// reached by similarity gets the dual-path boost when it matched a soft
// category hint, the similarity boost otherwise; documents known only through
// similarity enter with the similarity boost. Ordering is boost descending,
// then fused score descending, stable.
func (e *Engine) mergeTail(head, tail []result.Ranked, lists [][]product.Product) []result.Ranked {
	known := make(map[string]bool, len(head)+len(tail))
	for _, h := range head {
		known[h.ID()] = true
	}
	for _, h := range tail {
		known[h.ID()] = true
	}

	similar := make(map[string]bool)
	merged := make([]result.Ranked, 0, len(tail))
	for _, list := range lists {
		for _, p := range list {
			id := p.ID()
			if similar[id] {
				continue
			}
			similar[id] = true
			if known[id] {
				continue
			}
			known[id] = true
			merged = append(merged, result.
				New(p, result.RankAbsent, result.RankAbsent, 0, 0, 0).
				WithBoost(e.cfg.SimilarityBoost))
		}
	}

	out := make([]result.Ranked, 0, len(tail)+len(merged))
	for _, h := range tail {
		switch {
		case similar[h.ID()] && h.SoftMatches() > 0:
			h = h.WithBoost(e.cfg.DualPathBoost)
		case similar[h.ID()]:
			h = h.WithBoost(e.cfg.SimilarityBoost)
		}
		out = append(out, h)
	}
	out = append(out, merged...)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Boost() != out[j].Boost() {
			return out[i].Boost() > out[j].Boost()
		}
		return out[i].SortKey() > out[j].SortKey()
	})

	return out
}
