package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/rankdex/internal/domain"
	"github.com/kailas-cloud/rankdex/internal/domain/product"
	"github.com/kailas-cloud/rankdex/internal/domain/search/filter"
	"github.com/kailas-cloud/rankdex/internal/domain/search/mode"
	"github.com/kailas-cloud/rankdex/internal/domain/search/request"
	"github.com/kailas-cloud/rankdex/internal/domain/search/result"
	logpkg "github.com/kailas-cloud/rankdex/internal/logger"
	"github.com/kailas-cloud/rankdex/internal/metrics"
	"github.com/kailas-cloud/rankdex/internal/token"
	"github.com/kailas-cloud/rankdex/internal/usecase/fusion"
)

// DefaultSourceLimit is how many candidates each search source contributes
// before fusion.
const DefaultSourceLimit = 35

// Request kind labels for metrics.
const (
	kindFirst    = "first"
	kindContinue = "continue"
)

// Config tunes batch assembly.
type Config struct {
	SourceLimit int
}

// Batch is one delivered page of ranked results.
type Batch struct {
	Docs        []result.Ranked
	Mode        mode.Mode
	BatchNumber int
	HasMore     bool
	NextToken   string
}

// Service assembles ranked result batches. Each batch runs the full pipeline
// - query understanding, dual retrieval, fusion, tiering or rerank, discovery
// - and excludes everything already delivered in the chain, so a document id
// appears in at most one batch per continuation chain.
type Service struct {
	store       Searcher
	embed       Embedder
	assist      Assist
	fuser       *fusion.Engine
	discover    Expander
	tokens      TokenCodec
	sourceLimit int
	now         func() time.Time
	log         *zap.Logger
}

// New creates a delivery service.
func New(
	store Searcher,
	embed Embedder,
	assist Assist,
	fuser *fusion.Engine,
	discover Expander,
	tokens TokenCodec,
	cfg Config,
	log *zap.Logger,
) *Service {
	if cfg.SourceLimit <= 0 {
		cfg.SourceLimit = DefaultSourceLimit
	}

	return &Service{
		store:       store,
		embed:       embed,
		assist:      assist,
		fuser:       fuser,
		discover:    discover,
		tokens:      tokens,
		sourceLimit: cfg.SourceLimit,
		now:         time.Now,
		log:         log,
	}
}

// Search runs the first batch of a query: classification and filter
// extraction, dual retrieval, fusion, tiering for simple queries or rerank
// for complex ones, then the batch slice with a continuation token when more
// candidates remain.
func (s *Service) Search(ctx context.Context, req *request.Request) (Batch, error) {
	start := time.Now()
	batch, err := s.firstBatch(ctx, req)
	s.observe(kindFirst, start, err)
	return batch, err
}

func (s *Service) firstBatch(ctx context.Context, req *request.Request) (Batch, error) {
	m := s.assist.Classify(ctx, req.Query())
	complexQuery := m == mode.Complex

	filters := s.mergeFilters(ctx, req.Query(), req.Filters(), s.assist.ExtractFilters(ctx, req.Query()))

	hits, err := s.retrieve(ctx, req.Query(), filters, complexQuery)
	if err != nil {
		return Batch{}, err
	}

	docs := hits
	if len(docs) > req.BatchSize() {
		docs = docs[:req.BatchSize()]
	}

	batch := Batch{Docs: docs, Mode: m, BatchNumber: 1}
	if len(hits) > len(docs) {
		tok, err := token.New(req.Query(), filters, complexQuery, idsOf(docs), 1, s.now())
		if err != nil {
			return Batch{}, fmt.Errorf("mint continuation token: %w", err)
		}
		signed, err := s.tokens.Encode(tok)
		if err != nil {
			return Batch{}, fmt.Errorf("encode continuation token: %w", err)
		}
		batch.HasMore = true
		batch.NextToken = signed
	}

	s.logFor(ctx).Debug("batch assembled",
		zap.String("kind", kindFirst),
		zap.String("mode", string(m)),
		zap.Int("docs", len(batch.Docs)),
		zap.Bool("has_more", batch.HasMore))

	return batch, nil
}

// NextBatch resumes a continuation chain. The search state is rebuilt from
// the token; the catalog is queried fresh, so documents added or removed
// since the first batch are reflected. A pool that shrank to nothing yields
// an empty final batch, not an error.
func (s *Service) NextBatch(ctx context.Context, encoded string, batchSize int) (Batch, error) {
	start := time.Now()
	batch, err := s.nextBatch(ctx, encoded, batchSize)
	s.observe(kindContinue, start, err)
	return batch, err
}

func (s *Service) nextBatch(ctx context.Context, encoded string, batchSize int) (Batch, error) {
	tok, err := s.tokens.Decode(encoded)
	if err != nil {
		s.countRejection(err)
		return Batch{}, err
	}

	batchSize = clampBatchSize(batchSize)
	complexQuery := tok.IsComplex()
	batchNumber := tok.BatchNumber() + 1

	hits, err := s.retrieve(ctx, tok.Query(), tok.Filters(), complexQuery)
	if err != nil {
		return Batch{}, err
	}

	if s.discover.Eligible(complexQuery, batchNumber, hits) {
		hits = s.discover.Expand(ctx, hits, tok.Filters())
	}

	fresh := excludeDelivered(hits, tok.DeliveredSet())

	docs := fresh
	if len(docs) > batchSize {
		docs = docs[:batchSize]
	}

	m := mode.Simple
	if complexQuery {
		m = mode.Complex
	}

	batch := Batch{Docs: docs, Mode: m, BatchNumber: batchNumber}
	if len(fresh) > len(docs) {
		signed, err := s.tokens.Encode(tok.Advance(idsOf(docs), s.now()))
		if err != nil {
			return Batch{}, fmt.Errorf("encode continuation token: %w", err)
		}
		batch.HasMore = true
		batch.NextToken = signed
	}

	s.logFor(ctx).Debug("batch assembled",
		zap.String("kind", kindContinue),
		zap.Int("batch_number", batchNumber),
		zap.Int("docs", len(batch.Docs)),
		zap.Bool("has_more", batch.HasMore))

	return batch, nil
}

// retrieve embeds the query, runs both searches in parallel and fuses the
// candidate lists. Simple queries get confidence tiers; complex queries get
// the governed rerank pass instead.
func (s *Service) retrieve(
	ctx context.Context, query string, filters filter.Set, complexQuery bool,
) ([]result.Ranked, error) {
	emb, err := s.embed.Embed(ctx, query)
	if err != nil {
		// Quota rejection is admission control, not a provider failure.
		if errors.Is(err, domain.ErrEmbeddingQuotaExceeded) {
			return nil, fmt.Errorf("embed query: %w", err)
		}
		return nil, domain.NewUpstreamError("embedding", err)
	}
	domain.UsageFromContext(ctx).AddTokens(emb.TotalTokens)

	var lexical, vector []product.Product
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		docs, err := s.store.SearchLexical(gctx, query, filters, s.sourceLimit)
		if err != nil {
			return domain.NewUpstreamError("lexical", err)
		}
		lexical = docs
		return nil
	})
	g.Go(func() error {
		docs, err := s.store.SearchVector(gctx, emb.Embedding, filters, s.sourceLimit)
		if err != nil {
			return domain.NewUpstreamError("vector", err)
		}
		vector = docs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	hits := s.fuser.Fuse(query, lexical, vector, filters.Soft())
	metrics.FusionCandidates.Observe(float64(len(hits)))

	if complexQuery {
		return s.assist.Rerank(ctx, query, hits), nil
	}
	return s.fuser.ApplyTiers(hits), nil
}

// mergeFilters combines client filters with extracted ones; client
// conditions win on key collisions.
func (s *Service) mergeFilters(ctx context.Context, query string, client, extracted filter.Set) filter.Set {
	merged, err := client.Merge(extracted)
	if err != nil {
		s.logFor(ctx).Warn("extracted filters dropped",
			zap.String("query", query),
			zap.Error(err))
		return client
	}
	return merged
}

// logFor prefers the request-scoped logger so pipeline lines carry the
// request_id the HTTP shell assigned.
func (s *Service) logFor(ctx context.Context) *zap.Logger {
	return logpkg.FromContext(ctx, s.log)
}

func (s *Service) observe(kind string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.SearchRequestsTotal.WithLabelValues(kind, status).Inc()
	metrics.SearchDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

func (s *Service) countRejection(err error) {
	switch {
	case errors.Is(err, domain.ErrTokenExpired):
		metrics.TokenRejectionsTotal.WithLabelValues("expired").Inc()
	case errors.Is(err, domain.ErrTokenMalformed):
		metrics.TokenRejectionsTotal.WithLabelValues("malformed").Inc()
	}
}

func clampBatchSize(n int) int {
	if n <= 0 {
		return request.DefaultBatchSize
	}
	if n > request.MaxBatchSize {
		return request.MaxBatchSize
	}
	return n
}

func idsOf(hits []result.Ranked) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.ID()
	}
	return out
}

func excludeDelivered(hits []result.Ranked, seen map[string]struct{}) []result.Ranked {
	out := make([]result.Ranked, 0, len(hits))
	for _, h := range hits {
		if _, ok := seen[h.ID()]; ok {
			continue
		}
		out = append(out, h)
	}
	return out
}
