// Package rankdex embeds the product search pipeline in-process: dual
// lexical/vector retrieval over Redis, score fusion, confidence tiering,
// stateless continuation tokens and similarity discovery, without running
// the HTTP service.
package rankdex

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/rankdex/internal/db"
	dbRedis "github.com/kailas-cloud/rankdex/internal/db/redis"
	"github.com/kailas-cloud/rankdex/internal/domain"
	"github.com/kailas-cloud/rankdex/internal/governor"
	"github.com/kailas-cloud/rankdex/internal/metrics"
	catalogrepo "github.com/kailas-cloud/rankdex/internal/repository/catalog"
	"github.com/kailas-cloud/rankdex/internal/repository/embcache"
	searchrepo "github.com/kailas-cloud/rankdex/internal/repository/search"
	"github.com/kailas-cloud/rankdex/internal/token"
	openaiTransport "github.com/kailas-cloud/rankdex/internal/transport/openai"
	assistuc "github.com/kailas-cloud/rankdex/internal/usecase/assist"
	deliveryuc "github.com/kailas-cloud/rankdex/internal/usecase/delivery"
	discoveryuc "github.com/kailas-cloud/rankdex/internal/usecase/discovery"
	"github.com/kailas-cloud/rankdex/internal/usecase/fusion"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultTokenTTL         = 30 * time.Minute
	defaultFuzzyDistance    = 1

	defaultBreakerThreshold = 3
	defaultBreakerCooldown  = 30 * time.Second
	defaultCallTimeout      = 5 * time.Second
	defaultRerankDepth      = 30
)

// Client is the embedded rankdex entry point. One Client per process;
// safe for concurrent use.
type Client struct {
	store    db.Store
	delivery *deliveryuc.Service
	gov      *governor.Governor // nil without model assist
	log      *zap.Logger
}

// New connects to the database and wires the search pipeline.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		tokenTTL: defaultTokenTTL,
		fuzzy:    defaultFuzzyDistance,
		logger:   zap.NewNop(),
	}
	for _, o := range opts {
		o(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("rankdex: database address required (use WithRedis)")
	}
	if cfg.embedder == nil {
		return nil, errors.New("rankdex: embedder required (use WithEmbedder)")
	}

	if cfg.keyPrefix != "" {
		// Key namespace must be set before any repository builds a key.
		domain.KeyPrefix = cfg.keyPrefix
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Username: cfg.username,
		Password: cfg.password,
		DB:       cfg.db,
	})
	if err != nil {
		return nil, fmt.Errorf("rankdex: create store: %w", err)
	}

	ctx := context.Background()
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("rankdex: database not ready: %w", err)
	}

	return wireClient(store, cfg)
}

func wireClient(store db.Store, cfg *clientConfig) (*Client, error) {
	log := cfg.logger

	var embedder domain.Embedder = &embedderAdapter{inner: cfg.embedder}
	embedder = embcache.New(embedder, store, cfg.embedCacheTTL, metrics.EmbeddingCacheTotal, log)
	if cfg.queryInstruction != "" {
		embedder = domain.NewInstructionEmbedder(embedder, cfg.queryInstruction)
	}

	searchRepo := searchrepo.New(store, cfg.fuzzy)
	catalogRepo := catalogrepo.New(store)

	var (
		assist deliveryuc.Assist
		gov    *governor.Governor
	)
	if cfg.assist != nil {
		gov = governor.New(governor.Config{
			Threshold:   defaultBreakerThreshold,
			Cooldown:    defaultBreakerCooldown,
			CallTimeout: defaultCallTimeout,
		})
		transport := openaiTransport.NewAssist(&openaiTransport.AssistConfig{
			APIKey:  cfg.assist.APIKey,
			BaseURL: cfg.assist.BaseURL,
			Model:   cfg.assist.Model,
			Logger:  log,
		})
		assist = assistuc.New(
			transport, transport, transport,
			gov, assistuc.DefaultFallbackConfig(), defaultRerankDepth, log,
		)
	} else {
		assist = assistuc.NewFallbackOnly(assistuc.DefaultFallbackConfig())
	}

	secret := cfg.tokenSecret
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			store.Close()
			return nil, fmt.Errorf("rankdex: generate token secret: %w", err)
		}
	}
	codec, err := token.NewCodec(secret, cfg.tokenTTL)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("rankdex: token codec: %w", err)
	}

	fuser := fusion.NewEngine(fusion.DefaultWeights())
	discover := discoveryuc.NewEngine(searchRepo, catalogRepo, discoveryuc.Config{}, log)

	delivery := deliveryuc.New(
		searchRepo, embedder, assist, fuser, discover, codec,
		deliveryuc.Config{SourceLimit: cfg.sourceLimit}, log,
	)

	return &Client{store: store, delivery: delivery, gov: gov, log: log}, nil
}

// Close releases the database connection.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Search starts a query. Configure it fluently, then call Do.
func (c *Client) Search(query string) *SearchBuilder {
	return &SearchBuilder{client: c, query: query}
}

// NextBatch continues a delivery chain. Pass the NextToken of the previous
// batch; batchSize 0 keeps the server default.
func (c *Client) NextBatch(ctx context.Context, tok string, batchSize int) (*Batch, error) {
	b, err := c.delivery.NextBatch(ctx, tok, batchSize)
	if err != nil {
		return nil, err
	}
	return fromInternalBatch(b), nil
}

// BreakerStatus describes one AI capability circuit breaker.
type BreakerStatus struct {
	Capability   string
	Open         bool
	FailureCount int
	RetryIn      time.Duration
}

// Breakers reports the per-capability breaker states in stable order.
// Without model assist there are no breakers and the result is empty.
func (c *Client) Breakers() []BreakerStatus {
	if c.gov == nil {
		return nil
	}
	states := c.gov.StatusSorted()
	out := make([]BreakerStatus, len(states))
	for i, s := range states {
		out[i] = BreakerStatus{
			Capability:   string(s.Capability),
			Open:         s.Status.Open,
			FailureCount: s.Status.FailureCount,
			RetryIn:      s.Status.RetryIn,
		}
	}
	return out
}

// ResetBreaker forces the named capability's breaker closed.
func (c *Client) ResetBreaker(capability string) error {
	if c.gov == nil {
		return fmt.Errorf("%w: %q", ErrUnknownCapability, capability)
	}
	return c.gov.Reset(governor.Capability(capability))
}
