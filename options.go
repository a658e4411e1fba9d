package rankdex

import (
	"time"

	"go.uber.org/zap"
)

// Option configures the embedded client.
type Option func(*clientConfig)

type clientConfig struct {
	addrs    []string
	username string
	password string
	db       int

	keyPrefix string

	embedder         Embedder
	queryInstruction string
	embedCacheTTL    time.Duration

	assist *OpenAIAssist

	tokenSecret []byte
	tokenTTL    time.Duration

	sourceLimit int
	fuzzy       int

	logger *zap.Logger
}

// WithRedis sets the database addresses. Required.
func WithRedis(addrs ...string) Option {
	return func(c *clientConfig) {
		c.addrs = addrs
	}
}

// WithAuth sets database credentials.
func WithAuth(username, password string) Option {
	return func(c *clientConfig) {
		c.username = username
		c.password = password
	}
}

// WithDB selects a logical database number.
func WithDB(db int) Option {
	return func(c *clientConfig) {
		c.db = db
	}
}

// WithKeyPrefix namespaces every key the client reads or writes.
// The prefix must match the one used by the ingestion pipeline.
func WithKeyPrefix(prefix string) Option {
	return func(c *clientConfig) {
		c.keyPrefix = prefix
	}
}

// WithEmbedder sets the query embedder. Required.
func WithEmbedder(e Embedder) Option {
	return func(c *clientConfig) {
		c.embedder = e
	}
}

// WithQueryInstruction prepends an instruction prefix to every query before
// embedding. Use it with instruction-tuned embedding models.
func WithQueryInstruction(instruction string) Option {
	return func(c *clientConfig) {
		c.queryInstruction = instruction
	}
}

// WithEmbeddingCacheTTL overrides how long query embeddings stay cached.
func WithEmbeddingCacheTTL(ttl time.Duration) Option {
	return func(c *clientConfig) {
		c.embedCacheTTL = ttl
	}
}

// OpenAIAssist configures model-backed query understanding.
type OpenAIAssist struct {
	APIKey  string
	BaseURL string // empty = api.openai.com
	Model   string
}

// WithOpenAIAssist enables model-backed classification, filter extraction and
// reranking, each behind its own circuit breaker. Without this option every
// capability is served by the deterministic fallbacks.
func WithOpenAIAssist(cfg OpenAIAssist) Option {
	return func(c *clientConfig) {
		c.assist = &cfg
	}
}

// WithTokenSecret sets the continuation token signing secret (at least 16
// bytes). Without it a random per-process secret is generated and tokens do
// not survive restarts.
func WithTokenSecret(secret []byte) Option {
	return func(c *clientConfig) {
		c.tokenSecret = secret
	}
}

// WithTokenTTL bounds continuation token lifetime.
func WithTokenTTL(ttl time.Duration) Option {
	return func(c *clientConfig) {
		c.tokenTTL = ttl
	}
}

// WithSourceLimit caps how many candidates each search source contributes
// before fusion.
func WithSourceLimit(n int) Option {
	return func(c *clientConfig) {
		c.sourceLimit = n
	}
}

// WithFuzzyDistance sets the lexical fuzzy edit distance (0-2).
func WithFuzzyDistance(n int) Option {
	return func(c *clientConfig) {
		c.fuzzy = n
	}
}

// WithLogger sets the zap logger. Default: no-op.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}
