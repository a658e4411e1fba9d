package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the rankdex API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Storage   StorageConfig   `yaml:"storage"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Assist    AssistConfig    `yaml:"assist"`
	Search    SearchConfig    `yaml:"search"`
	Scoring   ScoringConfig   `yaml:"scoring"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Token     TokenConfig     `yaml:"token"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider         string       `yaml:"provider"`
	APIKey           string       `yaml:"api_key"`
	BaseURL          string       `yaml:"base_url"`
	Model            string       `yaml:"model"`
	Dimensions       int          `yaml:"dimensions"`
	QueryInstruction string       `yaml:"query_instruction"`
	CacheTTLSec      int          `yaml:"cache_ttl_sec"`
	Budget           BudgetConfig `yaml:"budget"`
}

// BudgetConfig holds embedding token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// AssistConfig holds AI assist settings: the chat provider plus the circuit
// breaker and fallback tuning that keep search alive without it.
type AssistConfig struct {
	APIKey             string         `yaml:"api_key"`
	BaseURL            string         `yaml:"base_url"`
	Model              string         `yaml:"model"`
	BreakerThreshold   int            `yaml:"breaker_threshold"`
	BreakerCooldownSec int            `yaml:"breaker_cooldown_sec"`
	CallTimeoutSec     int            `yaml:"call_timeout_sec"`
	RerankDepth        int            `yaml:"rerank_depth"`
	Fallback           FallbackConfig `yaml:"fallback"`
}

// FallbackConfig holds the deterministic assist fallback tuning.
type FallbackConfig struct {
	ComplexMinWords int      `yaml:"complex_min_words"`
	KnownCategories []string `yaml:"known_categories"`
}

// SearchConfig holds candidate retrieval settings.
type SearchConfig struct {
	SourceLimit       int `yaml:"source_limit"`
	FuzzyEditDistance int `yaml:"fuzzy_edit_distance"`
}

// ScoringConfig holds every tunable constant of the fusion scoring pipeline.
type ScoringConfig struct {
	RRFConstant      float64 `yaml:"rrf_constant"`
	VectorWeightLong float64 `yaml:"vector_weight_long"`
	LongQueryWords   int     `yaml:"long_query_words"`

	// Match bonus ladder, strictly descending.
	ExactBonus           float64 `yaml:"exact_bonus"`
	CleanedExactBonus    float64 `yaml:"cleaned_exact_bonus"`
	ContainsFullBonus    float64 `yaml:"contains_full_bonus"`
	ContainsCleanedBonus float64 `yaml:"contains_cleaned_bonus"`
	PhraseBonus          float64 `yaml:"phrase_bonus"`
	PrefixBonus          float64 `yaml:"prefix_bonus"`
	EarlyBonus           float64 `yaml:"early_bonus"`
	FuzzyBonus           float64 `yaml:"fuzzy_bonus"`

	EarlyWindow        int     `yaml:"early_window"`
	FuzzySimilarityMin float64 `yaml:"fuzzy_similarity_min"`
	FuzzyMinTokenLen   int     `yaml:"fuzzy_min_token_len"`

	CrossVocabVectorRank  int `yaml:"cross_vocab_vector_rank"`
	CrossVocabLexicalRank int `yaml:"cross_vocab_lexical_rank"`
}

// DiscoveryConfig holds seed-similarity expansion settings.
type DiscoveryConfig struct {
	SeedBonusThreshold float64 `yaml:"seed_bonus_threshold"`
	MaxSeeds           int     `yaml:"max_seeds"`
	NeighborLimit      int     `yaml:"neighbor_limit"`
	SimilarityBoost    float64 `yaml:"similarity_boost"`
	DualPathBoost      float64 `yaml:"dual_path_boost"`
}

// TokenConfig holds continuation token settings.
type TokenConfig struct {
	Secret string `yaml:"secret"`
	TTLSec int    `yaml:"ttl_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "rankdex:"
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.CacheTTLSec <= 0 {
		c.Embedding.CacheTTLSec = 86400
	}
	if c.Embedding.Budget.Action == "" {
		c.Embedding.Budget.Action = "warn"
	}
	if c.Assist.BreakerThreshold <= 0 {
		c.Assist.BreakerThreshold = 3
	}
	if c.Assist.BreakerCooldownSec <= 0 {
		c.Assist.BreakerCooldownSec = 30
	}
	if c.Assist.CallTimeoutSec <= 0 {
		c.Assist.CallTimeoutSec = 5
	}
	if c.Assist.RerankDepth <= 0 {
		c.Assist.RerankDepth = 30
	}
	if c.Assist.Fallback.ComplexMinWords <= 0 {
		c.Assist.Fallback.ComplexMinWords = 4
	}
	if len(c.Assist.Fallback.KnownCategories) == 0 {
		c.Assist.Fallback.KnownCategories = []string{"wine", "cheese", "beer", "spirits", "snacks", "coffee"}
	}
	if c.Search.SourceLimit <= 0 {
		c.Search.SourceLimit = 35
	}
	if c.Search.FuzzyEditDistance <= 0 {
		c.Search.FuzzyEditDistance = 1
	}
	if c.Token.TTLSec <= 0 {
		c.Token.TTLSec = 1800
	}

	c.Scoring.applyDefaults()
	c.Discovery.applyDefaults()
}

func (s *ScoringConfig) applyDefaults() {
	if s.RRFConstant <= 0 {
		s.RRFConstant = 60
	}
	if s.VectorWeightLong <= 0 {
		s.VectorWeightLong = 2.0
	}
	if s.LongQueryWords <= 0 {
		s.LongQueryWords = 3
	}
	if s.ExactBonus <= 0 {
		s.ExactBonus = 10000
	}
	if s.CleanedExactBonus <= 0 {
		s.CleanedExactBonus = 9000
	}
	if s.ContainsFullBonus <= 0 {
		s.ContainsFullBonus = 8000
	}
	if s.ContainsCleanedBonus <= 0 {
		s.ContainsCleanedBonus = 7000
	}
	if s.PhraseBonus <= 0 {
		s.PhraseBonus = 6000
	}
	if s.PrefixBonus <= 0 {
		s.PrefixBonus = 5000
	}
	if s.EarlyBonus <= 0 {
		s.EarlyBonus = 4000
	}
	if s.FuzzyBonus <= 0 {
		s.FuzzyBonus = 3000
	}
	if s.EarlyWindow <= 0 {
		s.EarlyWindow = 10
	}
	if s.FuzzySimilarityMin <= 0 {
		s.FuzzySimilarityMin = 0.75
	}
	if s.FuzzyMinTokenLen <= 0 {
		s.FuzzyMinTokenLen = 3
	}
	if s.CrossVocabVectorRank <= 0 {
		s.CrossVocabVectorRank = 5
	}
	if s.CrossVocabLexicalRank <= 0 {
		s.CrossVocabLexicalRank = 10
	}
}

func (d *DiscoveryConfig) applyDefaults() {
	if d.SeedBonusThreshold <= 0 {
		d.SeedBonusThreshold = 8000
	}
	if d.MaxSeeds <= 0 {
		d.MaxSeeds = 3
	}
	if d.NeighborLimit <= 0 {
		d.NeighborLimit = 20
	}
	if d.SimilarityBoost <= 0 {
		d.SimilarityBoost = 2500
	}
	if d.DualPathBoost <= 0 {
		d.DualPathBoost = 5000
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required")
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding.dimensions must be positive, got %d", c.Embedding.Dimensions)
	}
	switch c.Embedding.Budget.Action {
	case "", "warn", "reject":
		// ok
	default:
		return fmt.Errorf(
			"embedding.budget.action must be \"warn\" or \"reject\", got %q",
			c.Embedding.Budget.Action,
		)
	}
	if len(c.Token.Secret) < 16 {
		return fmt.Errorf("token.secret must be at least 16 bytes, got %d", len(c.Token.Secret))
	}
	if err := c.Scoring.validateLadder(); err != nil {
		return err
	}
	return nil
}

// validateLadder rejects a bonus ladder whose tiers are out of order: higher
// tiers must always dominate lower ones, or tier membership stops meaning
// anything.
func (s *ScoringConfig) validateLadder() error {
	ladder := []struct {
		name  string
		value float64
	}{
		{"exact_bonus", s.ExactBonus},
		{"cleaned_exact_bonus", s.CleanedExactBonus},
		{"contains_full_bonus", s.ContainsFullBonus},
		{"contains_cleaned_bonus", s.ContainsCleanedBonus},
		{"phrase_bonus", s.PhraseBonus},
		{"prefix_bonus", s.PrefixBonus},
		{"early_bonus", s.EarlyBonus},
		{"fuzzy_bonus", s.FuzzyBonus},
	}
	for i := 1; i < len(ladder); i++ {
		if ladder[i].value >= ladder[i-1].value {
			return fmt.Errorf(
				"scoring.%s must be below scoring.%s, got %v >= %v",
				ladder[i].name, ladder[i-1].name, ladder[i].value, ladder[i-1].value,
			)
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
