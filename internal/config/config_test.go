package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	return Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Addrs: []string{"localhost:6379"},
		},
		Embedding: EmbeddingConfig{
			Model:      "text-embedding-3-small",
			Dimensions: 1536,
		},
		Token: TokenConfig{
			Secret: "0123456789abcdef",
		},
	}
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingDatabaseAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing database addrs")
	}
}

func TestValidate_MissingEmbeddingModel(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Model = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing embedding model")
	}
}

func TestValidate_InvalidDimensions(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Dimensions = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing dimensions")
	}
}

func TestValidate_InvalidBudgetAction(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Budget = BudgetConfig{
		DailyTokenLimit: 1000000,
		Action:          "invalid_action",
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid budget action")
	}

	expected := `embedding.budget.action must be "warn" or "reject", got "invalid_action"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_ValidBudgetActions(t *testing.T) {
	validActions := []string{"", "warn", "reject"}

	for _, action := range validActions {
		t.Run("action="+action, func(t *testing.T) {
			cfg := validConfig()
			cfg.Embedding.Budget.Action = action

			if err := cfg.Validate(); err != nil {
				t.Fatalf("unexpected error for valid action %q: %v", action, err)
			}
		})
	}
}

func TestValidate_ShortTokenSecret(t *testing.T) {
	cfg := validConfig()
	cfg.Token.Secret = "too-short"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for short token secret")
	}

	expected := `token.secret must be at least 16 bytes, got 9`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_BrokenBonusLadder(t *testing.T) {
	cfg := validConfig()
	cfg.ApplyDefaults()
	// Ступень phrase выше соседней сверху — лестница сломана.
	cfg.Scoring.PhraseBonus = 7500

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for broken bonus ladder")
	}
	if !strings.Contains(err.Error(), "scoring.phrase_bonus") {
		t.Errorf("error should name the offending tier, got %q", err.Error())
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 10 {
		t.Errorf("expected WriteTimeoutSec=10, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Database.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Database.ReadinessTimeout)
	}
	if cfg.Storage.KeyPrefix != "rankdex:" {
		t.Errorf("expected KeyPrefix='rankdex:', got %q", cfg.Storage.KeyPrefix)
	}
	if cfg.Embedding.Provider != "openai" {
		t.Errorf("expected Provider='openai', got %q", cfg.Embedding.Provider)
	}
	if cfg.Embedding.CacheTTLSec != 86400 {
		t.Errorf("expected CacheTTLSec=86400, got %d", cfg.Embedding.CacheTTLSec)
	}
	if cfg.Embedding.Budget.Action != "warn" {
		t.Errorf("expected Budget.Action='warn', got %q", cfg.Embedding.Budget.Action)
	}
	if cfg.Assist.BreakerThreshold != 3 {
		t.Errorf("expected BreakerThreshold=3, got %d", cfg.Assist.BreakerThreshold)
	}
	if cfg.Assist.BreakerCooldownSec != 30 {
		t.Errorf("expected BreakerCooldownSec=30, got %d", cfg.Assist.BreakerCooldownSec)
	}
	if cfg.Assist.CallTimeoutSec != 5 {
		t.Errorf("expected CallTimeoutSec=5, got %d", cfg.Assist.CallTimeoutSec)
	}
	if cfg.Assist.RerankDepth != 30 {
		t.Errorf("expected RerankDepth=30, got %d", cfg.Assist.RerankDepth)
	}
	if cfg.Assist.Fallback.ComplexMinWords != 4 {
		t.Errorf("expected ComplexMinWords=4, got %d", cfg.Assist.Fallback.ComplexMinWords)
	}
	if len(cfg.Assist.Fallback.KnownCategories) == 0 {
		t.Error("expected default known categories")
	}
	if cfg.Search.SourceLimit != 35 {
		t.Errorf("expected SourceLimit=35, got %d", cfg.Search.SourceLimit)
	}
	if cfg.Search.FuzzyEditDistance != 1 {
		t.Errorf("expected FuzzyEditDistance=1, got %d", cfg.Search.FuzzyEditDistance)
	}
	if cfg.Token.TTLSec != 1800 {
		t.Errorf("expected TTLSec=1800, got %d", cfg.Token.TTLSec)
	}
}

func TestApplyDefaults_Scoring(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	s := cfg.Scoring
	if s.RRFConstant != 60 {
		t.Errorf("expected RRFConstant=60, got %v", s.RRFConstant)
	}
	if s.VectorWeightLong != 2.0 {
		t.Errorf("expected VectorWeightLong=2.0, got %v", s.VectorWeightLong)
	}
	if s.LongQueryWords != 3 {
		t.Errorf("expected LongQueryWords=3, got %d", s.LongQueryWords)
	}
	if s.ExactBonus != 10000 || s.FuzzyBonus != 3000 {
		t.Errorf("unexpected ladder bounds: %v .. %v", s.ExactBonus, s.FuzzyBonus)
	}
	if s.FuzzySimilarityMin != 0.75 {
		t.Errorf("expected FuzzySimilarityMin=0.75, got %v", s.FuzzySimilarityMin)
	}
	if s.CrossVocabVectorRank != 5 || s.CrossVocabLexicalRank != 10 {
		t.Errorf("unexpected cross-vocab ranks: %d / %d", s.CrossVocabVectorRank, s.CrossVocabLexicalRank)
	}
}

func TestApplyDefaults_Discovery(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	d := cfg.Discovery
	if d.SeedBonusThreshold != 8000 {
		t.Errorf("expected SeedBonusThreshold=8000, got %v", d.SeedBonusThreshold)
	}
	if d.MaxSeeds != 3 {
		t.Errorf("expected MaxSeeds=3, got %d", d.MaxSeeds)
	}
	if d.NeighborLimit != 20 {
		t.Errorf("expected NeighborLimit=20, got %d", d.NeighborLimit)
	}
	if d.SimilarityBoost != 2500 {
		t.Errorf("expected SimilarityBoost=2500, got %v", d.SimilarityBoost)
	}
	if d.DualPathBoost != 5000 {
		t.Errorf("expected DualPathBoost=5000, got %v", d.DualPathBoost)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Database: DatabaseConfig{ReadinessTimeout: 15},
		Storage:  StorageConfig{KeyPrefix: "custom:"},
		Search:   SearchConfig{SourceLimit: 50, FuzzyEditDistance: 2},
		Scoring:  ScoringConfig{RRFConstant: 90},
		Token:    TokenConfig{TTLSec: 600},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Storage.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Storage.KeyPrefix)
	}
	if cfg.Search.SourceLimit != 50 {
		t.Errorf("expected SourceLimit=50, got %d", cfg.Search.SourceLimit)
	}
	if cfg.Scoring.RRFConstant != 90 {
		t.Errorf("expected RRFConstant=90, got %v", cfg.Scoring.RRFConstant)
	}
	if cfg.Token.TTLSec != 600 {
		t.Errorf("expected TTLSec=600, got %d", cfg.Token.TTLSec)
	}
}
