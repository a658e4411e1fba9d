package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/rankdex/internal/config"
	dbRedis "github.com/kailas-cloud/rankdex/internal/db/redis"
	"github.com/kailas-cloud/rankdex/internal/domain"
	"github.com/kailas-cloud/rankdex/internal/governor"
	logpkg "github.com/kailas-cloud/rankdex/internal/logger"
	"github.com/kailas-cloud/rankdex/internal/metrics"
	budgetrepo "github.com/kailas-cloud/rankdex/internal/repository/budget"
	catalogrepo "github.com/kailas-cloud/rankdex/internal/repository/catalog"
	"github.com/kailas-cloud/rankdex/internal/repository/embcache"
	searchrepo "github.com/kailas-cloud/rankdex/internal/repository/search"
	"github.com/kailas-cloud/rankdex/internal/token"
	chiTransport "github.com/kailas-cloud/rankdex/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/rankdex/internal/transport/openai"
	assistuc "github.com/kailas-cloud/rankdex/internal/usecase/assist"
	deliveryuc "github.com/kailas-cloud/rankdex/internal/usecase/delivery"
	discoveryuc "github.com/kailas-cloud/rankdex/internal/usecase/discovery"
	embeddinguc "github.com/kailas-cloud/rankdex/internal/usecase/embedding"
	"github.com/kailas-cloud/rankdex/internal/usecase/fusion"
	healthuc "github.com/kailas-cloud/rankdex/internal/usecase/health"
	usageuc "github.com/kailas-cloud/rankdex/internal/usecase/usage"
	"github.com/kailas-cloud/rankdex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting rankdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	// Key namespace must be set before any repository builds a key.
	domain.KeyPrefix = cfg.Storage.KeyPrefix

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	if !store.SupportsTextSearch(ctx) {
		logger.Fatal("Database does not support text search; the lexical branch cannot run")
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	// Single BudgetTracker shared by the embedder chain and the usage service.
	var budget *embeddinguc.BudgetTracker
	budgetCfg := cfg.Embedding.Budget
	if budgetCfg.DailyTokenLimit > 0 || budgetCfg.MonthlyTokenLimit > 0 {
		action := embeddinguc.BudgetActionWarn
		if budgetCfg.Action == "reject" {
			action = embeddinguc.BudgetActionReject
		}
		budget = embeddinguc.NewBudgetTracker(
			cfg.Embedding.Provider, budgetCfg.DailyTokenLimit, budgetCfg.MonthlyTokenLimit, action, logger,
		)
		// Connect persistence store — loads current counters from DB.
		budget.WithStore(ctx, budgetrepo.New(store, budgetrepo.DefaultDailyTTL, budgetrepo.DefaultMonthlyTTL))
	}

	// Pass nil interface (not typed nil pointer!) if budget is not configured.
	// Go gotcha: (*BudgetTracker)(nil) wrapped in BudgetChecker != nil.
	var budgetChecker embeddinguc.BudgetChecker
	if budget != nil {
		budgetChecker = budget
	}

	// Embedder chain: OpenAI -> Cached -> Instrumented -> Instruction (outermost -
	// cache key includes the instruction prefix, so budget never sees cache hits)
	base := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})
	var queryEmbedder domain.Embedder = embcache.New(
		base, store,
		time.Duration(cfg.Embedding.CacheTTLSec)*time.Second,
		metrics.EmbeddingCacheTotal, logger,
	)
	queryEmbedder = embeddinguc.NewInstrumentedEmbedder(
		queryEmbedder, cfg.Embedding.Provider, cfg.Embedding.Model, budgetChecker, logger,
	)
	if cfg.Embedding.QueryInstruction != "" {
		queryEmbedder = domain.NewInstructionEmbedder(queryEmbedder, cfg.Embedding.QueryInstruction)
	}
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	// Repositories
	catalogRepo := catalogrepo.New(store)
	searchRepo := searchrepo.New(store, cfg.Search.FuzzyEditDistance)

	if err := catalogRepo.EnsureIndex(ctx, cfg.Embedding.Dimensions); err != nil {
		logger.Fatal("Failed to ensure catalog index", zap.Error(err))
	}
	logger.Info("Catalog index ready")

	// Governed AI assist with deterministic fallbacks
	gov := governor.New(governor.Config{
		Threshold:   cfg.Assist.BreakerThreshold,
		Cooldown:    time.Duration(cfg.Assist.BreakerCooldownSec) * time.Second,
		CallTimeout: time.Duration(cfg.Assist.CallTimeoutSec) * time.Second,
	})
	assistTransport := openaiTransport.NewAssist(&openaiTransport.AssistConfig{
		APIKey:  cfg.Assist.APIKey,
		BaseURL: cfg.Assist.BaseURL,
		Model:   cfg.Assist.Model,
		Logger:  logger,
	})
	assistSvc := assistuc.New(
		assistTransport, assistTransport, assistTransport,
		gov,
		assistuc.FallbackConfig{
			ComplexMinWords: cfg.Assist.Fallback.ComplexMinWords,
			KnownCategories: cfg.Assist.Fallback.KnownCategories,
		},
		cfg.Assist.RerankDepth,
		logger,
	)

	// Ranking pipeline
	fuser := fusion.NewEngine(fusionWeights(cfg.Scoring))
	discoverEngine := discoveryuc.NewEngine(searchRepo, catalogRepo, discoveryConfig(cfg.Discovery), logger)

	codec, err := token.NewCodec([]byte(cfg.Token.Secret), time.Duration(cfg.Token.TTLSec)*time.Second)
	if err != nil {
		logger.Fatal("Failed to create token codec", zap.Error(err))
	}

	deliverySvc := deliveryuc.New(
		searchRepo, queryEmbedder, assistSvc, fuser, discoverEngine, codec,
		deliveryuc.Config{SourceLimit: cfg.Search.SourceLimit},
		logger,
	)

	// Usage service reads from the shared BudgetTracker (same nil-interface care).
	var budgetReader usageuc.BudgetReader
	if budget != nil {
		budgetReader = budget
	}
	usageSvc := usageuc.New(budgetReader)

	healthSvc := healthuc.New(store, base, catalogRepo)

	server := chiTransport.NewServer(deliverySvc, gov, healthSvc, usageSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

func fusionWeights(s config.ScoringConfig) fusion.Weights {
	return fusion.Weights{
		RRFConstant:           s.RRFConstant,
		VectorWeightLong:      s.VectorWeightLong,
		LongQueryWords:        s.LongQueryWords,
		ExactBonus:            s.ExactBonus,
		CleanedExactBonus:     s.CleanedExactBonus,
		ContainsFullBonus:     s.ContainsFullBonus,
		ContainsCleanedBonus:  s.ContainsCleanedBonus,
		PhraseBonus:           s.PhraseBonus,
		PrefixBonus:           s.PrefixBonus,
		EarlyBonus:            s.EarlyBonus,
		FuzzyBonus:            s.FuzzyBonus,
		EarlyWindow:           s.EarlyWindow,
		FuzzySimilarityMin:    s.FuzzySimilarityMin,
		FuzzyMinTokenLen:      s.FuzzyMinTokenLen,
		CrossVocabVectorRank:  s.CrossVocabVectorRank,
		CrossVocabLexicalRank: s.CrossVocabLexicalRank,
	}
}

func discoveryConfig(d config.DiscoveryConfig) discoveryuc.Config {
	return discoveryuc.Config{
		SeedBonusThreshold: d.SeedBonusThreshold,
		MaxSeeds:           d.MaxSeeds,
		NeighborLimit:      d.NeighborLimit,
		SimilarityBoost:    d.SimilarityBoost,
		DualPathBoost:      d.DualPathBoost,
	}
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
