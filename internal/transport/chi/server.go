package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/rankdex/internal/domain"
	"github.com/kailas-cloud/rankdex/internal/domain/search/request"
	domusage "github.com/kailas-cloud/rankdex/internal/domain/usage"
	"github.com/kailas-cloud/rankdex/internal/governor"
	deliveryuc "github.com/kailas-cloud/rankdex/internal/usecase/delivery"
	healthuc "github.com/kailas-cloud/rankdex/internal/usecase/health"
	usageuc "github.com/kailas-cloud/rankdex/internal/usecase/usage"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the ranked delivery pipeline over HTTP.
type Server struct {
	delivery      *deliveryuc.Service
	governor      *governor.Governor
	health        *healthuc.Service
	usage         *usageuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	delivery *deliveryuc.Service,
	gov *governor.Governor,
	health *healthuc.Service,
	usage *usageuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		delivery: delivery,
		governor: gov,
		health:   health,
		usage:    usage,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, codeInvalidQuery),
		sentinelHandler(domain.ErrInvalidFilter, http.StatusBadRequest, codeInvalidFilter),
		sentinelHandler(domain.ErrTokenMalformed, http.StatusBadRequest, codeTokenMalformed),
		sentinelHandler(domain.ErrTokenExpired, http.StatusGone, codeTokenExpired),
		// quota before upstream: a rejected embed must not read as a 502
		sentinelHandler(domain.ErrEmbeddingQuotaExceeded, http.StatusPaymentRequired, codeQuotaExceeded),
		sentinelHandler(domain.ErrUpstreamSearch, http.StatusBadGateway, codeUpstreamSearch),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProvider),
		sentinelHandler(domain.ErrUnknownCapability, http.StatusNotFound, codeUnknownCapability),
	}
	return s
}

// Register mounts every API route on the router.
func (s *Server) Register(r chi.Router) {
	r.Post("/api/v1/search", s.Search)
	r.Post("/api/v1/search/continue", s.ContinueSearch)
	r.Get("/api/v1/breakers", s.Breakers)
	r.Post("/api/v1/breakers/{capability}/reset", s.ResetBreaker)
	r.Get("/api/v1/usage", s.GetUsage)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// Search handles POST /api/v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	filters, err := filtersFromPayload(req.Filters)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidFilter, err.Error())
		return
	}

	sreq, err := request.New(req.Query, derefInt(req.BatchSize), filters)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidQuery, err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	batch, err := s.delivery.Search(ctx, &sreq)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, batchToResponse(batch))
}

// ContinueSearch handles POST /api/v1/search/continue.
func (s *Server) ContinueSearch(w http.ResponseWriter, r *http.Request) {
	var req continueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.Token == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "token is required")
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	batch, err := s.delivery.NextBatch(ctx, req.Token, derefInt(req.BatchSize))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, batchToResponse(batch))
}

// Breakers handles GET /api/v1/breakers.
func (s *Server) Breakers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, breakersToResponse(s.governor.StatusSorted()))
}

// ResetBreaker handles POST /api/v1/breakers/{capability}/reset.
func (s *Server) ResetBreaker(w http.ResponseWriter, r *http.Request) {
	capability := chi.URLParam(r, "capability")

	if err := s.governor.Reset(governor.Capability(capability)); err != nil {
		s.handleDomainError(w, err)
		return
	}

	s.logger.Info("breaker reset", zap.String("capability", capability))
	w.WriteHeader(http.StatusNoContent)
}

// GetUsage handles GET /api/v1/usage.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	period := domusage.ParsePeriod(r.URL.Query().Get("period"))
	report := s.usage.GetReport(r.Context(), period)
	writeJSON(w, http.StatusOK, reportToResponse(report))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// setEmbeddingHeaders reports per-request embedding spend. Must run before
// the response body is written. 0 means the query vector came from cache.
func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage != nil && usage.Used {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidQuery,
		domain.ErrInvalidFilter,
		domain.ErrTokenMalformed,
		domain.ErrTokenExpired,
		domain.ErrEmbeddingQuotaExceeded,
		domain.ErrUpstreamSearch,
		domain.ErrEmbeddingProviderError,
		domain.ErrUnknownCapability,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
