package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search pipeline Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rankdex",
			Name:      "search_requests_total",
			Help:      "Total number of search batch requests",
		},
		[]string{"kind", "status"}, // kind: "first" / "continue"
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rankdex",
			Name:      "search_duration_seconds",
			Help:      "End-to-end batch delivery duration in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"kind"},
	)

	FusionCandidates = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "rankdex",
			Name:      "fusion_candidates",
			Help:      "Distinct candidates per fused result list",
			Buckets:   []float64{5, 10, 20, 35, 50, 70},
		},
	)

	AssistFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rankdex",
			Name:      "assist_fallbacks_total",
			Help:      "Governed AI calls served by the deterministic fallback",
		},
		[]string{"capability"},
	)

	BreakerOpen = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "rankdex",
			Name:      "breaker_open",
			Help:      "Whether the capability's circuit breaker is open (1) or closed (0)",
		},
		[]string{"capability"},
	)

	TokenRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rankdex",
			Name:      "token_rejections_total",
			Help:      "Continuation tokens rejected at decode",
		},
		[]string{"reason"}, // "malformed" / "expired"
	)

	DiscoveryExpansionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rankdex",
			Name:      "discovery_expansions_total",
			Help:      "Batches augmented by seed-similarity discovery",
		},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers search pipeline metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(FusionCandidates)
	prometheus.MustRegister(AssistFallbacksTotal)
	prometheus.MustRegister(BreakerOpen)
	prometheus.MustRegister(TokenRejectionsTotal)
	prometheus.MustRegister(DiscoveryExpansionsTotal)
	searchMetricsRegistered = true
}
