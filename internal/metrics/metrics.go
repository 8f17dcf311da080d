// Package metrics exposes Prometheus collectors for the recommendation flow
// and its upstream catalog calls.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecommendationsTotal counts recommendation attempts by media type and outcome.
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watchnext_recommendations_total",
			Help: "Recommendation requests by media type and outcome",
		},
		[]string{"media_type", "outcome"},
	)

	// RecommendationDuration tracks end-to-end recommendation latency.
	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "watchnext_recommendation_duration_seconds",
			Help:    "Time spent producing a recommendation",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"media_type"},
	)

	// StrategyRuns counts retrieval strategy executions.
	StrategyRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watchnext_retrieval_strategy_runs_total",
			Help: "Retrieval strategies executed, by strategy name",
		},
		[]string{"strategy"},
	)

	// StrategyCandidates counts new candidates contributed per strategy.
	StrategyCandidates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watchnext_retrieval_strategy_candidates_total",
			Help: "New candidates added by each retrieval strategy",
		},
		[]string{"strategy"},
	)

	// UpstreamRequests counts catalog API calls by endpoint and status.
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watchnext_tmdb_requests_total",
			Help: "Calls made to the TMDB API",
		},
		[]string{"endpoint", "status"},
	)

	// CacheLookups counts catalog cache hits and misses.
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watchnext_tmdb_cache_lookups_total",
			Help: "TMDB cache lookups by kind and result",
		},
		[]string{"kind", "result"},
	)

	// CircuitBreakerState is 0 closed, 1 half-open, 2 open.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "watchnext_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// OnboardingTransitions counts onboarding session end states.
	OnboardingTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watchnext_onboarding_sessions_total",
			Help: "Onboarding sessions by terminal state",
		},
		[]string{"state"},
	)

	// PersistenceErrors counts preference store write failures.
	PersistenceErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watchnext_preference_persist_errors_total",
			Help: "Preference store writes that failed",
		},
		[]string{"key"},
	)

	// HTTPRequests counts served HTTP requests.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watchnext_http_requests_total",
			Help: "HTTP requests by method and status",
		},
		[]string{"method", "status"},
	)
)
