package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	observationsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ckdmonitor_observations_skipped_total",
			Help: "Observation records excluded from aggregation for missing or unparseable dates",
		},
	)

	cycleAdvances = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ckdmonitor_cycle_advances_total",
			Help: "Cohort cycle advances by outcome",
		},
		[]string{"status"},
	)

	simulationResets = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ckdmonitor_simulation_resets_total",
			Help: "Simulation resets by outcome",
		},
		[]string{"status"},
	)

	analysesRequested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ckdmonitor_analyses_requested_total",
			Help: "Risk analyses proxied to the AI scoring backend",
		},
	)

	dashboardCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ckdmonitor_dashboard_cache_lookups_total",
			Help: "Assembled patient dashboard cache lookups by result",
		},
		[]string{"result"},
	)
)

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// AddSkippedObservations records observations excluded during normalization
func AddSkippedObservations(n int) {
	if n > 0 {
		observationsSkipped.Add(float64(n))
	}
}

// IncCycleAdvance records one advance round trip
func IncCycleAdvance(success bool) {
	cycleAdvances.WithLabelValues(outcome(success)).Inc()
}

// IncSimulationReset records one reset round trip
func IncSimulationReset(success bool) {
	simulationResets.WithLabelValues(outcome(success)).Inc()
}

// IncAnalysisRequested records one proxied risk analysis
func IncAnalysisRequested() {
	analysesRequested.Inc()
}

// IncCacheHit records a dashboard served from the display cache
func IncCacheHit() {
	dashboardCacheLookups.WithLabelValues("hit").Inc()
}

// IncCacheMiss records a dashboard recomputed on a cache miss
func IncCacheMiss() {
	dashboardCacheLookups.WithLabelValues("miss").Inc()
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
