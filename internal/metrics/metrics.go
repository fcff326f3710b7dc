// Package metrics holds the Prometheus collectors for the pipeline. All of
// them register on the default registry and are served at /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "curator_generation_duration_seconds",
			Help:    "Duration of completion calls by agent",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 32},
		},
		[]string{"agent"},
	)

	GenerationResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curator_generation_results_total",
			Help: "Agent results by outcome (ok, parse_error, transport_error)",
		},
		[]string{"agent", "outcome"},
	)

	IntentsRouted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curator_intents_routed_total",
			Help: "Queries routed per detected intent; defaulted is true when the label fell back",
		},
		[]string{"intent", "defaulted"},
	)

	SchemaViolations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curator_schema_violations_total",
			Help: "Generator outputs that failed schema validation before repair",
		},
		[]string{"agent"},
	)

	RepairActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curator_repair_actions_total",
			Help: "Fields repaired in generator output",
		},
		[]string{"action"},
	)

	RetrievalHits = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "curator_retrieval_hits",
			Help:    "Number of results returned by a similarity lookup",
			Buckets: []float64{0, 1, 2, 3, 5, 10, 20},
		},
		[]string{"kind"},
	)

	RetrievalErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curator_retrieval_errors_total",
			Help: "Similarity lookups that failed and degraded to empty",
		},
		[]string{"kind"},
	)

	MemoryWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curator_memory_writes_total",
			Help: "Memory writes by type and outcome (ok, retried, failed, dropped)",
		},
		[]string{"memory_type", "outcome"},
	)

	WriterQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "curator_memory_writer_queue_depth",
			Help: "Conversation writes waiting in the async writer",
		},
	)

	MemoriesPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "curator_memories_pruned_total",
			Help: "Memories deleted by the retention policy",
		},
	)

	ConsumerEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curator_consumer_events_total",
			Help: "Activity events by outcome (stored, discarded, failed)",
		},
		[]string{"outcome"},
	)

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "curator_circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "curator_api_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// RecordGeneration observes one completion call.
func RecordGeneration(agent, outcome string, d time.Duration) {
	GenerationDuration.WithLabelValues(agent).Observe(d.Seconds())
	GenerationResults.WithLabelValues(agent, outcome).Inc()
}

// RecordIntent counts a routing decision.
func RecordIntent(intent string, defaulted bool) {
	IntentsRouted.WithLabelValues(intent, strconv.FormatBool(defaulted)).Inc()
}

func RecordRetrieval(kind string, hits int, err error) {
	if err != nil {
		RetrievalErrors.WithLabelValues(kind).Inc()
		return
	}
	RetrievalHits.WithLabelValues(kind).Observe(float64(hits))
}

// RecordAPIRequest observes one HTTP request.
func RecordAPIRequest(method, route string, status int, d time.Duration) {
	APIRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
