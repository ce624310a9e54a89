// Package metrics provides Prometheus metrics for the resolver service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MatchRequestsTotal tracks match lookups by tenant, entity kind and outcome
	MatchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "resolver",
			Subsystem: "matching",
			Name:      "requests_total",
			Help:      "Total number of match lookups by outcome",
		},
		[]string{"tenant_id", "entity_kind", "outcome"},
	)

	// MatchDuration tracks match lookup duration in seconds
	MatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "resolver",
			Subsystem: "matching",
			Name:      "duration_seconds",
			Help:      "Duration of match lookups in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
		[]string{"entity_kind"},
	)

	// AliasesLearnedTotal tracks aliases learned from user selections
	AliasesLearnedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "resolver",
			Subsystem: "aliases",
			Name:      "learned_total",
			Help:      "Total number of aliases learned by status",
		},
		[]string{"tenant_id", "entity_kind", "status"},
	)

	// AliasImportSkipsTotal tracks alias rows skipped during bulk import
	AliasImportSkipsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "resolver",
			Subsystem: "aliases",
			Name:      "import_skips_total",
			Help:      "Total number of alias rows skipped during bulk import",
		},
		[]string{"tenant_id", "reason"},
	)

	// CatalogSyncsTotal tracks catalog sync runs by status
	CatalogSyncsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "resolver",
			Subsystem: "catalog",
			Name:      "syncs_total",
			Help:      "Total number of catalog sync runs by status",
		},
		[]string{"tenant_id", "status"},
	)

	// CatalogEntities tracks entities currently indexed per tenant and kind
	CatalogEntities = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "resolver",
			Subsystem: "catalog",
			Name:      "entities",
			Help:      "Number of entities currently indexed",
		},
		[]string{"tenant_id", "entity_kind"},
	)

	// MatcherBuildDuration tracks matcher index build duration
	MatcherBuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "resolver",
			Subsystem: "matching",
			Name:      "build_duration_seconds",
			Help:      "Duration of matcher index builds in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"entity_kind"},
	)

	// KafkaMessagesPublished tracks Kafka messages published
	KafkaMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "resolver",
			Subsystem: "kafka",
			Name:      "messages_published_total",
			Help:      "Total number of messages published to Kafka",
		},
		[]string{"topic", "status"},
	)

	// DatabaseQueryDuration tracks database query duration
	DatabaseQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "resolver",
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Duration of database queries in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)
)

// RecordMatch records a match lookup metric
func RecordMatch(tenantID, entityKind, outcome string, durationSeconds float64) {
	MatchRequestsTotal.WithLabelValues(tenantID, entityKind, outcome).Inc()
	MatchDuration.WithLabelValues(entityKind).Observe(durationSeconds)
}

// RecordAliasLearned records an alias learning metric
func RecordAliasLearned(tenantID, entityKind, status string) {
	AliasesLearnedTotal.WithLabelValues(tenantID, entityKind, status).Inc()
}

// RecordImportSkip records an alias row skipped during bulk import
func RecordImportSkip(tenantID, reason string) {
	AliasImportSkipsTotal.WithLabelValues(tenantID, reason).Inc()
}

// RecordCatalogSync records a catalog sync run
func RecordCatalogSync(tenantID, status string) {
	CatalogSyncsTotal.WithLabelValues(tenantID, status).Inc()
}

// RecordKafkaPublish records a Kafka publish operation
func RecordKafkaPublish(topic, status string) {
	KafkaMessagesPublished.WithLabelValues(topic, status).Inc()
}
