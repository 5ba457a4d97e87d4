// Package metrics provides Prometheus metrics for airrsanity audit runs.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager holds the Prometheus collectors of one audit process.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Count reconciliation
	reconciliations      *prometheus.CounterVec
	annotationMissing    prometheus.Counter
	annotationCountError prometheus.Counter

	// Field mapping
	fieldMismatches      prometheus.Counter
	typeMismatches       prometheus.Counter
	mappingFieldsMissing *prometheus.CounterVec

	// Statistics endpoint
	statsChecks *prometheus.CounterVec

	// Remote queries
	queryRequests *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "airrsanity",
		subsystem:        "audit",
		histogramBuckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.reconciliations = auto.NewCounterVec(
		m.counterOpts("reconciliations_total", "Count reconciliations by verdict"),
		[]string{"verdict"},
	)
	m.annotationMissing = auto.NewCounter(
		m.counterOpts("annotation_files_missing_total", "Declared annotation files absent from the annotation directory"),
	)
	m.annotationCountError = auto.NewCounter(
		m.counterOpts("annotation_count_errors_total", "Annotation files that could not be counted"),
	)

	m.fieldMismatches = auto.NewCounter(
		m.counterOpts("field_mismatches_total", "Metadata and API value pairs that disagree"),
	)
	m.typeMismatches = auto.NewCounter(
		m.counterOpts("type_mismatches_total", "API columns whose kind differs from the declared AIRR type"),
	)
	m.mappingFieldsMissing = auto.NewCounterVec(
		m.counterOpts("mapping_fields_missing_total", "Mapped fields missing from one side"),
		[]string{"side"},
	)

	m.statsChecks = auto.NewCounterVec(
		m.counterOpts("stats_checks_total", "Statistics checks by check and result"),
		[]string{"check", "result"},
	)

	m.queryRequests = auto.NewCounterVec(
		m.counterOpts("query_requests_total", "Remote queries by endpoint and outcome"),
		[]string{"endpoint", "outcome"},
	)
	m.queryDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "query_duration_milliseconds",
			Help:        "Remote query duration in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: m.constLabels,
		},
		[]string{"endpoint"},
	)
}

// RecordReconciliation counts one reconciliation verdict.
func RecordReconciliation(verdict string) {
	globalManager.reconciliations.WithLabelValues(verdict).Inc()
}

// RecordAnnotationFilesMissing adds declared files that were not found.
func RecordAnnotationFilesMissing(n int) {
	globalManager.annotationMissing.Add(float64(n))
}

// RecordAnnotationCountError increments the annotation counting failures.
func RecordAnnotationCountError() {
	globalManager.annotationCountError.Inc()
}

// RecordFieldMismatches adds content check mismatches.
func RecordFieldMismatches(n int) {
	globalManager.fieldMismatches.Add(float64(n))
}

// RecordTypeMismatches adds declared type mismatches.
func RecordTypeMismatches(n int) {
	globalManager.typeMismatches.Add(float64(n))
}

// RecordMappingFieldsMissing adds mapped fields missing on side "api" or
// "metadata".
func RecordMappingFieldsMissing(side string, n int) {
	globalManager.mappingFieldsMissing.WithLabelValues(side).Add(float64(n))
}

// RecordStatsCheck counts one statistics check outcome.
func RecordStatsCheck(check string, passed bool) {
	globalManager.statsChecks.WithLabelValues(check, result(passed)).Inc()
}

// RecordQueryRequest counts one remote query.
func RecordQueryRequest(endpoint, outcome string) {
	globalManager.queryRequests.WithLabelValues(endpoint, outcome).Inc()
}

// RecordQueryDuration records a remote query duration in milliseconds.
func RecordQueryDuration(endpoint string, durationMs float64) {
	globalManager.queryDuration.WithLabelValues(endpoint).Observe(durationMs)
}

// WriteTextfile writes the custom registry to path in the text exposition
// format read by the node exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, customRegistry); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteTextfile, err)
	}
	return nil
}

func result(passed bool) string {
	if passed {
		return "pass"
	}
	return "fail"
}
