// Package metrics exposes the Prometheus counters and histograms the
// pipeline stages update, adapted from the teacher's
// internal/metrics/metrics.go: a package-level registry of domain
// counters, each labeled by source/stage rather than by sink/pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion

	RawCapturesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_raw_captures_fetched_total",
		Help: "Raw payloads fetched from connectors, labeled by source.",
	}, []string{"source"})

	RawCapturesDuplicate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_raw_captures_duplicate_total",
		Help: "Fetched payloads skipped as duplicates, labeled by source.",
	}, []string{"source"})

	ConnectorFetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_connector_fetch_errors_total",
		Help: "Connector fetch failures, labeled by source.",
	}, []string{"source"})

	PrecheckCacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_precheck_cache_size",
		Help: "Current number of entries in the ingestion pre-check cache.",
	})

	PrecheckCacheHitRate = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_precheck_cache_hit_rate",
		Help: "Fraction of pre-check cache lookups that were hits.",
	})

	PrecheckCacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_precheck_cache_evictions_total",
		Help: "Entries evicted from the ingestion pre-check cache.",
	})

	// Extraction

	ExtractionsSucceeded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_extractions_succeeded_total",
		Help: "Extraction attempts that succeeded, labeled by source.",
	}, []string{"source"})

	ExtractionsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_extractions_failed_total",
		Help: "Extraction attempts that failed, labeled by source and whether retryable.",
	}, []string{"source", "retryable"})

	ExtractionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_extraction_duration_seconds",
		Help:    "Time spent extracting a single item, labeled by source.",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})

	ExtractionCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_extraction_cache_hits_total",
		Help: "Extractions served from the extraction-hash cache instead of re-invoking an extractor.",
	})

	// Quarantine

	QuarantinedItems = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_quarantined_items_total",
		Help: "Items moved into quarantine, labeled by source.",
	}, []string{"source"})

	QuarantineRetriesSucceeded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_quarantine_retries_succeeded_total",
		Help: "Quarantine retry attempts that succeeded, labeled by source.",
	}, []string{"source"})

	QuarantineRetriesFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_quarantine_retries_failed_total",
		Help: "Quarantine retry attempts that failed, labeled by source and outcome.",
	}, []string{"source", "outcome"})

	// Merge / finalize

	EntitiesFinalized = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_entities_finalized_total",
		Help: "CanonicalEntity records upserted by the finalizer.",
	})

	MergeConflictsDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_merge_conflicts_detected_total",
		Help: "Fields flagged as conflicting during entity merge, labeled by field.",
	}, []string{"field"})

	// Orchestration runs

	OrchestrationRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_orchestration_runs_total",
		Help: "Pipeline stage invocations, labeled by stage and outcome.",
	}, []string{"stage", "outcome"})

	OrchestrationRunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_orchestration_run_duration_seconds",
		Help:    "Wall-clock duration of a pipeline stage invocation, labeled by stage.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	// Resource monitoring (internal/resource)

	ResourceLeakDetection = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "catalog_resource_leak_detection",
		Help: "Leak-detection signal (0 = healthy, >0 = leak magnitude), labeled by resource and component.",
	}, []string{"resource", "component"})
)
