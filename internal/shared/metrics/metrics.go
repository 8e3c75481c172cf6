package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry = prometheus.NewRegistry()

	ingestStartedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_started_total",
		Help: "Total document ingestions started",
	}, []string{"source"})
	ingestCompletedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_completed_total",
		Help: "Total document ingestions that produced a record",
	}, []string{"source"})
	ingestFailedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_failed_total",
		Help: "Total document ingestions rejected or aborted",
	}, []string{"reason"})
	stageDegradedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_stage_degraded_total",
		Help: "Best-effort stages that failed while the record was still kept",
	}, []string{"stage"})
	blobCleanupFailedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ingest_blob_cleanup_failed_total",
		Help: "Staged upload blobs that could not be deleted",
	})

	ingestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ingest_duration_ms",
		Help:    "Document ingestion duration in milliseconds",
		Buckets: []float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000},
	}, []string{"source"})
)

// Sources of an ingestion.
const (
	SourceUpload = "upload"
	SourceText   = "text"
)

// Degradable pipeline stages.
const (
	StageExtraction  = "extraction"
	StageTranslation = "translation"
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		ingestStartedTotal,
		ingestCompletedTotal,
		ingestFailedTotal,
		stageDegradedTotal,
		blobCleanupFailedTotal,
		ingestDuration,
	)
}

// IncIngestStarted increments the started counter.
func IncIngestStarted(source string) {
	ingestStartedTotal.WithLabelValues(source).Inc()
}

// IncIngestCompleted increments the completed counter.
func IncIngestCompleted(source string) {
	ingestCompletedTotal.WithLabelValues(source).Inc()
}

// IncIngestFailed increments the failed counter for reason.
func IncIngestFailed(reason string) {
	ingestFailedTotal.WithLabelValues(reason).Inc()
}

// IncStageDegraded counts an extraction or translation that fell back to empty text.
func IncStageDegraded(stage string) {
	stageDegradedTotal.WithLabelValues(stage).Inc()
}

// IncBlobCleanupFailed counts a staged blob left behind.
func IncBlobCleanupFailed() {
	blobCleanupFailedTotal.Inc()
}

// ObserveIngestDurationMs records an ingestion duration in milliseconds.
func ObserveIngestDurationMs(source string, value float64) {
	if value < 0 {
		value = 0
	}
	ingestDuration.WithLabelValues(source).Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
