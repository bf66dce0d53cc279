package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "chemequip_"

	// ResultSuccess and ResultError label operation outcomes.
	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	registerOnce sync.Once

	uploadRequests *prometheus.CounterVec
	uploadLatency  *prometheus.HistogramVec
	ingestErrors   *prometheus.CounterVec
	skippedRows    prometheus.Counter

	exportRequests *prometheus.CounterVec
	exportLatency  *prometheus.HistogramVec

	datasetDeletes *prometheus.CounterVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		uploadRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "upload_requests_total",
				Help: "Total dataset upload requests by result",
			},
			[]string{"result"},
		)
		uploadLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "upload_latency_seconds",
				Help:    "Dataset upload latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		ingestErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_errors_total",
				Help: "Total rejected uploads by reason",
			},
			[]string{"reason"},
		)
		skippedRows = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_skipped_rows_total",
				Help: "Total data rows skipped during ingestion",
			},
		)

		exportRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_requests_total",
				Help: "Total report export requests by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Report export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		datasetDeletes = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "dataset_deletes_total",
				Help: "Total dataset delete requests by result",
			},
			[]string{"result"},
		)

		prometheus.MustRegister(
			uploadRequests,
			uploadLatency,
			ingestErrors,
			skippedRows,
			exportRequests,
			exportLatency,
			datasetDeletes,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveUpload records upload duration and result.
func ObserveUpload(result string, duration time.Duration) {
	if result == "" {
		result = ResultSuccess
	}
	if uploadRequests != nil {
		uploadRequests.WithLabelValues(result).Inc()
	}
	if uploadLatency != nil {
		uploadLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncIngestError increments rejected-upload counter.
func IncIngestError(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	if ingestErrors != nil {
		ingestErrors.WithLabelValues(reason).Inc()
	}
}

// AddSkippedRows increments the skipped-row counter by count.
func AddSkippedRows(count int) {
	if count <= 0 {
		return
	}
	if skippedRows != nil {
		skippedRows.Add(float64(count))
	}
}

// ObserveExport records export latency by format and result.
func ObserveExport(format, result string, duration time.Duration) {
	if result == "" {
		result = ResultSuccess
	}
	if exportRequests != nil {
		exportRequests.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// IncDatasetDelete increments delete counter by result.
func IncDatasetDelete(result string) {
	if result == "" {
		result = ResultSuccess
	}
	if datasetDeletes != nil {
		datasetDeletes.WithLabelValues(result).Inc()
	}
}
