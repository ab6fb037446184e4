// Package metrics exposes Prometheus instrumentation of ingestion, storage maintenance and reports.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingestion outcomes used as the "result" label.
const (
	ResultQueued   = "queued"
	ResultRejected = "rejected"
	ResultThrottle = "throttled"
	ResultDropped  = "dropped"
)

var (
	// IngestRequests counts ingestion requests by kind (tps, session) and result.
	IngestRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nadir_ingest_requests_total",
		Help: "Total number of ingestion requests by kind and result",
	}, []string{"kind", "result"})

	// JobsProcessed counts background jobs written to storage.
	JobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nadir_jobs_processed_total",
		Help: "Total number of ingestion jobs processed by kind",
	}, []string{"kind"})

	// JobFailures counts background jobs that failed to persist.
	JobFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nadir_job_failures_total",
		Help: "Total number of ingestion jobs that failed to persist",
	}, []string{"kind"})

	// QueueLength is the current number of queued ingestion jobs.
	QueueLength = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nadir_queue_length",
		Help: "Current number of queued ingestion jobs",
	})

	// ReportDuration measures how long report computations take.
	ReportDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nadir_report_duration_seconds",
		Help:    "Report computation duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"report"})

	// SamplesPruned counts performance samples removed by maintenance.
	SamplesPruned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nadir_samples_pruned_total",
		Help: "Total number of performance samples pruned",
	})

	// ServerProbes counts A2S probes by outcome.
	ServerProbes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nadir_server_probes_total",
		Help: "Total number of A2S server probes by outcome",
	}, []string{"reachable"})
)

// ObserveReport records the duration of a report computation started at start.
func ObserveReport(name string, start time.Time) {
	ReportDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
}
