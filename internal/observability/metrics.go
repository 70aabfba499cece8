package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sonify"

// Metrics holds the Prometheus counters, histograms, and gauges for the sonification pipeline.
type Metrics struct {
	// Per-file download metrics.
	FilesTotal      *prometheus.CounterVec // labels: outcome={success,empty,decode_failed,fetch_failed}
	FetchAttempts   prometheus.Counter
	FetchRetries    prometheus.Counter
	BytesDownloaded prometheus.Counter
	FetchDuration   prometheus.Histogram
	FetchCache      *prometheus.CounterVec // labels: result={hit,miss}

	// Per-folder metrics.
	FoldersTotal    *prometheus.CounterVec   // labels: status={exported,no_files,no_data,export_failed}
	ExportDuration  *prometheus.HistogramVec // labels: format={wav,mp3}
	SamplesExported prometheus.Counter
	SamplesClipped  prometheus.Counter

	PipelineRunning  prometheus.Gauge
	LastRunTimestamp prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, to
// avoid "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FilesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_total",
			Help:      "MiniSEED files processed, by outcome.",
		}, []string{"outcome"}),
		FetchAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_attempts_total",
			Help:      "HTTP GET attempts against the archive.",
		}),
		FetchRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_retries_total",
			Help:      "Fetch attempts that were retried after a failure.",
		}),
		BytesDownloaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_downloaded_total",
			Help:      "Bytes reported by HEAD size probes of processed files.",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of a complete fetch including retries.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		FetchCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_cache_total",
			Help:      "Decoded file cache lookups by result.",
		}, []string{"result"}),
		FoldersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "folders_total",
			Help:      "Folders processed, by final status.",
		}, []string{"status"}),
		ExportDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "export_duration_seconds",
			Help:      "Time spent writing an audio file.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"format"}),
		SamplesExported: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_exported_total",
			Help:      "16-bit samples written to audio files.",
		}),
		SamplesClipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_clipped_total",
			Help:      "Samples clamped to the 16-bit range during normalization.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a run is in progress, 0 otherwise.",
		}),
		LastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time at which the last run finished.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.FilesTotal,
		m.FetchAttempts,
		m.FetchRetries,
		m.BytesDownloaded,
		m.FetchDuration,
		m.FetchCache,
		m.FoldersTotal,
		m.ExportDuration,
		m.SamplesExported,
		m.SamplesClipped,
		m.PipelineRunning,
		m.LastRunTimestamp,
	}
}
