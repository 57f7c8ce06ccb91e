package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/ports"
)

const namespace = "newspipeline"

// Prometheus records ingestion metrics on its own registry.
type Prometheus struct {
	registry    *prometheus.Registry
	files       *prometheus.CounterVec
	runs        *prometheus.CounterVec
	runDuration prometheus.Histogram
	lastRun     prometheus.Gauge
}

var _ ports.Metrics = (*Prometheus)(nil)

// NewPrometheus registers the ingestion collectors plus the Go runtime collectors.
func NewPrometheus() *Prometheus {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Prometheus{
		registry: reg,
		files: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_files_total",
			Help:      "Files handled by ingestion runs, by outcome.",
		}, []string{"outcome"}),
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_runs_total",
			Help:      "Finished ingestion runs, by terminal status.",
		}, []string{"status"}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_run_duration_seconds",
			Help:      "Wall time of ingestion runs.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ingest_last_run_timestamp_seconds",
			Help:      "Unix time the last ingestion run finished.",
		}),
	}
}

// ObserveFile counts one file outcome (created, skipped, failed).
func (p *Prometheus) ObserveFile(outcome string) {
	p.files.WithLabelValues(outcome).Inc()
}

// ObserveRun records a finished run.
func (p *Prometheus) ObserveRun(status domain.JobStatus, elapsed time.Duration) {
	p.runs.WithLabelValues(string(status)).Inc()
	p.runDuration.Observe(elapsed.Seconds())
	p.lastRun.SetToCurrentTime()
}

// Registry exposes the underlying registry, mainly for tests.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}
