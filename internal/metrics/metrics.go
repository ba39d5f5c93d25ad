package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cryptoverde-api/pkg/marketdata"
	"cryptoverde-api/pkg/pipeline"
)

const namespace = "cryptoverde"

var (
	_ marketdata.Observer = (*Metrics)(nil)
	_ pipeline.Observer   = (*Metrics)(nil)
)

// Metrics holds the Prometheus collectors for the pipeline and the market data client.
type Metrics struct {
	registry *prometheus.Registry

	RunsTotal        *prometheus.CounterVec
	RunDuration      prometheus.Histogram
	StageDuration    *prometheus.HistogramVec
	StageErrors      *prometheus.CounterVec
	SkippedRecords   prometheus.Counter
	UpstreamRequests *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
	CacheLookups     *prometheus.CounterVec
	LastSuccess      prometheus.Gauge
}

// New creates the collectors on a private registry, together with the Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Pipeline runs by trigger and outcome",
		}, []string{"trigger", "outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_run_duration_seconds",
			Help:      "Wall time of a full pipeline run",
			Buckets:   prometheus.DefBuckets,
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Latency of each pipeline stage",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		StageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_stage_errors_total",
			Help:      "Pipeline stages that finished with an error",
		}, []string{"stage"}),
		SkippedRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_records_skipped_total",
			Help:      "Raw records dropped by the transformer",
		}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Upstream market data requests by operation and result",
		}, []string{"op", "success"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream market data request latency",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}, []string{"op"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "historical_cache_lookups_total",
			Help:      "Historical cache lookups by result",
		}, []string{"result"}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful pipeline run",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RunsTotal,
		m.RunDuration,
		m.StageDuration,
		m.StageErrors,
		m.SkippedRecords,
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.CacheLookups,
		m.LastSuccess,
	)
	return m
}

// Registry exposes the private registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the exposition format for the private registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// StageFinished implements pipeline.Observer.
func (m *Metrics) StageFinished(stage pipeline.Stage, d time.Duration, err error) {
	m.StageDuration.WithLabelValues(string(stage)).Observe(d.Seconds())
	if err != nil {
		m.StageErrors.WithLabelValues(string(stage)).Inc()
	}
}

// RunFinished implements pipeline.Observer.
func (m *Metrics) RunFinished(trigger pipeline.Trigger, outcome pipeline.Outcome, d time.Duration) {
	m.RunsTotal.WithLabelValues(string(trigger), string(outcome)).Inc()
	m.RunDuration.Observe(d.Seconds())
	if outcome == pipeline.OutcomeSuccess {
		m.LastSuccess.SetToCurrentTime()
	}
}

// RecordsSkipped implements pipeline.Observer.
func (m *Metrics) RecordsSkipped(n int) {
	if n > 0 {
		m.SkippedRecords.Add(float64(n))
	}
}

// UpstreamRequest implements marketdata.Observer.
func (m *Metrics) UpstreamRequest(op string, d time.Duration, err error) {
	m.UpstreamRequests.WithLabelValues(op, strconv.FormatBool(err == nil)).Inc()
	m.UpstreamDuration.WithLabelValues(op).Observe(d.Seconds())
}

// CacheLookup implements marketdata.Observer.
func (m *Metrics) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}
