package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/version"
)

const namespace = "radio_sampler"

// Collector records sampling and recognition activity as Prometheus metrics
type Collector struct {
	registry *prometheus.Registry

	recognitions     *prometheus.CounterVec
	recognitionTime  *prometheus.HistogramVec
	windowAttempts   *prometheus.CounterVec
	segmentFetches   *prometheus.CounterVec
	sampleDownloads  *prometheus.CounterVec
	requestsInFlight prometheus.Gauge
}

// NewCollector creates a collector on its own registry, including the Go,
// process and build info collectors
func NewCollector(appName string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		recognitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recognitions_total",
			Help:      "Recognition requests by station and outcome.",
		}, []string{"station", "outcome"}),
		recognitionTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recognition_duration_seconds",
			Help:      "Wall time of recognition requests, freshness delay included.",
			Buckets:   []float64{1, 2.5, 5, 7.5, 10, 15, 20, 30, 45, 60},
		}, []string{"outcome"}),
		windowAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "window_attempts_total",
			Help:      "Candidate window attempts by position and result.",
		}, []string{"position", "result"}),
		segmentFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segment_fetches_total",
			Help:      "Segment fetches by result code.",
		}, []string{"result"}),
		sampleDownloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sample_downloads_total",
			Help:      "Sample download requests by station and result.",
		}, []string{"station", "result"}),
		requestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "HTTP API requests currently being served.",
		}),
	}

	registry.MustRegister(
		c.recognitions,
		c.recognitionTime,
		c.windowAttempts,
		c.segmentFetches,
		c.sampleDownloads,
		c.requestsInFlight,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		version.NewCollector(appName),
	)

	return c
}

// RecognitionCompleted records a finished recognition request
func (c *Collector) RecognitionCompleted(stationID, outcome string, duration time.Duration) {
	c.recognitions.WithLabelValues(stationID, outcome).Inc()
	c.recognitionTime.WithLabelValues(outcome).Observe(duration.Seconds())
}

// WindowAttempted records one candidate window attempt
func (c *Collector) WindowAttempted(position, result string) {
	c.windowAttempts.WithLabelValues(position, result).Inc()
}

// SegmentFetched records one segment fetch; result is "ok" or an error code
func (c *Collector) SegmentFetched(result string) {
	c.segmentFetches.WithLabelValues(result).Inc()
}

// SampleDownloaded records a sample download request
func (c *Collector) SampleDownloaded(stationID, result string) {
	c.sampleDownloads.WithLabelValues(stationID, result).Inc()
}

// InFlight wraps a handler with the in-flight request gauge
func (c *Collector) InFlight(next http.Handler) http.Handler {
	return promhttp.InstrumentHandlerInFlight(c.requestsInFlight, next)
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Registry exposes the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
