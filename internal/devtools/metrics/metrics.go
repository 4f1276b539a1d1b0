// Package metrics exports profiler reports as Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zeusync/usuarios/internal/devtools"
	"github.com/zeusync/usuarios/internal/devtools/collector"
)

// Collector turns each profiler report into request counters and memory gauges.
type Collector struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	memoryPeak      prometheus.Gauge
	memoryEnd       prometheus.Gauge
	eventSamples    *prometheus.CounterVec
	eventMemory     *prometheus.GaugeVec
	eventDifference *prometheus.GaugeVec
}

func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "usuarios"
	}

	c := &Collector{registry: prometheus.NewRegistry()}

	c.requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "devtools",
			Name:      "requests_total",
			Help:      "Total number of profiled requests",
		},
		[]string{"method", "status"},
	)

	c.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "devtools",
			Name:      "request_duration_seconds",
			Help:      "Duration of profiled requests",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		},
		[]string{"method"},
	)

	c.memoryPeak = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "devtools",
			Name:      "memory_peak_bytes",
			Help:      "Peak process memory reported by the last profiled request",
		},
	)

	c.memoryEnd = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "devtools",
			Name:      "memory_end_bytes",
			Help:      "Process memory at the end of the last profiled request",
		},
	)

	c.eventSamples = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "devtools",
			Name:      "event_samples_total",
			Help:      "Total number of memory samples taken per lifecycle event",
		},
		[]string{"event"},
	)

	c.eventMemory = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "devtools",
			Name:      "event_memory_bytes",
			Help:      "Process memory sampled at each lifecycle event of the last profiled request",
		},
		[]string{"event"},
	)

	c.eventDifference = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "devtools",
			Name:      "event_memory_difference_bytes",
			Help:      "Change in process memory since the previous lifecycle event of the last profiled request",
		},
		[]string{"event"},
	)

	c.registry.MustRegister(
		c.requests,
		c.requestDuration,
		c.memoryPeak,
		c.memoryEnd,
		c.eventSamples,
		c.eventMemory,
		c.eventDifference,
	)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Observe records a report. It is registered with Profiler.OnReport.
func (c *Collector) Observe(r devtools.Report) {
	c.requests.WithLabelValues(r.Method, strconv.Itoa(r.Status)).Inc()
	c.requestDuration.WithLabelValues(r.Method).Observe(r.Duration.Seconds())

	data, ok := r.Collectors[collector.MemoryName].(collector.MemoryData)
	if !ok {
		return
	}
	c.memoryPeak.Set(float64(data.Memory))
	c.memoryEnd.Set(float64(data.End))
	for _, sample := range data.Event[collector.ApplicationID] {
		c.eventSamples.WithLabelValues(sample.Name).Inc()
		c.eventMemory.WithLabelValues(sample.Name).Set(float64(sample.Memory))
	}
	for _, sample := range data.Application {
		c.eventDifference.WithLabelValues(sample.Name).Set(float64(sample.Difference))
	}
}
