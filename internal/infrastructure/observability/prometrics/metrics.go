package prometrics

import (
	"sync"

	"github.com/Zhima-Mochi/storefront/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
)

// Registry owns the Prometheus vectors behind the observability metric ports.
// It also serves them back by MetricKey, so it satisfies observability.Metrics.
type Registry struct {
	counters   sync.Map // name -> *prometheus.CounterVec
	histograms sync.Map // name -> *prometheus.HistogramVec
	namespace  string
	subsystem  string
	registerer prometheus.Registerer
}

// New creates a registry. A nil registerer means prometheus.DefaultRegisterer.
func New(namespace, subsystem string, registerer prometheus.Registerer) *Registry {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	return &Registry{namespace: namespace, subsystem: subsystem, registerer: registerer}
}

// RegisterDefaults declares every metric the application emits.
func (r *Registry) RegisterDefaults() *Registry {
	r.NewCounter(string(observability.MUsecaseRequests), "Total number of use case invocations.", "use_case", "outcome")
	r.NewHistogram(string(observability.MUsecaseDuration), "Duration of use case execution in seconds.", prometheus.DefBuckets, "use_case")
	r.NewCounter(string(observability.MHTTPRequests), "Total number of HTTP requests.", "method", "route", "status")
	r.NewHistogram(string(observability.MHTTPRequestDuration), "HTTP request latency in seconds.", prometheus.DefBuckets, "method", "route", "status")
	r.NewCounter(string(observability.MExternalRequests), "Calls made to external peers.", "peer", "endpoint", "outcome")
	r.NewHistogram(string(observability.MExternalRequestDuration), "Latency of calls made to external peers.", prometheus.DefBuckets, "peer", "endpoint")
	r.NewCounter(string(observability.MEventPublishFailures), "Count of domain event publish failures.", "event")
	r.NewCounter(string(observability.MStockCompensations), "Stock restores issued after a failed order placement.", "outcome")
	r.NewCounter(string(observability.MEventsDropped), "Events a subscriber never saw because its queue was full.", "event")
	return r
}

type counter struct{ v *prometheus.CounterVec }

func (c *counter) Add(d float64, labels ...observability.Label) {
	c.v.With(labelMap(labels)).Add(d)
}

func (c *counter) Bind(labels ...observability.Label) observability.BoundCounter {
	return &boundCounter{v: c.v, labels: labelMap(labels)}
}

type boundCounter struct {
	v      *prometheus.CounterVec
	labels prometheus.Labels
}

func (c *boundCounter) Add(d float64) {
	if c == nil || c.v == nil {
		return
	}
	c.v.With(c.labels).Add(d)
}

type histogram struct{ v *prometheus.HistogramVec }

func (h *histogram) Observe(v float64, labels ...observability.Label) {
	h.v.With(labelMap(labels)).Observe(v)
}

func (h *histogram) Bind(labels ...observability.Label) observability.BoundHistogram {
	return &boundHistogram{v: h.v, labels: labelMap(labels)}
}

type boundHistogram struct {
	v      *prometheus.HistogramVec
	labels prometheus.Labels
}

func (h *boundHistogram) Observe(v float64) {
	if h == nil || h.v == nil {
		return
	}
	h.v.With(h.labels).Observe(v)
}

func labelMap(ls []observability.Label) prometheus.Labels {
	m := make(prometheus.Labels, len(ls))
	for _, l := range ls {
		m[l.Key] = l.Value
	}
	return m
}

// NewCounter registers (once) and returns a counter vector.
func (r *Registry) NewCounter(name string, help string, labelKeys ...string) observability.Counter {
	if v, ok := r.counters.Load(name); ok {
		return &counter{v: v.(*prometheus.CounterVec)}
	}
	cv := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace, Subsystem: r.subsystem, Name: name, Help: help,
	}, labelKeys)
	r.registerer.MustRegister(cv)
	actual, _ := r.counters.LoadOrStore(name, cv)
	return &counter{v: actual.(*prometheus.CounterVec)}
}

// NewHistogram registers (once) and returns a histogram vector.
func (r *Registry) NewHistogram(name string, help string, buckets []float64, labelKeys ...string) observability.Histogram {
	if v, ok := r.histograms.Load(name); ok {
		return &histogram{v: v.(*prometheus.HistogramVec)}
	}
	hv := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace, Subsystem: r.subsystem, Name: name, Help: help, Buckets: buckets,
	}, labelKeys)
	r.registerer.MustRegister(hv)
	actual, _ := r.histograms.LoadOrStore(name, hv)
	return &histogram{v: actual.(*prometheus.HistogramVec)}
}

// Counter returns a registered counter, or a no-op one for unknown keys.
func (r *Registry) Counter(name observability.MetricKey) observability.Counter {
	if v, ok := r.counters.Load(string(name)); ok {
		return &counter{v: v.(*prometheus.CounterVec)}
	}
	return observability.NopCounter()
}

// Histogram returns a registered histogram, or a no-op one for unknown keys.
func (r *Registry) Histogram(name observability.MetricKey) observability.Histogram {
	if v, ok := r.histograms.Load(string(name)); ok {
		return &histogram{v: v.(*prometheus.HistogramVec)}
	}
	return observability.NopHistogram()
}
