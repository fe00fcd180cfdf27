// Package metrics exposes the prometheus instrumentation of the API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trezcool/gmao/core/dashboard"
	"github.com/trezcool/gmao/core/events"
)

const namespace = "gmao"

// Metrics is safe to use as a nil pointer, every method is then a no-op.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	reloadDuration    prometheus.Histogram
	reloadErrors      prometheus.Counter
	records           *prometheus.GaugeVec
	taskEvents        *prometheus.CounterVec
	streamClients     prometheus.Gauge
}

var _ dashboard.Observer = (*Metrics)(nil) // interface compliance check

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total count of HTTP requests processed by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Histogram of HTTP request durations by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		reloadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dashboard_reload_duration_seconds",
			Help:      "Histogram of dashboard data set reload durations.",
			Buckets:   prometheus.DefBuckets,
		}),
		reloadErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dashboard_reload_errors_total",
			Help:      "Total dashboard reloads that failed.",
		}),
		records: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dashboard_records",
			Help:      "Records kept by the last dashboard reload, by kind.",
		}, []string{"kind"}),
		taskEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_events_total",
			Help:      "Total task change events, by type.",
		}, []string{"type"}),
		streamClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "task_stream_clients",
			Help:      "Websocket clients connected to the task stream.",
		}),
	}

	m.registry.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpDuration,
		m.reloadDuration,
		m.reloadErrors,
		m.records,
		m.taskEvents,
		m.streamClients,
	)
	return m
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(method, route string, status int, took time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(took.Seconds())
}

func (m *Metrics) ObserveReload(took time.Duration, ds dashboard.DataSet, err error) {
	if m == nil {
		return
	}
	m.reloadDuration.Observe(took.Seconds())
	if err != nil {
		m.reloadErrors.Inc()
		return
	}
	m.records.WithLabelValues(dashboard.KindFailures).Set(float64(len(ds.Failures)))
	m.records.WithLabelValues(dashboard.KindWorkload).Set(float64(len(ds.Workload)))
}

func (m *Metrics) ObserveTaskEvent(evt events.Event) {
	if m == nil {
		return
	}
	m.taskEvents.WithLabelValues(evt.Type).Inc()
}

func (m *Metrics) StreamConnected() {
	if m == nil {
		return
	}
	m.streamClients.Inc()
}

func (m *Metrics) StreamDisconnected() {
	if m == nil {
		return
	}
	m.streamClients.Dec()
}
