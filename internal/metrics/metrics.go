// Package metrics holds the prometheus collectors of the directory service.
// All collectors live on a Registry owned by the caller, never on the
// global default registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "employee_directory"

// Mutation results.
const (
	ResultOK         = "ok"
	ResultInvalid    = "invalid"
	ResultNotFound   = "not_found"
	ResultPersistErr = "persist_error"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	registry *prometheus.Registry

	storeMutations *prometheus.CounterVec
	storeRecords   prometheus.Gauge
	httpRequests   *prometheus.CounterVec
	httpLatency    *prometheus.HistogramVec
	liveSessions   prometheus.Gauge
}

// New registers every collector on reg. A nil reg gets a fresh registry
// that also carries the go and process collectors.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		storeMutations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_mutations_total",
			Help:      "Total number of record store mutations.",
		}, []string{"op", "result"}),
		storeRecords: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "store_records",
			Help:      "Current number of employees in the collection.",
		}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		httpLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latency distribution of HTTP requests.",
			Buckets: []float64{
				0.001, 0.005, 0.01, 0.05,
				0.1, 0.5, 1, 5,
			},
		}, []string{"method", "route"}),
		liveSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_sessions",
			Help:      "Current number of connected live view sessions.",
		}),
	}
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveMutation(op, result string) {
	if m == nil {
		return
	}
	m.storeMutations.WithLabelValues(op, result).Inc()
}

func (m *Metrics) SetRecords(n int) {
	if m == nil {
		return
	}
	m.storeRecords.Set(float64(n))
}

func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.liveSessions.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.liveSessions.Dec()
}

// Middleware counts and times every request by its route template.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m == nil {
				return next(c)
			}
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else {
					status = http.StatusInternalServerError
				}
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			m.httpLatency.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
