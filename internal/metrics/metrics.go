// Package metrics exposes Prometheus collectors for the stock ledger and the
// HTTP API. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Offtake kinds used as label values.
const (
	KindConsumption = "consumption"
	KindDisposal    = "disposal"
)

// Metrics holds the application's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry
	handler  http.Handler

	supplies        prometheus.Counter
	suppliedUnits   prometheus.Counter
	offtakes        *prometheus.CounterVec
	offtakeUnits    *prometheus.CounterVec
	rejections      *prometheus.CounterVec
	txConflicts     prometheus.Counter
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New creates the registry and registers every collector.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		supplies: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zaloga_supplies_total",
			Help: "Committed supply operations.",
		}),
		suppliedUnits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zaloga_supplied_units_total",
			Help: "Units added to stock by supply operations.",
		}),
		offtakes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zaloga_offtakes_total",
			Help: "Committed offtake operations by kind.",
		}, []string{"kind"}),
		offtakeUnits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zaloga_offtake_units_total",
			Help: "Units removed from stock by kind.",
		}, []string{"kind"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zaloga_ledger_rejections_total",
			Help: "Ledger operations rejected before commit, by reason.",
		}, []string{"reason"}),
		txConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zaloga_tx_conflicts_total",
			Help: "Serialization conflicts that caused a transaction retry.",
		}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zaloga_http_requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"route", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "zaloga_http_request_duration_seconds",
			Help:    "HTTP request duration by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
	registry.MustRegister(
		m.supplies, m.suppliedUnits, m.offtakes, m.offtakeUnits,
		m.rejections, m.txConflicts, m.requestsTotal, m.requestDuration,
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// ObserveSupply records a committed supply of amount units.
func (m *Metrics) ObserveSupply(amount int) {
	if m == nil {
		return
	}
	m.supplies.Inc()
	m.suppliedUnits.Add(float64(amount))
}

// ObserveOfftake records a committed offtake of total units.
func (m *Metrics) ObserveOfftake(disposal bool, total int) {
	if m == nil {
		return
	}
	kind := KindConsumption
	if disposal {
		kind = KindDisposal
	}
	m.offtakes.WithLabelValues(kind).Inc()
	m.offtakeUnits.WithLabelValues(kind).Add(float64(total))
}

// ObserveRejection records an operation that was refused, e.g.
// "insufficient_stock" or "validation".
func (m *Metrics) ObserveRejection(reason string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(reason).Inc()
}

// ObserveConflict records a serialization conflict.
func (m *Metrics) ObserveConflict() {
	if m == nil {
		return
	}
	m.txConflicts.Inc()
}

// Handler returns the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registerer exposes the registry for extra collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

// Middleware records request count and duration per route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		route := r.Pattern
		if route == "" {
			route = "unknown"
		}
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
