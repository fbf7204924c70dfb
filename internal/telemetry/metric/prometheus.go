package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "assetgw"

// Registry holds all application metrics.
type Registry struct {
	reg *prometheus.Registry

	dispatchTotal    *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	sessionsOpen     prometheus.Gauge
	sessionsOpened   prometheus.Counter
	releaseFailures  prometheus.Counter
	poolLookups      *prometheus.CounterVec
	poolEvictions    *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
}

// NewRegistry creates a registry with process and Go runtime collectors
// plus the gateway metrics.
func NewRegistry() *Registry {
	r := &Registry{reg: prometheus.NewRegistry()}

	r.dispatchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "dispatch_total",
		Help:      "Ledger dispatches by operation and outcome.",
	}, []string{"operation", "outcome"})

	r.dispatchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "dispatch_duration_seconds",
		Help:      "Ledger dispatch latency including session setup.",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"operation"})

	r.sessionsOpen = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "sessions_open",
		Help:      "Ledger sessions currently open, pooled or in use.",
	})

	r.sessionsOpened = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "sessions_opened_total",
		Help:      "Ledger sessions dialed.",
	})

	r.releaseFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "session_release_failures_total",
		Help:      "Session close calls that returned an error.",
	})

	r.poolLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "pool",
		Name:      "lookups_total",
		Help:      "Pool checkouts by result (hit or miss).",
	}, []string{"result"})

	r.poolEvictions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "pool",
		Name:      "evictions_total",
		Help:      "Pooled sessions closed by reason.",
	}, []string{"reason"})

	r.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route and status code.",
	}, []string{"route", "code"})

	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.dispatchTotal,
		r.dispatchDuration,
		r.sessionsOpen,
		r.sessionsOpened,
		r.releaseFailures,
		r.poolLookups,
		r.poolEvictions,
		r.httpRequests,
	)

	return r
}

// Prometheus returns the underlying registry.
func (r *Registry) Prometheus() *prometheus.Registry {
	return r.reg
}

// Handler returns the /metrics handler for this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// ObserveDispatch records one finished dispatch.
func (r *Registry) ObserveDispatch(operation, outcome string, elapsed time.Duration) {
	r.dispatchTotal.WithLabelValues(operation, outcome).Inc()
	r.dispatchDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// SessionOpened records a successful dial.
func (r *Registry) SessionOpened() {
	r.sessionsOpened.Inc()
	r.sessionsOpen.Inc()
}

// SessionClosed records a session close, failed or not.
func (r *Registry) SessionClosed(err error) {
	r.sessionsOpen.Dec()
	if err != nil {
		r.releaseFailures.Inc()
	}
}

// PoolLookup records a pool checkout.
func (r *Registry) PoolLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.poolLookups.WithLabelValues(result).Inc()
}

// PoolEvicted records a pooled session dropped for reason.
func (r *Registry) PoolEvicted(reason string) {
	r.poolEvictions.WithLabelValues(reason).Inc()
}

// ObserveHTTP records one served HTTP request.
func (r *Registry) ObserveHTTP(route string, code int) {
	r.httpRequests.WithLabelValues(route, statusLabel(code)).Inc()
}

func statusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
