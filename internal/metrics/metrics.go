// Package metrics exposes Prometheus instrumentation for the bracket engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns the engine's collectors. A nil *Manager is valid and records nothing.
type Manager struct {
	namespace string
	subsystem string
	buckets   []float64
	registry  *prometheus.Registry

	bracketsGenerated prometheus.Counter
	matchesSimulated  prometheus.Counter
	resultsRecorded   prometheus.Counter
	slotsPropagated   prometheus.Counter
	matchesSkipped    prometheus.Counter
	engineErrors      *prometheus.CounterVec

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

type Option func(*Manager)

func WithNamespace(namespace string) Option {
	return func(m *Manager) { m.namespace = namespace }
}

func WithRegistry(registry *prometheus.Registry) Option {
	return func(m *Manager) { m.registry = registry }
}

func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) { m.buckets = buckets }
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "blacktop",
		subsystem: "engine",
		buckets:   prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}
	m.init()
	return m
}

func (m *Manager) init() {
	auto := promauto.With(m.registry)

	m.bracketsGenerated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "brackets_generated_total",
		Help:      "Playoff brackets written by advance-to-playoffs",
	})
	m.matchesSimulated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matches_simulated_total",
		Help:      "Matches finished with a synthetic result",
	})
	m.resultsRecorded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "results_recorded_total",
		Help:      "Matches finished with a submitted score",
	})
	m.slotsPropagated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "slots_propagated_total",
		Help:      "Downstream bracket slots filled from finished matches",
	})
	m.matchesSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matches_skipped_total",
		Help:      "Pending matches skipped during phase simulation because a slot was undetermined",
	})
	m.engineErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_total",
		Help:      "Engine operation failures by operation and error kind",
	}, []string{"operation", "kind"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route, method and status code",
	}, []string{"route", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   m.buckets,
	}, []string{"route", "method"})
}

func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the manager's registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Manager) BracketGenerated() {
	if m == nil {
		return
	}
	m.bracketsGenerated.Inc()
}

func (m *Manager) MatchSimulated() {
	if m == nil {
		return
	}
	m.matchesSimulated.Inc()
}

func (m *Manager) ResultRecorded() {
	if m == nil {
		return
	}
	m.resultsRecorded.Inc()
}

func (m *Manager) SlotPropagated() {
	if m == nil {
		return
	}
	m.slotsPropagated.Inc()
}

func (m *Manager) MatchSkipped() {
	if m == nil {
		return
	}
	m.matchesSkipped.Inc()
}

func (m *Manager) EngineError(operation, kind string) {
	if m == nil {
		return
	}
	m.engineErrors.WithLabelValues(operation, kind).Inc()
}

func (m *Manager) ObserveHTTPRequest(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}
