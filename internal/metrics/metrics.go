// Package metrics exposes Prometheus counters for cache and upstream activity.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "iex_localc"

// Metrics groups the counters recorded by the add-in.
type Metrics struct {
	cacheLookups     *prometheus.CounterVec
	upstreamRequests *prometheus.CounterVec
	durableLookups   *prometheus.CounterVec
	calls            *prometheus.CounterVec
}

// New creates the counters and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "result_cache_lookups_total",
			Help:      "In-memory result cache lookups by category and outcome.",
		}, []string{"category", "outcome"}),
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Requests sent to the remote data API by HTTP status.",
		}, []string{"status"}),
		durableLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "durable_cache_lookups_total",
			Help:      "Durable cache lookups by table and outcome.",
		}, []string{"table", "outcome"}),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "function_calls_total",
			Help:      "Add-in function calls by function name.",
		}, []string{"function"}),
	}

	if reg != nil {
		reg.MustRegister(m.cacheLookups, m.upstreamRequests, m.durableLookups, m.calls)
	}
	return m
}

func outcome(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}

// CacheLookup records an in-memory cache lookup.
func (m *Metrics) CacheLookup(category string, hit bool) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(category, outcome(hit)).Inc()
}

// UpstreamRequest records a request to the remote API. statusCode is 0 when
// no response was received.
func (m *Metrics) UpstreamRequest(statusCode int) {
	if m == nil {
		return
	}
	m.upstreamRequests.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// DurableLookup records a durable cache lookup.
func (m *Metrics) DurableLookup(table string, hit bool) {
	if m == nil {
		return
	}
	m.durableLookups.WithLabelValues(table, outcome(hit)).Inc()
}

// Call records an add-in function invocation.
func (m *Metrics) Call(function string) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(function).Inc()
}
