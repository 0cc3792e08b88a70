// Package metrics defines the Prometheus collectors of the service and the
// handler that exposes them.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	OperationsTotal     *prometheus.CounterVec
	KeysIssuedTotal     *prometheus.CounterVec
	AccountsSweptTotal  prometheus.Counter
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keyvault_operations_total",
				Help: "Total number of core operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		KeysIssuedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keyvault_keys_issued_total",
				Help: "Total number of issued access keys by duration class",
			},
			[]string{"duration_class"},
		),
		AccountsSweptTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "keyvault_accounts_expired_total",
				Help: "Total number of expired accounts deleted",
			},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "keyvault_http_request_duration_seconds",
				Help:    "HTTP request latency by route and status code",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "code"},
		),
	}

	reg.MustRegister(m.OperationsTotal)
	reg.MustRegister(m.KeysIssuedTotal)
	reg.MustRegister(m.AccountsSweptTotal)
	reg.MustRegister(m.HTTPRequestDuration)

	return m
}

// NewRegistry returns a registry with the Go and process collectors, kept
// apart from the global default registry.
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return registry
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

func (m *Metrics) RecordOperation(operation, outcome string) {
	if m == nil {
		return
	}
	m.OperationsTotal.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) RecordKeyIssued(durationClass string) {
	if m == nil {
		return
	}
	m.KeysIssuedTotal.WithLabelValues(durationClass).Inc()
}

func (m *Metrics) RecordAccountsSwept(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.AccountsSweptTotal.Add(float64(n))
}

func (m *Metrics) ObserveHTTPRequest(route string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.WithLabelValues(route, strconv.Itoa(code)).Observe(elapsed.Seconds())
}
