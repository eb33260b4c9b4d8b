// Package metrics exposes the Prometheus instruments of the money-movement core.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics of the service.
type Metrics struct {
	// Registry owns these metrics and backs the /metrics endpoint.
	Registry *prometheus.Registry

	ledgerOps         *prometheus.CounterVec
	transfers         *prometheus.CounterVec
	transferStatus    *prometheus.CounterVec
	verifications     *prometheus.CounterVec
	adminActions      *prometheus.CounterVec
	sweeps            *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	operationDuration *prometheus.HistogramVec
}

// New creates a private registry and registers every metric in it, so it can
// be called more than once in tests.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		ledgerOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bank_ledger_operations_total",
				Help: "Balance mutations by direction, balance kind and outcome.",
			},
			[]string{"direction", "kind", "outcome"},
		),
		transfers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bank_transfers_initiated_total",
				Help: "Transfers initiated by type and outcome.",
			},
			[]string{"type", "outcome"},
		),
		transferStatus: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bank_transfer_status_changes_total",
				Help: "Transfer status transitions by target status.",
			},
			[]string{"status"},
		),
		verifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bank_verification_attempts_total",
				Help: "Verification submissions by step and outcome.",
			},
			[]string{"step", "outcome"},
		),
		adminActions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bank_admin_actions_total",
				Help: "Admin overrides by action.",
			},
			[]string{"action"},
		),
		sweeps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bank_sweeper_items_total",
				Help: "Transfers handled by the background sweeper.",
			},
			[]string{"action", "outcome"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bank_http_request_duration_seconds",
				Help:    "HTTP request duration by route and status code.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "code"},
		),
		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bank_operation_duration_seconds",
				Help:    "Duration of service operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// Outcome labels
const (
	OutcomeSuccess = "success"
	OutcomeNoop    = "noop"
	OutcomeFailure = "failure"
)

// IncLedger counts one balance mutation.
func (m *Metrics) IncLedger(direction, kind, outcome string) {
	if m == nil {
		return
	}
	m.ledgerOps.WithLabelValues(direction, kind, outcome).Inc()
}

// IncTransfer counts one initiation attempt.
func (m *Metrics) IncTransfer(transferType, outcome string) {
	if m == nil {
		return
	}
	m.transfers.WithLabelValues(transferType, outcome).Inc()
}

// IncTransferStatus counts a transition into status.
func (m *Metrics) IncTransferStatus(status string) {
	if m == nil {
		return
	}
	m.transferStatus.WithLabelValues(status).Inc()
}

// IncVerification counts one verification submission.
func (m *Metrics) IncVerification(step, outcome string) {
	if m == nil {
		return
	}
	m.verifications.WithLabelValues(step, outcome).Inc()
}

// IncAdmin counts one admin override.
func (m *Metrics) IncAdmin(action string) {
	if m == nil {
		return
	}
	m.adminActions.WithLabelValues(action).Inc()
}

// IncSweep counts one sweeper item.
func (m *Metrics) IncSweep(action, outcome string) {
	if m == nil {
		return
	}
	m.sweeps.WithLabelValues(action, outcome).Inc()
}

// ObserveRequest records an HTTP request.
func (m *Metrics) ObserveRequest(method, route, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, route, code).Observe(d.Seconds())
}

// ObserveOperation records the duration of a service operation.
func (m *Metrics) ObserveOperation(operation string, d time.Duration) {
	if m == nil {
		return
	}
	m.operationDuration.WithLabelValues(operation).Observe(d.Seconds())
}
