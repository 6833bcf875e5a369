package wallet

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// NoopMetricsCollector is a no-op implementation of MetricsCollector
type NoopMetricsCollector struct{}

func (n *NoopMetricsCollector) RecordEntry(string, string, float64) {}
func (n *NoopMetricsCollector) RecordError(string, string)          {}

var (
	ledgerEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutorpay_ledger_entries_total",
			Help: "Total number of ledger entries applied",
		},
		[]string{"type", "reason"},
	)

	ledgerVolume = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutorpay_ledger_volume_total",
			Help: "Total amount moved through the ledger",
		},
		[]string{"type", "reason"},
	)

	ledgerErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutorpay_ledger_errors_total",
			Help: "Total number of ledger operation errors",
		},
		[]string{"operation", "error"},
	)
)

// PrometheusCollector records ledger metrics to the default registry.
type PrometheusCollector struct{}

func NewPrometheusCollector() *PrometheusCollector { return &PrometheusCollector{} }

func (c *PrometheusCollector) RecordEntry(entryType, reason string, amount float64) {
	ledgerEntriesTotal.WithLabelValues(entryType, reason).Inc()
	ledgerVolume.WithLabelValues(entryType, reason).Add(amount)
}

func (c *PrometheusCollector) RecordError(operation, errType string) {
	ledgerErrorsTotal.WithLabelValues(operation, errType).Inc()
}
