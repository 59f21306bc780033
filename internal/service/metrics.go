package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes Prometheus collectors for the pull payment service.
type Metrics struct {
	ClaimsTotal    *prometheus.CounterVec
	ApprovalsTotal *prometheus.CounterVec
	MarkPaidTotal  *prometheus.CounterVec
	CommandFaults  prometheus.Counter
	QueueDepth     prometheus.Gauge
}

// NewMetrics creates the service collectors, registered with reg. A nil
// registerer yields unregistered collectors, which tests rely on.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ClaimsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pullpayments",
			Name:      "claims_total",
			Help:      "Claim commands processed, by result.",
		}, []string{"result"}),
		ApprovalsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pullpayments",
			Name:      "approvals_total",
			Help:      "Approval commands processed, by result.",
		}, []string{"result"}),
		MarkPaidTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pullpayments",
			Name:      "mark_paid_total",
			Help:      "Mark-paid commands processed, by result.",
		}, []string{"result"}),
		CommandFaults: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "pullpayments",
			Name:      "command_faults_total",
			Help:      "Commands that faulted instead of producing a domain result.",
		}),
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "pullpayments",
			Name:      "queue_depth",
			Help:      "Items waiting in the serialized command queue.",
		}),
	}
}
