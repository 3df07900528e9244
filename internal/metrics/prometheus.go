package metrics

import (
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusSink implements Sink using the Prometheus client library.
// All methods are non-blocking and fire-and-forget.
// Registration errors are logged but never propagated.
type PrometheusSink struct {
	issuanceRunsTotal *prometheus.CounterVec
	issuanceDuration  prometheus.Histogram

	deliveriesTotal  *prometheus.CounterVec
	deliveryDuration prometheus.Histogram

	storeOpsTotal *prometheus.CounterVec

	authFailuresTotal prometheus.Counter
}

// NewPrometheusSink creates a new Prometheus metrics sink.
// Metrics that fail to register keep working as unexported collectors.
func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	s := &PrometheusSink{}

	s.issuanceRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quittance_issuance_runs_total",
		Help: "Total number of issuance workflow invocations by trigger and outcome.",
	}, []string{"trigger", "outcome"})

	s.issuanceDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "quittance_issuance_duration_seconds",
		Help:    "Duration of one issuance workflow invocation in seconds.",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
	})

	s.deliveriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quittance_deliveries_total",
		Help: "Total number of email delivery attempts by result.",
	}, []string{"result"})

	s.deliveryDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "quittance_delivery_duration_seconds",
		Help:    "Email provider request latency in seconds.",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})

	s.storeOpsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quittance_store_operations_total",
		Help: "Total number of document store operations by op and result.",
	}, []string{"op", "result"})

	s.authFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quittance_auth_failures_total",
		Help: "Total number of rejected login attempts and invalid session tokens.",
	})

	s.register(reg, s.issuanceRunsTotal, "quittance_issuance_runs_total")
	s.register(reg, s.issuanceDuration, "quittance_issuance_duration_seconds")
	s.register(reg, s.deliveriesTotal, "quittance_deliveries_total")
	s.register(reg, s.deliveryDuration, "quittance_delivery_duration_seconds")
	s.register(reg, s.storeOpsTotal, "quittance_store_operations_total")
	s.register(reg, s.authFailuresTotal, "quittance_auth_failures_total")

	return s
}

// register attempts to register a collector, logging any errors without
// propagating them.
func (s *PrometheusSink) register(reg prometheus.Registerer, c prometheus.Collector, name string) {
	if err := reg.Register(c); err != nil {
		log.Printf("metrics: failed to register %s: %v", name, err)
	}
}

func (s *PrometheusSink) IssuanceCompleted(trigger, outcome string, duration time.Duration) {
	s.issuanceRunsTotal.WithLabelValues(trigger, outcome).Inc()
	s.issuanceDuration.Observe(duration.Seconds())
}

func (s *PrometheusSink) DeliveryCompleted(success bool, duration time.Duration) {
	result := "error"
	if success {
		result = "success"
	}
	s.deliveriesTotal.WithLabelValues(result).Inc()
	s.deliveryDuration.Observe(duration.Seconds())
}

func (s *PrometheusSink) StoreOp(op string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	s.storeOpsTotal.WithLabelValues(op, result).Inc()
}

func (s *PrometheusSink) AuthFailure() {
	s.authFailuresTotal.Inc()
}
