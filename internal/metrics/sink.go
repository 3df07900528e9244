package metrics

import "time"

// Sink defines the interface for recording metrics.
// All methods are fire-and-forget: implementations MUST NOT block or
// propagate errors. If the metrics backend is unavailable,
// implementations log warnings and continue.
type Sink interface {
	// Issuance workflow metrics
	IssuanceCompleted(trigger string, outcome string, duration time.Duration)

	// Delivery metrics
	DeliveryCompleted(success bool, duration time.Duration)

	// Store metrics
	StoreOp(op string, err error)

	// Auth metrics
	AuthFailure()
}

// Trigger label values for IssuanceCompleted.
const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
)
