package metrics

import "time"

// NoopSink is a no-op implementation of Sink.
// Used when metrics are disabled to avoid nil checks.
type NoopSink struct{}

// NewNoopSink returns a no-op metrics sink.
func NewNoopSink() *NoopSink {
	return &NoopSink{}
}

func (n *NoopSink) IssuanceCompleted(trigger, outcome string, duration time.Duration) {}
func (n *NoopSink) DeliveryCompleted(success bool, duration time.Duration)            {}
func (n *NoopSink) StoreOp(op string, err error)                                      {}
func (n *NoopSink) AuthFailure()                                                      {}
