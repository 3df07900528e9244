package store

import (
	"context"
	"log"

	"github.com/mathieuventurini/QuittanceOnClick/internal/domain"
)

// MetricsSink records store operation outcomes. Implementations must
// not block or propagate errors.
type MetricsSink interface {
	StoreOp(op string, err error)
}

// Fallback wraps a backend so requests keep working when it is down:
// Load degrades to the default empty document and Save is best-effort.
// A failed Save is silent data loss; that risk is accepted for this
// single-operator service and logged every time it happens.
type Fallback struct {
	backend Store
	metrics MetricsSink // optional, nil = disabled
}

func NewFallback(backend Store) *Fallback {
	return &Fallback{backend: backend}
}

// WithMetrics attaches a metrics sink to the wrapper.
func (s *Fallback) WithMetrics(sink MetricsSink) *Fallback {
	s.metrics = sink
	return s
}

func (s *Fallback) Load(ctx context.Context) (domain.Document, error) {
	doc, err := s.backend.Load(ctx)
	if s.metrics != nil {
		s.metrics.StoreOp("load", err)
	}
	if err != nil {
		log.Printf("store: load failed, serving default document: %v", err)
		return domain.DefaultDocument(), nil
	}
	return doc, nil
}

func (s *Fallback) Save(ctx context.Context, doc domain.Document) error {
	err := s.backend.Save(ctx, doc)
	if s.metrics != nil {
		s.metrics.StoreOp("save", err)
	}
	if err != nil {
		log.Printf("store: save failed, document not persisted: %v", err)
	}
	return nil
}

func (s *Fallback) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}
