package store

import (
	"context"
	"sync"

	"github.com/mathieuventurini/QuittanceOnClick/internal/domain"
)

// Memory is the ephemeral backend used when neither redis nor postgres
// is configured. Everything is lost on restart; serve logs a warning at
// startup when this backend is selected.
type Memory struct {
	mu  sync.Mutex
	doc domain.Document
}

func NewMemory() *Memory {
	return &Memory{doc: domain.DefaultDocument()}
}

func (s *Memory) Load(ctx context.Context) (domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.doc), nil
}

func (s *Memory) Save(ctx context.Context, doc domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = clone(doc)
	return nil
}

func (s *Memory) Ping(ctx context.Context) error {
	return nil
}

// clone copies the receipt slice so callers cannot alias the stored
// document through a returned slice header.
func clone(doc domain.Document) domain.Document {
	out := doc
	out.Receipts = make([]domain.Receipt, len(doc.Receipts))
	copy(out.Receipts, doc.Receipts)
	return out
}
