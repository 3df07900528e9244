package store

import (
	"context"
	"errors"
	"testing"

	"github.com/mathieuventurini/QuittanceOnClick/internal/domain"
	"github.com/mathieuventurini/QuittanceOnClick/internal/testutil"
)

// brokenStore fails every operation, simulating an unreachable backend.
type brokenStore struct{}

func (brokenStore) Load(ctx context.Context) (domain.Document, error) {
	return domain.Document{}, errors.New("connection refused")
}

func (brokenStore) Save(ctx context.Context, doc domain.Document) error {
	return errors.New("connection refused")
}

func (brokenStore) Ping(ctx context.Context) error {
	return errors.New("connection refused")
}

func TestMemoryRoundTrip(t *testing.T) {
	ctx := testutil.TestContext(t)
	s := NewMemory()

	doc, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Receipts) != 0 {
		t.Fatalf("expected empty document, got %d receipts", len(doc.Receipts))
	}

	doc.Automation.SkipNext = true
	doc.Prepend(domain.Receipt{ID: "1", Period: "Janvier 2026", Status: domain.StatusSent})
	if err := s.Save(ctx, doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Automation.SkipNext {
		t.Error("expected skipNext to persist")
	}
	if len(got.Receipts) != 1 || got.Receipts[0].ID != "1" {
		t.Errorf("expected 1 receipt with id 1, got %+v", got.Receipts)
	}
}

func TestMemoryLoadCopiesReceipts(t *testing.T) {
	ctx := testutil.TestContext(t)
	s := NewMemory()

	doc := domain.DefaultDocument()
	doc.Prepend(domain.Receipt{ID: "1"})
	if err := s.Save(ctx, doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first, _ := s.Load(ctx)
	first.Receipts[0].ID = "mutated"

	second, _ := s.Load(ctx)
	if second.Receipts[0].ID != "1" {
		t.Error("loaded document aliases stored receipts")
	}
}

func TestFallbackLoadDegradesToDefault(t *testing.T) {
	ctx := testutil.TestContext(t)
	s := NewFallback(brokenStore{})

	doc, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("expected degraded load to succeed, got %v", err)
	}
	if len(doc.Receipts) != 0 || doc.Automation.SkipNext {
		t.Errorf("expected default document, got %+v", doc)
	}
}

func TestFallbackSaveSwallowsError(t *testing.T) {
	ctx := testutil.TestContext(t)
	s := NewFallback(brokenStore{})

	if err := s.Save(ctx, domain.DefaultDocument()); err != nil {
		t.Fatalf("expected best-effort save to succeed, got %v", err)
	}
}

func TestFallbackPingSurfacesError(t *testing.T) {
	ctx := testutil.TestContext(t)
	s := NewFallback(brokenStore{})

	if err := s.Ping(ctx); err == nil {
		t.Fatal("expected ping to report the backend error")
	}
}

func TestFallbackPassesThroughHealthyBackend(t *testing.T) {
	ctx := testutil.TestContext(t)
	s := NewFallback(NewMemory())

	doc := domain.DefaultDocument()
	doc.Prepend(domain.Receipt{ID: "42"})
	if err := s.Save(ctx, doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Receipts) != 1 || got.Receipts[0].ID != "42" {
		t.Errorf("expected saved receipt back, got %+v", got.Receipts)
	}
}
