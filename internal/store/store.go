// Package store persists the single JSON document holding the receipt
// history and the automation skip flag.
//
// The contract is whole-document read-modify-write: callers Load, mutate
// in memory, then Save. There is no partial update and no transactional
// guarantee against concurrent writers; two simultaneous sends can lose
// an update (last-writer-wins). Acceptable at monthly call frequency,
// documented rather than fixed.
package store

import (
	"context"

	"github.com/mathieuventurini/QuittanceOnClick/internal/domain"
)

// Store is the single polymorphic document store. One concrete backend
// is chosen at startup and injected once.
type Store interface {
	Load(ctx context.Context) (domain.Document, error)
	Save(ctx context.Context, doc domain.Document) error
	Ping(ctx context.Context) error
}
