package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mathieuventurini/QuittanceOnClick/internal/domain"
)

const (
	queryCreateTable = `
CREATE TABLE IF NOT EXISTS documents (
    key TEXT PRIMARY KEY,
    doc JSONB NOT NULL
)
`

	queryGetDocument = `
SELECT doc FROM documents WHERE key = $1
`

	querySaveDocument = `
INSERT INTO documents (key, doc)
VALUES ($1, $2)
ON CONFLICT (key) DO UPDATE SET doc = EXCLUDED.doc
`
)

// Postgres stores the document as a single jsonb row. The table holds
// exactly one row; the upsert keeps the whole-document contract.
type Postgres struct {
	db *sql.DB
}

// NewPostgres creates the backing table if needed and returns the store.
func NewPostgres(ctx context.Context, db *sql.DB) (*Postgres, error) {
	if _, err := db.ExecContext(ctx, queryCreateTable); err != nil {
		return nil, fmt.Errorf("create documents table: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (s *Postgres) Load(ctx context.Context) (domain.Document, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, queryGetDocument, documentKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DefaultDocument(), nil
	}
	if err != nil {
		return domain.Document{}, fmt.Errorf("postgres get: %w", err)
	}

	var doc domain.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.Document{}, fmt.Errorf("postgres document decode: %w", err)
	}
	if doc.Receipts == nil {
		doc.Receipts = []domain.Receipt{}
	}
	return doc, nil
}

func (s *Postgres) Save(ctx context.Context, doc domain.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("document encode: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, querySaveDocument, documentKey, raw); err != nil {
		return fmt.Errorf("postgres upsert: %w", err)
	}
	return nil
}

func (s *Postgres) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
