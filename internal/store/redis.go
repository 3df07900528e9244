package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/mathieuventurini/QuittanceOnClick/internal/domain"
)

// documentKey is the single key the whole document lives under.
const documentKey = "quittance:db"

// Redis stores the document as one JSON value, mirroring the key-value
// layout the service has always used.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (s *Redis) Load(ctx context.Context) (domain.Document, error) {
	raw, err := s.client.Get(ctx, documentKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.DefaultDocument(), nil
	}
	if err != nil {
		return domain.Document{}, fmt.Errorf("redis get: %w", err)
	}

	var doc domain.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.Document{}, fmt.Errorf("redis document decode: %w", err)
	}
	if doc.Receipts == nil {
		doc.Receipts = []domain.Receipt{}
	}
	return doc, nil
}

func (s *Redis) Save(ctx context.Context, doc domain.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("document encode: %w", err)
	}
	if err := s.client.Set(ctx, documentKey, raw, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *Redis) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
