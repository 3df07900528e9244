// Package lock provides the time-boxed exclusive lock the scheduled
// path takes before issuing, so two concurrent scheduled runs for the
// same day cannot both send.
//
// The lock is acquire-if-absent with a short TTL and is never released
// early; expiry is the only release. This matches the workflow's needs:
// a run either finishes well inside the TTL or has crashed, in which
// case the next period's key is different anyway.
package lock

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker attempts to take the exclusive lock for a key. Acquire
// returns false when another holder has it.
type Locker interface {
	Acquire(ctx context.Context, key string) (bool, error)
}

// Key builds the lock key for a period label, e.g.
// "lock:cron:08_Janvier_2026".
func Key(period string) string {
	return "lock:cron:" + strings.ReplaceAll(period, " ", "_")
}

// RedisLocker takes locks with SET NX EX. The value is a random owner
// token so a lock can be traced to the instance that took it.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (bool, error) {
	acquired, err := l.client.SetNX(ctx, key, uuid.NewString(), l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("lock %s: %w", key, err)
	}
	return acquired, nil
}

// Disabled always acquires. Used when redis is not configured; the
// original behavior was to proceed without the lock rather than block
// issuance on an optional dependency.
type Disabled struct{}

func (Disabled) Acquire(ctx context.Context, key string) (bool, error) {
	return true, nil
}
