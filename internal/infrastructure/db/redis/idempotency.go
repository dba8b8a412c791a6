package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultIdempotencyTTL = 24 * time.Hour
	// pendingTTL bounds how long a crashed request can keep its key claimed.
	pendingTTL    = 30 * time.Second
	pendingMarker = "!pending"
)

// IdempotencyStore remembers which webinar id a client's Idempotency-Key produced.
// Key format: idempotency:<scope>:<key>
//
// A key is claimed with a pending marker before the webinar is created, so
// concurrent requests carrying the same key cannot both create one.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore creates a store whose entries expire after ttl
// (24h when ttl <= 0).
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

// Claim reserves key for the caller. When the key is already taken it returns
// claimed=false plus the stored webinar id, or an empty id while the first
// request is still in flight.
func (s *IdempotencyStore) Claim(ctx context.Context, scope, key string) (string, bool, error) {
	k := s.key(scope, key)

	ok, err := s.client.SetNX(ctx, k, pendingMarker, pendingTTL).Result()
	if err != nil {
		return "", false, fmt.Errorf("idempotency claim: %w", err)
	}
	if ok {
		return "", true, nil
	}

	id, err := s.client.Get(ctx, k).Result()
	switch {
	case errors.Is(err, redis.Nil), id == pendingMarker:
		// Nil: the holder abandoned the key between our two calls. Report it as
		// in flight and let the client retry.
		return "", false, nil
	case err != nil:
		return "", false, fmt.Errorf("idempotency lookup: %w", err)
	}
	return id, false, nil
}

// Complete records id for a key claimed by Claim.
func (s *IdempotencyStore) Complete(ctx context.Context, scope, key, id string) error {
	if err := s.client.Set(ctx, s.key(scope, key), id, s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency complete: %w", err)
	}
	return nil
}

// Abandon frees a claimed key that never produced a webinar, so the client
// can retry with the same key. A completed key is left untouched.
func (s *IdempotencyStore) Abandon(ctx context.Context, scope, key string) error {
	if err := compareAndDelete.Run(ctx, s.client, []string{s.key(scope, key)}, pendingMarker).Err(); err != nil {
		return fmt.Errorf("idempotency abandon: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) key(scope, key string) string {
	return fmt.Sprintf("idempotency:%s:%s", scope, key)
}
