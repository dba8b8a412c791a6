package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/99minutos/webinar-system/internal/core/domain"
)

const defaultLockTTL = 5 * time.Second

// compareAndDelete deletes KEYS[1] only while it still holds ARGV[1], so an
// expired holder never frees a key taken over by someone else.
var compareAndDelete = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// WebinarLock serialises read-modify-write cycles on a single webinar across
// processes. Key format: lock:webinar:<id>
type WebinarLock struct {
	client   *redis.Client
	ttl      time.Duration
	newToken func() string
}

// NewWebinarLock creates a lock that expires after ttl (5s when ttl <= 0).
func NewWebinarLock(client *redis.Client, ttl time.Duration) *WebinarLock {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &WebinarLock{client: client, ttl: ttl, newToken: uuid.NewString}
}

// Acquire takes the lock for webinarID or fails with domain.ErrWebinarBusy.
// The returned func releases it.
func (l *WebinarLock) Acquire(ctx context.Context, webinarID string) (func(context.Context) error, error) {
	key := l.key(webinarID)
	token := l.newToken()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire webinar lock: %w", err)
	}
	if !ok {
		return nil, domain.ErrWebinarBusy
	}

	return func(ctx context.Context) error {
		if err := compareAndDelete.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("release webinar lock: %w", err)
		}
		return nil
	}, nil
}

func (l *WebinarLock) key(webinarID string) string {
	return "lock:webinar:" + webinarID
}
