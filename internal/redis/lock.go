package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockStore handles distributed locking in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquireSpaceLock attempts to acquire a short-lived lock on a space while
// an allocation is deciding whether to reserve it. Returns true if the lock
// was acquired, false if already held.
func (s *LockStore) AcquireSpaceLock(ctx context.Context, spaceID string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:space:%s", spaceID)

	ok, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

// ReleaseSpaceLock releases the lock on the given space.
func (s *LockStore) ReleaseSpaceLock(ctx context.Context, spaceID string) error {
	key := fmt.Sprintf("lock:space:%s", spaceID)

	return s.client.Del(ctx, key).Err()
}
