package redis

import (
	"context"
	"fmt"
	"time"

	domainErrors "github.com/mbuchner/liefertermin/internal/domain/errors"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Lua script for safe lock release (only owner can release)
var releaseLockScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// OrderLock is a per-order reconciliation lock. The core pipeline is
// lock-free; this is the caller-side de-duplication that keeps two workers
// from reconciling the same order concurrently.
type OrderLock struct {
	client   *redis.Client
	key      string
	value    string
	ttl      time.Duration
	acquired bool
}

// NewOrderLock creates a lock scoped to one order id.
func NewOrderLock(client *redis.Client, orderID string, ttl time.Duration) *OrderLock {
	return &OrderLock{
		client: client,
		key:    fmt.Sprintf("lock:order-sync:%s", orderID),
		value:  uuid.New().String(),
		ttl:    ttl,
	}
}

// Acquire attempts to take the lock. A held lock is not an error: the
// caller skips the order and the next tick picks it up again.
func (l *OrderLock) Acquire(ctx context.Context) (bool, error) {
	success, err := l.client.SetNX(ctx, l.key, l.value, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	l.acquired = success
	return success, nil
}

// Release frees the lock if this instance still owns it.
func (l *OrderLock) Release(ctx context.Context) error {
	if !l.acquired {
		return domainErrors.ErrLockNotHeld
	}
	released, err := releaseLockScript.Run(ctx, l.client, []string{l.key}, l.value).Int()
	if err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	if released == 0 {
		return domainErrors.ErrLockNotHeld
	}
	l.acquired = false
	return nil
}
