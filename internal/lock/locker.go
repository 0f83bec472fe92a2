// Package lock serializes scan processing per employee.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const DefaultTTL = 10 * time.Second

// EmployeeLocker hands out a per-employee lock held for one scan. The returned
// release func is never nil and is safe to call once.
type EmployeeLocker interface {
	Acquire(ctx context.Context, employeeID uint) (release func(), err error)
}

// Noop is used when redis is disabled; concurrent scans of one employee are not serialized.
type Noop struct{}

func (Noop) Acquire(context.Context, uint) (func(), error) {
	return func() {}, nil
}

type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
	retry  time.Duration
	logger *zap.Logger
}

func NewRedisLocker(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisLocker{
		client: redislock.New(rdb),
		ttl:    ttl,
		retry:  50 * time.Millisecond,
		logger: logger,
	}
}

func Key(employeeID uint) string {
	return fmt.Sprintf("lock:scan:employee:%d", employeeID)
}

// Acquire waits up to the lock TTL for the employee's lock.
func (l *RedisLocker) Acquire(ctx context.Context, employeeID uint) (func(), error) {
	key := Key(employeeID)

	waitCtx, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	lk, err := l.client.Obtain(waitCtx, key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(l.retry),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return func() {}, fmt.Errorf("lock %s busy: %w", key, err)
	}
	if err != nil {
		return func() {}, fmt.Errorf("obtain lock %s: %w", key, err)
	}

	return func() {
		// the request context may already be done
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := lk.Release(releaseCtx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.logger.Warn("Failed to release scan lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}
