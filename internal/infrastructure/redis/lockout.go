package redisinfra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrLockoutUnavailable indicates the lockout backend is unreachable.
var ErrLockoutUnavailable = errors.New("lockout backend unavailable")

// LockoutTracker keeps failure counters in Redis so every API instance sees
// the same count. INCR and DEL make each update atomic per identity.
type LockoutTracker struct {
	redis     redis.UniversalClient
	threshold int64
	window    time.Duration // 0 = no expiry on the counter
}

func NewLockoutTracker(client redis.UniversalClient, threshold int, window time.Duration) *LockoutTracker {
	if threshold < 1 {
		threshold = 5
	}
	return &LockoutTracker{redis: client, threshold: int64(threshold), window: window}
}

func (l *LockoutTracker) key(identity string) string {
	return "lockout:" + identity
}

func (l *LockoutTracker) count(ctx context.Context, identity string) (int64, error) {
	n, err := l.redis.Get(ctx, l.key(identity)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
	}
	return n, nil
}

func (l *LockoutTracker) IsLocked(ctx context.Context, identity string) (bool, error) {
	n, err := l.count(ctx, identity)
	if err != nil {
		return false, err
	}
	return n >= l.threshold, nil
}

// RecordFailure returns true once the count reaches the threshold. With a
// window configured, each failure pushes the counter's expiry forward.
func (l *LockoutTracker) RecordFailure(ctx context.Context, identity string) (bool, error) {
	key := l.key(identity)
	pipe := l.redis.TxPipeline()
	incr := pipe.Incr(ctx, key)
	if l.window > 0 {
		pipe.Expire(ctx, key, l.window)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
	}
	return incr.Val() >= l.threshold, nil
}

func (l *LockoutTracker) RecordSuccess(ctx context.Context, identity string) error {
	if err := l.redis.Del(ctx, l.key(identity)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
	}
	return nil
}

// Reset is the operator unlock path.
func (l *LockoutTracker) Reset(ctx context.Context, identity string) error {
	return l.RecordSuccess(ctx, identity)
}

func (l *LockoutTracker) Failures(ctx context.Context, identity string) (int, error) {
	n, err := l.count(ctx, identity)
	return int(n), err
}
