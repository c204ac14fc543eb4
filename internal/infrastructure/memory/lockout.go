package memory

import (
	"context"
	"sync"
	"time"
)

type failureCount struct {
	count    int
	lastSeen time.Time
}

// LockoutTracker counts consecutive password failures per identity in
// process memory. A window of zero keeps a lock until RecordSuccess or Reset.
type LockoutTracker struct {
	mu        sync.Mutex
	failures  map[string]*failureCount
	threshold int
	window    time.Duration
	now       func() time.Time
}

func NewLockoutTracker(threshold int, window time.Duration) *LockoutTracker {
	if threshold < 1 {
		threshold = 5
	}
	return &LockoutTracker{
		failures:  make(map[string]*failureCount),
		threshold: threshold,
		window:    window,
		now:       time.Now,
	}
}

// entry returns the live counter for identity, dropping it when the window
// has elapsed since the last failure. Callers hold t.mu.
func (t *LockoutTracker) entry(identity string) *failureCount {
	f, ok := t.failures[identity]
	if !ok {
		return nil
	}
	if t.window > 0 && t.now().Sub(f.lastSeen) > t.window {
		delete(t.failures, identity)
		return nil
	}
	return f
}

func (t *LockoutTracker) IsLocked(_ context.Context, identity string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	f := t.entry(identity)
	return f != nil && f.count >= t.threshold, nil
}

// RecordFailure returns true once the count reaches the threshold.
func (t *LockoutTracker) RecordFailure(_ context.Context, identity string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	f := t.entry(identity)
	if f == nil {
		f = &failureCount{}
		t.failures[identity] = f
	}
	f.count++
	f.lastSeen = t.now()
	return f.count >= t.threshold, nil
}

func (t *LockoutTracker) RecordSuccess(_ context.Context, identity string) error {
	t.mu.Lock()
	delete(t.failures, identity)
	t.mu.Unlock()
	return nil
}

// Reset is the operator unlock path.
func (t *LockoutTracker) Reset(ctx context.Context, identity string) error {
	return t.RecordSuccess(ctx, identity)
}

// Failures reports the current consecutive-failure count.
func (t *LockoutTracker) Failures(_ context.Context, identity string) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if f := t.entry(identity); f != nil {
		return f.count, nil
	}
	return 0, nil
}
