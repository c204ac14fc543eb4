package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockout_LocksAtThreshold(t *testing.T) {
	ctx := context.Background()
	lt := NewLockoutTracker(5, 0)

	for i := 1; i <= 4; i++ {
		locked, err := lt.RecordFailure(ctx, "a@b.com")
		require.NoError(t, err)
		assert.False(t, locked, "failure %d", i)
	}
	locked, _ := lt.IsLocked(ctx, "a@b.com")
	assert.False(t, locked)

	locked, err := lt.RecordFailure(ctx, "a@b.com")
	require.NoError(t, err)
	assert.True(t, locked)

	locked, _ = lt.IsLocked(ctx, "a@b.com")
	assert.True(t, locked)
}

func TestLockout_SuccessResetsFromAnyCount(t *testing.T) {
	ctx := context.Background()
	for n := 1; n < 5; n++ {
		lt := NewLockoutTracker(5, 0)
		for i := 0; i < n; i++ {
			_, _ = lt.RecordFailure(ctx, "a@b.com")
		}
		require.NoError(t, lt.RecordSuccess(ctx, "a@b.com"))
		count, _ := lt.Failures(ctx, "a@b.com")
		assert.Equal(t, 0, count, "after %d failures", n)
	}
}

func TestLockout_IdentitiesAreIndependent(t *testing.T) {
	ctx := context.Background()
	lt := NewLockoutTracker(2, 0)
	_, _ = lt.RecordFailure(ctx, "a@b.com")
	_, _ = lt.RecordFailure(ctx, "a@b.com")

	locked, _ := lt.IsLocked(ctx, "c@d.com")
	assert.False(t, locked)
	locked, _ = lt.IsLocked(ctx, "a@b.com")
	assert.True(t, locked)
}

func TestLockout_NoWindowNeverDecays(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	lt := NewLockoutTracker(1, 0)
	lt.now = clock.Now
	_, _ = lt.RecordFailure(ctx, "a@b.com")

	clock.Advance(365 * 24 * time.Hour)
	locked, _ := lt.IsLocked(ctx, "a@b.com")
	assert.True(t, locked)
}

func TestLockout_WindowDecays(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	lt := NewLockoutTracker(1, 15*time.Minute)
	lt.now = clock.Now
	_, _ = lt.RecordFailure(ctx, "a@b.com")

	clock.Advance(14 * time.Minute)
	locked, _ := lt.IsLocked(ctx, "a@b.com")
	assert.True(t, locked)

	clock.Advance(2 * time.Minute)
	locked, _ = lt.IsLocked(ctx, "a@b.com")
	assert.False(t, locked)
}

func TestLockout_ResetUnlocks(t *testing.T) {
	ctx := context.Background()
	lt := NewLockoutTracker(1, 0)
	_, _ = lt.RecordFailure(ctx, "a@b.com")
	require.NoError(t, lt.Reset(ctx, "a@b.com"))
	locked, _ := lt.IsLocked(ctx, "a@b.com")
	assert.False(t, locked)
}

func TestLockout_ConcurrentFailuresAreNotLost(t *testing.T) {
	ctx := context.Background()
	lt := NewLockoutTracker(1000, 0)
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = lt.RecordFailure(ctx, "a@b.com")
		}()
	}
	wg.Wait()
	count, _ := lt.Failures(ctx, "a@b.com")
	assert.Equal(t, 200, count)
}
