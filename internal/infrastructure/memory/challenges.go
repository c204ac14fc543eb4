package memory

import (
	"context"
	"crypto/subtle"
	"sync"
	"time"

	"github.com/go-auth-2fa/internal/domain"
	"github.com/go-auth-2fa/internal/pkg/token"
)

const codeDigits = 6

// ChallengeCache holds at most one pending one-time code per identity.
// Expiry is detected lazily by Verify; nothing sweeps the map.
type ChallengeCache struct {
	mu      sync.Mutex
	pending map[string]domain.Challenge
	ttl     time.Duration
	now     func() time.Time
}

func NewChallengeCache(ttl time.Duration) *ChallengeCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ChallengeCache{
		pending: make(map[string]domain.Challenge),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Issue replaces any pending challenge for identity and returns the new code.
func (c *ChallengeCache) Issue(_ context.Context, identity string) (string, error) {
	code, err := token.NewNumericCode(codeDigits)
	if err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	c.pending[identity] = domain.Challenge{
		Identity:  identity,
		Code:      code,
		IssuedAt:  now,
		ExpiresAt: now.Add(c.ttl),
	}
	return code, nil
}

func (c *ChallengeCache) Verify(_ context.Context, identity, code string) (domain.ChallengeOutcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.pending[identity]
	if !ok {
		return domain.ChallengeNone, nil
	}
	if c.now().After(ch.ExpiresAt) {
		delete(c.pending, identity)
		return domain.ChallengeExpired, nil
	}
	if subtle.ConstantTimeCompare([]byte(ch.Code), []byte(code)) == 1 {
		delete(c.pending, identity)
		return domain.ChallengeMatched, nil
	}
	return domain.ChallengeMismatch, nil
}
