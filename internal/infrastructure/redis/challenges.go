package redisinfra

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-auth-2fa/internal/domain"
	"github.com/go-auth-2fa/internal/pkg/token"
	"github.com/redis/go-redis/v9"
)

const (
	codeDigits = 6
	// expiredGrace keeps an expired record around long enough for Verify to
	// report it as expired rather than absent.
	expiredGrace = time.Minute
	maxTxRetries = 4
)

// ErrChallengeUnavailable indicates the challenge backend is unreachable.
var ErrChallengeUnavailable = errors.New("challenge backend unavailable")

// ChallengeCache stores one pending code per identity in Redis.
type ChallengeCache struct {
	redis redis.UniversalClient
	ttl   time.Duration
	now   func() time.Time
}

func NewChallengeCache(client redis.UniversalClient, ttl time.Duration) *ChallengeCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ChallengeCache{redis: client, ttl: ttl, now: time.Now}
}

func (c *ChallengeCache) key(identity string) string {
	return "otp:" + identity
}

// Issue overwrites any pending challenge for identity.
func (c *ChallengeCache) Issue(ctx context.Context, identity string) (string, error) {
	code, err := token.NewNumericCode(codeDigits)
	if err != nil {
		return "", err
	}
	now := c.now().UTC()
	data, err := json.Marshal(domain.Challenge{
		Identity:  identity,
		Code:      code,
		IssuedAt:  now,
		ExpiresAt: now.Add(c.ttl),
	})
	if err != nil {
		return "", fmt.Errorf("marshal challenge: %w", err)
	}
	if err := c.redis.Set(ctx, c.key(identity), data, c.ttl+expiredGrace).Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrChallengeUnavailable, err)
	}
	return code, nil
}

// Verify reads and conditionally deletes the challenge inside a WATCH
// transaction so a concurrent Issue or Verify on the same key retries
// instead of racing.
func (c *ChallengeCache) Verify(ctx context.Context, identity, code string) (domain.ChallengeOutcome, error) {
	key := c.key(identity)
	for i := 0; i < maxTxRetries; i++ {
		var outcome domain.ChallengeOutcome
		err := c.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				outcome = domain.ChallengeNone
				return nil
			}
			if err != nil {
				return err
			}
			var ch domain.Challenge
			if err := json.Unmarshal(data, &ch); err != nil {
				return fmt.Errorf("decode challenge: %w", err)
			}
			switch {
			case c.now().After(ch.ExpiresAt):
				outcome = domain.ChallengeExpired
			case subtle.ConstantTimeCompare([]byte(ch.Code), []byte(code)) == 1:
				outcome = domain.ChallengeMatched
			default:
				outcome = domain.ChallengeMismatch
				return nil
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				return nil
			})
			return err
		}, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return domain.ChallengeNone, fmt.Errorf("%w: %v", ErrChallengeUnavailable, err)
		}
		return outcome, nil
	}
	return domain.ChallengeNone, fmt.Errorf("%w: too much contention on %s", ErrChallengeUnavailable, key)
}
