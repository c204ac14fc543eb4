package http

import (
	"context"

	"github.com/go-auth-2fa/internal/domain"
	jwtinfra "github.com/go-auth-2fa/internal/infrastructure/jwt"
)

// UserRepository is the minimal interface the router requires from a credential store.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, u *domain.User) error
}

// PasswordHasher is satisfied by every hasher in internal/pkg/password.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// LockoutTracker counts consecutive password failures per identity.
type LockoutTracker interface {
	IsLocked(ctx context.Context, identity string) (bool, error)
	RecordFailure(ctx context.Context, identity string) (bool, error)
	RecordSuccess(ctx context.Context, identity string) error
	Reset(ctx context.Context, identity string) error
}

// ChallengeCache holds at most one pending one-time code per identity.
type ChallengeCache interface {
	Issue(ctx context.Context, identity string) (string, error)
	Verify(ctx context.Context, identity, code string) (domain.ChallengeOutcome, error)
}

// Notifier delivers one-time codes out of band.
type Notifier interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// TokenProvider signs and verifies session tokens.
type TokenProvider interface {
	Sign(userID, identity, stage string) (string, error)
	Verify(tokenStr string) (*jwtinfra.Claims, error)
}
