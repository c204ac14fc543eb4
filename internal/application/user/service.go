package user

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-auth-2fa/internal/domain"
	"github.com/go-auth-2fa/internal/pkg/validate"
)

// Service covers account operations for a caller who already holds a full
// session. Login and registration live in the auth package.
type Service interface {
	Get(ctx context.Context, identity string) (*domain.User, error)
	SetSecondFactor(ctx context.Context, identity string, enabled bool) (*domain.User, error)
	ChangePassword(ctx context.Context, identity string, req domain.ChangePasswordRequest) error
}

type userStore interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
}

type passwordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// lockoutTracker is shared with login, so guessing the current password
// here counts toward the same lock.
type lockoutTracker interface {
	IsLocked(ctx context.Context, identity string) (bool, error)
	RecordFailure(ctx context.Context, identity string) (bool, error)
	RecordSuccess(ctx context.Context, identity string) error
}

type service struct {
	repo    userStore
	hasher  passwordHasher
	lockout lockoutTracker
	now     func() time.Time
}

type ServiceDeps struct {
	UserRepo userStore
	Hasher   passwordHasher
	Lockout  lockoutTracker
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:    deps.UserRepo,
		hasher:  deps.Hasher,
		lockout: deps.Lockout,
		now:     time.Now,
	}
}

func (s *service) Get(ctx context.Context, identity string) (*domain.User, error) {
	return s.repo.FindByEmail(ctx, domain.NormalizeEmail(identity))
}

func (s *service) SetSecondFactor(ctx context.Context, identity string, enabled bool) (*domain.User, error) {
	u, err := s.repo.FindByEmail(ctx, domain.NormalizeEmail(identity))
	if err != nil {
		return nil, err
	}
	if u.SecondFactorEnabled == enabled {
		return u, nil
	}
	u.SecondFactorEnabled = enabled
	u.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	slog.Info("second factor changed", "user_id", u.UserID, "enabled", enabled)
	return u, nil
}

func (s *service) ChangePassword(ctx context.Context, identity string, req domain.ChangePasswordRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	identity = domain.NormalizeEmail(identity)
	locked, err := s.lockout.IsLocked(ctx, identity)
	if err != nil {
		return fmt.Errorf("check lockout: %w", err)
	}
	if locked {
		return fmt.Errorf("too many failed attempts: %w", domain.ErrAccountLocked)
	}
	u, err := s.repo.FindByEmail(ctx, identity)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(req.CurrentPassword, u.PasswordHash) {
		nowLocked, err := s.lockout.RecordFailure(ctx, identity)
		if err != nil {
			return fmt.Errorf("record failure: %w", err)
		}
		if nowLocked {
			slog.Warn("account locked after repeated failures", "identity", identity)
		}
		return fmt.Errorf("current password is incorrect: %w", domain.ErrInvalidCredentials)
	}
	if err := s.lockout.RecordSuccess(ctx, identity); err != nil {
		return fmt.Errorf("reset lockout: %w", err)
	}
	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, u); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	slog.Info("password changed", "user_id", u.UserID)
	return nil
}
