package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-auth-2fa/internal/domain"
	"github.com/go-auth-2fa/internal/pkg/id"
	"github.com/go-auth-2fa/internal/pkg/validate"
)

// Status is the authentication state a successful call leaves the caller in.
type Status int

const (
	StatusAuthenticated Status = iota + 1
	StatusPendingSecondFactor
)

func (s Status) String() string {
	switch s {
	case StatusAuthenticated:
		return "authenticated"
	case StatusPendingSecondFactor:
		return "pending_second_factor"
	default:
		return "unknown"
	}
}

// Result is returned by Login and VerifyCode. Rejections are returned as
// errors wrapping a domain sentinel instead.
type Result struct {
	Status   Status
	Identity string
	User     *domain.User
}

type Service interface {
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error)
	Login(ctx context.Context, req domain.LoginRequest) (*Result, error)
	VerifyCode(ctx context.Context, identity, code string) (*Result, error)
	UnlockAccount(ctx context.Context, identity string) error
}

type credentialStore interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, u *domain.User) error
}

type passwordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

type lockoutTracker interface {
	IsLocked(ctx context.Context, identity string) (bool, error)
	RecordFailure(ctx context.Context, identity string) (bool, error)
	RecordSuccess(ctx context.Context, identity string) error
	Reset(ctx context.Context, identity string) error
}

type challengeCache interface {
	Issue(ctx context.Context, identity string) (string, error)
	Verify(ctx context.Context, identity, code string) (domain.ChallengeOutcome, error)
}

type notifier interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

type ServiceDeps struct {
	UserRepo   credentialStore
	Hasher     passwordHasher
	Lockout    lockoutTracker
	Challenges challengeCache
	Notifier   notifier
	CodeTTL    time.Duration
}

type service struct {
	users      credentialStore
	hasher     passwordHasher
	lockout    lockoutTracker
	challenges challengeCache
	notifier   notifier
	codeTTL    time.Duration
	now        func() time.Time

	dummyOnce sync.Once
	dummy     string
}

func NewService(deps ServiceDeps) Service {
	ttl := deps.CodeTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &service{
		users:      deps.UserRepo,
		hasher:     deps.Hasher,
		lockout:    deps.Lockout,
		challenges: deps.Challenges,
		notifier:   deps.Notifier,
		codeTTL:    ttl,
		now:        time.Now,
	}
}

func (s *service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	req.Email = domain.NormalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrDuplicateIdentity)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	u := &domain.User{
		UserID:       id.NewAt(now),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		// A concurrent registration can pass the pre-check and lose at the store.
		if errors.Is(err, domain.ErrDuplicateIdentity) {
			return nil, fmt.Errorf("email already registered: %w", domain.ErrDuplicateIdentity)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	slog.Info("user registered", "user_id", u.UserID)
	return u, nil
}

func (s *service) Login(ctx context.Context, req domain.LoginRequest) (*Result, error) {
	identity := domain.NormalizeEmail(req.Email)
	if identity == "" || req.Password == "" {
		return nil, fmt.Errorf("email and password are required: %w", domain.ErrValidation)
	}

	locked, err := s.lockout.IsLocked(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("check lockout: %w", err)
	}
	if locked {
		slog.Warn("login rejected for locked account", "identity", identity)
		return nil, fmt.Errorf("too many failed attempts: %w", domain.ErrAccountLocked)
	}

	u, err := s.users.FindByEmail(ctx, identity)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if u == nil {
		// Same hashing cost as a real account so response time does not
		// reveal whether the email is registered.
		s.hasher.Verify(req.Password, s.dummyHash())
		return nil, s.recordFailure(ctx, identity)
	}
	if !s.hasher.Verify(req.Password, u.PasswordHash) {
		return nil, s.recordFailure(ctx, identity)
	}

	if err := s.lockout.RecordSuccess(ctx, identity); err != nil {
		return nil, fmt.Errorf("reset lockout: %w", err)
	}
	if !u.SecondFactorEnabled {
		return &Result{Status: StatusAuthenticated, Identity: identity, User: u}, nil
	}

	code, err := s.challenges.Issue(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("issue code: %w", err)
	}
	subject, body := codeEmail(u.Name, code, s.codeTTL)
	if err := s.notifier.SendEmail(ctx, u.Email, subject, body); err != nil {
		slog.Warn("second factor delivery failed", "identity", identity, "err", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrDeliveryFailure, err)
	}
	return &Result{Status: StatusPendingSecondFactor, Identity: identity, User: u}, nil
}

// VerifyCode completes a login that is waiting for its second factor.
// Expired and missing challenges both force the caller back to Login.
func (s *service) VerifyCode(ctx context.Context, identity, code string) (*Result, error) {
	identity = domain.NormalizeEmail(identity)
	outcome, err := s.challenges.Verify(ctx, identity, code)
	if err != nil {
		return nil, fmt.Errorf("verify code: %w", err)
	}
	switch outcome {
	case domain.ChallengeMatched:
		u, err := s.users.FindByEmail(ctx, identity)
		if err != nil {
			return nil, fmt.Errorf("find user: %w", err)
		}
		return &Result{Status: StatusAuthenticated, Identity: identity, User: u}, nil
	case domain.ChallengeMismatch:
		return nil, fmt.Errorf("code does not match: %w", domain.ErrInvalidCode)
	default:
		return nil, fmt.Errorf("log in again to receive a new code: %w", domain.ErrChallengeExpired)
	}
}

func (s *service) UnlockAccount(ctx context.Context, identity string) error {
	identity = domain.NormalizeEmail(identity)
	if identity == "" {
		return fmt.Errorf("email is required: %w", domain.ErrValidation)
	}
	if err := s.lockout.Reset(ctx, identity); err != nil {
		return fmt.Errorf("reset lockout: %w", err)
	}
	slog.Info("account unlocked by operator", "identity", identity)
	return nil
}

func (s *service) recordFailure(ctx context.Context, identity string) error {
	locked, err := s.lockout.RecordFailure(ctx, identity)
	if err != nil {
		return fmt.Errorf("record failure: %w", err)
	}
	if locked {
		slog.Warn("account locked after repeated failures", "identity", identity)
	}
	return domain.ErrInvalidCredentials
}

func (s *service) dummyHash() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("timing-equalizer-Aa1!")
		if err != nil {
			slog.Warn("could not prepare dummy hash", "err", err)
			return
		}
		s.dummy = h
	})
	return s.dummy
}

func codeEmail(name, code string, ttl time.Duration) (subject, body string) {
	if name == "" {
		name = "there"
	}
	subject = "Your authentication code"
	body = fmt.Sprintf(
		"Hello %s,\n\nYour authentication code is: %s\nThis code expires in %d minutes.\n\nIf you did not request this code, ignore this email.\n",
		name, code, int(ttl.Minutes()),
	)
	return subject, body
}
