package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-auth-2fa/internal/domain"
)

// UserRepo is a process-local credential store keyed by normalized email.
type UserRepo struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

func NewUserRepo() *UserRepo {
	return &UserRepo{users: make(map[string]domain.User)}
}

func (r *UserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[domain.NormalizeEmail(email)]
	if !ok {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	return &u, nil
}

func (r *UserRepo) Create(_ context.Context, u *domain.User) error {
	key := domain.NormalizeEmail(u.Email)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[key]; ok {
		return fmt.Errorf("create user: %w", domain.ErrDuplicateIdentity)
	}
	r.users[key] = *u
	return nil
}

func (r *UserRepo) Update(_ context.Context, u *domain.User) error {
	key := domain.NormalizeEmail(u.Email)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[key]; !ok {
		return fmt.Errorf("update user: %w", domain.ErrNotFound)
	}
	r.users[key] = *u
	return nil
}
