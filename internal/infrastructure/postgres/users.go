package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-auth-2fa/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// UserRepo is the PostgreSQL credential store.
type UserRepo struct {
	db *pgxpool.Pool
}

func NewUserRepo(db *pgxpool.Pool) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `
        SELECT id, email, name, password_hash, second_factor_enabled, created_at, updated_at
        FROM users
        WHERE lower(email) = $1
    `
	var u domain.User
	err := r.db.QueryRow(ctx, query, domain.NormalizeEmail(email)).Scan(
		&u.UserID, &u.Email, &u.Name, &u.PasswordHash, &u.SecondFactorEnabled, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &u, nil
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	const query = `
        INSERT INTO users (id, email, name, password_hash, second_factor_enabled, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	_, err := r.db.Exec(ctx, query,
		u.UserID,
		domain.NormalizeEmail(u.Email),
		u.Name,
		u.PasswordHash,
		u.SecondFactorEnabled,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			slog.Info("user insert hit unique constraint", "constraint", constraintName(err))
			return fmt.Errorf("create user: %w", domain.ErrDuplicateIdentity)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepo) Update(ctx context.Context, u *domain.User) error {
	const query = `
        UPDATE users
        SET name = $2, password_hash = $3, second_factor_enabled = $4, updated_at = $5
        WHERE lower(email) = $1
    `
	tag, err := r.db.Exec(ctx, query,
		domain.NormalizeEmail(u.Email), u.Name, u.PasswordHash, u.SecondFactorEnabled, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update user: %w", domain.ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func constraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}
