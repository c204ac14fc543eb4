package domain

import (
	"strings"
	"time"
)

type User struct {
	UserID              string    `json:"id" dynamodbav:"user_id"`
	Email               string    `json:"email" dynamodbav:"email"`
	Name                string    `json:"name" dynamodbav:"name"`
	PasswordHash        string    `json:"-" dynamodbav:"password_hash"`
	SecondFactorEnabled bool      `json:"second_factor_enabled" dynamodbav:"second_factor_enabled"`
	CreatedAt           time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt           time.Time `json:"updated" dynamodbav:"updated_at"`
}

type RegisterRequest struct {
	Name                 string `json:"name" validate:"required,max=50"`
	Email                string `json:"email" validate:"required,email,max=50"`
	Password             string `json:"password" validate:"required,password_policy,max=72"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
	AcceptPolicy         bool   `json:"accept_policy" validate:"eq=true"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type VerifyCodeRequest struct {
	Code string `json:"code" validate:"required"`
}

type SecondFactorRequest struct {
	Enabled bool `json:"enabled"`
}

type ChangePasswordRequest struct {
	CurrentPassword         string `json:"current_password" validate:"required"`
	NewPassword             string `json:"new_password" validate:"required,password_policy,max=72"`
	NewPasswordConfirmation string `json:"new_password_confirmation" validate:"required,eqfield=NewPassword"`
}

// NormalizeEmail returns the identity key for an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
