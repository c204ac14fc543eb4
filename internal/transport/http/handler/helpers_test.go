package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-auth-2fa/internal/application/auth"
	"github.com/go-auth-2fa/internal/domain"
	jwtinfra "github.com/go-auth-2fa/internal/infrastructure/jwt"
	"github.com/go-auth-2fa/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockAuthSvc struct{ mock.Mock }

func (m *mockAuthSvc) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	args := m.Called(ctx, req)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAuthSvc) Login(ctx context.Context, req domain.LoginRequest) (*auth.Result, error) {
	args := m.Called(ctx, req)
	if r, _ := args.Get(0).(*auth.Result); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAuthSvc) VerifyCode(ctx context.Context, identity, code string) (*auth.Result, error) {
	args := m.Called(ctx, identity, code)
	if r, _ := args.Get(0).(*auth.Result); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAuthSvc) UnlockAccount(ctx context.Context, identity string) error {
	return m.Called(ctx, identity).Error(0)
}

type mockUserSvc struct{ mock.Mock }

func (m *mockUserSvc) Get(ctx context.Context, identity string) (*domain.User, error) {
	args := m.Called(ctx, identity)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserSvc) SetSecondFactor(ctx context.Context, identity string, enabled bool) (*domain.User, error) {
	args := m.Called(ctx, identity, enabled)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserSvc) ChangePassword(ctx context.Context, identity string, req domain.ChangePasswordRequest) error {
	return m.Called(ctx, identity, req).Error(0)
}

// --- helpers ---

// bearerReq builds a request carrying a signed token at the given stage.
func bearerReq(t *testing.T, p *jwtinfra.Provider, method, target, identity, stage string, body []byte) *http.Request {
	t.Helper()
	token, err := p.Sign("u1", identity, stage)
	require.NoError(t, err)
	var r *http.Request
	if body != nil {
		r = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	r.Header.Set("Authorization", "Bearer "+token)
	return r
}

// serveAuthed wraps the handler with middleware.Auth before serving.
func serveAuthed(p *jwtinfra.Provider, stage string, h http.Handler, w http.ResponseWriter, r *http.Request) {
	middleware.Auth(p, stage)(h).ServeHTTP(w, r)
}

// withChiParam injects a chi URL param into the request context.
func withChiParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func alice(secondFactor bool) *domain.User {
	return &domain.User{UserID: "u1", Email: "alice@x.io", Name: "Alice", PasswordHash: "h", SecondFactorEnabled: secondFactor}
}
