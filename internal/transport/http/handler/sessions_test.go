package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-auth-2fa/internal/application/auth"
	"github.com/go-auth-2fa/internal/domain"
	jwtinfra "github.com/go-auth-2fa/internal/infrastructure/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func loginBody(email, password string) *bytes.Reader {
	b, _ := json.Marshal(domain.LoginRequest{Email: email, Password: password})
	return bytes.NewReader(b)
}

// --- Login ---

func TestLogin_InvalidBody(t *testing.T) {
	h := NewSessionHandler(&mockAuthSvc{}, &mockUserSvc{}, jwtinfra.NewTestProvider(t))
	r := httptest.NewRequest(http.MethodPost, "/v1/sessions/login", bytes.NewBufferString("not-json"))
	rr := httptest.NewRecorder()
	h.Login(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLogin_Authenticated(t *testing.T) {
	p := jwtinfra.NewTestProvider(t)
	as := &mockAuthSvc{}
	as.On("Login", mock.Anything, domain.LoginRequest{Email: "alice@x.io", Password: "Secr3t!pass"}).
		Return(&auth.Result{Status: auth.StatusAuthenticated, Identity: "alice@x.io", User: alice(false)}, nil)
	h := NewSessionHandler(as, &mockUserSvc{}, p)

	rr := httptest.NewRecorder()
	h.Login(rr, httptest.NewRequest(http.MethodPost, "/v1/sessions/login", loginBody("alice@x.io", "Secr3t!pass")))

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp TokenEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Empty(t, resp.PendingToken)
	claims, err := p.Verify(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, jwtinfra.StageFull, claims.Stage)
	assert.Equal(t, "alice@x.io", claims.Identity())
	assert.NotContains(t, rr.Body.String(), "password_hash")
}

func TestLogin_PendingSecondFactor(t *testing.T) {
	p := jwtinfra.NewTestProvider(t)
	as := &mockAuthSvc{}
	as.On("Login", mock.Anything, mock.Anything).
		Return(&auth.Result{Status: auth.StatusPendingSecondFactor, Identity: "alice@x.io", User: alice(true)}, nil)
	h := NewSessionHandler(as, &mockUserSvc{}, p)

	rr := httptest.NewRecorder()
	h.Login(rr, httptest.NewRequest(http.MethodPost, "/v1/sessions/login", loginBody("alice@x.io", "Secr3t!pass")))

	assert.Equal(t, http.StatusAccepted, rr.Code)
	var resp TokenEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Empty(t, resp.AccessToken)
	assert.Nil(t, resp.User)
	claims, err := p.Verify(resp.PendingToken)
	require.NoError(t, err)
	assert.Equal(t, jwtinfra.StagePending, claims.Stage)
}

func TestLogin_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{"locked", fmt.Errorf("too many failed attempts: %w", domain.ErrAccountLocked), http.StatusLocked},
		{"delivery", fmt.Errorf("%w: smtp 421", domain.ErrDeliveryFailure), http.StatusBadGateway},
		{"backend", fmt.Errorf("find user: %w", assert.AnError), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			as := &mockAuthSvc{}
			as.On("Login", mock.Anything, mock.Anything).Return(nil, tc.err)
			h := NewSessionHandler(as, &mockUserSvc{}, jwtinfra.NewTestProvider(t))

			rr := httptest.NewRecorder()
			h.Login(rr, httptest.NewRequest(http.MethodPost, "/v1/sessions/login", loginBody("alice@x.io", "x")))

			assert.Equal(t, tc.want, rr.Code)
		})
	}
}

func TestLogin_DeliveryFailureHidesDetail(t *testing.T) {
	as := &mockAuthSvc{}
	as.On("Login", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("%w: dial tcp 10.0.0.5:25", domain.ErrDeliveryFailure))
	h := NewSessionHandler(as, &mockUserSvc{}, jwtinfra.NewTestProvider(t))

	rr := httptest.NewRecorder()
	h.Login(rr, httptest.NewRequest(http.MethodPost, "/v1/sessions/login", loginBody("alice@x.io", "x")))

	assert.NotContains(t, rr.Body.String(), "10.0.0.5")
}

// --- VerifyCode ---

func TestVerifyCode_MissingClaims(t *testing.T) {
	h := NewSessionHandler(&mockAuthSvc{}, &mockUserSvc{}, jwtinfra.NewTestProvider(t))
	rr := httptest.NewRecorder()
	h.VerifyCode(rr, httptest.NewRequest(http.MethodPost, "/v1/sessions/verify-code", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestVerifyCode_RequiresPendingToken(t *testing.T) {
	p := jwtinfra.NewTestProvider(t)
	as := &mockAuthSvc{}
	h := NewSessionHandler(as, &mockUserSvc{}, p)

	body := []byte(`{"code":"123456"}`)
	r := bearerReq(t, p, http.MethodPost, "/v1/sessions/verify-code", "alice@x.io", jwtinfra.StageFull, body)
	rr := httptest.NewRecorder()
	serveAuthed(p, jwtinfra.StagePending, http.HandlerFunc(h.VerifyCode), rr, r)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	as.AssertNotCalled(t, "VerifyCode", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifyCode_EmptyCode(t *testing.T) {
	p := jwtinfra.NewTestProvider(t)
	h := NewSessionHandler(&mockAuthSvc{}, &mockUserSvc{}, p)

	r := bearerReq(t, p, http.MethodPost, "/v1/sessions/verify-code", "alice@x.io", jwtinfra.StagePending, []byte(`{"code":""}`))
	rr := httptest.NewRecorder()
	serveAuthed(p, jwtinfra.StagePending, http.HandlerFunc(h.VerifyCode), rr, r)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestVerifyCode_Matched(t *testing.T) {
	p := jwtinfra.NewTestProvider(t)
	as := &mockAuthSvc{}
	as.On("VerifyCode", mock.Anything, "alice@x.io", "004217").
		Return(&auth.Result{Status: auth.StatusAuthenticated, Identity: "alice@x.io", User: alice(true)}, nil)
	h := NewSessionHandler(as, &mockUserSvc{}, p)

	r := bearerReq(t, p, http.MethodPost, "/v1/sessions/verify-code", "alice@x.io", jwtinfra.StagePending, []byte(`{"code":"004217"}`))
	rr := httptest.NewRecorder()
	serveAuthed(p, jwtinfra.StagePending, http.HandlerFunc(h.VerifyCode), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp TokenEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	claims, err := p.Verify(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, jwtinfra.StageFull, claims.Stage)
	as.AssertExpectations(t)
}

func TestVerifyCode_PassesCodeVerbatim(t *testing.T) {
	p := jwtinfra.NewTestProvider(t)
	as := &mockAuthSvc{}
	as.On("VerifyCode", mock.Anything, "alice@x.io", " 123456").Return(nil, domain.ErrInvalidCode)
	h := NewSessionHandler(as, &mockUserSvc{}, p)

	r := bearerReq(t, p, http.MethodPost, "/v1/sessions/verify-code", "alice@x.io", jwtinfra.StagePending, []byte(`{"code":" 123456"}`))
	rr := httptest.NewRecorder()
	serveAuthed(p, jwtinfra.StagePending, http.HandlerFunc(h.VerifyCode), rr, r)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	as.AssertExpectations(t)
}

func TestVerifyCode_Rejections(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"mismatch", domain.ErrInvalidCode, http.StatusUnauthorized},
		{"expired", domain.ErrChallengeExpired, http.StatusGone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := jwtinfra.NewTestProvider(t)
			as := &mockAuthSvc{}
			as.On("VerifyCode", mock.Anything, "alice@x.io", "111111").Return(nil, tc.err)
			h := NewSessionHandler(as, &mockUserSvc{}, p)

			r := bearerReq(t, p, http.MethodPost, "/v1/sessions/verify-code", "alice@x.io", jwtinfra.StagePending, []byte(`{"code":"111111"}`))
			rr := httptest.NewRecorder()
			serveAuthed(p, jwtinfra.StagePending, http.HandlerFunc(h.VerifyCode), rr, r)

			assert.Equal(t, tc.want, rr.Code)
		})
	}
}

// --- GetCurrent ---

func TestGetCurrent(t *testing.T) {
	p := jwtinfra.NewTestProvider(t)
	us := &mockUserSvc{}
	us.On("Get", mock.Anything, "alice@x.io").Return(alice(false), nil)
	h := NewSessionHandler(&mockAuthSvc{}, us, p)

	r := bearerReq(t, p, http.MethodGet, "/v1/sessions", "alice@x.io", jwtinfra.StageFull, nil)
	rr := httptest.NewRecorder()
	serveAuthed(p, jwtinfra.StageFull, http.HandlerFunc(h.GetCurrent), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp UserEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "Alice", resp.User.Name)
	assert.NotContains(t, rr.Body.String(), "password_hash")
}

func TestGetCurrent_UserGone(t *testing.T) {
	p := jwtinfra.NewTestProvider(t)
	us := &mockUserSvc{}
	us.On("Get", mock.Anything, "alice@x.io").Return(nil, fmt.Errorf("x: %w", domain.ErrNotFound))
	h := NewSessionHandler(&mockAuthSvc{}, us, p)

	r := bearerReq(t, p, http.MethodGet, "/v1/sessions", "alice@x.io", jwtinfra.StageFull, nil)
	rr := httptest.NewRecorder()
	serveAuthed(p, jwtinfra.StageFull, http.HandlerFunc(h.GetCurrent), rr, r)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
