package jwtinfra

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignVerify_RoundTrip(t *testing.T) {
	p := NewTestProvider(t)
	tok, err := p.Sign("u1", "alice@example.com", StageFull)
	require.NoError(t, err)

	claims, err := p.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Identity())
	assert.Equal(t, StageFull, claims.Stage)
}

func TestSign_PendingTokenIsShortLived(t *testing.T) {
	p := NewTestProvider(t)
	tok, err := p.Sign("u1", "alice@example.com", StagePending)
	require.NoError(t, err)

	claims, err := p.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, StagePending, claims.Stage)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestVerify_RejectsForeignKey(t *testing.T) {
	a := NewTestProvider(t)
	b := NewTestProvider(t)
	tok, err := a.Sign("u1", "alice@example.com", StageFull)
	require.NoError(t, err)

	_, err = b.Verify(tok)
	assert.Error(t, err)
}

func TestVerify_RejectsHMAC(t *testing.T) {
	p := NewTestProvider(t)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Stage: StageFull, RegisteredClaims: jwt.RegisteredClaims{Subject: "a@b.com"}})
	s, err := tok.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = p.Verify(s)
	assert.Error(t, err)
}

func TestVerify_RejectsUnknownStage(t *testing.T) {
	p := NewTestProvider(t)
	tok, err := p.Sign("u1", "alice@example.com", "admin")
	require.NoError(t, err)

	_, err = p.Verify(tok)
	assert.Error(t, err)
}
