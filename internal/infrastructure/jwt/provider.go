package jwtinfra

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-auth-2fa/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

// Token stages. A pending token only proves the password step; it is
// accepted solely by the second-factor endpoint.
const (
	StagePending = "pending_second_factor"
	StageFull    = "authenticated"
)

// Claims holds the JWT payload fields. Subject is the normalized email.
type Claims struct {
	UserID string `json:"user_id"`
	Stage  string `json:"stage"`
	jwt.RegisteredClaims
}

// Identity returns the normalized email carried in the subject.
func (c *Claims) Identity() string {
	return c.Subject
}

// Provider signs and verifies RS256 JWTs.
type Provider struct {
	privateKey    *rsa.PrivateKey
	publicKey     *rsa.PublicKey
	expiry        time.Duration
	pendingExpiry time.Duration
}

func NewProvider(cfg *config.Config) (*Provider, error) {
	privBytes, err := os.ReadFile(cfg.JWTPrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	privKey, err := jwt.ParseRSAPrivateKeyFromPEM(privBytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	pubBytes, err := os.ReadFile(cfg.JWTPublicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(pubBytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}

	pending := cfg.OTPTTL
	if pending <= 0 {
		pending = 5 * time.Minute
	}
	return &Provider{privateKey: privKey, publicKey: pubKey, expiry: cfg.JWTExpiry, pendingExpiry: pending}, nil
}

// Sign issues a token for the given stage. Pending tokens live only as long
// as the one-time code they wait for.
func (p *Provider) Sign(userID, identity, stage string) (string, error) {
	ttl := p.expiry
	if stage == StagePending {
		ttl = p.pendingExpiry
	}
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Stage:  stage,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(p.privateKey)
}

func (p *Provider) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return p.publicKey, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Subject == "" || (claims.Stage != StagePending && claims.Stage != StageFull) {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
