package domain

import "time"

// Challenge is a pending email one-time code for an identity.
type Challenge struct {
	Identity  string    `json:"identity"`
	Code      string    `json:"code"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ChallengeOutcome is the result of checking a submitted code.
type ChallengeOutcome int

const (
	ChallengeNone ChallengeOutcome = iota
	ChallengeMatched
	ChallengeExpired
	ChallengeMismatch
)

func (o ChallengeOutcome) String() string {
	switch o {
	case ChallengeMatched:
		return "matched"
	case ChallengeExpired:
		return "expired"
	case ChallengeMismatch:
		return "mismatch"
	default:
		return "no_challenge"
	}
}
