package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-auth-2fa/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// TokenEnvelope wraps login and verify-code responses. Exactly one of
// AccessToken and PendingToken is set.
type TokenEnvelope struct {
	AccessToken  string       `json:"access_token,omitempty"`
	PendingToken string       `json:"pending_token,omitempty"`
	TokenType    string       `json:"token_type"`
	User         *domain.User `json:"user,omitempty"`
	Message      string       `json:"message,omitempty"`
}

// UserEnvelope wraps single-user responses.
type UserEnvelope struct {
	User *domain.User `json:"user"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}
