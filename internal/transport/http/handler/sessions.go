package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-auth-2fa/internal/application/auth"
	"github.com/go-auth-2fa/internal/application/user"
	"github.com/go-auth-2fa/internal/domain"
	jwtinfra "github.com/go-auth-2fa/internal/infrastructure/jwt"
	"github.com/go-auth-2fa/internal/transport/http/middleware"
)

type tokenSigner interface {
	Sign(userID, identity, stage string) (string, error)
}

// SessionHandler handles login, second-factor and current-session endpoints.
type SessionHandler struct {
	auth   auth.Service
	users  user.Service
	tokens tokenSigner
}

func NewSessionHandler(authSvc auth.Service, userSvc user.Service, tokens tokenSigner) *SessionHandler {
	return &SessionHandler{auth: authSvc, users: userSvc, tokens: tokens}
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.auth.Login(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.writeResult(w, r, res)
}

// VerifyCode is reachable only with a pending token, so the identity comes
// from the token and never from the request body.
func (h *SessionHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.VerifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}
	res, err := h.auth.VerifyCode(r.Context(), claims.Identity(), req.Code)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.writeResult(w, r, res)
}

func (h *SessionHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	u, err := h.users.Get(r.Context(), claims.Identity())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UserEnvelope{User: u})
}

func (h *SessionHandler) writeResult(w http.ResponseWriter, r *http.Request, res *auth.Result) {
	userID := ""
	if res.User != nil {
		userID = res.User.UserID
	}
	switch res.Status {
	case auth.StatusAuthenticated:
		token, err := h.tokens.Sign(userID, res.Identity, jwtinfra.StageFull)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, TokenEnvelope{AccessToken: token, TokenType: "Bearer", User: res.User})
	case auth.StatusPendingSecondFactor:
		token, err := h.tokens.Sign(userID, res.Identity, jwtinfra.StagePending)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusAccepted, TokenEnvelope{
			PendingToken: token,
			TokenType:    "Bearer",
			Message:      "verification code sent",
		})
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
