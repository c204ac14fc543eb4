package handler

import (
	"net/http"
	"net/url"

	"github.com/go-auth-2fa/internal/application/auth"
	"github.com/go-chi/chi/v5"
)

// LockoutHandler exposes the operator unlock path.
type LockoutHandler struct {
	auth auth.Service
}

func NewLockoutHandler(authSvc auth.Service) *LockoutHandler {
	return &LockoutHandler{auth: authSvc}
}

func (h *LockoutHandler) Reset(w http.ResponseWriter, r *http.Request) {
	email, err := url.PathUnescape(chi.URLParam(r, "email"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid email")
		return
	}
	if err := h.auth.UnlockAccount(r.Context(), email); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "account unlocked"})
}
