package httpapi

import (
	"errors"
	"net/http"
	"time"

	"libris.org/internal/audit"
	"libris.org/internal/auth"
)

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// handleAuthToken exchanges Basic credentials for a short-lived bearer
// token. The endpoint sits outside withAuth, so it checks the header itself.
func (a *API) handleAuthToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if a.gate == nil {
		writeError(w, r, http.StatusServiceUnavailable, "authentication disabled")
		return
	}

	username, password, ok := r.BasicAuth()
	if !ok {
		unauthorized(w, r, "basic credentials required")
		return
	}

	principal, err := a.gate.AuthenticateBasic(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			unauthorized(w, r, "invalid credentials")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "authentication error")
		return
	}

	token, expiresAt, err := a.gate.IssueToken(principal)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "token generation failed")
		return
	}

	ctx := auth.ContextWithPrincipal(r.Context(), principal)
	_ = audit.LogEvent(ctx, "auth.token.issued", map[string]any{
		"roles":      principal.Roles,
		"expires_at": expiresAt.Format(time.RFC3339),
	})

	writeJSON(w, http.StatusOK, tokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
	})
}
