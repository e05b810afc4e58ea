package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"libris.org/internal/auth"
)

const (
	authHeader   = "Authorization"
	bearerPrefix = "Bearer "
	basicRealm   = `Basic realm="libris"`
)

var publicPaths = []string{
	"/v1/auth/token",
	"/metrics",
	"/healthz",
	"/readyz",
	"/v1/info",
	"/",
}

// withAuth authenticates every protected request. Basic credentials and
// bearer tokens are both accepted; the resulting principal rides the
// context for role checks further down.
func (a *API) withAuth(next http.Handler) http.Handler {
	if a == nil || a.gate == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		header := strings.TrimSpace(r.Header.Get(authHeader))
		if header == "" {
			unauthorized(w, r, "authentication required")
			return
		}

		var (
			principal auth.Principal
			err       error
		)
		switch {
		case strings.HasPrefix(strings.ToLower(header), "basic "):
			username, password, ok := r.BasicAuth()
			if !ok {
				unauthorized(w, r, "malformed basic credentials")
				return
			}
			principal, err = a.gate.AuthenticateBasic(r.Context(), username, password)
		case strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearerPrefix)):
			token := strings.TrimSpace(header[len(bearerPrefix):])
			principal, err = a.gate.AuthenticateToken(r.Context(), token)
		default:
			unauthorized(w, r, "unsupported authorization scheme")
			return
		}
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				unauthorized(w, r, "invalid credentials")
				return
			}
			writeError(w, r, http.StatusInternalServerError, "authentication error")
			return
		}

		ctx := auth.ContextWithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRoles enforces the endpoint role policy. It writes the response
// itself and reports whether the handler may proceed.
func (a *API) requireRoles(w http.ResponseWriter, r *http.Request, roles ...string) bool {
	if a.gate == nil {
		return true
	}
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		unauthorized(w, r, "authentication required")
		return false
	}
	if err := a.gate.Authorize(principal, roles...); err != nil {
		writeError(w, r, http.StatusForbidden, "insufficient role")
		return false
	}
	return true
}

func unauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	w.Header().Set("WWW-Authenticate", basicRealm)
	writeError(w, r, http.StatusUnauthorized, msg)
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
