package server

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// tokenAuthenticator gates admin-only routes behind static bearer tokens.
type tokenAuthenticator struct {
	tokens [][]byte
}

func newTokenAuthenticator(tokens []string) *tokenAuthenticator {
	auth := &tokenAuthenticator{}
	for _, t := range tokens {
		t = strings.TrimSpace(t)
		if t != "" {
			auth.tokens = append(auth.tokens, []byte(t))
		}
	}
	return auth
}

func (a *tokenAuthenticator) enabled() bool {
	return a != nil && len(a.tokens) > 0
}

func (a *tokenAuthenticator) allow(r *http.Request) bool {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	presented := []byte(strings.TrimSpace(header[len(prefix):]))
	for _, token := range a.tokens {
		if subtle.ConstantTimeCompare(presented, token) == 1 {
			return true
		}
	}
	return false
}

// requireAuth wraps admin handlers. When no tokens are configured the route
// is closed outright rather than left open.
func (a *tokenAuthenticator) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.enabled() || !a.allow(r) {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
