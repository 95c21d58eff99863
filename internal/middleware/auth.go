package middleware

import (
	"errors"
	"net/http"

	"github.com/bryanwahyu/skillscope/internal/domain"
	"github.com/bryanwahyu/skillscope/internal/domain/identity"
	"github.com/bryanwahyu/skillscope/internal/logger"
)

const (
	AuthNone     = "none"
	AuthJWT      = "jwt"
	AuthSupabase = "supabase"
)

// probes never need a session
var openPaths = map[string]bool{"/health": true, "/ready": true, "/live": true, "/metrics": true}

// Authenticate attaches the session for a bearer token. Requests without a
// token get fallback when it is set and stay anonymous otherwise. A token that
// fails verification is rejected with 401.
func Authenticate(v identity.Verifier, fallback *identity.Session, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if openPaths[r.URL.Path] || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			token := r.Header.Get("Authorization")
			if token == "" {
				if fallback != nil {
					s := *fallback
					r = r.WithContext(identity.WithSession(r.Context(), &s))
				}
				next.ServeHTTP(w, r)
				return
			}

			s, err := verify(r, v, token)
			if err != nil {
				log.Warn("rejected bearer token", "path", r.URL.Path, "error", err)
				status, msg := http.StatusUnauthorized, "Authentication required"
				if !errors.Is(err, domain.ErrUnauthenticated) {
					status, msg = http.StatusServiceUnavailable, "Authentication service unavailable"
				}
				WriteError(w, status, msg)
				return
			}
			next.ServeHTTP(w, r.WithContext(identity.WithSession(r.Context(), s)))
		})
	}
}

// RequireSession rejects anonymous requests.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !identity.FromContext(r.Context()).Authenticated() {
			WriteError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func verify(r *http.Request, v identity.Verifier, token string) (*identity.Session, error) {
	if v == nil {
		return nil, domain.ErrUnauthenticated
	}
	return v.Verify(r.Context(), token)
}
