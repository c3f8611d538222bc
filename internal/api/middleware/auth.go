package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/carepal-health/carepal/internal/service"
)

type contextKey string

const sessionContextKey contextKey = "session"

// SessionFromContext returns the authenticated session, or nil outside the
// authenticated route group.
func SessionFromContext(ctx context.Context) *service.Session {
	s, _ := ctx.Value(sessionContextKey).(*service.Session)
	return s
}

// SessionAuth resolves the bearer token against the session store and puts
// the session on the request context. Unknown or expired tokens get 401.
func SessionAuth(sessions *service.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			session, err := sessions.Get(parts[1])
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid or expired session token")
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, &session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
