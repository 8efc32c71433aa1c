package middleware

import (
	"net/http"
	"strings"

	"lcars-core/internal/config"
	"lcars-core/internal/pkg"
)

// JWT requires a valid bearer token. Without a configured secret it lets
// every request through.
func JWT(cfg *config.Config) Middleware {
	return func(next http.Handler) http.Handler {
		if cfg.JWTSecret == "" {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")

			if !strings.HasPrefix(auth, "Bearer ") {
				http.Error(w, "missing or invalid token", http.StatusUnauthorized)
				return
			}

			if _, err := pkg.ValidateToken(strings.TrimPrefix(auth, "Bearer "), cfg.JWTSecret); err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
