package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	goGate "github.com/MrEthical07/goGate"
)

// AdminValidator is satisfied by *goGate.Engine.
type AdminValidator interface {
	ValidateAdmin(ctx context.Context, token string) (goGate.AdminIdentity, error)
}

type adminContextKey struct{}

// AdminFromContext returns the identity stored by [RequireAdmin].
func AdminFromContext(ctx context.Context) (goGate.AdminIdentity, bool) {
	id, ok := ctx.Value(adminContextKey{}).(goGate.AdminIdentity)
	return id, ok
}

// RequireAdmin returns middleware that admits only requests carrying a valid
// admin token in the Authorization header.
func RequireAdmin(validator AdminValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if validator == nil {
				writeUnauthorized(w)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeUnauthorized(w)
				return
			}

			id, err := validator.ValidateAdmin(r.Context(), token)
			if err != nil {
				writeUnauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), adminContextKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="gogate-admin"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "unauthorized",
		"message": "admin token required",
	})
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}
