package auth

import (
	"errors"
	"net/http"
	"strings"
)

const bearerPrefix = "Bearer "

// Middleware rejects requests without a valid bearer token with 401 and
// attaches the caller's Identity to the request context otherwise.
func Middleware(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := v.Verify(BearerToken(r))
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				http.Error(w, statusText(err), http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) < len(bearerPrefix) || !strings.EqualFold(h[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(h[len(bearerPrefix):])
}

func statusText(err error) string {
	switch {
	case errors.Is(err, ErrMissingCredentials):
		return "missing token"
	case errors.Is(err, ErrTokenExpired):
		return "token expired"
	default:
		return "unauthorized"
	}
}
