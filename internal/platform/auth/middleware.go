package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// RequireAdmin rejects requests without a valid admin session cookie or bearer token.
func (a *AdminAuthenticator) RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				respondAuthError(w, http.StatusUnauthorized, "unauthenticated", "admin session missing")
				return
			}

			claims, err := a.VerifyToken(token)
			if err != nil {
				respondVerificationError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAdminClaims(r.Context(), claims)))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(AdminCookieName); err == nil {
		if value := strings.TrimSpace(cookie.Value); value != "" {
			return value
		}
	}
	token, _ := extractBearerToken(r.Header.Get("Authorization"))
	return token
}

func extractBearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return "", false
	}

	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}

	return token, true
}

func respondAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   code,
		"message": message,
		"status":  status,
	})
}

func respondVerificationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrTokenExpired):
		respondAuthError(w, http.StatusUnauthorized, "token_expired", "admin session expired")
	case errors.Is(err, ErrAdminNotConfigured):
		respondAuthError(w, http.StatusUnauthorized, "unauthenticated", "admin access not configured")
	default:
		respondAuthError(w, http.StatusUnauthorized, "invalid_token", "admin session invalid")
	}
}
