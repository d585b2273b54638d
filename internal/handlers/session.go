package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/komercia/storefront/internal/platform/requestctx"
)

const (
	// CartSessionCookie identifies the browsing session that owns a cart and its checkout.
	CartSessionCookie = "cart-session"
	cartSessionMaxAge = 30 * 24 * time.Hour
)

// CartSessionMiddleware makes sure every request carries a cart session id. Missing or malformed
// cookies are replaced by a fresh UUID v4 before the handler runs.
func CartSessionMiddleware(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := ""
			if cookie, err := r.Cookie(CartSessionCookie); err == nil {
				if parsed, err := uuid.Parse(strings.TrimSpace(cookie.Value)); err == nil {
					sessionID = parsed.String()
				}
			}
			if sessionID == "" {
				sessionID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     CartSessionCookie,
					Value:    sessionID,
					Path:     "/",
					MaxAge:   int(cartSessionMaxAge.Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			next.ServeHTTP(w, r.WithContext(requestctx.WithSessionID(r.Context(), sessionID)))
		})
	}
}
