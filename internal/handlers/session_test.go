package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/komercia/storefront/internal/platform/requestctx"
)

func captureSession(t *testing.T, secure bool, cookie *http.Cookie) (string, *httptest.ResponseRecorder) {
	t.Helper()
	var seen string
	handler := CartSessionMiddleware(secure)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestctx.SessionID(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return seen, rr
}

func TestCartSessionMiddlewareIssuesCookie(t *testing.T) {
	sessionID, rr := captureSession(t, true, nil)

	if _, err := uuid.Parse(sessionID); err != nil {
		t.Fatalf("expected uuid session id, got %q", sessionID)
	}
	cookies := rr.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	cookie := cookies[0]
	if cookie.Name != CartSessionCookie || cookie.Value != sessionID {
		t.Fatalf("unexpected cookie %s=%s", cookie.Name, cookie.Value)
	}
	if !cookie.HttpOnly || !cookie.Secure || cookie.SameSite != http.SameSiteLaxMode {
		t.Fatalf("unexpected cookie attributes %+v", cookie)
	}
	if cookie.MaxAge != 30*24*60*60 {
		t.Fatalf("expected 30 day max age, got %d", cookie.MaxAge)
	}
}

func TestCartSessionMiddlewareReusesValidCookie(t *testing.T) {
	existing := uuid.NewString()
	sessionID, rr := captureSession(t, false, &http.Cookie{Name: CartSessionCookie, Value: existing})

	if sessionID != existing {
		t.Fatalf("expected session %s, got %s", existing, sessionID)
	}
	if len(rr.Result().Cookies()) != 0 {
		t.Fatalf("expected no new cookie")
	}
}

func TestCartSessionMiddlewareReplacesMalformedCookie(t *testing.T) {
	sessionID, rr := captureSession(t, false, &http.Cookie{Name: CartSessionCookie, Value: "../../etc"})

	if sessionID == "../../etc" {
		t.Fatalf("expected malformed cookie to be replaced")
	}
	if len(rr.Result().Cookies()) != 1 {
		t.Fatalf("expected replacement cookie")
	}
}
