package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v4"
)

func TestLoginIssuesVerifiableToken(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	authn := NewAdminAuthenticator("s3cret", WithClock(func() time.Time { return now }))

	token, expires, err := authn.Login("s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !expires.Equal(now.Add(24 * time.Hour)) {
		t.Fatalf("expected 24h expiry, got %s", expires)
	}

	claims, err := authn.VerifyToken(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !claims.Admin || claims.Timestamp != now.UnixMilli() {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestLoginRejectsWrongKey(t *testing.T) {
	authn := NewAdminAuthenticator("s3cret")
	if _, _, err := authn.Login("guess"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, _, err := NewAdminAuthenticator("").Login(""); !errors.Is(err, ErrAdminNotConfigured) {
		t.Fatalf("expected not configured, got %v", err)
	}
}

func TestVerifyTokenExpired(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := now
	authn := NewAdminAuthenticator("s3cret", WithClock(func() time.Time { return clock }), WithSessionTTL(time.Hour))

	token, _, err := authn.IssueToken()
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	clock = now.Add(time.Hour)
	if _, err := authn.VerifyToken(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected expired token, got %v", err)
	}
}

func TestVerifyTokenRejectsForeignSignatures(t *testing.T) {
	authn := NewAdminAuthenticator("s3cret")
	other := NewAdminAuthenticator("other")
	token, _, err := other.IssueToken()
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := authn.VerifyToken(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected invalid token, got %v", err)
	}

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, AdminClaims{Admin: true}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := authn.VerifyToken(unsigned); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected alg none to be rejected, got %v", err)
	}
}

func TestCookies(t *testing.T) {
	authn := NewAdminAuthenticator("s3cret", WithSecureCookie(true))
	cookie := authn.SessionCookie("tok")
	if cookie.Name != AdminCookieName || !cookie.HttpOnly || !cookie.Secure || cookie.SameSite != http.SameSiteStrictMode || cookie.Path != "/" {
		t.Fatalf("unexpected cookie %+v", cookie)
	}
	if cookie.MaxAge != 86400 {
		t.Fatalf("expected max age 86400, got %d", cookie.MaxAge)
	}
	if cleared := authn.ClearCookie(); cleared.MaxAge != -1 || cleared.Value != "" {
		t.Fatalf("unexpected clear cookie %+v", cleared)
	}
}

func TestRequireAdmin(t *testing.T) {
	authn := NewAdminAuthenticator("s3cret")
	token, _, err := authn.IssueToken()
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	var sawClaims bool
	handler := authn.RequireAdmin()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawClaims = AdminClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/products", nil)
	req.AddCookie(&http.Cookie{Name: AdminCookieName, Value: token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || !sawClaims {
		t.Fatalf("expected authorised request, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/products", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected bearer token to be accepted, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/products", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without cookie, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "unauthenticated" {
		t.Fatalf("expected unauthenticated error, got %v", body["error"])
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/products", nil)
	req.AddCookie(&http.Cookie{Name: AdminCookieName, Value: "garbage"})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid token, got %d", rec.Code)
	}
}
