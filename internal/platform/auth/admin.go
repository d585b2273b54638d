package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v4"
)

const (
	// AdminCookieName carries the admin session token.
	AdminCookieName   = "admin-token"
	defaultSessionTTL = 24 * time.Hour
)

var (
	// ErrAdminNotConfigured is returned when no admin secret is configured.
	ErrAdminNotConfigured = errors.New("auth: admin secret not configured")
	// ErrInvalidCredentials is returned when the supplied admin key does not match.
	ErrInvalidCredentials = errors.New("auth: invalid admin credentials")
	// ErrTokenExpired signals that the admin session token has expired.
	ErrTokenExpired = errors.New("auth: admin token expired")
	// ErrTokenInvalid signals that the admin session token is malformed or forged.
	ErrTokenInvalid = errors.New("auth: admin token invalid")
)

// AdminClaims are the claims carried by an admin session token.
type AdminClaims struct {
	Admin     bool  `json:"admin"`
	Timestamp int64 `json:"timestamp"`
	jwt.RegisteredClaims
}

// AdminAuthenticator checks the shared admin key and issues HS256 session tokens signed with it.
type AdminAuthenticator struct {
	secret       []byte
	ttl          time.Duration
	secureCookie bool
	now          func() time.Time
}

// AdminOption customises AdminAuthenticator behaviour.
type AdminOption func(*AdminAuthenticator)

// WithSessionTTL overrides the token lifetime.
func WithSessionTTL(ttl time.Duration) AdminOption {
	return func(a *AdminAuthenticator) {
		if ttl > 0 {
			a.ttl = ttl
		}
	}
}

// WithSecureCookie marks issued cookies Secure.
func WithSecureCookie(secure bool) AdminOption {
	return func(a *AdminAuthenticator) {
		a.secureCookie = secure
	}
}

// WithClock injects a custom clock.
func WithClock(now func() time.Time) AdminOption {
	return func(a *AdminAuthenticator) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAdminAuthenticator constructs an authenticator for the shared admin secret.
func NewAdminAuthenticator(secret string, opts ...AdminOption) *AdminAuthenticator {
	a := &AdminAuthenticator{
		secret: []byte(strings.TrimSpace(secret)),
		ttl:    defaultSessionTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Login validates secretKey in constant time and returns a fresh session token.
func (a *AdminAuthenticator) Login(secretKey string) (string, time.Time, error) {
	if a == nil || len(a.secret) == 0 {
		return "", time.Time{}, ErrAdminNotConfigured
	}
	if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(secretKey)), a.secret) != 1 {
		return "", time.Time{}, ErrInvalidCredentials
	}
	return a.IssueToken()
}

// IssueToken signs a new admin session token.
func (a *AdminAuthenticator) IssueToken() (string, time.Time, error) {
	if a == nil || len(a.secret) == 0 {
		return "", time.Time{}, ErrAdminNotConfigured
	}
	issuedAt := a.now().UTC()
	expiresAt := issuedAt.Add(a.ttl)
	claims := AdminClaims{
		Admin:     true,
		Timestamp: issuedAt.UnixMilli(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign admin token: %w", err)
	}
	return signed, expiresAt, nil
}

// VerifyToken parses and validates an admin session token.
func (a *AdminAuthenticator) VerifyToken(token string) (*AdminClaims, error) {
	if a == nil || len(a.secret) == 0 {
		return nil, ErrAdminNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrTokenInvalid
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	claims := &AdminClaims{}
	if _, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !claims.Admin {
		return nil, ErrTokenInvalid
	}
	if claims.ExpiresAt == nil || !a.now().Before(claims.ExpiresAt.Time) {
		return nil, ErrTokenExpired
	}
	return claims, nil
}

// SessionCookie builds the cookie carrying token.
func (a *AdminAuthenticator) SessionCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     AdminCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(a.ttl / time.Second),
		HttpOnly: true,
		Secure:   a.secureCookie,
		SameSite: http.SameSiteStrictMode,
	}
}

// ClearCookie builds a cookie that deletes the admin session.
func (a *AdminAuthenticator) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     AdminCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.secureCookie,
		SameSite: http.SameSiteStrictMode,
	}
}

type adminClaimsContextKey struct{}

// WithAdminClaims attaches verified admin claims to ctx.
func WithAdminClaims(ctx context.Context, claims *AdminClaims) context.Context {
	if claims == nil {
		return ctx
	}
	return context.WithValue(ctx, adminClaimsContextKey{}, claims)
}

// AdminClaimsFromContext retrieves claims stored by RequireAdmin.
func AdminClaimsFromContext(ctx context.Context) (*AdminClaims, bool) {
	claims, ok := ctx.Value(adminClaimsContextKey{}).(*AdminClaims)
	if !ok || claims == nil {
		return nil, false
	}
	return claims, true
}
