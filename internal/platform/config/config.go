package config

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultEnvFile            = ".env"
	defaultPort               = "8080"
	defaultEnvironment        = "local"
	defaultPublicOrigin       = "http://localhost:3000"
	defaultReadTimeout        = 15 * time.Second
	defaultWriteTimeout       = 30 * time.Second
	defaultIdleTimeout        = 120 * time.Second
	defaultWompiBaseURL       = "https://sandbox.wompi.co/v1"
	defaultWompiCheckoutURL   = "https://checkout.wompi.co/p/"
	defaultWompiTimeout       = 10 * time.Second
	defaultBreakerFailures    = 5
	defaultBreakerOpenTimeout = 30 * time.Second
	defaultAdminSessionTTL    = 24 * time.Hour
	defaultLoginPerMinute     = 10
	defaultDataPrefix         = "komercia-data"
	defaultCartTTL            = 30 * 24 * time.Hour
	defaultPaymentTimeout     = 15 * time.Minute
	defaultCheckoutMode       = CheckoutModeWidget
)

// Checkout hand-off modes.
const (
	CheckoutModeWidget      = "widget"
	CheckoutModeWebCheckout = "webcheckout"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Environment   string
	Server        ServerConfig
	Wompi         WompiConfig
	Admin         AdminConfig
	Storage       StorageConfig
	Cart          CartConfig
	Checkout      CheckoutConfig
	Events        EventsConfig
	Observability ObservabilityConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	PublicOrigin string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// WompiConfig holds payment provider credentials and client tuning.
type WompiConfig struct {
	PublicKey          string
	IntegrityKey       string
	BaseURL            string
	CheckoutURL        string
	RequestTimeout     time.Duration
	BreakerMaxFailures int
	BreakerOpenTimeout time.Duration
}

// AdminConfig controls the back-office login.
type AdminConfig struct {
	SecretKey      string
	SessionTTL     time.Duration
	LoginPerMinute int
}

// StorageConfig points the catalog and uploads at a Cloud Storage bucket.
// An empty bucket selects the in-memory store.
type StorageConfig struct {
	Bucket        string
	DataPrefix    string
	PublicBaseURL string
	EmulatorHost  string
}

// CartConfig selects the cart persistence backend. An empty RedisURL keeps carts in memory.
type CartConfig struct {
	RedisURL string
	TTL      time.Duration
}

// CheckoutConfig bounds how long a payment hand-off may wait for the widget and selects
// between the embedded widget and the hosted web checkout.
type CheckoutConfig struct {
	PaymentTimeout time.Duration
	Mode           string
}

// EventsConfig enables order status publishing when a topic is set.
type EventsConfig struct {
	ProjectID  string
	OrderTopic string
}

// ObservabilityConfig carries the project used to correlate traces with logs.
type ObservabilityConfig struct {
	ProjectID string
}

// IsProduction reports whether secure cookie and transport settings should apply.
func (c Config) IsProduction() bool {
	switch strings.ToLower(c.Environment) {
	case "prod", "production":
		return true
	default:
		return false
	}
}

// SecretResolver resolves references to external secrets (e.g. Secret Manager URIs).
type SecretResolver interface {
	ResolveSecret(ctx context.Context, ref string) (string, error)
}

// SecretResolverFunc adapts ordinary functions to SecretResolver.
type SecretResolverFunc func(context.Context, string) (string, error)

// ResolveSecret resolves the secret using the wrapped function.
func (f SecretResolverFunc) ResolveSecret(ctx context.Context, ref string) (string, error) {
	return f(ctx, ref)
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// SecretError describes failures while resolving a secret reference.
type SecretError struct {
	Ref string
	Err error
}

// Error implements the error interface.
func (e *SecretError) Error() string {
	return fmt.Sprintf("secret resolution failed for ref %q: %v", e.Ref, e.Err)
}

// Unwrap exposes the underlying error.
func (e *SecretError) Unwrap() error { return e.Err }

// MissingSecretsError indicates that one or more required secrets resolved to empty values.
type MissingSecretsError struct {
	names []string
}

// Error implements the error interface. Names are redacted so the message is safe to log.
func (e *MissingSecretsError) Error() string {
	return fmt.Sprintf("missing required secrets [%s]", strings.Join(e.RedactedNames(), ", "))
}

// Names returns the config field names of the missing secrets.
func (e *MissingSecretsError) Names() []string {
	if e == nil {
		return nil
	}
	out := append([]string(nil), e.names...)
	sort.Strings(out)
	return out
}

// RedactedNames returns short hashes of the missing field names.
func (e *MissingSecretsError) RedactedNames() []string {
	if e == nil {
		return nil
	}
	out := make([]string, 0, len(e.names))
	for _, name := range e.names {
		out = append(out, redactSecretName(name))
	}
	sort.Strings(out)
	return out
}

var errSecretResolverNotConfigured = errors.New("secret resolver not configured")

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile         string
	envMap          map[string]string
	useSystemEnv    bool
	secret          SecretResolver
	requiredSecrets []string
}

// WithEnvFile overrides the .env file path used for local overrides. An empty path disables it.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// WithSecretResolver sets the resolver used for secret:// and sm:// references.
func WithSecretResolver(resolver SecretResolver) Option {
	return func(o *loaderOptions) {
		o.secret = resolver
	}
}

// WithRequiredSecrets marks config fields (e.g. "Wompi.IntegrityKey") that must resolve to a value.
func WithRequiredSecrets(names ...string) Option {
	return func(o *loaderOptions) {
		o.requiredSecrets = append(o.requiredSecrets, names...)
	}
}

// Load assembles configuration from defaults, the .env file, the process environment,
// explicit overrides, and secret references, in increasing order of precedence.
func Load(ctx context.Context, opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnv, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if value, ok := options.envMap[key]; ok {
			return value, true
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		value, ok := dotEnv[key]
		return value, ok
	}

	cfg := Config{
		Environment: strings.ToLower(stringWithDefault(lookup, "APP_ENV", defaultEnvironment)),
		Server: ServerConfig{
			Port:         stringWithDefault(lookup, "PORT", defaultPort),
			PublicOrigin: strings.TrimRight(stringWithDefault(lookup, "PUBLIC_ORIGIN", defaultPublicOrigin), "/"),
			ReadTimeout:  durationWithDefault(lookup, "SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Wompi: WompiConfig{
			PublicKey:          stringWithDefault(lookup, "WOMPI_PUBLIC_KEY", ""),
			IntegrityKey:       stringWithDefault(lookup, "WOMPI_INTEGRITY_KEY", ""),
			BaseURL:            strings.TrimRight(stringWithDefault(lookup, "WOMPI_API_BASE_URL", defaultWompiBaseURL), "/"),
			CheckoutURL:        stringWithDefault(lookup, "WOMPI_CHECKOUT_URL", defaultWompiCheckoutURL),
			RequestTimeout:     durationWithDefault(lookup, "WOMPI_REQUEST_TIMEOUT", defaultWompiTimeout),
			BreakerMaxFailures: intWithDefault(lookup, "WOMPI_BREAKER_MAX_FAILURES", defaultBreakerFailures),
			BreakerOpenTimeout: durationWithDefault(lookup, "WOMPI_BREAKER_OPEN_TIMEOUT", defaultBreakerOpenTimeout),
		},
		Admin: AdminConfig{
			SecretKey:      stringWithDefault(lookup, "ADMIN_SECRET_KEY", ""),
			SessionTTL:     durationWithDefault(lookup, "ADMIN_SESSION_TTL", defaultAdminSessionTTL),
			LoginPerMinute: intWithDefault(lookup, "ADMIN_LOGIN_PER_MINUTE", defaultLoginPerMinute),
		},
		Storage: StorageConfig{
			Bucket:        stringWithDefault(lookup, "STORAGE_BUCKET", ""),
			DataPrefix:    strings.Trim(stringWithDefault(lookup, "STORAGE_DATA_PREFIX", defaultDataPrefix), "/"),
			PublicBaseURL: strings.TrimRight(stringWithDefault(lookup, "STORAGE_PUBLIC_BASE_URL", ""), "/"),
			EmulatorHost:  stringWithDefault(lookup, "STORAGE_EMULATOR_HOST", ""),
		},
		Cart: CartConfig{
			RedisURL: stringWithDefault(lookup, "CART_REDIS_URL", ""),
			TTL:      durationWithDefault(lookup, "CART_TTL", defaultCartTTL),
		},
		Checkout: CheckoutConfig{
			PaymentTimeout: durationWithDefault(lookup, "CHECKOUT_PAYMENT_TIMEOUT", defaultPaymentTimeout),
			Mode:           strings.ToLower(stringWithDefault(lookup, "CHECKOUT_MODE", defaultCheckoutMode)),
		},
		Events: EventsConfig{
			ProjectID:  stringWithDefault(lookup, "PUBSUB_PROJECT_ID", ""),
			OrderTopic: stringWithDefault(lookup, "PUBSUB_ORDER_TOPIC", ""),
		},
		Observability: ObservabilityConfig{
			ProjectID: stringWithDefault(lookup, "GOOGLE_CLOUD_PROJECT", ""),
		},
	}

	if cfg.Events.ProjectID == "" {
		cfg.Events.ProjectID = cfg.Observability.ProjectID
	}
	if cfg.Storage.PublicBaseURL == "" && cfg.Storage.Bucket != "" {
		cfg.Storage.PublicBaseURL = "https://storage.googleapis.com/" + cfg.Storage.Bucket
	}

	secretFields := []struct {
		name  string
		field *string
	}{
		{"Wompi.IntegrityKey", &cfg.Wompi.IntegrityKey},
		{"Wompi.PublicKey", &cfg.Wompi.PublicKey},
		{"Admin.SecretKey", &cfg.Admin.SecretKey},
		{"Cart.RedisURL", &cfg.Cart.RedisURL},
	}
	resolved := make(map[string]string, len(secretFields))
	for _, target := range secretFields {
		value, err := resolveSecret(ctx, *target.field, options.secret)
		if err != nil {
			return Config{}, err
		}
		*target.field = value
		resolved[target.name] = strings.TrimSpace(value)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	if missing := findMissingSecrets(options.requiredSecrets, resolved); missing != nil {
		return Config{}, missing
	}

	return cfg, nil
}

func resolveSecret(ctx context.Context, value string, resolver SecretResolver) (string, error) {
	if !isSecretReference(value) {
		return value, nil
	}
	ref := normalizeSecretReference(value)
	if resolver == nil {
		return "", &SecretError{Ref: ref, Err: errSecretResolverNotConfigured}
	}
	secret, err := resolver.ResolveSecret(ctx, ref)
	if err != nil {
		return "", &SecretError{Ref: ref, Err: err}
	}
	return secret, nil
}

func validateConfig(cfg Config) error {
	var invalid []string

	if _, err := strconv.Atoi(cfg.Server.Port); err != nil {
		invalid = append(invalid, "Server.Port")
	}
	if u, err := url.Parse(cfg.Server.PublicOrigin); err != nil || u.Scheme == "" || u.Host == "" {
		invalid = append(invalid, "Server.PublicOrigin")
	}
	if u, err := url.Parse(cfg.Wompi.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		invalid = append(invalid, "Wompi.BaseURL")
	}
	if cfg.Wompi.RequestTimeout <= 0 {
		invalid = append(invalid, "Wompi.RequestTimeout")
	}
	if cfg.Wompi.BreakerMaxFailures <= 0 {
		invalid = append(invalid, "Wompi.BreakerMaxFailures")
	}
	if cfg.Admin.SessionTTL <= 0 {
		invalid = append(invalid, "Admin.SessionTTL")
	}
	if cfg.Storage.DataPrefix == "" {
		invalid = append(invalid, "Storage.DataPrefix")
	}
	if cfg.Checkout.PaymentTimeout <= 0 {
		invalid = append(invalid, "Checkout.PaymentTimeout")
	}
	switch cfg.Checkout.Mode {
	case CheckoutModeWidget, CheckoutModeWebCheckout:
	default:
		invalid = append(invalid, "Checkout.Mode")
	}
	if cfg.Events.OrderTopic != "" && cfg.Events.ProjectID == "" {
		invalid = append(invalid, "Events.ProjectID")
	}

	if len(invalid) > 0 {
		return &ValidationError{fields: invalid}
	}
	return nil
}

func findMissingSecrets(required []string, resolved map[string]string) *MissingSecretsError {
	var missing []string
	seen := make(map[string]struct{}, len(required))
	for _, name := range required {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		if resolved[name] == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &MissingSecretsError{names: missing}
}

func isSecretReference(value string) bool {
	trimmed := strings.TrimSpace(value)
	return strings.HasPrefix(trimmed, "secret://") || strings.HasPrefix(trimmed, "sm://")
}

func normalizeSecretReference(value string) string {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "sm://") {
		return "secret://" + strings.TrimPrefix(trimmed, "sm://")
	}
	return trimmed
}

func redactSecretName(name string) string {
	sum := sha256.Sum256([]byte(name))
	return hex.EncodeToString(sum[:8])
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}
	values, err := godotenv.Read(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return fallback
}
