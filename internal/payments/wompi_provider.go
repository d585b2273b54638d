package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/komercia/storefront/internal/domain"
)

const (
	defaultWompiTimeout       = 10 * time.Second
	defaultBreakerFailures    = 5
	defaultBreakerOpenTimeout = 30 * time.Second
	maxWompiResponseBytes     = 1 << 20
)

// WompiLogger defines the logging contract for Wompi provider operations.
type WompiLogger func(ctx context.Context, event string, fields map[string]any)

// WompiProviderConfig configures the WompiProvider.
type WompiProviderConfig struct {
	BaseURL            string
	Timeout            time.Duration
	BreakerMaxFailures int
	BreakerOpenTimeout time.Duration
	HTTPClient         *http.Client
	Logger             WompiLogger
}

// WompiProvider implements Provider against the Wompi public transactions API.
type WompiProvider struct {
	baseURL *url.URL
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[domain.Transaction]
	logger  WompiLogger
}

// NewWompiProvider constructs a Wompi Provider using the given configuration.
func NewWompiProvider(cfg WompiProviderConfig) (*WompiProvider, error) {
	raw := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if raw == "" {
		return nil, errors.New("wompi: base url is required")
	}
	base, err := url.Parse(raw)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("wompi: invalid base url %q", cfg.BaseURL)
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultWompiTimeout
		}
		client = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	maxFailures := cfg.BreakerMaxFailures
	if maxFailures <= 0 {
		maxFailures = defaultBreakerFailures
	}
	openTimeout := cfg.BreakerOpenTimeout
	if openTimeout <= 0 {
		openTimeout = defaultBreakerOpenTimeout
	}

	p := &WompiProvider{
		baseURL: base,
		client:  client,
		logger:  logger,
	}
	p.breaker = gobreaker.NewCircuitBreaker[domain.Transaction](gobreaker.Settings{
		Name:        "wompi",
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(maxFailures)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrTransactionNotFound) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger(context.Background(), "wompi.breaker.state_changed", map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	})
	return p, nil
}

type wompiTransactionEnvelope struct {
	Data *wompiTransaction `json:"data"`
}

type wompiTransaction struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	Reference         string `json:"reference"`
	AmountInCents     int64  `json:"amount_in_cents"`
	Currency          string `json:"currency"`
	PaymentMethodType string `json:"payment_method_type"`
	CreatedAt         string `json:"created_at"`
}

// transactionIDPattern matches Wompi ids such as "12345-1700000000-abc".
var transactionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Transaction fetches GET {base}/transactions/{id}.
func (p *WompiProvider) Transaction(ctx context.Context, id string) (domain.Transaction, error) {
	if p == nil {
		return domain.Transaction{}, errors.New("wompi: provider is nil")
	}
	id = strings.TrimSpace(id)
	if !transactionIDPattern.MatchString(id) {
		return domain.Transaction{}, fmt.Errorf("%w: %q", ErrInvalidTransactionID, id)
	}

	tx, err := p.breaker.Execute(func() (domain.Transaction, error) {
		return p.fetchTransaction(ctx, id)
	})
	switch {
	case err == nil:
		return tx, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		p.logger(ctx, "wompi.transaction.rejected", map[string]any{"transactionId": id, "error": err})
		return domain.Transaction{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	default:
		return domain.Transaction{}, err
	}
}

func (p *WompiProvider) fetchTransaction(ctx context.Context, id string) (domain.Transaction, error) {
	endpoint := p.baseURL.JoinPath("transactions", id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("wompi: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.Transaction{}, ctxErr
		}
		p.logger(ctx, "wompi.transaction.failed", map[string]any{"transactionId": id, "error": err})
		return domain.Transaction{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxWompiResponseBytes))
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("%w: read body: %v", ErrProviderUnavailable, err)
	}

	p.logger(ctx, "wompi.transaction.fetched", map[string]any{
		"transactionId": id,
		"status":        resp.StatusCode,
		"latency":       time.Since(start),
	})

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.Transaction{}, ErrTransactionNotFound
	case resp.StatusCode >= http.StatusInternalServerError:
		return domain.Transaction{}, fmt.Errorf("%w: status %d", ErrProviderUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return domain.Transaction{}, fmt.Errorf("wompi: unexpected status %d", resp.StatusCode)
	}

	var envelope wompiTransactionEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return domain.Transaction{}, fmt.Errorf("wompi: decode transaction: %w", err)
	}
	if envelope.Data == nil {
		return domain.Transaction{}, errors.New("wompi: response missing data")
	}
	return envelope.Data.toDomain(), nil
}

func (t wompiTransaction) toDomain() domain.Transaction {
	tx := domain.Transaction{
		ID:                t.ID,
		Status:            domain.TransactionStatus(strings.ToUpper(strings.TrimSpace(t.Status))),
		Reference:         t.Reference,
		AmountInCents:     t.AmountInCents,
		Currency:          t.Currency,
		PaymentMethodType: t.PaymentMethodType,
	}
	if created, err := time.Parse(time.RFC3339, t.CreatedAt); err == nil {
		tx.CreatedAt = created.UTC()
	}
	return tx
}
