package payments

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/komercia/storefront/internal/domain"
)

var (
	// ErrWidgetSessionNotFound is returned when no widget hand-off is registered for a reference.
	ErrWidgetSessionNotFound = errors.New("payments: widget session not found")
	// ErrWidgetAlreadyReported is returned when an outcome was already delivered for a reference.
	ErrWidgetAlreadyReported = errors.New("payments: widget outcome already reported")
	// ErrWidgetInvalidParams is returned when the widget parameters are incomplete.
	ErrWidgetInvalidParams = errors.New("payments: invalid widget params")
)

// WidgetCustomer carries the buyer data prefilled in the widget.
type WidgetCustomer struct {
	Email             string
	FullName          string
	PhoneNumber       string
	PhoneNumberPrefix string
}

// WidgetShippingAddress carries the delivery address prefilled in the widget.
type WidgetShippingAddress struct {
	AddressLine1 string
	City         string
	PhoneNumber  string
	Region       string
	Country      string
	PostalCode   string
}

// WidgetParams is everything the payment widget needs to open.
type WidgetParams struct {
	Currency        string
	AmountInCents   int64
	Reference       string
	PublicKey       string
	Signature       string
	RedirectURL     string
	Customer        WidgetCustomer
	ShippingAddress WidgetShippingAddress
	// CheckoutURL is set when the hand-off uses the hosted web checkout.
	CheckoutURL string
}

// Validate reports ErrWidgetInvalidParams when a required field is missing.
func (p WidgetParams) Validate() error {
	switch {
	case strings.TrimSpace(p.Reference) == "",
		strings.TrimSpace(p.Currency) == "",
		strings.TrimSpace(p.Signature) == "",
		p.AmountInCents <= 0:
		return ErrWidgetInvalidParams
	}
	return nil
}

// WidgetOutcome is the transaction summary the widget returns once the buyer finishes.
type WidgetOutcome struct {
	TransactionID string
	Status        domain.TransactionStatus
}

// Approved reports whether the outcome is an approved transaction.
func (o WidgetOutcome) Approved() bool {
	return domain.MapTransactionStatus(o.Status) == domain.OrderStatePaid
}

// WidgetAdapter opens the payment UI and blocks until it reports an outcome.
type WidgetAdapter interface {
	Open(ctx context.Context, params WidgetParams) (WidgetOutcome, error)
}

// WidgetBridge hands widget params to a browser and waits for the browser to report the outcome.
// Open and Pending rendezvous on the order reference.
type WidgetBridge struct {
	mu       sync.Mutex
	sessions map[string]*bridgeSession
}

type bridgeSession struct {
	params    WidgetParams
	published chan struct{}
	opened    bool
	outcome   chan WidgetOutcome
	reported  bool
}

// NewWidgetBridge constructs an empty bridge.
func NewWidgetBridge() *WidgetBridge {
	return &WidgetBridge{sessions: make(map[string]*bridgeSession)}
}

func (b *WidgetBridge) session(reference string) *bridgeSession {
	s, ok := b.sessions[reference]
	if !ok {
		s = &bridgeSession{
			published: make(chan struct{}),
			outcome:   make(chan WidgetOutcome, 1),
		}
		b.sessions[reference] = s
	}
	return s
}

// Open publishes params and waits for Report or ctx cancellation.
func (b *WidgetBridge) Open(ctx context.Context, params WidgetParams) (WidgetOutcome, error) {
	if err := params.Validate(); err != nil {
		return WidgetOutcome{}, err
	}
	reference := params.Reference

	b.mu.Lock()
	s := b.session(reference)
	if s.opened {
		b.mu.Unlock()
		return WidgetOutcome{}, fmt.Errorf("payments: widget already open for %s", reference)
	}
	s.params = params
	s.opened = true
	close(s.published)
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		if current, ok := b.sessions[reference]; ok && current == s {
			delete(b.sessions, reference)
		}
		b.mu.Unlock()
	}()

	select {
	case outcome := <-s.outcome:
		return outcome, nil
	case <-ctx.Done():
		return WidgetOutcome{}, ctx.Err()
	}
}

// Launch satisfies Launcher so the bridge can carry hosted checkout links too.
func (b *WidgetBridge) Launch(ctx context.Context, params WidgetParams) (WidgetOutcome, error) {
	return b.Open(ctx, params)
}

// Pending waits until params for reference have been published by Open.
func (b *WidgetBridge) Pending(ctx context.Context, reference string) (WidgetParams, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return WidgetParams{}, ErrWidgetSessionNotFound
	}

	b.mu.Lock()
	s := b.session(reference)
	b.mu.Unlock()

	select {
	case <-s.published:
		b.mu.Lock()
		params := s.params
		b.mu.Unlock()
		return params, nil
	case <-ctx.Done():
		b.mu.Lock()
		if current, ok := b.sessions[reference]; ok && current == s && !s.opened {
			delete(b.sessions, reference)
		}
		b.mu.Unlock()
		return WidgetParams{}, ctx.Err()
	}
}

// Report delivers the widget outcome for reference to the waiting Open call.
func (b *WidgetBridge) Report(reference string, outcome WidgetOutcome) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.sessions[strings.TrimSpace(reference)]
	if !ok || !s.opened {
		return ErrWidgetSessionNotFound
	}
	if s.reported {
		return ErrWidgetAlreadyReported
	}
	s.reported = true
	s.outcome <- outcome
	return nil
}

// Launcher presents a hosted checkout link to the buyer and returns the resulting outcome.
type Launcher interface {
	Launch(ctx context.Context, params WidgetParams) (WidgetOutcome, error)
}

// WebCheckoutAdapter opens payments through the Wompi hosted checkout page.
type WebCheckoutAdapter struct {
	checkoutURL *url.URL
	launcher    Launcher
}

// NewWebCheckoutAdapter builds an adapter for the hosted checkout rooted at checkoutURL.
func NewWebCheckoutAdapter(checkoutURL string, launcher Launcher) (*WebCheckoutAdapter, error) {
	if launcher == nil {
		return nil, errors.New("payments: web checkout launcher is required")
	}
	u, err := url.Parse(strings.TrimSpace(checkoutURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("payments: invalid web checkout url %q", checkoutURL)
	}
	return &WebCheckoutAdapter{checkoutURL: u, launcher: launcher}, nil
}

// Open builds the hosted checkout link and hands it to the launcher.
func (a *WebCheckoutAdapter) Open(ctx context.Context, params WidgetParams) (WidgetOutcome, error) {
	if err := params.Validate(); err != nil {
		return WidgetOutcome{}, err
	}
	params.CheckoutURL = a.BuildURL(params)
	return a.launcher.Launch(ctx, params)
}

// BuildURL renders the hosted checkout link for params.
func (a *WebCheckoutAdapter) BuildURL(params WidgetParams) string {
	q := url.Values{}
	q.Set("public-key", params.PublicKey)
	q.Set("currency", params.Currency)
	q.Set("amount-in-cents", strconv.FormatInt(params.AmountInCents, 10))
	q.Set("reference", params.Reference)
	q.Set("signature:integrity", params.Signature)
	if params.RedirectURL != "" {
		q.Set("redirect-url", params.RedirectURL)
	}
	if c := params.Customer; c.Email != "" {
		q.Set("customer-data:email", c.Email)
		q.Set("customer-data:full-name", c.FullName)
		q.Set("customer-data:phone-number", c.PhoneNumber)
		q.Set("customer-data:phone-number-prefix", c.PhoneNumberPrefix)
	}
	if s := params.ShippingAddress; s.AddressLine1 != "" {
		q.Set("shipping-address:address-line-1", s.AddressLine1)
		q.Set("shipping-address:city", s.City)
		q.Set("shipping-address:phone-number", s.PhoneNumber)
		q.Set("shipping-address:region", s.Region)
		q.Set("shipping-address:country", s.Country)
		if s.PostalCode != "" {
			q.Set("shipping-address:postal-code", s.PostalCode)
		}
	}
	u := *a.checkoutURL
	u.RawQuery = q.Encode()
	return u.String()
}
