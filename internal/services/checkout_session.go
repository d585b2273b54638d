package services

import (
	"context"
	"errors"
	"maps"
	"strings"
	"sync"
	"time"

	domain "github.com/komercia/storefront/internal/domain"
	"github.com/komercia/storefront/internal/payments"
)

var (
	// ErrCheckoutCartEmpty indicates checkout was started without cart entries.
	ErrCheckoutCartEmpty = errors.New("checkout service: cart is empty")
	// ErrCheckoutNotReady indicates Pay was called without a signature or a valid buyer form.
	ErrCheckoutNotReady = errors.New("checkout service: not ready to pay")
	// ErrCheckoutInvalidInput indicates a missing session id.
	ErrCheckoutInvalidInput = errors.New("checkout service: invalid input")
)

// CheckoutState is the position of a session in the checkout flow.
type CheckoutState string

const (
	CheckoutCollectingInfo    CheckoutState = "collecting_info"
	CheckoutAwaitingSignature CheckoutState = "awaiting_signature"
	CheckoutReadyToPay        CheckoutState = "ready_to_pay"
	CheckoutProcessing        CheckoutState = "processing"
	CheckoutCompleted         CheckoutState = "completed"
)

// CheckoutOutcome records how the last payment attempt ended.
type CheckoutOutcome string

const (
	CheckoutOutcomeSuccess CheckoutOutcome = "success"
	CheckoutOutcomeFailure CheckoutOutcome = "failure"
)

// Error kinds surfaced on a snapshot.
const (
	CheckoutErrorNetwork = "network"
	CheckoutErrorPayment = "payment"
)

const (
	checkoutCurrency    = domain.CurrencyCOP
	phonePrefixColombia = "+57"
	countryColombia     = "CO"

	msgSignatureFailed = "Error al cargar datos de pago"
	msgWidgetFailed    = "Error al abrir el checkout"
	msgPaymentExpired  = "El tiempo para completar el pago ha expirado. Por favor, intenta nuevamente."
	msgPaymentRejected = "El pago no fue aprobado. Puedes intentarlo nuevamente."
)

// CheckoutSnapshot is a consistent copy of a session's state.
type CheckoutSnapshot struct {
	State          CheckoutState
	Reference      string
	AmountInCents  int64
	Subtotal       int64
	Shipping       int64
	Total          int64
	HasSignature   bool
	CanPay         bool
	Error          string
	ErrorKind      string
	ErrorRetryable bool
	FieldErrors    map[string]string
	Outcome        CheckoutOutcome
	TransactionID  string
	Buyer          BuyerInfo
}

// CheckoutSessionDeps wires the ports of a single checkout session.
type CheckoutSessionDeps struct {
	Cart         CartStore
	Signatures   SignatureClient
	Widget       WidgetAdapter
	NextRef      func() string
	PublicKey    string
	PublicOrigin string
	Logger       func(context.Context, string, map[string]any)
}

type checkoutSession struct {
	cart        CartStore
	signatures  SignatureClient
	widget      WidgetAdapter
	nextRef     func() string
	publicKey   string
	redirectURL string
	logger      func(context.Context, string, map[string]any)

	mu        sync.Mutex
	attempt   int
	inFlight  bool
	state     CheckoutState
	reference string
	issued    map[string]struct{}
	signature string
	totals    domain.CartTotals
	buyer     BuyerInfo
	errMsg    string
	errKind   string
	retryable bool
	outcome   CheckoutOutcome
	txID      string
	lastUsed  time.Time
}

var _ CheckoutSession = (*checkoutSession)(nil)

// NewCheckoutSession builds a session in collecting_info.
func NewCheckoutSession(deps CheckoutSessionDeps) (CheckoutSession, error) {
	return newCheckoutSession(deps)
}

func newCheckoutSession(deps CheckoutSessionDeps) (*checkoutSession, error) {
	switch {
	case deps.Cart == nil:
		return nil, errors.New("checkout service: cart store is required")
	case deps.Signatures == nil:
		return nil, errors.New("checkout service: signature client is required")
	case deps.Widget == nil:
		return nil, errors.New("checkout service: widget adapter is required")
	case deps.NextRef == nil:
		return nil, errors.New("checkout service: reference generator is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &checkoutSession{
		cart:        deps.Cart,
		signatures:  deps.Signatures,
		widget:      deps.Widget,
		nextRef:     deps.NextRef,
		publicKey:   strings.TrimSpace(deps.PublicKey),
		redirectURL: strings.TrimRight(strings.TrimSpace(deps.PublicOrigin), "/") + "/confirmacion",
		logger:      logger,
		state:       CheckoutCollectingInfo,
		issued:      make(map[string]struct{}),
	}, nil
}

// Start mints a reference for the current cart and requests its signature. A call made while a
// signature request or a payment is in flight returns the current snapshot unchanged.
func (s *checkoutSession) Start(ctx context.Context) (CheckoutSnapshot, error) {
	if snap, busy := s.busySnapshot(); busy {
		return snap, nil
	}

	entries, err := s.cart.Entries(ctx)
	if err != nil {
		return s.Snapshot(), err
	}
	if len(entries) == 0 {
		return s.Snapshot(), ErrCheckoutCartEmpty
	}
	return s.beginSigning(ctx, domain.ComputeCartTotals(entries)), nil
}

// beginSigning mints a new reference for totals and requests its signature. It is a no-op while
// another attempt or a payment holds the session.
func (s *checkoutSession) beginSigning(ctx context.Context, totals domain.CartTotals) CheckoutSnapshot {
	s.mu.Lock()
	if s.inFlight || s.state == CheckoutProcessing {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap
	}
	s.attempt++
	attempt := s.attempt
	s.inFlight = true
	s.state = CheckoutAwaitingSignature
	s.reference = s.nextRef()
	s.issued[s.reference] = struct{}{}
	s.signature = ""
	s.totals = totals
	s.outcome = ""
	s.txID = ""
	s.clearErrorLocked()
	reference, amount := s.reference, s.amountLocked()
	s.mu.Unlock()

	s.logger(ctx, "checkout.started", map[string]any{
		"reference":     reference,
		"amountInCents": amount,
		"attempt":       attempt,
	})
	signature, err := s.signatures.ComputeSignature(ctx, reference, amount, checkoutCurrency)
	s.resolveSignature(ctx, attempt, signature, err)
	return s.Snapshot()
}

func (s *checkoutSession) resolveSignature(ctx context.Context, attempt int, signature string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if attempt != s.attempt {
		s.logger(ctx, "checkout.signature_stale", map[string]any{"attempt": attempt, "current": s.attempt})
		return
	}
	s.inFlight = false
	if err != nil {
		s.state = CheckoutCollectingInfo
		s.setErrorLocked(CheckoutErrorNetwork, msgSignatureFailed, true)
		s.logger(ctx, "checkout.signature_failed", map[string]any{
			"reference": s.reference,
			"error":     err.Error(),
		})
		return
	}
	s.signature = signature
	s.evaluateReadinessLocked()
}

// UpdateBuyer stores the form fields and re-evaluates readiness. It never waits on a signature request.
func (s *checkoutSession) UpdateBuyer(info BuyerInfo) CheckoutSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buyer = info
	s.evaluateReadinessLocked()
	return s.snapshotLocked()
}

// Pay opens the payment widget and blocks until it reports an outcome or ctx ends. The cart is
// re-read first: when its totals moved since the signature was issued, the session is re-signed
// under a new reference and Pay returns ErrCheckoutNotReady.
func (s *checkoutSession) Pay(ctx context.Context) (CheckoutSnapshot, error) {
	s.mu.Lock()
	if !s.payableLocked() {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, ErrCheckoutNotReady
	}
	attempt, signed := s.attempt, s.totals
	s.mu.Unlock()

	entries, err := s.cart.Entries(ctx)
	if err != nil {
		return s.Snapshot(), err
	}
	if len(entries) == 0 {
		return s.Reset(), ErrCheckoutCartEmpty
	}
	if current := domain.ComputeCartTotals(entries); current != signed {
		s.logger(ctx, "checkout.cart_changed", map[string]any{
			"signedSubtotal":  signed.Subtotal,
			"currentSubtotal": current.Subtotal,
		})
		return s.beginSigning(ctx, current), ErrCheckoutNotReady
	}

	s.mu.Lock()
	if attempt != s.attempt || !s.payableLocked() {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, ErrCheckoutNotReady
	}
	s.state = CheckoutProcessing
	s.outcome = ""
	s.txID = ""
	s.clearErrorLocked()
	params := s.widgetParamsLocked()
	s.mu.Unlock()

	outcome, err := s.widget.Open(ctx, params)

	if err == nil && outcome.Approved() {
		// The cart must be emptied even when the request that carried the outcome is gone.
		if clearErr := s.cart.Clear(context.WithoutCancel(ctx)); clearErr != nil {
			s.logger(ctx, "checkout.cart_clear_failed", map[string]any{
				"reference": params.Reference,
				"error":     clearErr.Error(),
			})
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case err == nil && outcome.Approved():
		s.state = CheckoutCompleted
		s.outcome = CheckoutOutcomeSuccess
		s.txID = outcome.TransactionID
		s.logger(ctx, "checkout.completed", map[string]any{
			"reference":     s.reference,
			"transactionId": s.txID,
		})
	case err != nil:
		s.failLocked(ctx, failureMessage(err), "", err.Error())
	default:
		s.failLocked(ctx, msgPaymentRejected, outcome.TransactionID, string(outcome.Status))
	}
	return s.snapshotLocked(), nil
}

// failLocked records a failed attempt and returns the session to ready_to_pay so it can be retried.
func (s *checkoutSession) failLocked(ctx context.Context, message, txID, reason string) {
	s.outcome = CheckoutOutcomeFailure
	s.txID = txID
	s.state = CheckoutReadyToPay
	s.setErrorLocked(CheckoutErrorPayment, message, true)
	s.logger(ctx, "checkout.payment_failed", map[string]any{
		"reference":     s.reference,
		"transactionId": txID,
		"reason":        reason,
	})
}

func (s *checkoutSession) DismissError() CheckoutSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearErrorLocked()
	if s.outcome == CheckoutOutcomeFailure {
		s.outcome = ""
	}
	return s.snapshotLocked()
}

// Reset abandons the current attempt. Late signature responses for it are ignored.
// A session that is processing a payment is left untouched.
func (s *checkoutSession) Reset() CheckoutSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == CheckoutProcessing {
		return s.snapshotLocked()
	}
	s.attempt++
	s.inFlight = false
	s.state = CheckoutCollectingInfo
	s.reference = ""
	s.signature = ""
	s.totals = domain.CartTotals{}
	s.outcome = ""
	s.txID = ""
	s.clearErrorLocked()
	return s.snapshotLocked()
}

func (s *checkoutSession) Snapshot() CheckoutSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *checkoutSession) issuedReference(reference string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.issued[reference]
	return ok
}

func (s *checkoutSession) busySnapshot() (CheckoutSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(), s.inFlight || s.state == CheckoutProcessing
}

func (s *checkoutSession) payableLocked() bool {
	return s.state == CheckoutReadyToPay && s.signature != "" && len(ValidateBuyer(s.buyer)) == 0
}

func (s *checkoutSession) evaluateReadinessLocked() {
	if s.signature == "" {
		return
	}
	valid := len(ValidateBuyer(s.buyer)) == 0
	switch {
	case s.state == CheckoutAwaitingSignature && valid:
		s.state = CheckoutReadyToPay
	case s.state == CheckoutReadyToPay && !valid:
		s.state = CheckoutAwaitingSignature
	}
}

func (s *checkoutSession) snapshotLocked() CheckoutSnapshot {
	fieldErrors := ValidateBuyer(s.buyer)
	return CheckoutSnapshot{
		State:          s.state,
		Reference:      s.reference,
		AmountInCents:  s.amountLocked(),
		Subtotal:       s.totals.Subtotal,
		Shipping:       s.totals.Shipping,
		Total:          s.totals.Total,
		HasSignature:   s.signature != "",
		CanPay:         s.state == CheckoutReadyToPay && s.signature != "" && len(fieldErrors) == 0,
		Error:          s.errMsg,
		ErrorKind:      s.errKind,
		ErrorRetryable: s.retryable,
		FieldErrors:    maps.Clone(fieldErrors),
		Outcome:        s.outcome,
		TransactionID:  s.txID,
		Buyer:          s.buyer,
	}
}

// amountLocked is the subtotal in cents. Shipping is shown to the buyer but not charged through the widget.
func (s *checkoutSession) amountLocked() int64 {
	return domain.ToCents(s.totals.Subtotal)
}

func (s *checkoutSession) widgetParamsLocked() payments.WidgetParams {
	buyer := s.buyer
	return payments.WidgetParams{
		Currency:      checkoutCurrency,
		AmountInCents: s.amountLocked(),
		Reference:     s.reference,
		PublicKey:     s.publicKey,
		Signature:     s.signature,
		RedirectURL:   s.redirectURL,
		Customer: payments.WidgetCustomer{
			Email:             strings.TrimSpace(buyer.Email),
			FullName:          buyer.FullName(),
			PhoneNumber:       strings.TrimSpace(buyer.Phone),
			PhoneNumberPrefix: phonePrefixColombia,
		},
		ShippingAddress: payments.WidgetShippingAddress{
			AddressLine1: strings.TrimSpace(buyer.Address),
			City:         strings.TrimSpace(buyer.City),
			PhoneNumber:  strings.TrimSpace(buyer.Phone),
			Region:       strings.TrimSpace(buyer.Department),
			Country:      countryColombia,
			PostalCode:   strings.TrimSpace(buyer.PostalCode),
		},
	}
}

func (s *checkoutSession) setErrorLocked(kind, message string, retryable bool) {
	s.errKind = kind
	s.errMsg = message
	s.retryable = retryable
}

func (s *checkoutSession) clearErrorLocked() {
	s.setErrorLocked("", "", false)
}

func (s *checkoutSession) touch(now time.Time) {
	s.mu.Lock()
	s.lastUsed = now
	s.mu.Unlock()
}

func (s *checkoutSession) idleSince(now time.Time, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state != CheckoutProcessing && now.Sub(s.lastUsed) > ttl
}

func failureMessage(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return msgPaymentExpired
	}
	return msgWidgetFailed
}
