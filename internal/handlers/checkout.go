package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	domain "github.com/komercia/storefront/internal/domain"
	"github.com/komercia/storefront/internal/payments"
	"github.com/komercia/storefront/internal/platform/httpx"
	"github.com/komercia/storefront/internal/platform/requestctx"
	"github.com/komercia/storefront/internal/services"
)

const (
	maxCheckoutBodySize          = 8 * 1024
	defaultCheckoutPaymentWindow = 15 * time.Minute
	widgetPublishTimeout         = 10 * time.Second
	outcomeSettleTimeout         = 10 * time.Second
)

// WidgetHandOff is the browser side of the widget bridge.
type WidgetHandOff interface {
	Pending(ctx context.Context, reference string) (payments.WidgetParams, error)
	Report(reference string, outcome payments.WidgetOutcome) error
}

// CheckoutHandlers drives the checkout session of the current browsing session.
type CheckoutHandlers struct {
	checkout      services.CheckoutService
	handOff       WidgetHandOff
	paymentWindow time.Duration

	mu       sync.Mutex
	payments map[string]chan struct{}
}

// CheckoutOption customises CheckoutHandlers.
type CheckoutOption func(*CheckoutHandlers)

// WithPaymentWindow bounds how long a payment may stay open in the widget.
func WithPaymentWindow(window time.Duration) CheckoutOption {
	return func(h *CheckoutHandlers) {
		if window > 0 {
			h.paymentWindow = window
		}
	}
}

// NewCheckoutHandlers constructs checkout handlers. Routes expect CartSessionMiddleware upstream.
func NewCheckoutHandlers(checkout services.CheckoutService, handOff WidgetHandOff, opts ...CheckoutOption) *CheckoutHandlers {
	h := &CheckoutHandlers{
		checkout:      checkout,
		handOff:       handOff,
		paymentWindow: defaultCheckoutPaymentWindow,
		payments:      make(map[string]chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes wires the /checkout endpoints onto the provided router.
func (h *CheckoutHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Route("/session", func(s chi.Router) {
		s.Post("/", h.start)
		s.Get("/", h.snapshot)
		s.Delete("/", h.reset)
		s.Put("/buyer", h.updateBuyer)
		s.Post("/pay", h.pay)
		s.Post("/outcome", h.reportOutcome)
		s.Delete("/error", h.dismissError)
	})
}

type buyerPayload struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	Department string `json:"department"`
	PostalCode string `json:"postalCode,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

func (p buyerPayload) toModel() services.BuyerInfo {
	return services.BuyerInfo{
		FirstName:  p.FirstName,
		LastName:   p.LastName,
		Email:      p.Email,
		Phone:      p.Phone,
		Address:    p.Address,
		City:       p.City,
		Department: p.Department,
		PostalCode: p.PostalCode,
		Notes:      p.Notes,
	}
}

type snapshotError struct {
	Message   string `json:"message"`
	Kind      string `json:"kind"`
	Retryable bool   `json:"retryable"`
}

type snapshotPayload struct {
	State           string            `json:"state"`
	Reference       string            `json:"reference,omitempty"`
	AmountInCents   int64             `json:"amountInCents"`
	Subtotal        int64             `json:"subtotal"`
	Shipping        int64             `json:"shipping"`
	Total           int64             `json:"total"`
	FormattedTotal  string            `json:"formattedTotal"`
	HasSignature    bool              `json:"hasSignature"`
	CanPay          bool              `json:"canPay"`
	Error           *snapshotError    `json:"error,omitempty"`
	FieldErrors     map[string]string `json:"fieldErrors"`
	Outcome         string            `json:"outcome,omitempty"`
	TransactionID   string            `json:"transactionId,omitempty"`
	Buyer           buyerPayload      `json:"buyer"`
	ConfirmationURL string            `json:"confirmationUrl,omitempty"`
}

func newSnapshotPayload(snap services.CheckoutSnapshot) snapshotPayload {
	payload := snapshotPayload{
		State:          string(snap.State),
		Reference:      snap.Reference,
		AmountInCents:  snap.AmountInCents,
		Subtotal:       snap.Subtotal,
		Shipping:       snap.Shipping,
		Total:          snap.Total,
		FormattedTotal: domain.FormatPrice(snap.Total),
		HasSignature:   snap.HasSignature,
		CanPay:         snap.CanPay,
		FieldErrors:    snap.FieldErrors,
		Outcome:        string(snap.Outcome),
		TransactionID:  snap.TransactionID,
		Buyer: buyerPayload{
			FirstName:  snap.Buyer.FirstName,
			LastName:   snap.Buyer.LastName,
			Email:      snap.Buyer.Email,
			Phone:      snap.Buyer.Phone,
			Address:    snap.Buyer.Address,
			City:       snap.Buyer.City,
			Department: snap.Buyer.Department,
			PostalCode: snap.Buyer.PostalCode,
			Notes:      snap.Buyer.Notes,
		},
	}
	if payload.FieldErrors == nil {
		payload.FieldErrors = map[string]string{}
	}
	if snap.Error != "" {
		payload.Error = &snapshotError{Message: snap.Error, Kind: snap.ErrorKind, Retryable: snap.ErrorRetryable}
	}
	if snap.Outcome == services.CheckoutOutcomeSuccess {
		payload.ConfirmationURL = "/confirmacion?pedido=" + snap.Reference
		if snap.TransactionID != "" {
			payload.ConfirmationURL = "/confirmacion?id=" + snap.TransactionID
		}
	}
	return payload
}

type widgetCustomerPayload struct {
	Email             string `json:"email"`
	FullName          string `json:"fullName"`
	PhoneNumber       string `json:"phoneNumber"`
	PhoneNumberPrefix string `json:"phoneNumberPrefix"`
}

type widgetShippingPayload struct {
	AddressLine1 string `json:"addressLine1"`
	City         string `json:"city"`
	PhoneNumber  string `json:"phoneNumber"`
	Region       string `json:"region"`
	Country      string `json:"country"`
	PostalCode   string `json:"postalCode,omitempty"`
}

type widgetSignaturePayload struct {
	Integrity string `json:"integrity"`
}

type widgetPayload struct {
	Currency        string                 `json:"currency"`
	AmountInCents   int64                  `json:"amountInCents"`
	Reference       string                 `json:"reference"`
	PublicKey       string                 `json:"publicKey"`
	Signature       widgetSignaturePayload `json:"signature"`
	RedirectURL     string                 `json:"redirectUrl"`
	CustomerData    widgetCustomerPayload  `json:"customerData"`
	ShippingAddress widgetShippingPayload  `json:"shippingAddress"`
	CheckoutURL     string                 `json:"checkoutUrl,omitempty"`
}

func newWidgetPayload(params payments.WidgetParams) widgetPayload {
	return widgetPayload{
		Currency:      params.Currency,
		AmountInCents: params.AmountInCents,
		Reference:     params.Reference,
		PublicKey:     params.PublicKey,
		Signature:     widgetSignaturePayload{Integrity: params.Signature},
		RedirectURL:   params.RedirectURL,
		CustomerData: widgetCustomerPayload{
			Email:             params.Customer.Email,
			FullName:          params.Customer.FullName,
			PhoneNumber:       params.Customer.PhoneNumber,
			PhoneNumberPrefix: params.Customer.PhoneNumberPrefix,
		},
		ShippingAddress: widgetShippingPayload{
			AddressLine1: params.ShippingAddress.AddressLine1,
			City:         params.ShippingAddress.City,
			PhoneNumber:  params.ShippingAddress.PhoneNumber,
			Region:       params.ShippingAddress.Region,
			Country:      params.ShippingAddress.Country,
			PostalCode:   params.ShippingAddress.PostalCode,
		},
		CheckoutURL: params.CheckoutURL,
	}
}

type payResponse struct {
	Widget   *widgetPayload  `json:"widget,omitempty"`
	Snapshot snapshotPayload `json:"snapshot"`
}

type outcomeRequest struct {
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
}

func (h *CheckoutHandlers) start(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	snap, err := session.Start(ctx)
	if err != nil {
		writeCheckoutError(ctx, w, err, snap)
		return
	}
	if snap.ErrorKind == services.CheckoutErrorNetwork {
		httpx.WriteError(ctx, w, httpx.NewError("signature_unavailable", snap.Error, http.StatusBadGateway).
			WithDetails(map[string]any{"snapshot": newSnapshotPayload(snap)}))
		return
	}
	writeJSONResponse(w, http.StatusOK, newSnapshotPayload(snap))
}

func (h *CheckoutHandlers) snapshot(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSONResponse(w, http.StatusOK, newSnapshotPayload(session.Snapshot()))
}

func (h *CheckoutHandlers) reset(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSONResponse(w, http.StatusOK, newSnapshotPayload(session.Reset()))
}

func (h *CheckoutHandlers) updateBuyer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	var req buyerPayload
	if err := decodeJSONBody(r, maxCheckoutBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, newSnapshotPayload(session.UpdateBuyer(req.toModel())))
}

func (h *CheckoutHandlers) dismissError(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSONResponse(w, http.StatusOK, newSnapshotPayload(session.DismissError()))
}

// pay opens the payment in the background and answers with the widget params once they are published.
// A repeated call while the payment is open returns the same params without starting a new attempt.
func (h *CheckoutHandlers) pay(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := requestctx.SessionID(ctx)
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	if h.handOff == nil {
		httpx.WriteError(ctx, w, httpx.NewError("payment_widget_unavailable", "payment widget is unavailable", http.StatusServiceUnavailable))
		return
	}

	snap := session.Snapshot()
	var payResult <-chan error
	if done, fresh := h.reservePayment(sessionID, snap); fresh {
		payResult = h.runPayment(ctx, sessionID, session, done)
	} else if done == nil {
		writeCheckoutError(ctx, w, services.ErrCheckoutNotReady, snap)
		return
	}

	waitCtx, cancel := context.WithTimeout(ctx, widgetPublishTimeout)
	defer cancel()
	type published struct {
		params payments.WidgetParams
		err    error
	}
	pending := make(chan published, 1)
	go func() {
		params, err := h.handOff.Pending(waitCtx, snap.Reference)
		pending <- published{params: params, err: err}
	}()

	select {
	case err := <-payResult:
		cancel()
		current := session.Snapshot()
		if err != nil {
			writeCheckoutError(ctx, w, err, current)
			return
		}
		writeJSONResponse(w, http.StatusOK, payResponse{Snapshot: newSnapshotPayload(current)})
	case p := <-pending:
		if p.err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("payment_widget_timeout", "payment widget did not open in time", http.StatusGatewayTimeout))
			return
		}
		widget := newWidgetPayload(p.params)
		writeJSONResponse(w, http.StatusAccepted, payResponse{Widget: &widget, Snapshot: newSnapshotPayload(session.Snapshot())})
	}
}

// reservePayment registers a payment for sessionID. It returns fresh=false with the running payment's
// channel when one is open, and a nil channel when the session cannot pay.
func (h *CheckoutHandlers) reservePayment(sessionID string, snap services.CheckoutSnapshot) (chan struct{}, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if done, ok := h.payments[sessionID]; ok {
		return done, false
	}
	if !snap.CanPay {
		return nil, false
	}
	done := make(chan struct{})
	h.payments[sessionID] = done
	return done, true
}

func (h *CheckoutHandlers) runPayment(ctx context.Context, sessionID string, session services.CheckoutSession, done chan struct{}) <-chan error {
	result := make(chan error, 1)
	payCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.paymentWindow)
	go func() {
		defer cancel()
		defer func() {
			h.mu.Lock()
			if h.payments[sessionID] == done {
				delete(h.payments, sessionID)
			}
			h.mu.Unlock()
			close(done)
		}()
		snap, err := session.Pay(payCtx)
		logger := requestctx.Logger(payCtx)
		if err != nil {
			logger.Warn("checkout payment not started", zap.Error(err))
		} else {
			logger.Info("checkout payment finished",
				zap.String("reference", snap.Reference),
				zap.String("state", string(snap.State)),
				zap.String("outcome", string(snap.Outcome)),
			)
		}
		result <- err
	}()
	return result
}

func (h *CheckoutHandlers) paymentDone(sessionID string) chan struct{} {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.payments[sessionID]
}

// reportOutcome delivers the widget callback and returns the settled snapshot.
func (h *CheckoutHandlers) reportOutcome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := requestctx.SessionID(ctx)
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	if h.handOff == nil {
		httpx.WriteError(ctx, w, httpx.NewError("payment_widget_unavailable", "payment widget is unavailable", http.StatusServiceUnavailable))
		return
	}
	var req outcomeRequest
	if err := decodeJSONBody(r, maxCheckoutBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	if strings.TrimSpace(req.Status) == "" {
		httpx.WriteError(ctx, w, httpx.BadRequest("status is required"))
		return
	}

	snap := session.Snapshot()
	if snap.State != services.CheckoutProcessing {
		httpx.WriteError(ctx, w, httpx.NewError("payment_not_in_progress", "no payment is open for this session", http.StatusConflict))
		return
	}
	done := h.paymentDone(sessionID)
	err := h.handOff.Report(snap.Reference, payments.WidgetOutcome{
		TransactionID: strings.TrimSpace(req.TransactionID),
		Status:        domain.TransactionStatus(strings.ToUpper(strings.TrimSpace(req.Status))),
	})
	switch {
	case errors.Is(err, payments.ErrWidgetAlreadyReported):
		httpx.WriteError(ctx, w, httpx.NewError("outcome_already_reported", "payment outcome was already reported", http.StatusConflict))
		return
	case err != nil:
		httpx.WriteError(ctx, w, httpx.NewError("payment_not_in_progress", "no payment is open for this session", http.StatusConflict))
		return
	}

	if done != nil {
		timer := time.NewTimer(outcomeSettleTimeout)
		defer timer.Stop()
		select {
		case <-done:
		case <-timer.C:
		case <-ctx.Done():
		}
	}
	writeJSONResponse(w, http.StatusOK, newSnapshotPayload(session.Snapshot()))
}

func (h *CheckoutHandlers) session(w http.ResponseWriter, r *http.Request) (services.CheckoutSession, bool) {
	ctx := r.Context()
	if h.checkout == nil {
		httpx.WriteError(ctx, w, httpx.NewError("checkout_service_unavailable", "checkout service is unavailable", http.StatusServiceUnavailable))
		return nil, false
	}
	session, err := h.checkout.Session(requestctx.SessionID(ctx))
	if err != nil {
		writeCheckoutError(ctx, w, err, services.CheckoutSnapshot{})
		return nil, false
	}
	return session, true
}

func writeCheckoutError(ctx context.Context, w http.ResponseWriter, err error, snap services.CheckoutSnapshot) {
	switch {
	case errors.Is(err, services.ErrCheckoutCartEmpty):
		httpx.WriteError(ctx, w, httpx.NewError("cart_empty", "cart is empty", http.StatusConflict).
			WithDetails(map[string]any{"redirect": "/carrito"}))
	case errors.Is(err, services.ErrCheckoutNotReady):
		httpx.WriteError(ctx, w, httpx.NewError("checkout_not_ready", "checkout is not ready to pay", http.StatusConflict).
			WithFieldErrors(snap.FieldErrors).
			WithDetails(map[string]any{"snapshot": newSnapshotPayload(snap)}))
	case errors.Is(err, services.ErrCheckoutInvalidInput):
		httpx.WriteError(ctx, w, httpx.BadRequest("checkout session is required"))
	case errors.Is(err, services.ErrCartUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart storage is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.Internal())
	}
}
