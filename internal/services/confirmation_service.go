package services

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/komercia/storefront/internal/domain"
	"github.com/komercia/storefront/internal/payments"
)

const msgVerificationFailed = "No pudimos verificar el estado de tu pago. Intenta nuevamente más tarde."

// ConfirmationQuery carries the confirmation page parameters. TransactionID wins over OrderReference.
type ConfirmationQuery struct {
	TransactionID  string
	OrderReference string
	// SessionID identifies the cart cleared once a payment for one of its checkout references is confirmed.
	SessionID string
}

// ConfirmationServiceDeps wires the provider lookup and the side-effect ports.
// A cart is cleared only when References confirms the paid reference belongs to its session.
type ConfirmationServiceDeps struct {
	Provider   payments.Provider
	Carts      CartStoreFactory
	References CheckoutReferences
	Publisher  OrderEventPublisher
	Clock      func() time.Time
	Logger     func(context.Context, string, map[string]any)
}

type confirmationService struct {
	provider   payments.Provider
	carts      CartStoreFactory
	references CheckoutReferences
	publisher  OrderEventPublisher
	now        func() time.Time
	logger     func(context.Context, string, map[string]any)
}

var _ ConfirmationService = (*confirmationService)(nil)

// NewConfirmationService constructs the payment status reconciler.
func NewConfirmationService(deps ConfirmationServiceDeps) (ConfirmationService, error) {
	if deps.Provider == nil {
		return nil, errors.New("confirmation service: payment provider is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	publisher := deps.Publisher
	if publisher == nil {
		publisher = NoopOrderEventPublisher{}
	}
	return &confirmationService{
		provider:   deps.Provider,
		carts:      deps.Carts,
		references: deps.References,
		publisher:  publisher,
		now:        func() time.Time { return clock().UTC() },
		logger:     logger,
	}, nil
}

// Resolve never fails: lookup errors degrade to the failed state with a generic notice.
func (s *confirmationService) Resolve(ctx context.Context, query ConfirmationQuery) ConfirmationView {
	transactionID := strings.TrimSpace(query.TransactionID)
	if transactionID == "" {
		return BuildConfirmationView(domain.OrderStateConfirmed, strings.TrimSpace(query.OrderReference), 0)
	}

	tx, err := s.provider.Transaction(ctx, transactionID)
	if err != nil {
		s.logger(ctx, "confirmation.lookup_failed", map[string]any{
			"transactionId": transactionID,
			"error":         err.Error(),
		})
		view := BuildConfirmationView(domain.OrderStateFailed, strings.TrimSpace(query.OrderReference), 0)
		view.TransactionID = transactionID
		view.Notice = msgVerificationFailed
		return view
	}

	state := domain.MapTransactionStatus(tx.Status)
	view := BuildConfirmationView(state, tx.Reference, tx.AmountInCents)
	view.TransactionID = tx.ID

	if state == domain.OrderStatePaid {
		s.clearCart(ctx, query.SessionID, tx.Reference)
	}
	s.publish(ctx, OrderStatusEvent{
		Reference:     tx.Reference,
		TransactionID: tx.ID,
		State:         state,
		AmountInCents: tx.AmountInCents,
		ResolvedAt:    s.now(),
	})
	return view
}

func (s *confirmationService) clearCart(ctx context.Context, sessionID, reference string) {
	if s.carts == nil || s.references == nil || strings.TrimSpace(sessionID) == "" {
		return
	}
	if !s.references.IssuedReference(sessionID, reference) {
		s.logger(ctx, "confirmation.reference_mismatch", map[string]any{"reference": reference})
		return
	}
	store, err := s.carts.ForSession(sessionID)
	if err == nil {
		err = store.Clear(ctx)
	}
	if err != nil {
		s.logger(ctx, "confirmation.cart_clear_failed", map[string]any{
			"reference": reference,
			"error":     err.Error(),
		})
	}
}

func (s *confirmationService) publish(ctx context.Context, event OrderStatusEvent) {
	if err := s.publisher.PublishOrderStatus(ctx, event); err != nil {
		s.logger(ctx, "confirmation.publish_failed", map[string]any{
			"reference": event.Reference,
			"state":     string(event.State),
			"error":     err.Error(),
		})
	}
}

// NoopOrderEventPublisher drops every event. It is used when no topic is configured.
type NoopOrderEventPublisher struct{}

func (NoopOrderEventPublisher) PublishOrderStatus(context.Context, OrderStatusEvent) error {
	return nil
}
