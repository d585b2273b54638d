package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

const defaultCheckoutIdleTimeout = 2 * time.Hour

// ReferenceMinter issues CK-<unix millis> order references that never repeat within the process.
type ReferenceMinter struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

// NewReferenceMinter returns a minter reading time from clock.
func NewReferenceMinter(clock func() time.Time) *ReferenceMinter {
	if clock == nil {
		clock = time.Now
	}
	return &ReferenceMinter{now: clock}
}

// Next returns a fresh reference. A clock that has not advanced is bumped by one millisecond.
func (m *ReferenceMinter) Next() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ms := m.now().UnixMilli()
	if ms <= m.last {
		ms = m.last + 1
	}
	m.last = ms
	return fmt.Sprintf("CK-%d", ms)
}

// CheckoutServiceDeps wires the collaborators shared by every checkout session.
type CheckoutServiceDeps struct {
	Carts        CartStoreFactory
	Signatures   SignatureClient
	Widget       WidgetAdapter
	PublicKey    string
	PublicOrigin string
	Clock        func() time.Time
	IdleTimeout  time.Duration
	Logger       func(context.Context, string, map[string]any)
}

type checkoutService struct {
	deps     CheckoutServiceDeps
	minter   *ReferenceMinter
	now      func() time.Time
	idle     time.Duration
	mu       sync.Mutex
	sessions map[string]*checkoutSession
}

var _ CheckoutService = (*checkoutService)(nil)

// NewCheckoutService constructs the per-session checkout registry.
func NewCheckoutService(deps CheckoutServiceDeps) (CheckoutService, error) {
	if deps.Carts == nil {
		return nil, errors.New("checkout service: cart factory is required")
	}
	if deps.Signatures == nil {
		return nil, errors.New("checkout service: signature client is required")
	}
	if deps.Widget == nil {
		return nil, errors.New("checkout service: widget adapter is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idle := deps.IdleTimeout
	if idle <= 0 {
		idle = defaultCheckoutIdleTimeout
	}
	return &checkoutService{
		deps:     deps,
		minter:   NewReferenceMinter(clock),
		now:      clock,
		idle:     idle,
		sessions: make(map[string]*checkoutSession),
	}, nil
}

// Session returns the checkout session of sessionID, creating it on first use.
// Sessions idle for longer than the idle timeout are dropped unless a payment is in progress.
func (s *checkoutService) Session(sessionID string) (CheckoutSession, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", ErrCheckoutInvalidInput)
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.sessions {
		if id != sessionID && existing.idleSince(now, s.idle) {
			delete(s.sessions, id)
		}
	}

	session, ok := s.sessions[sessionID]
	if !ok {
		cart, err := s.deps.Carts.ForSession(sessionID)
		if err != nil {
			return nil, err
		}
		session, err = newCheckoutSession(CheckoutSessionDeps{
			Cart:         cart,
			Signatures:   s.deps.Signatures,
			Widget:       s.deps.Widget,
			NextRef:      s.minter.Next,
			PublicKey:    s.deps.PublicKey,
			PublicOrigin: s.deps.PublicOrigin,
			Logger:       s.deps.Logger,
		})
		if err != nil {
			return nil, err
		}
		s.sessions[sessionID] = session
	}
	session.touch(now)
	return session, nil
}

// IssuedReference reports whether reference was minted by the live checkout session of sessionID.
// It never creates a session.
func (s *checkoutService) IssuedReference(sessionID, reference string) bool {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return false
	}
	s.mu.Lock()
	session, ok := s.sessions[strings.TrimSpace(sessionID)]
	s.mu.Unlock()
	return ok && session.issuedReference(reference)
}

// Discard forgets the checkout session of sessionID.
func (s *checkoutService) Discard(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, strings.TrimSpace(sessionID))
	s.mu.Unlock()
}
