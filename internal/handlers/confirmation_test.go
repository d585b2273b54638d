package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	domain "github.com/komercia/storefront/internal/domain"
	"github.com/komercia/storefront/internal/payments"
	"github.com/komercia/storefront/internal/services"
)

type recordingPublisher struct {
	events []services.OrderStatusEvent
}

func (p *recordingPublisher) PublishOrderStatus(_ context.Context, event services.OrderStatusEvent) error {
	p.events = append(p.events, event)
	return nil
}

func newConfirmationRouter(t *testing.T, provider payments.Provider, carts services.CartStoreFactory, publisher services.OrderEventPublisher) chi.Router {
	t.Helper()
	issued := services.CheckoutReferencesFunc(func(sessionID, reference string) bool {
		return sessionID == testSessionID && reference == "CK-1700000000000"
	})
	svc, err := services.NewConfirmationService(services.ConfirmationServiceDeps{
		Provider:   provider,
		Carts:      carts,
		References: issued,
		Publisher:  publisher,
	})
	if err != nil {
		t.Fatalf("new confirmation service: %v", err)
	}
	router := chi.NewRouter()
	router.Route("/confirmation", NewConfirmationHandlers(svc).Routes)
	return router
}

func TestConfirmationHandlersApprovedClearsCart(t *testing.T) {
	carts := newTestCartFactory(t, testChair(1, 1299000))
	store, _ := carts.ForSession(testSessionID)
	if _, err := store.Add(context.Background(), domain.Product{ID: 1}, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	provider := payments.ProviderFunc(func(_ context.Context, id string) (domain.Transaction, error) {
		if id != "12345-1700000000-67890" {
			t.Fatalf("unexpected transaction id %s", id)
		}
		return domain.Transaction{ID: id, Status: domain.TransactionStatusApproved, Reference: "CK-1700000000000", AmountInCents: 129900000}, nil
	})
	publisher := &recordingPublisher{}
	router := newConfirmationRouter(t, provider, carts, publisher)

	req := httptest.NewRequest(http.MethodGet, "/confirmation?id=12345-1700000000-67890&pedido=CK-ignored", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, withSession(req, testSessionID))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	view := decodeBody[confirmationPayload](t, rr)
	if view.State != string(domain.OrderStatePaid) || view.Kind != string(services.ConfirmationSuccess) {
		t.Fatalf("unexpected view %+v", view)
	}
	if view.Reference != "CK-1700000000000" || view.FormattedAmount != "$ 1.299.000" {
		t.Fatalf("expected reference and amount from the transaction, got %+v", view)
	}
	if len(view.Steps) != 3 || view.Steps[0].Status != string(services.StepCompleted) {
		t.Fatalf("unexpected steps %+v", view.Steps)
	}
	if view.ShowRetry {
		t.Fatalf("paid view must not offer retry")
	}
	if entries, _ := store.Entries(context.Background()); len(entries) != 0 {
		t.Fatalf("expected cart cleared, got %+v", entries)
	}
	if len(publisher.events) != 1 || publisher.events[0].State != domain.OrderStatePaid {
		t.Fatalf("expected one paid event, got %+v", publisher.events)
	}
}

func TestConfirmationHandlersLegacyReference(t *testing.T) {
	provider := payments.ProviderFunc(func(context.Context, string) (domain.Transaction, error) {
		t.Fatalf("provider must not be called without an id")
		return domain.Transaction{}, nil
	})
	router := newConfirmationRouter(t, provider, nil, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, withSession(httptest.NewRequest(http.MethodGet, "/confirmation?pedido=CK-42", nil), testSessionID))

	view := decodeBody[confirmationPayload](t, rr)
	if view.State != string(domain.OrderStateConfirmed) || view.Reference != "CK-42" {
		t.Fatalf("unexpected legacy view %+v", view)
	}
}

func TestConfirmationHandlersLookupFailure(t *testing.T) {
	provider := payments.ProviderFunc(func(context.Context, string) (domain.Transaction, error) {
		return domain.Transaction{}, errors.New("dial tcp: timeout")
	})
	router := newConfirmationRouter(t, provider, nil, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, withSession(httptest.NewRequest(http.MethodGet, "/confirmation?id=tx-1", nil), testSessionID))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	view := decodeBody[confirmationPayload](t, rr)
	if view.State != string(domain.OrderStateFailed) || !view.ShowRetry {
		t.Fatalf("expected failed view with retry, got %+v", view)
	}
	if view.Notice == "" {
		t.Fatalf("expected verification notice")
	}
	var retry bool
	for _, action := range view.Actions {
		if action.Href == "/checkout" {
			retry = true
		}
	}
	if !retry {
		t.Fatalf("expected retry action, got %+v", view.Actions)
	}
}

func TestConfirmationHandlersServiceUnavailable(t *testing.T) {
	router := chi.NewRouter()
	router.Route("/confirmation", NewConfirmationHandlers(nil).Routes)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/confirmation", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rr.Code)
	}
}
