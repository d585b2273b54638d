package services

import (
	"context"
	"sync"

	domain "github.com/komercia/storefront/internal/domain"
	"github.com/komercia/storefront/internal/payments"
	"github.com/komercia/storefront/internal/platform/storage"
)

type stubProductLookup struct {
	products map[int64]Product
	err      error
}

func (s *stubProductLookup) GetProduct(_ context.Context, id int64) (Product, error) {
	if s.err != nil {
		return Product{}, s.err
	}
	product, ok := s.products[id]
	if !ok {
		return Product{}, ErrCatalogProductNotFound
	}
	return product, nil
}

type stubCartStore struct {
	mu         sync.Mutex
	entries    []CartEntry
	entriesErr error
	clearErr   error
	cleared    int
}

func (s *stubCartStore) Add(context.Context, Product, int) ([]CartEntry, error) { return nil, nil }
func (s *stubCartStore) Remove(context.Context, int64) ([]CartEntry, error)     { return nil, nil }
func (s *stubCartStore) SetQuantity(context.Context, int64, int) ([]CartEntry, error) {
	return nil, nil
}

func (s *stubCartStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleared++
	if s.clearErr != nil {
		return s.clearErr
	}
	s.entries = nil
	return nil
}

func (s *stubCartStore) Entries(context.Context) ([]CartEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]CartEntry(nil), s.entries...), s.entriesErr
}

func (s *stubCartStore) Total(ctx context.Context) (int64, error) {
	entries, err := s.Entries(ctx)
	return domain.ComputeCartTotals(entries).Subtotal, err
}

func (s *stubCartStore) ItemCount(ctx context.Context) (int, error) {
	entries, err := s.Entries(ctx)
	return domain.ComputeCartTotals(entries).ItemCount, err
}

func (s *stubCartStore) clearCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cleared
}

type stubCartFactory struct {
	stores map[string]*stubCartStore
}

func (f *stubCartFactory) ForSession(sessionID string) (CartStore, error) {
	if f.stores == nil {
		f.stores = map[string]*stubCartStore{}
	}
	store, ok := f.stores[sessionID]
	if !ok {
		store = &stubCartStore{}
		f.stores[sessionID] = store
	}
	return store, nil
}

type stubSignatureClient struct {
	computeFunc func(ctx context.Context, reference string, amountInCents int64, currency string) (string, error)
}

func (s *stubSignatureClient) ComputeSignature(ctx context.Context, reference string, amountInCents int64, currency string) (string, error) {
	return s.computeFunc(ctx, reference, amountInCents, currency)
}

type stubWidget struct {
	openFunc func(ctx context.Context, params payments.WidgetParams) (payments.WidgetOutcome, error)
}

func (s *stubWidget) Open(ctx context.Context, params payments.WidgetParams) (payments.WidgetOutcome, error) {
	return s.openFunc(ctx, params)
}

type stubPublisher struct {
	events []OrderStatusEvent
	err    error
}

func (s *stubPublisher) PublishOrderStatus(_ context.Context, event OrderStatusEvent) error {
	s.events = append(s.events, event)
	return s.err
}

type stubImageStore struct {
	deleted   []string
	deleteErr error
	base      string
}

func (s *stubImageStore) ObjectFromURL(raw string) (string, bool) {
	if len(raw) <= len(s.base) || raw[:len(s.base)] != s.base {
		return "", false
	}
	return raw[len(s.base):], true
}

func (s *stubImageStore) Delete(_ context.Context, object string) error {
	s.deleted = append(s.deleted, object)
	return s.deleteErr
}

type recordingWriter struct {
	object string
	data   []byte
	opts   storage.PutOptions
	err    error
}

func (w *recordingWriter) Put(_ context.Context, object string, data []byte, opts storage.PutOptions) (string, error) {
	if w.err != nil {
		return "", w.err
	}
	w.object, w.data, w.opts = object, data, opts
	return "https://cdn.example.co/" + object, nil
}

func captureLogger() (func(context.Context, string, map[string]any), *[]string) {
	var (
		mu     sync.Mutex
		events []string
	)
	return func(_ context.Context, event string, _ map[string]any) {
		mu.Lock()
		events = append(events, event)
		mu.Unlock()
	}, &events
}
