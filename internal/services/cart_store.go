package services

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"sync"

	domain "github.com/komercia/storefront/internal/domain"
	"github.com/komercia/storefront/internal/repositories"
)

var (
	// ErrCartInvalidInput indicates a missing session, a quantity outside 1..MaxLineQuantity,
	// or a cart whose total cannot be charged.
	ErrCartInvalidInput = errors.New("cart service: invalid input")
	// ErrCartProductUnavailable indicates the product is out of stock or not in the catalog.
	ErrCartProductUnavailable = errors.New("cart service: product unavailable")
	// ErrCartUnavailable indicates the cart backend could not be reached.
	ErrCartUnavailable = errors.New("cart service: unavailable")
)

const cartLockShards = 64

// MaxLineQuantity caps the units of one product in a cart.
const MaxLineQuantity = 999

// maxCartSubtotal keeps the subtotal plus shipping representable in cents.
const maxCartSubtotal = (math.MaxInt64 - domain.StandardShippingCost*100) / 100

// ProductLookup resolves catalog products by id. It returns ErrCatalogProductNotFound for unknown ids.
type ProductLookup interface {
	GetProduct(ctx context.Context, productID int64) (Product, error)
}

// CartStoreFactoryDeps wires persistence and catalog lookups for cart stores.
type CartStoreFactoryDeps struct {
	Storage  repositories.CartStorage
	Products ProductLookup
	Logger   func(context.Context, string, map[string]any)
}

type cartStoreFactory struct {
	storage  repositories.CartStorage
	products ProductLookup
	logger   func(context.Context, string, map[string]any)
	locks    [cartLockShards]sync.Mutex
}

var _ CartStoreFactory = (*cartStoreFactory)(nil)

// NewCartStoreFactory validates dependencies and returns a factory. Stores for the same session
// share a lock, so concurrent requests of one session serialise their read-modify-write cycles.
func NewCartStoreFactory(deps CartStoreFactoryDeps) (CartStoreFactory, error) {
	if deps.Storage == nil {
		return nil, errors.New("cart service: storage is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &cartStoreFactory{
		storage:  deps.Storage,
		products: deps.Products,
		logger:   logger,
	}, nil
}

func (f *cartStoreFactory) ForSession(sessionID string) (CartStore, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", ErrCartInvalidInput)
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return &cartStore{
		factory: f,
		session: sessionID,
		mu:      &f.locks[h.Sum32()%cartLockShards],
	}, nil
}

type cartStore struct {
	factory *cartStoreFactory
	session string
	mu      *sync.Mutex
}

func (s *cartStore) Add(ctx context.Context, product Product, quantity int) ([]CartEntry, error) {
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 || quantity > MaxLineQuantity {
		return nil, fmt.Errorf("%w: quantity must be between 1 and %d", ErrCartInvalidInput, MaxLineQuantity)
	}
	product, err := s.resolveProduct(ctx, product)
	if err != nil {
		return nil, err
	}
	if !product.InStock {
		return nil, ErrCartProductUnavailable
	}

	return s.mutate(ctx, func(entries []CartEntry) ([]CartEntry, error) {
		for i := range entries {
			if entries[i].ID == product.ID {
				if entries[i].Quantity > MaxLineQuantity-quantity {
					return nil, fmt.Errorf("%w: quantity must not exceed %d", ErrCartInvalidInput, MaxLineQuantity)
				}
				entries[i].Quantity += quantity
				return entries, nil
			}
		}
		return append(entries, CartEntry{
			ID:       product.ID,
			Name:     product.Name,
			Price:    product.Price,
			Quantity: quantity,
			Images:   append([]string(nil), product.Images...),
		}), nil
	})
}

func (s *cartStore) Remove(ctx context.Context, productID int64) ([]CartEntry, error) {
	return s.mutate(ctx, func(entries []CartEntry) ([]CartEntry, error) {
		return removeEntry(entries, productID), nil
	})
}

func (s *cartStore) SetQuantity(ctx context.Context, productID int64, quantity int) ([]CartEntry, error) {
	if quantity > MaxLineQuantity {
		return nil, fmt.Errorf("%w: quantity must not exceed %d", ErrCartInvalidInput, MaxLineQuantity)
	}
	return s.mutate(ctx, func(entries []CartEntry) ([]CartEntry, error) {
		if quantity <= 0 {
			return removeEntry(entries, productID), nil
		}
		for i := range entries {
			if entries[i].ID == productID {
				entries[i].Quantity = quantity
			}
		}
		return entries, nil
	})
}

func (s *cartStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.factory.storage.Clear(ctx, s.session); err != nil {
		return s.wrap(ctx, "clear", err)
	}
	return nil
}

func (s *cartStore) Entries(ctx context.Context) ([]CartEntry, error) {
	entries, err := s.factory.storage.Load(ctx, s.session)
	if err != nil {
		return nil, s.wrap(ctx, "load", err)
	}
	return entries, nil
}

func (s *cartStore) Total(ctx context.Context) (int64, error) {
	entries, err := s.Entries(ctx)
	if err != nil {
		return 0, err
	}
	return domain.ComputeCartTotals(entries).Subtotal, nil
}

func (s *cartStore) ItemCount(ctx context.Context) (int, error) {
	entries, err := s.Entries(ctx)
	if err != nil {
		return 0, err
	}
	return domain.ComputeCartTotals(entries).ItemCount, nil
}

func (s *cartStore) mutate(ctx context.Context, fn func([]CartEntry) ([]CartEntry, error)) ([]CartEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.factory.storage.Load(ctx, s.session)
	if err != nil {
		return nil, s.wrap(ctx, "load", err)
	}
	if entries, err = fn(entries); err != nil {
		return nil, err
	}
	if err := checkChargeable(entries); err != nil {
		return nil, err
	}
	if err := s.factory.storage.Save(ctx, s.session, entries); err != nil {
		return nil, s.wrap(ctx, "save", err)
	}
	return entries, nil
}

func (s *cartStore) resolveProduct(ctx context.Context, product Product) (Product, error) {
	if s.factory.products == nil {
		return product, nil
	}
	current, err := s.factory.products.GetProduct(ctx, product.ID)
	if errors.Is(err, ErrCatalogProductNotFound) {
		return Product{}, ErrCartProductUnavailable
	}
	if err != nil {
		return Product{}, err
	}
	return current, nil
}

func (s *cartStore) wrap(ctx context.Context, op string, err error) error {
	s.factory.logger(ctx, "cart.storage_error", map[string]any{
		"op":    op,
		"error": err.Error(),
	})
	if repositories.IsUnavailable(err) {
		return fmt.Errorf("%w: %v", ErrCartUnavailable, err)
	}
	return fmt.Errorf("cart %s: %w", op, err)
}

// checkChargeable rejects carts whose line totals or subtotal would overflow once converted to cents.
func checkChargeable(entries []CartEntry) error {
	var subtotal int64
	for _, entry := range entries {
		if entry.Price < 0 {
			return fmt.Errorf("%w: negative price for product %d", ErrCartInvalidInput, entry.ID)
		}
		if entry.Quantity > 0 && entry.Price > (maxCartSubtotal-subtotal)/int64(entry.Quantity) {
			return fmt.Errorf("%w: cart total exceeds the chargeable amount", ErrCartInvalidInput)
		}
		subtotal += entry.LineTotal()
	}
	return nil
}

func removeEntry(entries []CartEntry, productID int64) []CartEntry {
	out := entries[:0]
	for _, entry := range entries {
		if entry.ID != productID {
			out = append(out, entry)
		}
	}
	return out
}
