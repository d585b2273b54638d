package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	domain "github.com/komercia/storefront/internal/domain"
	"github.com/komercia/storefront/internal/platform/textutil"
	"github.com/komercia/storefront/internal/repositories"
)

var (
	// ErrCatalogInvalidInput indicates the product payload failed validation.
	ErrCatalogInvalidInput = errors.New("catalog service: invalid input")
	// ErrCatalogProductNotFound indicates the requested product does not exist.
	ErrCatalogProductNotFound = errors.New("catalog service: product not found")
	// ErrCatalogUnavailable indicates the catalog document could not be read or written.
	ErrCatalogUnavailable = errors.New("catalog service: unavailable")
)

// ProductFilter narrows the public product listing.
type ProductFilter struct {
	Query    string
	Category string
}

// CreateProductCommand carries the fields of a new product. Price and InStock are pointers so
// a missing price can be told apart from zero.
type CreateProductCommand struct {
	Name             string
	Price            *int64
	Category         string
	ShortDescription string
	LongDescription  string
	Features         []string
	Images           []string
	InStock          *bool
}

// ImageStore removes product images that live in the storefront bucket.
type ImageStore interface {
	ObjectFromURL(rawURL string) (string, bool)
	Delete(ctx context.Context, object string) error
}

// CatalogServiceDeps wires the catalog repository and image cleanup.
type CatalogServiceDeps struct {
	Catalog repositories.CatalogRepository
	Images  ImageStore
	Logger  func(context.Context, string, map[string]any)
}

type catalogService struct {
	repo   repositories.CatalogRepository
	images ImageStore
	logger func(context.Context, string, map[string]any)
	// mu serialises read-modify-write cycles on the catalog document.
	mu sync.Mutex
}

var (
	_ CatalogService = (*catalogService)(nil)
	_ ProductLookup  = (*catalogService)(nil)
)

// NewCatalogService constructs a CatalogService enforcing dependency validation.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Catalog == nil {
		return nil, errors.New("catalog service: repository is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &catalogService{repo: deps.Catalog, images: deps.Images, logger: logger}, nil
}

func (s *catalogService) ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error) {
	products, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return domain.FilterProducts(products, filter.Query, filter.Category), nil
}

func (s *catalogService) GetProduct(ctx context.Context, productID int64) (Product, error) {
	products, err := s.load(ctx)
	if err != nil {
		return Product{}, err
	}
	if i := indexOfProduct(products, productID); i >= 0 {
		return products[i], nil
	}
	return Product{}, ErrCatalogProductNotFound
}

func (s *catalogService) Categories(ctx context.Context) ([]string, error) {
	products, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return domain.Categories(products), nil
}

func (s *catalogService) CreateProduct(ctx context.Context, cmd CreateProductCommand) (Product, error) {
	name := textutil.StripMarkup(cmd.Name)
	category := strings.TrimSpace(cmd.Category)
	switch {
	case name == "":
		return Product{}, fmt.Errorf("%w: name is required", ErrCatalogInvalidInput)
	case cmd.Price == nil:
		return Product{}, fmt.Errorf("%w: price is required", ErrCatalogInvalidInput)
	case *cmd.Price < 0:
		return Product{}, fmt.Errorf("%w: price must not be negative", ErrCatalogInvalidInput)
	case category == "":
		return Product{}, fmt.Errorf("%w: category is required", ErrCatalogInvalidInput)
	}

	inStock := true
	if cmd.InStock != nil {
		inStock = *cmd.InStock
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.load(ctx)
	if err != nil {
		return Product{}, err
	}
	product := Product{
		ID:               domain.NextProductID(products),
		Name:             name,
		Price:            *cmd.Price,
		Category:         category,
		ShortDescription: textutil.StripMarkup(cmd.ShortDescription),
		LongDescription:  textutil.StripMarkup(cmd.LongDescription),
		Features:         nonNilStrings(textutil.StripMarkupSlice(cmd.Features)),
		Images:           cleanURLs(cmd.Images),
		InStock:          inStock,
	}
	if err := s.save(ctx, append(products, product)); err != nil {
		return Product{}, err
	}
	s.logger(ctx, "catalog.product_created", map[string]any{"productId": product.ID})
	return product, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, productID int64, update ProductUpdate) (Product, error) {
	update, err := sanitizeProductUpdate(update)
	if err != nil {
		return Product{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.load(ctx)
	if err != nil {
		return Product{}, err
	}
	i := indexOfProduct(products, productID)
	if i < 0 {
		return Product{}, ErrCatalogProductNotFound
	}
	previous := products[i]
	updated := update.Apply(previous)
	updated.ID = previous.ID
	products[i] = updated

	if err := s.save(ctx, products); err != nil {
		return Product{}, err
	}
	s.removeImages(ctx, diffImages(previous.Images, updated.Images))
	s.logger(ctx, "catalog.product_updated", map[string]any{"productId": productID})
	return updated, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.load(ctx)
	if err != nil {
		return err
	}
	i := indexOfProduct(products, productID)
	if i < 0 {
		return ErrCatalogProductNotFound
	}
	removed := products[i]
	remaining := append(products[:i:i], products[i+1:]...)
	if err := s.save(ctx, remaining); err != nil {
		return err
	}
	s.removeImages(ctx, removed.Images)
	s.logger(ctx, "catalog.product_deleted", map[string]any{"productId": productID})
	return nil
}

func (s *catalogService) load(ctx context.Context) ([]Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	return products, nil
}

func (s *catalogService) save(ctx context.Context, products []Product) error {
	if err := s.repo.SaveAll(ctx, products); err != nil {
		return fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	return nil
}

// removeImages deletes owned images. Failures are logged and otherwise ignored.
func (s *catalogService) removeImages(ctx context.Context, urls []string) {
	if s.images == nil {
		return
	}
	for _, raw := range urls {
		object, ok := s.images.ObjectFromURL(raw)
		if !ok {
			continue
		}
		if err := s.images.Delete(ctx, object); err != nil {
			s.logger(ctx, "catalog.image_delete_failed", map[string]any{
				"object": object,
				"error":  err.Error(),
			})
		}
	}
}

func sanitizeProductUpdate(update ProductUpdate) (ProductUpdate, error) {
	if update.Name != nil {
		name := textutil.StripMarkup(*update.Name)
		if name == "" {
			return ProductUpdate{}, fmt.Errorf("%w: name must not be empty", ErrCatalogInvalidInput)
		}
		update.Name = &name
	}
	if update.Price != nil && *update.Price < 0 {
		return ProductUpdate{}, fmt.Errorf("%w: price must not be negative", ErrCatalogInvalidInput)
	}
	if update.Category != nil {
		category := strings.TrimSpace(*update.Category)
		if category == "" {
			return ProductUpdate{}, fmt.Errorf("%w: category must not be empty", ErrCatalogInvalidInput)
		}
		update.Category = &category
	}
	if update.ShortDescription != nil {
		v := textutil.StripMarkup(*update.ShortDescription)
		update.ShortDescription = &v
	}
	if update.LongDescription != nil {
		v := textutil.StripMarkup(*update.LongDescription)
		update.LongDescription = &v
	}
	if update.Features != nil {
		v := nonNilStrings(textutil.StripMarkupSlice(*update.Features))
		update.Features = &v
	}
	if update.Images != nil {
		v := cleanURLs(*update.Images)
		update.Images = &v
	}
	return update, nil
}

func indexOfProduct(products []Product, productID int64) int {
	for i, product := range products {
		if product.ID == productID {
			return i
		}
	}
	return -1
}

// diffImages returns the entries of before that are absent from after.
func diffImages(before, after []string) []string {
	kept := make(map[string]struct{}, len(after))
	for _, url := range after {
		kept[url] = struct{}{}
	}
	var removed []string
	for _, url := range before {
		if _, ok := kept[url]; !ok {
			removed = append(removed, url)
		}
	}
	return removed
}

func cleanURLs(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			out = append(out, value)
		}
	}
	return out
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
