package repositories

import (
	"context"

	domain "github.com/komercia/storefront/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Catalog() CatalogRepository
	Company() CompanyRepository
	Carts() CartStorage
	Health() HealthRepository
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsUnavailable() bool
}

// CatalogRepository persists the product catalog as a single document.
type CatalogRepository interface {
	// List returns every product in stored order. A catalog that was never written yields the seed products.
	List(ctx context.Context) ([]domain.Product, error)
	// SaveAll overwrites the stored catalog.
	SaveAll(ctx context.Context, products []domain.Product) error
}

// CompanyRepository persists the company profile document.
type CompanyRepository interface {
	Get(ctx context.Context) (domain.CompanyInfo, error)
	Save(ctx context.Context, info domain.CompanyInfo) error
}

// CartStorage persists cart entries keyed by browsing session.
type CartStorage interface {
	// Load returns the stored entries, or an empty slice when the session has no cart.
	Load(ctx context.Context, sessionID string) ([]domain.CartEntry, error)
	Save(ctx context.Context, sessionID string, entries []domain.CartEntry) error
	Clear(ctx context.Context, sessionID string) error
}

// HealthRepository exposes status of downstream dependencies for health checks.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}
