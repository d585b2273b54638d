package repositories

import (
	"context"
	"errors"
)

// RegistryDeps lists the repositories exposed by a Registry and the resources released on Close.
type RegistryDeps struct {
	Catalog CatalogRepository
	Company CompanyRepository
	Carts   CartStorage
	Health  HealthRepository
	// Closers run in reverse order on Close.
	Closers []func(context.Context) error
}

type registry struct {
	deps RegistryDeps
}

// NewRegistry assembles a Registry from already constructed repositories.
func NewRegistry(deps RegistryDeps) (Registry, error) {
	switch {
	case deps.Catalog == nil:
		return nil, errors.New("repositories: catalog repository is required")
	case deps.Company == nil:
		return nil, errors.New("repositories: company repository is required")
	case deps.Carts == nil:
		return nil, errors.New("repositories: cart storage is required")
	}
	return &registry{deps: deps}, nil
}

func (r *registry) Catalog() CatalogRepository { return r.deps.Catalog }
func (r *registry) Company() CompanyRepository { return r.deps.Company }
func (r *registry) Carts() CartStorage         { return r.deps.Carts }
func (r *registry) Health() HealthRepository   { return r.deps.Health }

// Close runs every closer and joins their errors.
func (r *registry) Close(ctx context.Context) error {
	var errs []error
	for i := len(r.deps.Closers) - 1; i >= 0; i-- {
		if closer := r.deps.Closers[i]; closer != nil {
			if err := closer(ctx); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
