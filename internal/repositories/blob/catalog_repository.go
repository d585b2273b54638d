package blob

import (
	"context"

	domain "github.com/komercia/storefront/internal/domain"
	"github.com/komercia/storefront/internal/platform/storage"
	"github.com/komercia/storefront/internal/repositories"
)

// CatalogRepository stores the product catalog as a JSON array in blob storage.
type CatalogRepository struct {
	docs documentStore[[]productDocument]
	seed func() []domain.Product
}

var _ repositories.CatalogRepository = (*CatalogRepository)(nil)

// NewCatalogRepository builds a catalog repository writing to <dataPrefix>/products.json.
func NewCatalogRepository(blobs storage.BlobStore, dataPrefix string) (*CatalogRepository, error) {
	docs, err := newDocumentStore[[]productDocument](blobs, storage.PurposeCatalogData, dataPrefix)
	if err != nil {
		return nil, err
	}
	return &CatalogRepository{docs: docs, seed: domain.DefaultProducts}, nil
}

func (r *CatalogRepository) List(ctx context.Context) ([]domain.Product, error) {
	docs, found, err := r.docs.read(ctx)
	if err != nil {
		return nil, err
	}
	if !found {
		return r.seed(), nil
	}
	products := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		products = append(products, doc.toDomain())
	}
	return products, nil
}

func (r *CatalogRepository) SaveAll(ctx context.Context, products []domain.Product) error {
	docs := make([]productDocument, 0, len(products))
	for _, product := range products {
		docs = append(docs, toProductDocument(product))
	}
	return r.docs.write(ctx, docs)
}

// Object returns the object path holding the catalog.
func (r *CatalogRepository) Object() string {
	return r.docs.object
}
