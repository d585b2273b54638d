package blob

import (
	"context"

	domain "github.com/komercia/storefront/internal/domain"
	"github.com/komercia/storefront/internal/platform/storage"
	"github.com/komercia/storefront/internal/repositories"
)

// CompanyRepository stores the company profile in blob storage.
type CompanyRepository struct {
	docs documentStore[companyDocument]
}

var _ repositories.CompanyRepository = (*CompanyRepository)(nil)

// NewCompanyRepository builds a company repository writing to <dataPrefix>/company-info.json.
func NewCompanyRepository(blobs storage.BlobStore, dataPrefix string) (*CompanyRepository, error) {
	docs, err := newDocumentStore[companyDocument](blobs, storage.PurposeCompanyData, dataPrefix)
	if err != nil {
		return nil, err
	}
	return &CompanyRepository{docs: docs}, nil
}

// Get returns the stored profile or the seeded default when nothing has been saved yet.
func (r *CompanyRepository) Get(ctx context.Context) (domain.CompanyInfo, error) {
	doc, found, err := r.docs.read(ctx)
	if err != nil {
		return domain.CompanyInfo{}, err
	}
	if !found {
		return domain.DefaultCompanyInfo(), nil
	}
	return doc.toDomain(), nil
}

func (r *CompanyRepository) Save(ctx context.Context, info domain.CompanyInfo) error {
	return r.docs.write(ctx, toCompanyDocument(info))
}

// Object returns the object path holding the profile.
func (r *CompanyRepository) Object() string {
	return r.docs.object
}
