package blob

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/komercia/storefront/internal/domain"
	"github.com/komercia/storefront/internal/platform/storage"
	"github.com/komercia/storefront/internal/repositories"
)

func TestCatalogRepositoryReturnsSeedUntilWritten(t *testing.T) {
	ctx := context.Background()
	blobs := storage.NewMemoryBlobStore("")
	repo, err := NewCatalogRepository(blobs, "komercia-data")
	require.NoError(t, err)
	assert.Equal(t, "komercia-data/products.json", repo.Object())

	products, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultProducts(), products)

	saved := []domain.Product{{ID: 42, Name: "Silla Nueva", Price: 100000, Category: "oficina", InStock: true}}
	require.NoError(t, repo.SaveAll(ctx, saved))

	obj, ok := blobs.Object("komercia-data/products.json")
	require.True(t, ok)
	assert.Equal(t, storage.CacheControlNoCache, obj.CacheControl)
	assert.Equal(t, "application/json", obj.ContentType)
	assert.Contains(t, string(obj.Data), `"shortDescription": ""`)
	assert.Contains(t, string(obj.Data), `"features": []`)

	products, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, int64(42), products[0].ID)
	assert.Equal(t, []string{}, products[0].Images)
}

func TestCatalogRepositoryEmptyArrayIsNotSeeded(t *testing.T) {
	ctx := context.Background()
	blobs := storage.NewMemoryBlobStore("")
	repo, err := NewCatalogRepository(blobs, "komercia-data")
	require.NoError(t, err)

	require.NoError(t, repo.SaveAll(ctx, nil))
	products, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestCatalogRepositoryClassifiesFailures(t *testing.T) {
	ctx := context.Background()

	repo, err := NewCatalogRepository(failingStore{err: errors.New("connection reset")}, "komercia-data")
	require.NoError(t, err)
	_, err = repo.List(ctx)
	require.Error(t, err)
	assert.True(t, repositories.IsUnavailable(err))

	blobs := storage.NewMemoryBlobStore("")
	_, err = blobs.Put(ctx, "komercia-data/products.json", []byte("{not json"), storage.PutOptions{})
	require.NoError(t, err)
	repo, err = NewCatalogRepository(blobs, "komercia-data")
	require.NoError(t, err)
	_, err = repo.List(ctx)
	require.Error(t, err)
	assert.False(t, repositories.IsUnavailable(err))
}

func TestCompanyRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	blobs := storage.NewMemoryBlobStore("")
	repo, err := NewCompanyRepository(blobs, "/komercia-data/")
	require.NoError(t, err)
	assert.Equal(t, "komercia-data/company-info.json", repo.Object())

	info, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultCompanyInfo(), info)

	info.Name = "Komercia Sillas"
	info.Contact.WhatsApp = "+57 300 000 0000"
	require.NoError(t, repo.Save(ctx, info))

	obj, ok := blobs.Object("komercia-data/company-info.json")
	require.True(t, ok)
	assert.Contains(t, string(obj.Data), `"whatsapp": "+57 300 000 0000"`)

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, info, got)
}

func TestNewRepositoriesRequireStoreAndPrefix(t *testing.T) {
	_, err := NewCatalogRepository(nil, "komercia-data")
	assert.Error(t, err)
	_, err = NewCompanyRepository(storage.NewMemoryBlobStore(""), " ")
	assert.Error(t, err)
}

type failingStore struct {
	storage.BlobStore
	err error
}

func (s failingStore) Get(context.Context, string) ([]byte, error) {
	return nil, s.err
}
