package services

import (
	"context"
	"errors"
	"testing"

	domain "github.com/komercia/storefront/internal/domain"
	"github.com/komercia/storefront/internal/platform/storage"
	"github.com/komercia/storefront/internal/repositories/blob"
)

const testAssetBase = "https://storage.googleapis.com/komercia-test/"

func newTestCatalogService(t *testing.T, images *stubImageStore) (CatalogService, *storage.MemoryBlobStore) {
	t.Helper()
	blobs := storage.NewMemoryBlobStore(testAssetBase)
	repo, err := blob.NewCatalogRepository(blobs, "komercia-data")
	if err != nil {
		t.Fatalf("NewCatalogRepository: %v", err)
	}
	deps := CatalogServiceDeps{Catalog: repo}
	if images != nil {
		deps.Images = images
	}
	svc, err := NewCatalogService(deps)
	if err != nil {
		t.Fatalf("NewCatalogService: %v", err)
	}
	return svc, blobs
}

func int64Ptr(v int64) *int64    { return &v }
func stringPtr(v string) *string { return &v }
func boolPtr(v bool) *bool       { return &v }

func TestCatalogListServesSeedAndFilters(t *testing.T) {
	svc, _ := newTestCatalogService(t, nil)
	ctx := context.Background()

	all, err := svc.ListProducts(ctx, ProductFilter{})
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(all) != len(domain.DefaultProducts()) {
		t.Fatalf("expected seed catalog of %d products, got %d", len(domain.DefaultProducts()), len(all))
	}

	gaming, err := svc.ListProducts(ctx, ProductFilter{Category: "gaming"})
	if err != nil {
		t.Fatalf("ListProducts gaming: %v", err)
	}
	for _, product := range gaming {
		if product.Category != "gaming" {
			t.Fatalf("expected only gaming products, got %s", product.Category)
		}
	}

	everything, _ := svc.ListProducts(ctx, ProductFilter{Category: domain.CategoryAll})
	if len(everything) != len(all) {
		t.Fatalf("expected %q to match all products", domain.CategoryAll)
	}

	categories, err := svc.Categories(ctx)
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	if categories[0] != "Todas las categorías" {
		t.Fatalf("expected default categories first, got %v", categories)
	}
}

func TestCatalogCreateAssignsNextID(t *testing.T) {
	logger, events := captureLogger()
	blobs := storage.NewMemoryBlobStore(testAssetBase)
	repo, _ := blob.NewCatalogRepository(blobs, "komercia-data")
	svc, _ := NewCatalogService(CatalogServiceDeps{Catalog: repo, Logger: logger})
	ctx := context.Background()

	want := domain.NextProductID(domain.DefaultProducts())
	product, err := svc.CreateProduct(ctx, CreateProductCommand{
		Name:     "  <b>Silla Nórdica</b> ",
		Price:    int64Ptr(420000),
		Category: "oficina",
		Features: []string{"Madera", "<script>x</script>"},
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if product.ID != want {
		t.Fatalf("expected id %d, got %d", want, product.ID)
	}
	if product.Name != "Silla Nórdica" {
		t.Fatalf("expected markup stripped, got %q", product.Name)
	}
	if !product.InStock {
		t.Fatalf("expected new products to default to in stock")
	}
	if len(product.Features) != 1 || product.Features[0] != "Madera" {
		t.Fatalf("expected empty features dropped, got %v", product.Features)
	}
	if product.Images == nil {
		t.Fatalf("expected non-nil images")
	}

	got, err := svc.GetProduct(ctx, product.ID)
	if err != nil || got.Name != product.Name {
		t.Fatalf("expected created product to be persisted, got %+v, %v", got, err)
	}
	if _, ok := blobs.Object("komercia-data/products.json"); !ok {
		t.Fatalf("expected catalog document written")
	}
	if !containsEvent(*events, "catalog.product_created") {
		t.Fatalf("expected product_created event, got %v", *events)
	}
}

func TestCatalogCreateValidation(t *testing.T) {
	svc, _ := newTestCatalogService(t, nil)
	cases := map[string]CreateProductCommand{
		"missing name":     {Price: int64Ptr(1), Category: "gaming"},
		"markup only name": {Name: "<i></i>", Price: int64Ptr(1), Category: "gaming"},
		"missing price":    {Name: "Silla", Category: "gaming"},
		"negative price":   {Name: "Silla", Price: int64Ptr(-5), Category: "gaming"},
		"missing category": {Name: "Silla", Price: int64Ptr(1)},
	}
	for name, cmd := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.CreateProduct(context.Background(), cmd); !errors.Is(err, ErrCatalogInvalidInput) {
				t.Fatalf("expected ErrCatalogInvalidInput, got %v", err)
			}
		})
	}

	free, err := svc.CreateProduct(context.Background(), CreateProductCommand{Name: "Muestra", Price: int64Ptr(0), Category: "oficina", InStock: boolPtr(false)})
	if err != nil {
		t.Fatalf("expected zero price to be accepted, got %v", err)
	}
	if free.InStock {
		t.Fatalf("expected explicit inStock=false to be kept")
	}
}

func TestCatalogUpdateRemovesDroppedImages(t *testing.T) {
	images := &stubImageStore{base: testAssetBase}
	svc, _ := newTestCatalogService(t, images)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, CreateProductCommand{
		Name:     "Silla",
		Price:    int64Ptr(100000),
		Category: "oficina",
		Images:   []string{testAssetBase + "products/a.jpg", testAssetBase + "products/b.jpg", "https://images.unsplash.com/x"},
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	keep := []string{testAssetBase + "products/b.jpg"}
	updated, err := svc.UpdateProduct(ctx, created.ID, ProductUpdate{
		Price:  int64Ptr(90000),
		Images: &keep,
	})
	if err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	if updated.Price != 90000 || updated.Name != "Silla" || updated.ID != created.ID {
		t.Fatalf("expected partial update, got %+v", updated)
	}
	if len(images.deleted) != 1 || images.deleted[0] != "products/a.jpg" {
		t.Fatalf("expected only owned dropped image deleted, got %v", images.deleted)
	}

	if _, err := svc.UpdateProduct(ctx, created.ID, ProductUpdate{Name: stringPtr("   ")}); !errors.Is(err, ErrCatalogInvalidInput) {
		t.Fatalf("expected blank name rejected, got %v", err)
	}
	if _, err := svc.UpdateProduct(ctx, 9999, ProductUpdate{Price: int64Ptr(1)}); !errors.Is(err, ErrCatalogProductNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCatalogDeleteIgnoresImageFailures(t *testing.T) {
	logger, events := captureLogger()
	images := &stubImageStore{base: testAssetBase, deleteErr: errors.New("permission denied")}
	blobs := storage.NewMemoryBlobStore(testAssetBase)
	repo, _ := blob.NewCatalogRepository(blobs, "komercia-data")
	svc, _ := NewCatalogService(CatalogServiceDeps{Catalog: repo, Images: images, Logger: logger})
	ctx := context.Background()

	created, _ := svc.CreateProduct(ctx, CreateProductCommand{
		Name: "Silla", Price: int64Ptr(1), Category: "oficina",
		Images: []string{testAssetBase + "products/c.jpg"},
	})
	if err := svc.DeleteProduct(ctx, created.ID); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}
	if _, err := svc.GetProduct(ctx, created.ID); !errors.Is(err, ErrCatalogProductNotFound) {
		t.Fatalf("expected product gone, got %v", err)
	}
	if !containsEvent(*events, "catalog.image_delete_failed") {
		t.Fatalf("expected image failure to be logged, got %v", *events)
	}
	if err := svc.DeleteProduct(ctx, created.ID); !errors.Is(err, ErrCatalogProductNotFound) {
		t.Fatalf("expected second delete to report not found, got %v", err)
	}
}

func TestCatalogDeleteAllProductsStaysEmpty(t *testing.T) {
	svc, _ := newTestCatalogService(t, nil)
	ctx := context.Background()
	products, _ := svc.ListProducts(ctx, ProductFilter{})
	for _, product := range products {
		if err := svc.DeleteProduct(ctx, product.ID); err != nil {
			t.Fatalf("DeleteProduct(%d): %v", product.ID, err)
		}
	}
	remaining, err := svc.ListProducts(ctx, ProductFilter{})
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected an emptied catalog not to be reseeded, got %d products", len(remaining))
	}
}
