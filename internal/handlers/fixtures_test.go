package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	domain "github.com/komercia/storefront/internal/domain"
	"github.com/komercia/storefront/internal/platform/requestctx"
	"github.com/komercia/storefront/internal/repositories/memory"
	"github.com/komercia/storefront/internal/services"
)

const testSessionID = "9b2f6a0e-3c1d-4f8e-a5b7-1d2c3e4f5a6b"

type stubProductLookup struct {
	products map[int64]domain.Product
}

func (s stubProductLookup) GetProduct(_ context.Context, productID int64) (domain.Product, error) {
	product, ok := s.products[productID]
	if !ok {
		return domain.Product{}, services.ErrCatalogProductNotFound
	}
	return product, nil
}

func testChair(id int64, price int64) domain.Product {
	return domain.Product{
		ID:       id,
		Name:     "Silla Ergonómica Pro",
		Price:    price,
		Category: "Ergonómica",
		Images:   []string{"https://storage.googleapis.com/komercia-test/products/silla.png"},
		InStock:  true,
	}
}

func newTestCartFactory(t *testing.T, products ...domain.Product) services.CartStoreFactory {
	t.Helper()
	lookup := stubProductLookup{products: map[int64]domain.Product{}}
	for _, p := range products {
		lookup.products[p.ID] = p
	}
	factory, err := services.NewCartStoreFactory(services.CartStoreFactoryDeps{
		Storage:  memory.NewCartStorage(),
		Products: lookup,
	})
	if err != nil {
		t.Fatalf("new cart factory: %v", err)
	}
	return factory
}

func withSession(req *http.Request, sessionID string) *http.Request {
	return req.WithContext(requestctx.WithSessionID(req.Context(), sessionID))
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response %q: %v", rr.Body.String(), err)
	}
	return out
}

type errorBody struct {
	Error    string            `json:"error"`
	Message  string            `json:"message"`
	Redirect string            `json:"redirect"`
	Fields   map[string]string `json:"fields"`
	Snapshot *snapshotPayload  `json:"snapshot"`
}
