package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	domain "github.com/komercia/storefront/internal/domain"
	"github.com/komercia/storefront/internal/platform/httpx"
	"github.com/komercia/storefront/internal/platform/requestctx"
	"github.com/komercia/storefront/internal/services"
)

const maxCartBodySize = 4 * 1024

// CartHandlers exposes the cart of the current browsing session.
type CartHandlers struct {
	carts services.CartStoreFactory
}

// NewCartHandlers constructs cart handlers. Routes expect CartSessionMiddleware upstream.
func NewCartHandlers(carts services.CartStoreFactory) *CartHandlers {
	return &CartHandlers{carts: carts}
}

// Routes wires the /cart endpoints onto the provided router.
func (h *CartHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.getCart)
	r.Delete("/", h.clearCart)
	r.Post("/items", h.addItem)
	r.Patch("/items/{productId}", h.setQuantity)
	r.Delete("/items/{productId}", h.removeItem)
}

type cartItemPayload struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Price     int64    `json:"price"`
	Quantity  int      `json:"quantity"`
	Images    []string `json:"images"`
	LineTotal int64    `json:"lineTotal"`
}

type cartResponse struct {
	Items          []cartItemPayload `json:"items"`
	Total          int64             `json:"total"`
	ItemCount      int               `json:"itemCount"`
	Shipping       int64             `json:"shipping"`
	GrandTotal     int64             `json:"grandTotal"`
	FormattedTotal string            `json:"formattedTotal"`
}

type addCartItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

func (h *CartHandlers) getCart(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	entries, err := store.Entries(r.Context())
	if err != nil {
		writeCartError(r.Context(), w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildCartResponse(entries))
}

func (h *CartHandlers) addItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	var req addCartItemRequest
	if err := decodeJSONBody(r, maxCartBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	if req.ProductID <= 0 {
		httpx.WriteError(ctx, w, httpx.BadRequest("productId is required"))
		return
	}
	entries, err := store.Add(ctx, domain.Product{ID: req.ProductID}, req.Quantity)
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildCartResponse(entries))
}

func (h *CartHandlers) setQuantity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	var req setQuantityRequest
	if err := decodeJSONBody(r, maxCartBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	if req.Quantity == nil {
		httpx.WriteError(ctx, w, httpx.BadRequest("quantity is required"))
		return
	}
	entries, err := store.SetQuantity(ctx, productID, *req.Quantity)
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildCartResponse(entries))
}

func (h *CartHandlers) removeItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	entries, err := store.Remove(r.Context(), productID)
	if err != nil {
		writeCartError(r.Context(), w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildCartResponse(entries))
}

func (h *CartHandlers) clearCart(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	if err := store.Clear(r.Context()); err != nil {
		writeCartError(r.Context(), w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildCartResponse(nil))
}

func (h *CartHandlers) store(w http.ResponseWriter, r *http.Request) (services.CartStore, bool) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_service_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return nil, false
	}
	store, err := h.carts.ForSession(requestctx.SessionID(ctx))
	if err != nil {
		writeCartError(ctx, w, err)
		return nil, false
	}
	return store, true
}

func productIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := parseProductID(chi.URLParam(r, "productId"))
	if err != nil {
		httpx.WriteError(r.Context(), w, httpx.BadRequest(err.Error()))
		return 0, false
	}
	return id, true
}

func buildCartResponse(entries []services.CartEntry) cartResponse {
	totals := domain.ComputeCartTotals(entries)
	items := make([]cartItemPayload, 0, len(entries))
	for _, entry := range entries {
		images := entry.Images
		if images == nil {
			images = []string{}
		}
		items = append(items, cartItemPayload{
			ID:        entry.ID,
			Name:      entry.Name,
			Price:     entry.Price,
			Quantity:  entry.Quantity,
			Images:    images,
			LineTotal: entry.LineTotal(),
		})
	}
	return cartResponse{
		Items:          items,
		Total:          totals.Subtotal,
		ItemCount:      totals.ItemCount,
		Shipping:       totals.Shipping,
		GrandTotal:     totals.Total,
		FormattedTotal: domain.FormatPrice(totals.Total),
	}
}

func writeCartError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCartInvalidInput):
		httpx.WriteError(ctx, w, httpx.BadRequest("invalid cart request"))
	case errors.Is(err, services.ErrCartProductUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("product_unavailable", "product is not available", http.StatusConflict))
	case errors.Is(err, services.ErrCartUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart storage is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.Internal())
	}
}
