package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/komercia/storefront/internal/domain"
	"github.com/komercia/storefront/internal/platform/httpx"
	"github.com/komercia/storefront/internal/services"
)

// PublicHandlers serves the read side of the catalog and the company profile.
type PublicHandlers struct {
	catalog services.CatalogService
	company services.CompanyService
}

// NewPublicHandlers constructs public catalog handlers.
func NewPublicHandlers(catalog services.CatalogService, company services.CompanyService) *PublicHandlers {
	return &PublicHandlers{catalog: catalog, company: company}
}

// Routes wires the public catalog endpoints onto the provided router.
func (h *PublicHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/products", h.listProducts)
	r.Get("/products/{productId}", h.getProduct)
	r.Get("/categories", h.listCategories)
	r.Get("/company", h.getCompany)
}

type productPayload struct {
	ID               int64    `json:"id"`
	Name             string   `json:"name"`
	Price            int64    `json:"price"`
	FormattedPrice   string   `json:"formattedPrice"`
	Category         string   `json:"category"`
	ShortDescription string   `json:"shortDescription"`
	LongDescription  string   `json:"longDescription"`
	Features         []string `json:"features"`
	Images           []string `json:"images"`
	InStock          bool     `json:"inStock"`
}

func newProductPayload(p domain.Product) productPayload {
	return productPayload{
		ID:               p.ID,
		Name:             p.Name,
		Price:            p.Price,
		FormattedPrice:   domain.FormatPrice(p.Price),
		Category:         p.Category,
		ShortDescription: p.ShortDescription,
		LongDescription:  p.LongDescription,
		Features:         nonNilStrings(p.Features),
		Images:           nonNilStrings(p.Images),
		InStock:          p.InStock,
	}
}

func newProductPayloads(products []domain.Product) []productPayload {
	payloads := make([]productPayload, 0, len(products))
	for _, p := range products {
		payloads = append(payloads, newProductPayload(p))
	}
	return payloads
}

type companyAboutPayload struct {
	History string   `json:"history"`
	Vision  string   `json:"vision"`
	Values  []string `json:"values"`
}

type companyContactPayload struct {
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	WhatsApp string `json:"whatsapp"`
	Hours    string `json:"hours"`
}

type companySocialPayload struct {
	Facebook  string `json:"facebook"`
	Instagram string `json:"instagram"`
	LinkedIn  string `json:"linkedin"`
	YouTube   string `json:"youtube"`
}

type companyPayload struct {
	Name        string                `json:"name"`
	Tagline     string                `json:"tagline"`
	Description string                `json:"description"`
	About       companyAboutPayload   `json:"about"`
	Contact     companyContactPayload `json:"contact"`
	Social      companySocialPayload  `json:"social"`
	Services    []string              `json:"services"`
}

func newCompanyPayload(info domain.CompanyInfo) companyPayload {
	return companyPayload{
		Name:        info.Name,
		Tagline:     info.Tagline,
		Description: info.Description,
		About:       companyAboutPayload{History: info.About.History, Vision: info.About.Vision, Values: nonNilStrings(info.About.Values)},
		Contact: companyContactPayload{
			Address:  info.Contact.Address,
			Phone:    info.Contact.Phone,
			Email:    info.Contact.Email,
			WhatsApp: info.Contact.WhatsApp,
			Hours:    info.Contact.Hours,
		},
		Social: companySocialPayload{
			Facebook:  info.Social.Facebook,
			Instagram: info.Social.Instagram,
			LinkedIn:  info.Social.LinkedIn,
			YouTube:   info.Social.YouTube,
		},
		Services: nonNilStrings(info.Services),
	}
}

func (p companyPayload) toModel() domain.CompanyInfo {
	return domain.CompanyInfo{
		Name:        p.Name,
		Tagline:     p.Tagline,
		Description: p.Description,
		About:       p.About.toModel(),
		Contact:     p.Contact.toModel(),
		Social:      p.Social.toModel(),
		Services:    p.Services,
	}
}

func (p companyAboutPayload) toModel() domain.CompanyAbout {
	return domain.CompanyAbout{History: p.History, Vision: p.Vision, Values: p.Values}
}

func (p companyContactPayload) toModel() domain.CompanyContact {
	return domain.CompanyContact{Address: p.Address, Phone: p.Phone, Email: p.Email, WhatsApp: p.WhatsApp, Hours: p.Hours}
}

func (p companySocialPayload) toModel() domain.CompanySocial {
	return domain.CompanySocial{Facebook: p.Facebook, Instagram: p.Instagram, LinkedIn: p.LinkedIn, YouTube: p.YouTube}
}

func (h *PublicHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		writeCatalogUnavailable(ctx, w)
		return
	}
	query := r.URL.Query()
	products, err := h.catalog.ListProducts(ctx, services.ProductFilter{
		Query:    strings.TrimSpace(query.Get("q")),
		Category: strings.TrimSpace(query.Get("category")),
	})
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"products": newProductPayloads(products)})
}

func (h *PublicHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		writeCatalogUnavailable(ctx, w)
		return
	}
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}
	product, err := h.catalog.GetProduct(ctx, productID)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, newProductPayload(product))
}

func (h *PublicHandlers) listCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		writeCatalogUnavailable(ctx, w)
		return
	}
	categories, err := h.catalog.Categories(ctx)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"categories": nonNilStrings(categories)})
}

func (h *PublicHandlers) getCompany(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.company == nil {
		httpx.WriteError(ctx, w, httpx.NewError("company_service_unavailable", "company service is unavailable", http.StatusServiceUnavailable))
		return
	}
	info, err := h.company.Get(ctx)
	if err != nil {
		writeCompanyError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, newCompanyPayload(info))
}

func parseProductID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("product id must be a positive integer")
	}
	return id, nil
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func writeCatalogUnavailable(ctx context.Context, w http.ResponseWriter) {
	httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
}

func writeCatalogError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCatalogInvalidInput):
		httpx.WriteError(ctx, w, httpx.BadRequest(strings.TrimPrefix(err.Error(), "catalog service: invalid input: ")))
	case errors.Is(err, services.ErrCatalogProductNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCatalogUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog storage is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.Internal())
	}
}

func writeCompanyError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCompanyInvalidInput):
		httpx.WriteError(ctx, w, httpx.BadRequest(strings.TrimPrefix(err.Error(), "company service: invalid input: ")))
	case errors.Is(err, services.ErrCompanyUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("company_unavailable", "company storage is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.Internal())
	}
}
