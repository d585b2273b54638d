package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/komercia/storefront/internal/domain"
	"github.com/komercia/storefront/internal/platform/auth"
	"github.com/komercia/storefront/internal/platform/httpx"
	"github.com/komercia/storefront/internal/services"
)

const (
	maxAdminBodySize       = 256 * 1024
	multipartOverhead      = 1 << 20
	defaultLoginsPerMinute = 10
)

// AdminSessions issues and verifies admin sessions.
type AdminSessions interface {
	Login(secretKey string) (string, time.Time, error)
	SessionCookie(token string) *http.Cookie
	ClearCookie() *http.Cookie
	RequireAdmin() func(http.Handler) http.Handler
}

var _ AdminSessions = (*auth.AdminAuthenticator)(nil)

// AdminHandlers exposes the admin catalog store.
type AdminHandlers struct {
	sessions AdminSessions
	catalog  services.CatalogService
	company  services.CompanyService
	uploads  services.UploadService
	logins   *fixedWindowLimiter
	perMin   int
	clock    func() time.Time
	guards   []func(http.Handler) http.Handler
}

// AdminOption customises AdminHandlers behaviour.
type AdminOption func(*AdminHandlers)

// WithAdminCatalog wires the catalog service.
func WithAdminCatalog(catalog services.CatalogService) AdminOption {
	return func(h *AdminHandlers) {
		h.catalog = catalog
	}
}

// WithAdminCompany wires the company service.
func WithAdminCompany(company services.CompanyService) AdminOption {
	return func(h *AdminHandlers) {
		h.company = company
	}
}

// WithAdminUploads wires the upload service.
func WithAdminUploads(uploads services.UploadService) AdminOption {
	return func(h *AdminHandlers) {
		h.uploads = uploads
	}
}

// WithLoginRateLimit caps login attempts per client IP per minute. Zero disables the limit.
func WithLoginRateLimit(perMinute int) AdminOption {
	return func(h *AdminHandlers) {
		h.perMin = perMinute
	}
}

// WithAdminMiddlewares appends middlewares that run after the session check on protected routes.
func WithAdminMiddlewares(mw ...func(http.Handler) http.Handler) AdminOption {
	return func(h *AdminHandlers) {
		h.guards = append(h.guards, mw...)
	}
}

// WithAdminClock overrides the clock used by the login limiter.
func WithAdminClock(clock func() time.Time) AdminOption {
	return func(h *AdminHandlers) {
		if clock != nil {
			h.clock = clock
		}
	}
}

// NewAdminHandlers constructs admin handlers guarded by sessions.
func NewAdminHandlers(sessions AdminSessions, opts ...AdminOption) *AdminHandlers {
	h := &AdminHandlers{
		sessions: sessions,
		perMin:   defaultLoginsPerMinute,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logins = newFixedWindowLimiter(h.perMin, time.Minute, h.clock)
	return h
}

// Routes wires the /admin endpoints onto the provided router.
func (h *AdminHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.With(limitByIP(h.logins)).Post("/login", h.login)
	r.Post("/logout", h.logout)

	r.Group(func(protected chi.Router) {
		if h.sessions != nil {
			protected.Use(h.sessions.RequireAdmin())
		}
		for _, mw := range h.guards {
			if mw != nil {
				protected.Use(mw)
			}
		}
		protected.Get("/company", h.getCompany)
		protected.Put("/company", h.replaceCompany)
		protected.Patch("/company/about", h.updateAbout)
		protected.Patch("/company/contact", h.updateContact)
		protected.Patch("/company/social", h.updateSocial)
		protected.Put("/company/services", h.replaceServices)

		protected.Get("/products", h.listProducts)
		protected.Post("/products", h.createProduct)
		protected.Put("/products", h.updateProduct)
		protected.Delete("/products", h.deleteProduct)

		protected.Post("/upload", h.uploadImage)
	})
}

type loginRequest struct {
	SecretKey string `json:"secretKey"`
}

func (h *AdminHandlers) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.sessions == nil {
		writeAdminUnavailable(ctx, w)
		return
	}
	var req loginRequest
	if err := decodeJSONBody(r, maxSignatureBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	token, _, err := h.sessions.Login(req.SecretKey)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_credentials", "invalid admin key", http.StatusUnauthorized))
		return
	case errors.Is(err, auth.ErrAdminNotConfigured):
		writeAdminUnavailable(ctx, w)
		return
	case err != nil:
		httpx.WriteError(ctx, w, httpx.Internal())
		return
	}
	http.SetCookie(w, h.sessions.SessionCookie(token))
	writeJSONResponse(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *AdminHandlers) logout(w http.ResponseWriter, r *http.Request) {
	if h.sessions != nil {
		http.SetCookie(w, h.sessions.ClearCookie())
	}
	writeJSONResponse(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *AdminHandlers) getCompany(w http.ResponseWriter, r *http.Request) {
	h.withCompany(w, r, func(ctx context.Context) (domain.CompanyInfo, error) {
		return h.company.Get(ctx)
	})
}

func (h *AdminHandlers) replaceCompany(w http.ResponseWriter, r *http.Request) {
	var req companyPayload
	if !h.decodeAdminBody(w, r, &req) {
		return
	}
	h.withCompany(w, r, func(ctx context.Context) (domain.CompanyInfo, error) {
		return h.company.Replace(ctx, req.toModel())
	})
}

func (h *AdminHandlers) updateAbout(w http.ResponseWriter, r *http.Request) {
	var req companyAboutPayload
	if !h.decodeAdminBody(w, r, &req) {
		return
	}
	h.withCompany(w, r, func(ctx context.Context) (domain.CompanyInfo, error) {
		return h.company.UpdateAbout(ctx, req.toModel())
	})
}

func (h *AdminHandlers) updateContact(w http.ResponseWriter, r *http.Request) {
	var req companyContactPayload
	if !h.decodeAdminBody(w, r, &req) {
		return
	}
	h.withCompany(w, r, func(ctx context.Context) (domain.CompanyInfo, error) {
		return h.company.UpdateContact(ctx, req.toModel())
	})
}

func (h *AdminHandlers) updateSocial(w http.ResponseWriter, r *http.Request) {
	var req companySocialPayload
	if !h.decodeAdminBody(w, r, &req) {
		return
	}
	h.withCompany(w, r, func(ctx context.Context) (domain.CompanyInfo, error) {
		return h.company.UpdateSocial(ctx, req.toModel())
	})
}

type servicesRequest struct {
	Services []string `json:"services"`
}

func (h *AdminHandlers) replaceServices(w http.ResponseWriter, r *http.Request) {
	var req servicesRequest
	if !h.decodeAdminBody(w, r, &req) {
		return
	}
	h.withCompany(w, r, func(ctx context.Context) (domain.CompanyInfo, error) {
		return h.company.ReplaceServices(ctx, req.Services)
	})
}

func (h *AdminHandlers) withCompany(w http.ResponseWriter, r *http.Request, call func(context.Context) (domain.CompanyInfo, error)) {
	ctx := r.Context()
	if h.company == nil {
		httpx.WriteError(ctx, w, httpx.NewError("company_service_unavailable", "company service is unavailable", http.StatusServiceUnavailable))
		return
	}
	info, err := call(ctx)
	if err != nil {
		writeCompanyError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, newCompanyPayload(info))
}

func (h *AdminHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		writeCatalogUnavailable(ctx, w)
		return
	}
	products, err := h.catalog.ListProducts(ctx, services.ProductFilter{})
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"products": newProductPayloads(products)})
}

type createProductRequest struct {
	Name             string   `json:"name"`
	Price            *int64   `json:"price"`
	Category         string   `json:"category"`
	ShortDescription string   `json:"shortDescription"`
	LongDescription  string   `json:"longDescription"`
	Features         []string `json:"features"`
	Images           []string `json:"images"`
	InStock          *bool    `json:"inStock"`
}

func (h *AdminHandlers) createProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		writeCatalogUnavailable(ctx, w)
		return
	}
	var req createProductRequest
	if !h.decodeAdminBody(w, r, &req) {
		return
	}
	product, err := h.catalog.CreateProduct(ctx, services.CreateProductCommand{
		Name:             req.Name,
		Price:            req.Price,
		Category:         req.Category,
		ShortDescription: req.ShortDescription,
		LongDescription:  req.LongDescription,
		Features:         req.Features,
		Images:           req.Images,
		InStock:          req.InStock,
	})
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, newProductPayload(product))
}

type updateProductRequest struct {
	ID               *int64    `json:"id"`
	Name             *string   `json:"name"`
	Price            *int64    `json:"price"`
	Category         *string   `json:"category"`
	ShortDescription *string   `json:"shortDescription"`
	LongDescription  *string   `json:"longDescription"`
	Features         *[]string `json:"features"`
	Images           *[]string `json:"images"`
	InStock          *bool     `json:"inStock"`
}

func (h *AdminHandlers) updateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		writeCatalogUnavailable(ctx, w)
		return
	}
	var req updateProductRequest
	if !h.decodeAdminBody(w, r, &req) {
		return
	}
	if req.ID == nil || *req.ID <= 0 {
		httpx.WriteError(ctx, w, httpx.BadRequest("id is required"))
		return
	}
	product, err := h.catalog.UpdateProduct(ctx, *req.ID, domain.ProductUpdate{
		Name:             req.Name,
		Price:            req.Price,
		Category:         req.Category,
		ShortDescription: req.ShortDescription,
		LongDescription:  req.LongDescription,
		Features:         req.Features,
		Images:           req.Images,
		InStock:          req.InStock,
	})
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, newProductPayload(product))
}

func (h *AdminHandlers) deleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		writeCatalogUnavailable(ctx, w)
		return
	}
	productID, err := parseProductID(r.URL.Query().Get("id"))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.BadRequest(err.Error()))
		return
	}
	if err := h.catalog.DeleteProduct(ctx, productID); err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *AdminHandlers) uploadImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.uploads == nil {
		httpx.WriteError(ctx, w, httpx.NewError("upload_service_unavailable", "upload service is unavailable", http.StatusServiceUnavailable))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, services.MaxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(services.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "file exceeds 5 MiB", http.StatusRequestEntityTooLarge))
			return
		}
		httpx.WriteError(ctx, w, httpx.BadRequest("multipart form with a file field is required"))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.WriteError(ctx, w, httpx.BadRequest("file is required"))
		return
	}
	defer file.Close()

	contentType := strings.TrimSpace(header.Header.Get("Content-Type"))
	if contentType == "" || contentType == "application/octet-stream" {
		sniff := make([]byte, 512)
		n, _ := io.ReadFull(file, sniff)
		contentType = http.DetectContentType(sniff[:n])
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			httpx.WriteError(ctx, w, httpx.Internal())
			return
		}
	}

	url, err := h.uploads.UploadProductImage(ctx, services.UploadImageCommand{
		FileName:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Body:        file,
	})
	switch {
	case errors.Is(err, services.ErrUploadInvalidInput):
		httpx.WriteError(ctx, w, httpx.BadRequest(strings.TrimPrefix(err.Error(), "upload service: invalid input: ")))
		return
	case errors.Is(err, services.ErrUploadUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("upload_unavailable", "image storage is unavailable", http.StatusServiceUnavailable))
		return
	case err != nil:
		httpx.WriteError(ctx, w, httpx.Internal())
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"url": url})
}

func (h *AdminHandlers) decodeAdminBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeJSONBody(r, maxAdminBodySize, dst); err != nil {
		writeBodyError(r.Context(), w, err)
		return false
	}
	return true
}

func writeAdminUnavailable(ctx context.Context, w http.ResponseWriter) {
	httpx.WriteError(ctx, w, httpx.NewError("admin_not_configured", "admin access is not configured", http.StatusServiceUnavailable))
}
