package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/komercia/storefront/internal/platform/auth"
	"github.com/komercia/storefront/internal/platform/idempotency"
	"github.com/komercia/storefront/internal/platform/storage"
)

const testAdminKey = "admin-secret-key"

type adminFixture struct {
	router chi.Router
	svcs   storefrontServices
	token  *http.Cookie
}

func newAdminFixture(t *testing.T, opts ...AdminOption) adminFixture {
	t.Helper()
	svcs := newStorefrontServices(t)
	authenticator := auth.NewAdminAuthenticator(testAdminKey)
	opts = append([]AdminOption{
		WithAdminCatalog(svcs.catalog),
		WithAdminCompany(svcs.company),
		WithAdminUploads(svcs.uploads),
	}, opts...)
	router := chi.NewRouter()
	router.Route("/admin", NewAdminHandlers(authenticator, opts...).Routes)

	token, _, err := authenticator.IssueToken()
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return adminFixture{router: router, svcs: svcs, token: authenticator.SessionCookie(token)}
}

func (f adminFixture) serve(method, path, body string, authed bool) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	if authed {
		req.AddCookie(f.token)
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func TestAdminHandlersLogin(t *testing.T) {
	f := newAdminFixture(t)

	rr := f.serve(http.MethodPost, "/admin/login", `{"secretKey":"`+testAdminKey+`"}`, false)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if body := decodeBody[map[string]bool](t, rr); !body["success"] {
		t.Fatalf("expected success true, got %v", body)
	}
	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != auth.AdminCookieName || cookies[0].Value == "" {
		t.Fatalf("expected admin cookie, got %+v", cookies)
	}
	if cookies[0].SameSite != http.SameSiteStrictMode || !cookies[0].HttpOnly || cookies[0].MaxAge != 86400 {
		t.Fatalf("unexpected cookie attributes %+v", cookies[0])
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/products", nil)
	req.AddCookie(cookies[0])
	authed := httptest.NewRecorder()
	f.router.ServeHTTP(authed, req)
	if authed.Code != http.StatusOK {
		t.Fatalf("expected issued cookie to authorize, got %d", authed.Code)
	}
}

func TestAdminHandlersLoginInvalidKey(t *testing.T) {
	f := newAdminFixture(t)

	rr := f.serve(http.MethodPost, "/admin/login", `{"secretKey":"wrong"}`, false)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
	if body := decodeBody[errorBody](t, rr); body.Error != "invalid_credentials" {
		t.Fatalf("unexpected code %s", body.Error)
	}
	if len(rr.Result().Cookies()) != 0 {
		t.Fatalf("expected no cookie on failed login")
	}
}

func TestAdminHandlersLoginRateLimited(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	f := newAdminFixture(t, WithLoginRateLimit(2), WithAdminClock(func() time.Time { return now }))

	for i := 0; i < 2; i++ {
		if rr := f.serve(http.MethodPost, "/admin/login", `{"secretKey":"wrong"}`, false); rr.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected status 401, got %d", i+1, rr.Code)
		}
	}
	rr := f.serve(http.MethodPost, "/admin/login", `{"secretKey":"`+testAdminKey+`"}`, false)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
}

func TestAdminHandlersLogoutClearsCookie(t *testing.T) {
	f := newAdminFixture(t)

	rr := f.serve(http.MethodPost, "/admin/logout", "", true)
	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge != -1 {
		t.Fatalf("expected deleting cookie, got %+v", cookies)
	}
}

func TestAdminHandlersRequireSession(t *testing.T) {
	f := newAdminFixture(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/admin/company"},
		{http.MethodPut, "/admin/company"},
		{http.MethodGet, "/admin/products"},
		{http.MethodPost, "/admin/products"},
		{http.MethodDelete, "/admin/products?id=1"},
		{http.MethodPost, "/admin/upload"},
	} {
		rr := f.serve(route.method, route.path, "", false)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected status 401, got %d", route.method, route.path, rr.Code)
		}
	}
}

func TestAdminHandlersProductLifecycle(t *testing.T) {
	f := newAdminFixture(t)

	rr := f.serve(http.MethodPost, "/admin/products", `{"name":"Silla <b>Nova</b>","price":650000,"category":"Oficina"}`, true)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	created := decodeBody[productPayload](t, rr)
	if created.Name != "Silla Nova" || !created.InStock || created.ID <= 0 {
		t.Fatalf("unexpected created product %+v", created)
	}
	if len(created.Features) != 0 || len(created.Images) != 0 {
		t.Fatalf("expected empty features and images, got %+v", created)
	}

	rr = f.serve(http.MethodPut, "/admin/products", `{"id":`+itoa(created.ID)+`,"price":599000,"inStock":false}`, true)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	updated := decodeBody[productPayload](t, rr)
	if updated.Price != 599000 || updated.InStock || updated.Name != "Silla Nova" {
		t.Fatalf("unexpected updated product %+v", updated)
	}

	rr = f.serve(http.MethodDelete, "/admin/products?id="+itoa(created.ID), "", true)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	rr = f.serve(http.MethodDelete, "/admin/products?id="+itoa(created.ID), "", true)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 on second delete, got %d", rr.Code)
	}
}

func TestAdminHandlersReplayProductCreateWithIdempotencyKey(t *testing.T) {
	f := newAdminFixture(t, WithAdminMiddlewares(idempotency.Middleware(idempotency.NewMemoryStore())))
	before := decodeBody[struct {
		Products []productPayload `json:"products"`
	}](t, f.serve(http.MethodGet, "/admin/products", "", true))

	create := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/admin/products", strings.NewReader(`{"name":"Silla Aria","price":420000,"category":"ergonomica"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(idempotency.HeaderName, "create-aria")
		req.AddCookie(f.token)
		rr := httptest.NewRecorder()
		f.router.ServeHTTP(rr, req)
		return rr
	}
	first := create()
	second := create()
	if first.Code != http.StatusCreated || second.Code != http.StatusCreated {
		t.Fatalf("expected 201 twice, got %d and %d", first.Code, second.Code)
	}
	if second.Header().Get(idempotency.ReplayHeaderName) != "true" {
		t.Fatalf("expected second create to be replayed")
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("expected identical bodies, got %s and %s", first.Body.String(), second.Body.String())
	}

	after := decodeBody[struct {
		Products []productPayload `json:"products"`
	}](t, f.serve(http.MethodGet, "/admin/products", "", true))
	if len(after.Products) != len(before.Products)+1 {
		t.Fatalf("expected exactly one product created, got %d -> %d", len(before.Products), len(after.Products))
	}
}

func TestAdminHandlersProductValidation(t *testing.T) {
	f := newAdminFixture(t)

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{name: "missing price", method: http.MethodPost, path: "/admin/products", body: `{"name":"Silla","category":"Oficina"}`, status: http.StatusBadRequest},
		{name: "negative price", method: http.MethodPost, path: "/admin/products", body: `{"name":"Silla","price":-1,"category":"Oficina"}`, status: http.StatusBadRequest},
		{name: "update without id", method: http.MethodPut, path: "/admin/products", body: `{"price":10}`, status: http.StatusBadRequest},
		{name: "update missing product", method: http.MethodPut, path: "/admin/products", body: `{"id":999,"price":10}`, status: http.StatusNotFound},
		{name: "delete bad id", method: http.MethodDelete, path: "/admin/products?id=abc", status: http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := f.serve(tc.method, tc.path, tc.body, true)
			if rr.Code != tc.status {
				t.Fatalf("expected status %d, got %d: %s", tc.status, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestAdminHandlersCompanySections(t *testing.T) {
	f := newAdminFixture(t)

	rr := f.serve(http.MethodPatch, "/admin/company/contact", `{"address":"Cra 7 # 71-21","phone":"+57 601 555 0101","email":"ventas@sillas.co","whatsapp":"+57 300 555 0101","hours":"L-V 8-18"}`, true)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if company := decodeBody[companyPayload](t, rr); company.Contact.Email != "ventas@sillas.co" {
		t.Fatalf("expected contact updated, got %+v", company.Contact)
	}

	rr = f.serve(http.MethodPatch, "/admin/company/social", `{"facebook":"javascript:alert(1)"}`, true)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for non-http url, got %d", rr.Code)
	}

	rr = f.serve(http.MethodPut, "/admin/company/services", `{"services":["Envío gratis","Garantía 2 años"]}`, true)
	if company := decodeBody[companyPayload](t, rr); len(company.Services) != 2 {
		t.Fatalf("expected two services, got %v", company.Services)
	}

	rr = f.serve(http.MethodPut, "/admin/company", `{"name":"","tagline":"x","description":"y"}`, true)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for missing name, got %d", rr.Code)
	}

	rr = f.serve(http.MethodGet, "/admin/company", "", true)
	if company := decodeBody[companyPayload](t, rr); company.Contact.Email != "ventas@sillas.co" {
		t.Fatalf("expected persisted contact, got %+v", company.Contact)
	}
}

func multipartImage(t *testing.T, fileName string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return body, writer.FormDataContentType()
}

func TestAdminHandlersUploadImage(t *testing.T) {
	f := newAdminFixture(t)
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)
	body, contentType := multipartImage(t, "Silla Nova.png", png)

	req := httptest.NewRequest(http.MethodPost, "/admin/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(f.token)
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeBody[map[string]string](t, rr)
	wantObject := "products/silla-nova-01hv6zq3j8m1f7y4k2b9c0d5ex.png"
	if resp["url"] != testAssetBase+wantObject {
		t.Fatalf("unexpected url %s", resp["url"])
	}
	object, ok := f.svcs.blobs.Object(wantObject)
	if !ok {
		t.Fatalf("expected object %s stored", wantObject)
	}
	if object.ContentType != "image/png" || object.CacheControl != storage.CacheControlAsset {
		t.Fatalf("unexpected object metadata %+v", object)
	}
}

func TestAdminHandlersUploadRejectsNonImage(t *testing.T) {
	f := newAdminFixture(t)
	body, contentType := multipartImage(t, "notes.txt", []byte("plain text, not an image"))

	req := httptest.NewRequest(http.MethodPost, "/admin/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(f.token)
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestAdminHandlersUploadMissingFile(t *testing.T) {
	f := newAdminFixture(t)
	rr := f.serve(http.MethodPost, "/admin/upload", "", true)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
