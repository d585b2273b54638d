package services

import (
	"context"
	"io"

	domain "github.com/komercia/storefront/internal/domain"
	"github.com/komercia/storefront/internal/payments"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Product            = domain.Product
	ProductUpdate      = domain.ProductUpdate
	CompanyInfo        = domain.CompanyInfo
	CompanyAbout       = domain.CompanyAbout
	CompanyContact     = domain.CompanyContact
	CompanySocial      = domain.CompanySocial
	CartEntry          = domain.CartEntry
	CartTotals         = domain.CartTotals
	BuyerInfo          = domain.BuyerInfo
	OrderState         = domain.OrderState
	OrderStatusEvent   = domain.OrderStatusEvent
	SystemHealthReport = domain.SystemHealthReport
)

// SignatureService computes Wompi integrity signatures for checkout references.
type SignatureService interface {
	ComputeSignature(ctx context.Context, reference string, amountInCents int64, currency string) (string, error)
}

// CartStore holds the cart of a single browsing session. Mutations return the resulting entries.
type CartStore interface {
	Add(ctx context.Context, product Product, quantity int) ([]CartEntry, error)
	Remove(ctx context.Context, productID int64) ([]CartEntry, error)
	SetQuantity(ctx context.Context, productID int64, quantity int) ([]CartEntry, error)
	Clear(ctx context.Context) error
	Entries(ctx context.Context) ([]CartEntry, error)
	Total(ctx context.Context) (int64, error)
	ItemCount(ctx context.Context) (int, error)
}

// CartStoreFactory builds the CartStore bound to a session id.
type CartStoreFactory interface {
	ForSession(sessionID string) (CartStore, error)
}

// CheckoutSession drives one buyer through signature, form validation and payment.
type CheckoutSession interface {
	Start(ctx context.Context) (CheckoutSnapshot, error)
	UpdateBuyer(info BuyerInfo) CheckoutSnapshot
	Pay(ctx context.Context) (CheckoutSnapshot, error)
	DismissError() CheckoutSnapshot
	Reset() CheckoutSnapshot
	Snapshot() CheckoutSnapshot
}

// CheckoutService hands out the checkout session belonging to a browsing session.
type CheckoutService interface {
	CheckoutReferences
	Session(sessionID string) (CheckoutSession, error)
	Discard(sessionID string)
}

// CheckoutReferences reports whether a checkout reference was issued to a browsing session.
type CheckoutReferences interface {
	IssuedReference(sessionID, reference string) bool
}

// CheckoutReferencesFunc adapts a function to CheckoutReferences.
type CheckoutReferencesFunc func(sessionID, reference string) bool

func (f CheckoutReferencesFunc) IssuedReference(sessionID, reference string) bool {
	return f(sessionID, reference)
}

// ConfirmationService resolves the payment status shown on the confirmation page.
type ConfirmationService interface {
	Resolve(ctx context.Context, query ConfirmationQuery) ConfirmationView
}

// OrderEventPublisher emits resolved order statuses to downstream consumers.
type OrderEventPublisher interface {
	PublishOrderStatus(ctx context.Context, event OrderStatusEvent) error
}

// CatalogService exposes the public catalog and its admin mutations.
type CatalogService interface {
	ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error)
	GetProduct(ctx context.Context, productID int64) (Product, error)
	Categories(ctx context.Context) ([]string, error)
	CreateProduct(ctx context.Context, cmd CreateProductCommand) (Product, error)
	UpdateProduct(ctx context.Context, productID int64, update ProductUpdate) (Product, error)
	DeleteProduct(ctx context.Context, productID int64) error
}

// CompanyService reads and edits the company profile.
type CompanyService interface {
	Get(ctx context.Context) (CompanyInfo, error)
	Replace(ctx context.Context, info CompanyInfo) (CompanyInfo, error)
	UpdateAbout(ctx context.Context, about CompanyAbout) (CompanyInfo, error)
	UpdateContact(ctx context.Context, contact CompanyContact) (CompanyInfo, error)
	UpdateSocial(ctx context.Context, social CompanySocial) (CompanyInfo, error)
	ReplaceServices(ctx context.Context, services []string) (CompanyInfo, error)
}

// UploadService stores product images and returns their public URL.
type UploadService interface {
	UploadProductImage(ctx context.Context, cmd UploadImageCommand) (string, error)
}

// UploadImageCommand carries a product image upload.
type UploadImageCommand struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// SystemService exposes health information for the running instance.
type SystemService interface {
	HealthReport(ctx context.Context) (SystemHealthReport, error)
}

// SignatureClient requests an integrity signature for a checkout attempt.
type SignatureClient interface {
	ComputeSignature(ctx context.Context, reference string, amountInCents int64, currency string) (string, error)
}

// WidgetAdapter is the payment UI port used by checkout sessions.
type WidgetAdapter = payments.WidgetAdapter
