package domain

import (
	"strings"
	"time"
)

// Product describes a chair listed in the storefront catalog.
type Product struct {
	ID               int64
	Name             string
	Price            int64
	Category         string
	ShortDescription string
	LongDescription  string
	Features         []string
	Images           []string
	InStock          bool
}

// ProductUpdate carries the optional fields of a partial product edit.
type ProductUpdate struct {
	Name             *string
	Price            *int64
	Category         *string
	ShortDescription *string
	LongDescription  *string
	Features         *[]string
	Images           *[]string
	InStock          *bool
}

// Apply returns a copy of p with the non-nil fields of u applied.
func (u ProductUpdate) Apply(p Product) Product {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.ShortDescription != nil {
		p.ShortDescription = *u.ShortDescription
	}
	if u.LongDescription != nil {
		p.LongDescription = *u.LongDescription
	}
	if u.Features != nil {
		p.Features = append([]string(nil), (*u.Features)...)
	}
	if u.Images != nil {
		p.Images = append([]string(nil), (*u.Images)...)
	}
	if u.InStock != nil {
		p.InStock = *u.InStock
	}
	return p
}

// CompanyInfo is the editable company profile rendered on the public site.
type CompanyInfo struct {
	Name        string
	Tagline     string
	Description string
	About       CompanyAbout
	Contact     CompanyContact
	Social      CompanySocial
	Services    []string
}

// CompanyAbout holds the history and values section.
type CompanyAbout struct {
	History string
	Vision  string
	Values  []string
}

// CompanyContact holds contact channels and opening hours.
type CompanyContact struct {
	Address  string
	Phone    string
	Email    string
	WhatsApp string
	Hours    string
}

// CompanySocial holds social network profile links.
type CompanySocial struct {
	Facebook  string
	Instagram string
	LinkedIn  string
	YouTube   string
}

// CartEntry is a product snapshot plus the quantity held in a cart. Quantity is always >= 1.
type CartEntry struct {
	ID       int64
	Name     string
	Price    int64
	Quantity int
	Images   []string
}

// LineTotal returns price multiplied by quantity.
func (e CartEntry) LineTotal() int64 {
	return e.Price * int64(e.Quantity)
}

// BuyerInfo captures the checkout form fields.
type BuyerInfo struct {
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	Address    string
	City       string
	Department string
	PostalCode string
	Notes      string
}

// FullName joins first and last names.
func (b BuyerInfo) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(b.FirstName) + " " + strings.TrimSpace(b.LastName))
}

// TransactionStatus is the payment status reported by Wompi.
type TransactionStatus string

const (
	TransactionStatusApproved TransactionStatus = "APPROVED"
	TransactionStatusDeclined TransactionStatus = "DECLINED"
	TransactionStatusPending  TransactionStatus = "PENDING"
	TransactionStatusExpired  TransactionStatus = "EXPIRED"
	TransactionStatusVoided   TransactionStatus = "VOIDED"
	TransactionStatusFailed   TransactionStatus = "FAILED"
)

// Transaction is a snapshot of a provider transaction lookup.
type Transaction struct {
	ID                string
	Status            TransactionStatus
	Reference         string
	AmountInCents     int64
	Currency          string
	PaymentMethodType string
	CreatedAt         time.Time
}

// OrderState is the storefront-facing interpretation of a payment.
type OrderState string

const (
	OrderStatePaid       OrderState = "paid"
	OrderStateRejected   OrderState = "rejected"
	OrderStateProcessing OrderState = "processing"
	OrderStateExpired    OrderState = "expired"
	OrderStateCancelled  OrderState = "cancelled"
	OrderStateFailed     OrderState = "failed"
	OrderStatePending    OrderState = "pending"
	// OrderStateConfirmed is used when only an order reference is known and no provider lookup happens.
	OrderStateConfirmed OrderState = "confirmed"
)

var transactionStates = map[TransactionStatus]OrderState{
	TransactionStatusApproved: OrderStatePaid,
	TransactionStatusDeclined: OrderStateRejected,
	TransactionStatusPending:  OrderStateProcessing,
	TransactionStatusExpired:  OrderStateExpired,
	TransactionStatusVoided:   OrderStateCancelled,
	TransactionStatusFailed:   OrderStateFailed,
}

// MapTransactionStatus converts a provider status into an OrderState. Unknown values map to pending.
func MapTransactionStatus(status TransactionStatus) OrderState {
	normalized := TransactionStatus(strings.ToUpper(strings.TrimSpace(string(status))))
	if state, ok := transactionStates[normalized]; ok {
		return state
	}
	return OrderStatePending
}

// OrderStatusEvent is emitted whenever a payment status is resolved for an order.
type OrderStatusEvent struct {
	Reference     string
	TransactionID string
	State         OrderState
	AmountInCents int64
	ResolvedAt    time.Time
}

// Health statuses reported by dependency probes.
const (
	HealthStatusOK       = "ok"
	HealthStatusDegraded = "degraded"
	HealthStatusError    = "error"
)

// SystemHealthCheck describes the outcome of an individual dependency probe.
type SystemHealthCheck struct {
	Status    string
	Detail    string
	Error     string
	Latency   time.Duration
	CheckedAt time.Time
}

// SystemHealthReport aggregates dependency status for health endpoints.
type SystemHealthReport struct {
	Status      string
	Checks      map[string]SystemHealthCheck
	Version     string
	Environment string
	Uptime      time.Duration
	GeneratedAt time.Time
}
