package domain

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	// CurrencyCOP is the only currency the storefront sells in.
	CurrencyCOP = "COP"
	// FreeShippingThreshold is the subtotal from which shipping is free.
	FreeShippingThreshold int64 = 500000
	// StandardShippingCost applies below FreeShippingThreshold.
	StandardShippingCost int64 = 25000
)

var (
	hundred    = decimal.NewFromInt(100)
	copPrinter = message.NewPrinter(language.MustParse("es-CO"))
)

// CartTotals summarises a cart for display and payment.
type CartTotals struct {
	Subtotal  int64
	Shipping  int64
	Total     int64
	ItemCount int
}

// ShippingCost returns the shipping fee for a subtotal.
func ShippingCost(subtotal int64) int64 {
	if subtotal >= FreeShippingThreshold {
		return 0
	}
	return StandardShippingCost
}

// ComputeCartTotals folds entries into subtotal, shipping and item count. An empty cart carries no shipping.
func ComputeCartTotals(entries []CartEntry) CartTotals {
	var totals CartTotals
	for _, entry := range entries {
		totals.Subtotal += entry.LineTotal()
		totals.ItemCount += entry.Quantity
	}
	if totals.ItemCount == 0 {
		return totals
	}
	totals.Shipping = ShippingCost(totals.Subtotal)
	totals.Total = totals.Subtotal + totals.Shipping
	return totals
}

// ToCents converts a whole-peso amount into cents.
func ToCents(pesos int64) int64 {
	return decimal.NewFromInt(pesos).Mul(hundred).IntPart()
}

// FromCents converts cents into whole pesos, rounding half away from zero.
func FromCents(cents int64) int64 {
	return decimal.NewFromInt(cents).Div(hundred).Round(0).IntPart()
}

// FormatPrice renders a COP amount the way es-CO displays currency, e.g. "$ 899.000".
func FormatPrice(pesos int64) string {
	return "$ " + copPrinter.Sprint(number.Decimal(pesos))
}

// FormatCents renders an amount expressed in cents.
func FormatCents(cents int64) string {
	return FormatPrice(FromCents(cents))
}
