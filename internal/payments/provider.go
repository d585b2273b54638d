package payments

import (
	"context"
	"errors"

	"github.com/komercia/storefront/internal/domain"
)

var (
	// ErrProviderUnavailable is returned when the provider cannot be reached or the breaker is open.
	ErrProviderUnavailable = errors.New("payments: provider unavailable")
	// ErrTransactionNotFound is returned when the provider does not know the transaction id.
	ErrTransactionNotFound = errors.New("payments: transaction not found")
	// ErrInvalidTransactionID is returned for blank or malformed transaction ids.
	ErrInvalidTransactionID = errors.New("payments: invalid transaction id")
)

// Provider looks up payment transactions by the id the provider assigned them.
type Provider interface {
	Transaction(ctx context.Context, id string) (domain.Transaction, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, id string) (domain.Transaction, error)

// Transaction calls f.
func (f ProviderFunc) Transaction(ctx context.Context, id string) (domain.Transaction, error) {
	return f(ctx, id)
}
