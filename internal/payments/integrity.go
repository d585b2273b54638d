package payments

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
)

var (
	// ErrIntegrityKeyMissing is returned when no integrity key is configured.
	ErrIntegrityKeyMissing = errors.New("payments: integrity key not configured")
	// ErrIntegrityInvalidInput is returned for blank references or currencies and non-positive amounts.
	ErrIntegrityInvalidInput = errors.New("payments: invalid integrity input")
)

// IntegritySigner computes Wompi integrity signatures.
type IntegritySigner struct {
	key string
}

// NewIntegritySigner returns a signer over key. An empty key is accepted and reported on Sign.
func NewIntegritySigner(key string) IntegritySigner {
	return IntegritySigner{key: strings.TrimSpace(key)}
}

// Configured reports whether an integrity key is present.
func (s IntegritySigner) Configured() bool {
	return s.key != ""
}

// Sign returns lowercase hex SHA-256 of reference, amount in cents, currency and the key concatenated.
// Reference and currency are hashed exactly as given, so they must match what the widget sends.
func (s IntegritySigner) Sign(reference string, amountInCents int64, currency string) (string, error) {
	if s.key == "" {
		return "", ErrIntegrityKeyMissing
	}
	if strings.TrimSpace(reference) == "" || strings.TrimSpace(currency) == "" || amountInCents <= 0 {
		return "", ErrIntegrityInvalidInput
	}

	var b strings.Builder
	b.Grow(len(reference) + 20 + len(currency) + len(s.key))
	b.WriteString(reference)
	b.WriteString(strconv.FormatInt(amountInCents, 10))
	b.WriteString(currency)
	b.WriteString(s.key)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:]), nil
}
