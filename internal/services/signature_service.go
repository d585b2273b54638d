package services

import (
	"context"
	"errors"

	"github.com/komercia/storefront/internal/payments"
)

var (
	// ErrSignatureInvalidInput indicates a blank reference or currency, or a non-positive amount.
	ErrSignatureInvalidInput = errors.New("signature service: invalid input")
	// ErrSignatureNotConfigured indicates the integrity key is missing from configuration.
	ErrSignatureNotConfigured = errors.New("signature service: integrity key not configured")
)

// SignatureServiceDeps wires the integrity signer.
type SignatureServiceDeps struct {
	Signer payments.IntegritySigner
	Logger func(context.Context, string, map[string]any)
}

type signatureService struct {
	signer payments.IntegritySigner
	logger func(context.Context, string, map[string]any)
}

var _ SignatureService = (*signatureService)(nil)

// NewSignatureService builds the service. A signer without key is accepted so the
// endpoint can report the misconfiguration per request.
func NewSignatureService(deps SignatureServiceDeps) SignatureService {
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &signatureService{signer: deps.Signer, logger: logger}
}

func (s *signatureService) ComputeSignature(ctx context.Context, reference string, amountInCents int64, currency string) (string, error) {
	signature, err := s.signer.Sign(reference, amountInCents, currency)
	switch {
	case err == nil:
		return signature, nil
	case errors.Is(err, payments.ErrIntegrityKeyMissing):
		s.logger(ctx, "signature.not_configured", nil)
		return "", ErrSignatureNotConfigured
	case errors.Is(err, payments.ErrIntegrityInvalidInput):
		return "", ErrSignatureInvalidInput
	default:
		return "", err
	}
}
