package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/komercia/storefront/internal/platform/httpx"
	"github.com/komercia/storefront/internal/services"
)

const maxSignatureBodySize = 4 * 1024

// SignatureHandlers exposes the integrity signature endpoint used by the payment widget.
type SignatureHandlers struct {
	signatures services.SignatureService
}

// NewSignatureHandlers constructs signature handlers.
func NewSignatureHandlers(signatures services.SignatureService) *SignatureHandlers {
	return &SignatureHandlers{signatures: signatures}
}

// Routes wires POST / onto the provided router.
func (h *SignatureHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.computeSignature)
}

type signatureRequest struct {
	Reference     string `json:"reference"`
	AmountInCents *int64 `json:"amountInCents"`
	Currency      string `json:"currency"`
}

type signatureResponse struct {
	Signature string `json:"signature"`
}

func (h *SignatureHandlers) computeSignature(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.signatures == nil {
		httpx.WriteError(ctx, w, httpx.NewError("signature_service_unavailable", "signature service is unavailable", http.StatusServiceUnavailable))
		return
	}

	var req signatureRequest
	if err := decodeJSONBody(r, maxSignatureBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	var missing []string
	if strings.TrimSpace(req.Reference) == "" {
		missing = append(missing, "reference")
	}
	if req.AmountInCents == nil {
		missing = append(missing, "amountInCents")
	}
	if strings.TrimSpace(req.Currency) == "" {
		missing = append(missing, "currency")
	}
	if len(missing) > 0 {
		httpx.WriteError(ctx, w, httpx.BadRequest("missing required fields: "+strings.Join(missing, ", ")))
		return
	}

	signature, err := h.signatures.ComputeSignature(ctx, req.Reference, *req.AmountInCents, req.Currency)
	if err != nil {
		writeSignatureError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, signatureResponse{Signature: signature})
}

func writeSignatureError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrSignatureInvalidInput):
		httpx.WriteError(ctx, w, httpx.BadRequest(strings.TrimPrefix(err.Error(), "signature service: ")))
	case errors.Is(err, services.ErrSignatureNotConfigured):
		httpx.WriteError(ctx, w, httpx.NewError("signature_not_configured", "payment signature is not configured", http.StatusInternalServerError))
	default:
		httpx.WriteError(ctx, w, httpx.Internal())
	}
}

// writeBodyError maps readLimitedBody and decodeJSONBody failures.
func writeBodyError(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, errBodyTooLarge) {
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", err.Error(), http.StatusRequestEntityTooLarge))
		return
	}
	httpx.WriteError(ctx, w, httpx.BadRequest(err.Error()))
}
