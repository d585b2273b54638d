package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/komercia/storefront/internal/platform/httpx"
	"github.com/komercia/storefront/internal/platform/requestctx"
	"github.com/komercia/storefront/internal/services"
)

// ConfirmationHandlers renders the payment status behind the confirmation page.
type ConfirmationHandlers struct {
	confirmations services.ConfirmationService
}

// NewConfirmationHandlers constructs confirmation handlers.
func NewConfirmationHandlers(confirmations services.ConfirmationService) *ConfirmationHandlers {
	return &ConfirmationHandlers{confirmations: confirmations}
}

// Routes wires GET / onto the provided router.
func (h *ConfirmationHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.resolve)
}

type confirmationStepPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

type confirmationActionPayload struct {
	Label string `json:"label"`
	Href  string `json:"href"`
	Kind  string `json:"kind"`
}

type confirmationPayload struct {
	State           string                      `json:"state"`
	StatusLabel     string                      `json:"statusLabel"`
	Kind            string                      `json:"kind"`
	Title           string                      `json:"title"`
	Description     string                      `json:"description"`
	Notice          string                      `json:"notice,omitempty"`
	Steps           []confirmationStepPayload   `json:"steps"`
	Actions         []confirmationActionPayload `json:"actions"`
	ShowRetry       bool                        `json:"showRetry"`
	Reference       string                      `json:"reference,omitempty"`
	TransactionID   string                      `json:"transactionId,omitempty"`
	AmountInCents   int64                       `json:"amountInCents,omitempty"`
	FormattedAmount string                      `json:"formattedAmount,omitempty"`
}

func newConfirmationPayload(view services.ConfirmationView) confirmationPayload {
	steps := make([]confirmationStepPayload, 0, len(view.Steps))
	for _, step := range view.Steps {
		steps = append(steps, confirmationStepPayload{Title: step.Title, Description: step.Description, Status: string(step.Status)})
	}
	actions := make([]confirmationActionPayload, 0, len(view.Actions))
	for _, action := range view.Actions {
		actions = append(actions, confirmationActionPayload{Label: action.Label, Href: action.Href, Kind: action.Kind})
	}
	return confirmationPayload{
		State:           string(view.State),
		StatusLabel:     view.StatusLabel,
		Kind:            string(view.Kind),
		Title:           view.Title,
		Description:     view.Description,
		Notice:          view.Notice,
		Steps:           steps,
		Actions:         actions,
		ShowRetry:       view.ShowRetry,
		Reference:       view.Reference,
		TransactionID:   view.TransactionID,
		AmountInCents:   view.AmountInCents,
		FormattedAmount: view.FormattedAmount,
	}
}

func (h *ConfirmationHandlers) resolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.confirmations == nil {
		httpx.WriteError(ctx, w, httpx.NewError("confirmation_service_unavailable", "confirmation service is unavailable", http.StatusServiceUnavailable))
		return
	}
	query := r.URL.Query()
	view := h.confirmations.Resolve(ctx, services.ConfirmationQuery{
		TransactionID:  strings.TrimSpace(query.Get("id")),
		OrderReference: strings.TrimSpace(query.Get("pedido")),
		SessionID:      requestctx.SessionID(ctx),
	})
	writeJSONResponse(w, http.StatusOK, newConfirmationPayload(view))
}
