package services

import domain "github.com/komercia/storefront/internal/domain"

// ConfirmationKind selects the iconography of the confirmation page.
type ConfirmationKind string

const (
	ConfirmationSuccess    ConfirmationKind = "success"
	ConfirmationInProgress ConfirmationKind = "in_progress"
	ConfirmationError      ConfirmationKind = "error"
	ConfirmationWarning    ConfirmationKind = "warning"
)

// StepStatus marks progress of a next-steps entry.
type StepStatus string

const (
	StepCompleted StepStatus = "completed"
	StepCurrent   StepStatus = "current"
	StepUpcoming  StepStatus = "upcoming"
)

// ConfirmationStep is one entry of the next-steps pipeline.
type ConfirmationStep struct {
	Title       string
	Description string
	Status      StepStatus
}

// ConfirmationAction is a navigation button rendered under the status.
type ConfirmationAction struct {
	Label string
	Href  string
	Kind  string
}

// ConfirmationView is everything the confirmation page renders.
type ConfirmationView struct {
	State           OrderState
	StatusLabel     string
	Kind            ConfirmationKind
	Title           string
	Description     string
	Notice          string
	Steps           []ConfirmationStep
	Actions         []ConfirmationAction
	ShowRetry       bool
	Reference       string
	TransactionID   string
	AmountInCents   int64
	FormattedAmount string
}

type stateCopy struct {
	label       string
	kind        ConfirmationKind
	title       string
	description string
}

var confirmationCopy = map[OrderState]stateCopy{
	domain.OrderStatePaid: {
		label: "Pagado", kind: ConfirmationSuccess, title: "¡Pedido Confirmado!",
		description: "Gracias por tu compra. Hemos recibido tu pedido y lo procesaremos pronto.",
	},
	domain.OrderStateConfirmed: {
		label: "Pedido Confirmado", kind: ConfirmationSuccess, title: "¡Pedido Confirmado!",
		description: "Gracias por tu compra. Hemos recibido tu pedido y lo procesaremos pronto.",
	},
	domain.OrderStateProcessing: {
		label: "Pago aún en proceso", kind: ConfirmationInProgress, title: "Pago en Proceso",
		description: "Tu pago está siendo procesado. Te notificaremos cuando se complete.",
	},
	domain.OrderStatePending: {
		label: "Pago Pendiente", kind: ConfirmationInProgress, title: "Procesando Pago...",
		description: "Estamos procesando tu pago. Por favor, espera un momento.",
	},
	domain.OrderStateRejected: {
		label: "Pago Rechazado", kind: ConfirmationError, title: "Pago Rechazado",
		description: "Tu pago fue rechazado. Por favor, intenta nuevamente o contacta con tu banco.",
	},
	domain.OrderStateCancelled: {
		label: "Pago Cancelado", kind: ConfirmationError, title: "Pago Cancelado",
		description: "El pago fue cancelado. Puedes intentar realizar el pago nuevamente.",
	},
	domain.OrderStateFailed: {
		label: "Pago Fallido", kind: ConfirmationError, title: "Error en el Pago",
		description: "Hubo un error procesando tu pago. Por favor, intenta nuevamente.",
	},
	domain.OrderStateExpired: {
		label: "Pago Expirado", kind: ConfirmationWarning, title: "Pago Expirado",
		description: "El tiempo para completar el pago ha expirado. Por favor, intenta nuevamente.",
	},
}

var (
	continueShopping = ConfirmationAction{Label: "Seguir Comprando", Href: "/catalogo", Kind: "secondary"}
	backHome         = ConfirmationAction{Label: "Volver al Inicio", Href: "/", Kind: "primary"}
	retryPayment     = ConfirmationAction{Label: "Intentar Pago Nuevamente", Href: "/checkout", Kind: "primary"}
)

// BuildConfirmationView renders state, reference and amount into the page model. It is pure.
func BuildConfirmationView(state OrderState, reference string, amountInCents int64) ConfirmationView {
	c, ok := confirmationCopy[state]
	if !ok {
		state = domain.OrderStatePending
		c = confirmationCopy[state]
	}
	view := ConfirmationView{
		State:         state,
		StatusLabel:   c.label,
		Kind:          c.kind,
		Title:         c.title,
		Description:   c.description,
		Reference:     reference,
		AmountInCents: amountInCents,
	}
	if amountInCents > 0 {
		view.FormattedAmount = domain.FormatCents(amountInCents)
	}

	switch c.kind {
	case ConfirmationSuccess:
		view.Steps = paidSteps()
		view.Actions = []ConfirmationAction{continueShopping, backHome}
	case ConfirmationInProgress:
		view.Steps = awaitingPaymentSteps()
		view.Actions = []ConfirmationAction{continueShopping}
	default:
		view.Steps = awaitingPaymentSteps()
		view.Actions = []ConfirmationAction{retryPayment, continueShopping}
		view.ShowRetry = true
	}
	return view
}

func paidSteps() []ConfirmationStep {
	return []ConfirmationStep{
		{Title: "Pedido Confirmado", Description: "Hemos recibido tu pedido y lo estamos procesando", Status: StepCompleted},
		{Title: "Preparación", Description: "Preparamos tu pedido para el envío (1-2 días hábiles)", Status: StepCurrent},
		{Title: "Envío", Description: "Tu pedido está en camino (1-2 días hábiles)", Status: StepUpcoming},
	}
}

func awaitingPaymentSteps() []ConfirmationStep {
	return []ConfirmationStep{
		{Title: "Pedido Recibido", Description: "Hemos recibido tu solicitud de pedido", Status: StepCompleted},
		{Title: "Esperando Pago", Description: "Esperando confirmación del pago", Status: StepCurrent},
		{Title: "Preparación", Description: "Se iniciará una vez confirmado el pago", Status: StepUpcoming},
	}
}
