package stripe_webhook

import (
	"errors"
	"io"
	"net/http"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/api/handlers"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/service/invoices"
)

const (
	signatureHeader = "Stripe-Signature"
	maxPayloadBytes = 64 << 10

	msgInvalidPayload   = "некорректное тело webhook"
	msgInvalidSignature = "неверная подпись webhook"
)

// Handler webhook Stripe Checkout
type Handler struct {
	parser  WebhookParser
	service InvoiceService
	logger  Logger
}

func NewHandler(parser WebhookParser, service InvoiceService, logger Logger) *Handler {
	return &Handler{
		parser:  parser,
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/webhooks/stripe
// Ошибки состояния счёта отвечают 200, иначе Stripe будет повторять событие бесконечно
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		h.logger.Warn("POST /webhooks/stripe - Failed to read body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidPayload)
		return
	}

	event, err := h.parser.ParseWebhook(payload, r.Header.Get(signatureHeader))
	if err != nil {
		h.logger.Warn("POST /webhooks/stripe - Rejected event: %v", err)
		handlers.RespondBadRequest(w, msgInvalidSignature)
		return
	}

	if !event.Relevant {
		h.logger.Info("POST /webhooks/stripe - Ignored event: id=%s, type=%s", event.EventID, event.EventType)
		handlers.RespondJSON(w, http.StatusOK, nil)
		return
	}

	if event.InvoiceID > 0 {
		err = h.service.ReconcileHostedCheckout(r.Context(), event.InvoiceID, event.Status)
	} else {
		err = h.service.ReconcileCheckoutSession(r.Context(), event.SessionID, event.Status)
	}
	if err != nil {
		switch {
		case errors.Is(err, invoices.ErrInvoiceNotFound), errors.Is(err, invoices.ErrInvalidState):
			h.logger.Warn("POST /webhooks/stripe - Event not applied: id=%s, invoice_id=%d, session_id=%s, error=%v",
				event.EventID, event.InvoiceID, event.SessionID, err)
			handlers.RespondJSON(w, http.StatusOK, nil)

		default:
			h.logger.Error("POST /webhooks/stripe - Failed to reconcile: id=%s, invoice_id=%d, error=%v",
				event.EventID, event.InvoiceID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /webhooks/stripe - Event applied: id=%s, invoice_id=%d, status=%s",
		event.EventID, event.InvoiceID, event.Status)
	handlers.RespondJSON(w, http.StatusOK, nil)
}
