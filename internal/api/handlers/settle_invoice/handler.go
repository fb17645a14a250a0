package settle_invoice

import (
	"context"
	"net/http"
	"strings"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/api/handlers"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/api/middleware"
)

const (
	msgInvalidInvoiceID    = "некорректный ID счёта"
	msgInvalidRequestBody  = "некорректное тело запроса"
	msgNotFound            = "счёт не найден"
	msgForbidden           = "доступ запрещен"
	msgInvalidState        = "операция недоступна в текущем статусе счёта"
	msgHoldExpired         = "время на оплату истекло, резервирование отменено"
	msgInsufficientCredit  = "недостаточно средств в пакете занятий"
	msgCheckoutUnavailable = "онлайн-оплата временно недоступна"
	msgInvalidData         = "некорректные данные оплаты"
)

// Handler операции оплаты и отклонения счёта
type Handler struct {
	service InvoiceService
	logger  Logger
}

func NewHandler(service InvoiceService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// ConfirmInstantMobile POST /api/v1/invoices/{invoiceId}/confirm-instant-mobile (сотрудник)
func (h *Handler) ConfirmInstantMobile(w http.ResponseWriter, r *http.Request) {
	h.simple(w, r, "POST /invoices/{id}/confirm-instant-mobile", false, h.service.ConfirmInstantMobile)
}

// ConfirmOnLocation POST /api/v1/invoices/{invoiceId}/confirm-on-location (сотрудник)
func (h *Handler) ConfirmOnLocation(w http.ResponseWriter, r *http.Request) {
	h.simple(w, r, "POST /invoices/{id}/confirm-on-location", false, h.service.ConfirmOnLocation)
}

// PayOnLocation POST /api/v1/invoices/{invoiceId}/pay-on-location
func (h *Handler) PayOnLocation(w http.ResponseWriter, r *http.Request) {
	h.simple(w, r, "POST /invoices/{id}/pay-on-location", true, h.service.MarkPayOnLocation)
}

// Decline POST /api/v1/invoices/{invoiceId}/decline (сотрудник)
func (h *Handler) Decline(w http.ResponseWriter, r *http.Request) {
	declinedBy := middleware.UserIDPtr(r.Context())
	h.simple(w, r, "POST /invoices/{id}/decline", false, func(ctx context.Context, id int64) error {
		return h.service.Decline(ctx, id, declinedBy)
	})
}

// SettleCredit POST /api/v1/invoices/{invoiceId}/settle-credit
func (h *Handler) SettleCredit(w http.ResponseWriter, r *http.Request) {
	const route = "POST /invoices/{id}/settle-credit"

	invoiceID, ok := h.invoiceID(w, r, route)
	if !ok {
		return
	}

	var req SettleCreditRequest
	if err := handlers.DecodeJSON(r, &req); err != nil || strings.TrimSpace(req.CreditRef) == "" {
		h.logger.Warn("%s - Invalid request body: %v", route, err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	if !h.authorize(w, r, route, invoiceID) {
		return
	}

	if err := h.service.SettleWithStoredCredit(r.Context(), invoiceID, req.CreditRef); err != nil {
		h.respondError(w, route, invoiceID, err)
		return
	}

	h.logger.Info("%s - Invoice settled with stored credit: invoice_id=%d", route, invoiceID)
	handlers.RespondJSON(w, http.StatusOK, nil)
}

// Checkout POST /api/v1/invoices/{invoiceId}/checkout
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	const route = "POST /invoices/{id}/checkout"

	invoiceID, ok := h.invoiceID(w, r, route)
	if !ok {
		return
	}
	if !h.authorize(w, r, route, invoiceID) {
		return
	}

	result, err := h.service.BeginHostedCheckout(r.Context(), invoiceID)
	if err != nil {
		h.respondError(w, route, invoiceID, err)
		return
	}

	h.logger.Info("%s - Checkout session created: invoice_id=%d, session_id=%s", route, invoiceID, result.SessionID)
	handlers.RespondJSON(w, http.StatusOK, result)
}
