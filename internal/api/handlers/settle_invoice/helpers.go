package settle_invoice

import (
	"context"
	"errors"
	"net/http"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/api/handlers"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/api/middleware"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/service/invoices"
)


// simple операция без тела запроса; customer = проверить, что счёт принадлежит вызывающему
func (h *Handler) simple(w http.ResponseWriter, r *http.Request, route string, customer bool, op func(ctx context.Context, id int64) error) {
	invoiceID, ok := h.invoiceID(w, r, route)
	if !ok {
		return
	}
	if customer && !h.authorize(w, r, route, invoiceID) {
		return
	}

	if err := op(r.Context(), invoiceID); err != nil {
		h.respondError(w, route, invoiceID, err)
		return
	}

	h.logger.Info("%s - Done: invoice_id=%d", route, invoiceID)
	handlers.RespondJSON(w, http.StatusOK, nil)
}

func (h *Handler) invoiceID(w http.ResponseWriter, r *http.Request, route string) (int64, bool) {
	invoiceID, err := handlers.PathID(r, "invoiceId")
	if err != nil {
		h.logger.Warn("%s - Invalid invoice ID: %v", route, err)
		handlers.RespondBadRequest(w, msgInvalidInvoiceID)
		return 0, false
	}
	return invoiceID, true
}

// authorize пропускает сотрудника, плательщика и кого угодно для счёта гостя
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, route string, invoiceID int64) bool {
	_, err := h.service.GetByID(r.Context(), invoiceID, middleware.UserIDPtr(r.Context()), middleware.IsStaff(r.Context()))
	if err != nil {
		h.respondError(w, route, invoiceID, err)
		return false
	}
	return true
}

func (h *Handler) respondError(w http.ResponseWriter, route string, invoiceID int64, err error) {
	switch {
	case errors.Is(err, invoices.ErrInvoiceNotFound):
		h.logger.Warn("%s - Invoice not found: invoice_id=%d", route, invoiceID)
		handlers.RespondNotFound(w, msgNotFound)

	case errors.Is(err, invoices.ErrAccessDenied):
		h.logger.Warn("%s - Access denied: invoice_id=%d", route, invoiceID)
		handlers.RespondForbidden(w, msgForbidden)

	case errors.Is(err, invoices.ErrPaymentHoldExpired):
		h.logger.Warn("%s - Payment hold expired: invoice_id=%d", route, invoiceID)
		handlers.RespondError(w, http.StatusGone, msgHoldExpired)

	case errors.Is(err, invoices.ErrInsufficientCredit):
		h.logger.Warn("%s - Insufficient credit: invoice_id=%d", route, invoiceID)
		handlers.RespondError(w, http.StatusPaymentRequired, msgInsufficientCredit)

	case errors.Is(err, invoices.ErrInvalidState):
		h.logger.Warn("%s - Invalid state: invoice_id=%d", route, invoiceID)
		handlers.RespondConflict(w, msgInvalidState)

	case errors.Is(err, invoices.ErrCheckoutUnavailable):
		h.logger.Error("%s - Checkout unavailable: invoice_id=%d, error=%v", route, invoiceID, err)
		handlers.RespondError(w, http.StatusServiceUnavailable, msgCheckoutUnavailable)

	case errors.Is(err, invoices.ErrInvalidInput):
		h.logger.Warn("%s - Invalid data: invoice_id=%d, error=%v", route, invoiceID, err)
		handlers.RespondBadRequest(w, msgInvalidData)

	default:
		h.logger.Error("%s - Failed: invoice_id=%d, error=%v", route, invoiceID, err)
		handlers.RespondInternalError(w)
	}
}
