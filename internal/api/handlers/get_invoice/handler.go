package get_invoice

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/api/handlers"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/api/middleware"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/service/invoices"
)

const (
	msgInvalidInvoiceID = "некорректный ID счёта"
	msgInvalidIdentity  = "некорректный ID пользователя"
	msgNotFound         = "счёт не найден"
	msgForbidden        = "доступ запрещен"
)

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

// Handle GET /api/v1/invoices/{invoiceId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	invoiceID, err := handlers.PathID(r, "invoiceId")
	if err != nil {
		h.logger.Warn("GET /invoices/{id} - Invalid invoice ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidInvoiceID)
		return
	}

	result, err := h.service.GetByID(r.Context(), invoiceID, middleware.UserIDPtr(r.Context()), middleware.IsStaff(r.Context()))
	if err != nil {
		switch {
		case errors.Is(err, invoices.ErrInvoiceNotFound):
			h.logger.Warn("GET /invoices/{id} - Invoice not found: invoice_id=%d", invoiceID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, invoices.ErrAccessDenied):
			h.logger.Warn("GET /invoices/{id} - Access denied: invoice_id=%d", invoiceID)
			handlers.RespondForbidden(w, msgForbidden)

		default:
			h.logger.Error("GET /invoices/{id} - Failed to get invoice: invoice_id=%d, error=%v", invoiceID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /invoices/{id} - Invoice retrieved: invoice_id=%d, status=%s", invoiceID, result.Status)
	handlers.RespondJSON(w, http.StatusOK, result)
}

// ListByPayer GET /api/v1/users/{identity}/invoices
func (h *Handler) ListByPayer(w http.ResponseWriter, r *http.Request) {
	identity, err := handlers.PathID(r, "identity")
	if err != nil {
		h.logger.Warn("GET /users/{id}/invoices - Invalid identity: %v", err)
		handlers.RespondBadRequest(w, msgInvalidIdentity)
		return
	}

	caller, _ := middleware.GetUserID(r.Context())
	if caller != identity && !middleware.IsStaff(r.Context()) {
		h.logger.Warn("GET /users/{id}/invoices - Access denied: identity=%d, user_id=%d", identity, caller)
		handlers.RespondForbidden(w, msgForbidden)
		return
	}

	result, err := h.service.ListByPayer(r.Context(), identity)
	if err != nil {
		h.logger.Error("GET /users/{id}/invoices - Failed to list invoices: identity=%d, error=%v", identity, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /users/{id}/invoices - Invoices retrieved: identity=%d, total=%d", identity, result.Total)
	handlers.RespondJSON(w, http.StatusOK, result)
}
