package create_invoice

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/api/handlers"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/api/middleware"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/service/invoices"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/service/invoices/models"
)

const (
	msgInvalidRequestBody  = "некорректное тело запроса"
	msgInvalidData         = "некорректные данные счёта"
	msgReservationNotFound = "резервирование не найдено"
	msgActiveInvoiceExists = "у резервирования уже есть активный счёт"
	msgInvalidState        = "резервирование нельзя оплатить"
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

// Handle POST /api/v1/invoices
// Плательщик берется из X-User-ID; гость указывает payerEmail
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req models.CreateInvoiceRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /invoices - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	req.PayerIdentity = middleware.UserIDPtr(r.Context())

	result, err := h.service.CreateInvoice(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, invoices.ErrInvalidInput):
			h.logger.Warn("POST /invoices - Invalid data: %v", err)
			handlers.RespondBadRequest(w, msgInvalidData)

		case errors.Is(err, invoices.ErrReservationNotFound):
			h.logger.Warn("POST /invoices - Reservation not found: reservation_id=%v", req.ReservationID)
			handlers.RespondNotFound(w, msgReservationNotFound)

		case errors.Is(err, invoices.ErrActiveInvoiceExists):
			h.logger.Warn("POST /invoices - Active invoice exists: reservation_id=%v", req.ReservationID)
			handlers.RespondConflict(w, msgActiveInvoiceExists)

		case errors.Is(err, invoices.ErrInvalidState):
			h.logger.Warn("POST /invoices - Reservation in invalid state: reservation_id=%v", req.ReservationID)
			handlers.RespondConflict(w, msgInvalidState)

		default:
			h.logger.Error("POST /invoices - Failed to create invoice: reservation_id=%v, error=%v", req.ReservationID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /invoices - Invoice created: invoice_id=%d, amount=%s %s", result.ID, result.Amount, result.Currency)
	handlers.RespondJSON(w, http.StatusCreated, result)
}
