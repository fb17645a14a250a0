package cancel_reservation

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/api/handlers"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/api/middleware"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/service/reservations"
)

const (
	msgInvalidReservationID = "некорректный ID резервирования"
	msgNotFound             = "резервирование не найдено"
	msgForbidden            = "доступ запрещен"
	msgCannotCancel         = "резервирование не может быть отменено"
)

type Handler struct {
	service ReservationService
	logger  Logger
}

func NewHandler(service ReservationService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle PATCH /api/v1/reservations/{reservationId}/cancel
// Сотрудник отменяет с причиной staff_decline, клиент только свои резервирования
// Неоплаченный счёт резервирования отменяется в той же транзакции
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	reservationID, err := handlers.PathID(r, "reservationId")
	if err != nil {
		h.logger.Warn("PATCH /reservations/{id}/cancel - Invalid reservation ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidReservationID)
		return
	}

	userID, _ := middleware.GetUserID(r.Context())
	if middleware.IsStaff(r.Context()) {
		err = h.service.Cancel(r.Context(), reservationID, domain.ReasonStaffDecline, &userID)
	} else {
		err = h.service.CancelByCustomer(r.Context(), reservationID, userID)
	}
	if err != nil {
		switch {
		case errors.Is(err, reservations.ErrReservationNotFound):
			h.logger.Warn("PATCH /reservations/{id}/cancel - Reservation not found: reservation_id=%d", reservationID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, reservations.ErrAccessDenied):
			h.logger.Warn("PATCH /reservations/{id}/cancel - Access denied: reservation_id=%d, user_id=%d", reservationID, userID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, reservations.ErrInvalidState):
			h.logger.Warn("PATCH /reservations/{id}/cancel - Cannot cancel: reservation_id=%d", reservationID)
			handlers.RespondConflict(w, msgCannotCancel)

		default:
			h.logger.Error("PATCH /reservations/{id}/cancel - Failed to cancel reservation: reservation_id=%d, error=%v",
				reservationID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /reservations/{id}/cancel - Reservation cancelled: reservation_id=%d, user_id=%d", reservationID, userID)
	handlers.RespondJSON(w, http.StatusOK, nil)
}
