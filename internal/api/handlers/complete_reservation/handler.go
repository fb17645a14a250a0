package complete_reservation

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/api/handlers"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/service/reservations"
)

const (
	msgInvalidReservationID = "некорректный ID резервирования"
	msgNotFound             = "резервирование не найдено"
	msgCannotComplete       = "завершить можно только подтвержденное резервирование"
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

// Handle POST /api/v1/reservations/{reservationId}/complete
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	reservationID, err := handlers.PathID(r, "reservationId")
	if err != nil {
		h.logger.Warn("POST /reservations/{id}/complete - Invalid reservation ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidReservationID)
		return
	}

	if err := h.service.Complete(r.Context(), reservationID); err != nil {
		switch {
		case errors.Is(err, reservations.ErrReservationNotFound):
			h.logger.Warn("POST /reservations/{id}/complete - Reservation not found: reservation_id=%d", reservationID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, reservations.ErrInvalidState):
			h.logger.Warn("POST /reservations/{id}/complete - Invalid state: reservation_id=%d", reservationID)
			handlers.RespondConflict(w, msgCannotComplete)

		default:
			h.logger.Error("POST /reservations/{id}/complete - Failed: reservation_id=%d, error=%v", reservationID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /reservations/{id}/complete - Reservation completed: reservation_id=%d", reservationID)
	handlers.RespondJSON(w, http.StatusOK, nil)
}
