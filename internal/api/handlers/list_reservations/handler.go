package list_reservations

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/api/handlers"
)

const (
	msgMissingDate   = "дата обязательна"
	msgInvalidFilter = "некорректные параметры фильтра"
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

// Handle GET /api/v1/reservations?date=YYYY-MM-DD&status=held&includeCancelled=true
// Дневной вид для сотрудников
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	filter, err := ToFilter(r.URL.Query())
	if err != nil {
		h.logger.Warn("GET /reservations - Invalid filter: %v", err)
		if errors.Is(err, errMissingDate) {
			handlers.RespondBadRequest(w, msgMissingDate)
			return
		}
		handlers.RespondBadRequest(w, msgInvalidFilter)
		return
	}

	result, err := h.service.ListByDate(r.Context(), filter)
	if err != nil {
		h.logger.Error("GET /reservations - Failed to list reservations: error=%v", err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /reservations - Reservations retrieved: total=%d", result.Total)
	handlers.RespondJSON(w, http.StatusOK, result)
}
