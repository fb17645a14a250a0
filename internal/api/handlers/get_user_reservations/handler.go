package get_user_reservations

import (
	"net/http"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/api/handlers"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/api/middleware"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/service/reservations/models"
)

const (
	msgInvalidIdentity = "некорректный ID пользователя"
	msgInvalidStatus   = "некорректный статус"
	msgForbidden       = "доступ запрещен"
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

// Handle GET /api/v1/users/{identity}/reservations?status=confirmed
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, err := handlers.PathID(r, "identity")
	if err != nil {
		h.logger.Warn("GET /users/{id}/reservations - Invalid identity: %v", err)
		handlers.RespondBadRequest(w, msgInvalidIdentity)
		return
	}

	// Клиент видит только свою историю
	caller, _ := middleware.GetUserID(r.Context())
	if caller != identity && !middleware.IsStaff(r.Context()) {
		h.logger.Warn("GET /users/{id}/reservations - Access denied: identity=%d, user_id=%d", identity, caller)
		handlers.RespondForbidden(w, msgForbidden)
		return
	}

	var status *domain.ReservationStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s, ok := models.ToDomainStatus(raw)
		if !ok {
			h.logger.Warn("GET /users/{id}/reservations - Invalid status: %s", raw)
			handlers.RespondBadRequest(w, msgInvalidStatus)
			return
		}
		status = &s
	}

	result, err := h.service.ListByIdentity(r.Context(), identity, status)
	if err != nil {
		h.logger.Error("GET /users/{id}/reservations - Failed to list reservations: identity=%d, error=%v", identity, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /users/{id}/reservations - Reservations retrieved: identity=%d, total=%d", identity, result.Total)
	handlers.RespondJSON(w, http.StatusOK, result)
}
