package update_schedule

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/api/handlers"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/service/schedule"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/service/schedule/models"
)

const (
	msgInvalidID           = "некорректный ID"
	msgInvalidRequestBody  = "некорректное тело запроса"
	msgInvalidData         = "некорректные данные расписания"
	msgBlockedNotFound     = "блокировка не найдена"
	msgExtraWindowNotFound = "дополнительное окно не найдено"
)

// Handler изменение расписания сотрудниками
type Handler struct {
	service ScheduleService
	logger  Logger
}

func NewHandler(service ScheduleService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// ReplaceTemplates PUT /api/v1/schedule/templates
func (h *Handler) ReplaceTemplates(w http.ResponseWriter, r *http.Request) {
	var req models.ReplaceTemplatesRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PUT /schedule/templates - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.service.ReplaceTemplates(r.Context(), &req)
	if err != nil {
		h.respondError(w, "PUT /schedule/templates", err)
		return
	}

	h.logger.Info("PUT /schedule/templates - Templates replaced: count=%d", len(result))
	handlers.RespondJSON(w, http.StatusOK, result)
}

// AddBlockedRange POST /api/v1/schedule/blocked
func (h *Handler) AddBlockedRange(w http.ResponseWriter, r *http.Request) {
	var req BlockedRangeRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /schedule/blocked - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	input, err := req.ToServiceRequest()
	if err != nil {
		h.logger.Warn("POST /schedule/blocked - Failed to parse request: %v", err)
		handlers.RespondBadRequest(w, msgInvalidData)
		return
	}

	result, err := h.service.AddBlockedRange(r.Context(), input)
	if err != nil {
		h.respondError(w, "POST /schedule/blocked", err)
		return
	}

	h.logger.Info("POST /schedule/blocked - Blocked range created: id=%d, date=%s", result.ID, result.Date)
	handlers.RespondJSON(w, http.StatusCreated, result)
}

// RemoveBlockedRange DELETE /api/v1/schedule/blocked/{id}
func (h *Handler) RemoveBlockedRange(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathID(r, "id")
	if err != nil {
		h.logger.Warn("DELETE /schedule/blocked/{id} - Invalid ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidID)
		return
	}

	if err := h.service.RemoveBlockedRange(r.Context(), id); err != nil {
		h.respondError(w, "DELETE /schedule/blocked/{id}", err)
		return
	}

	h.logger.Info("DELETE /schedule/blocked/{id} - Blocked range removed: id=%d", id)
	handlers.RespondJSON(w, http.StatusNoContent, nil)
}

// AddExtraWindow POST /api/v1/schedule/extra
func (h *Handler) AddExtraWindow(w http.ResponseWriter, r *http.Request) {
	var req ExtraWindowRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /schedule/extra - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	input, err := req.ToServiceRequest()
	if err != nil {
		h.logger.Warn("POST /schedule/extra - Failed to parse request: %v", err)
		handlers.RespondBadRequest(w, msgInvalidData)
		return
	}

	result, err := h.service.AddExtraWindow(r.Context(), input)
	if err != nil {
		h.respondError(w, "POST /schedule/extra", err)
		return
	}

	h.logger.Info("POST /schedule/extra - Extra window created: id=%d, date=%s", result.ID, result.Date)
	handlers.RespondJSON(w, http.StatusCreated, result)
}

// RemoveExtraWindow DELETE /api/v1/schedule/extra/{id}
func (h *Handler) RemoveExtraWindow(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathID(r, "id")
	if err != nil {
		h.logger.Warn("DELETE /schedule/extra/{id} - Invalid ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidID)
		return
	}

	if err := h.service.RemoveExtraWindow(r.Context(), id); err != nil {
		h.respondError(w, "DELETE /schedule/extra/{id}", err)
		return
	}

	h.logger.Info("DELETE /schedule/extra/{id} - Extra window removed: id=%d", id)
	handlers.RespondJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) respondError(w http.ResponseWriter, route string, err error) {
	switch {
	case errors.Is(err, schedule.ErrInvalidInput):
		h.logger.Warn("%s - Invalid data: %v", route, err)
		handlers.RespondBadRequest(w, msgInvalidData)

	case errors.Is(err, schedule.ErrBlockedRangeNotFound):
		h.logger.Warn("%s - Blocked range not found", route)
		handlers.RespondNotFound(w, msgBlockedNotFound)

	case errors.Is(err, schedule.ErrExtraWindowNotFound):
		h.logger.Warn("%s - Extra window not found", route)
		handlers.RespondNotFound(w, msgExtraWindowNotFound)

	default:
		h.logger.Error("%s - Failed: error=%v", route, err)
		handlers.RespondInternalError(w)
	}
}
