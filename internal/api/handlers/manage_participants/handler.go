package manage_participants

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/api/handlers"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/service/reservations"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/service/reservations/models"
)

const (
	msgInvalidReservationID = "некорректный ID резервирования"
	msgInvalidParticipantID = "некорректный ID участника"
	msgInvalidRequestBody   = "некорректное тело запроса"
	msgInvalidData          = "некорректные данные участника"
	msgReservationNotFound  = "резервирование не найдено"
	msgParticipantNotFound  = "участник не найден"
	msgCapacityExceeded     = "нет свободных мест или исчерпан лимит сопровождающих"
	msgAlreadyParticipant   = "пользователь уже записан"
	msgInvalidState         = "резервирование не принимает участников"
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

// Add POST /api/v1/reservations/{reservationId}/participants
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	reservationID, err := handlers.PathID(r, "reservationId")
	if err != nil {
		h.logger.Warn("POST /reservations/{id}/participants - Invalid reservation ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidReservationID)
		return
	}

	var req models.ParticipantInput
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /reservations/{id}/participants - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.service.AddParticipant(r.Context(), reservationID, req)
	if err != nil {
		h.respondError(w, "POST /reservations/{id}/participants", reservationID, err)
		return
	}

	h.logger.Info("POST /reservations/{id}/participants - Participant added: reservation_id=%d, participant_id=%d",
		reservationID, result.ID)
	handlers.RespondJSON(w, http.StatusCreated, result)
}

// Move POST /api/v1/participants/{participantId}/move
func (h *Handler) Move(w http.ResponseWriter, r *http.Request) {
	participantID, err := handlers.PathID(r, "participantId")
	if err != nil {
		h.logger.Warn("POST /participants/{id}/move - Invalid participant ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidParticipantID)
		return
	}

	var req MoveParticipantRequest
	if err := handlers.DecodeJSON(r, &req); err != nil || req.TargetReservationID <= 0 {
		h.logger.Warn("POST /participants/{id}/move - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	if err := h.service.MoveParticipant(r.Context(), participantID, req.TargetReservationID); err != nil {
		h.respondError(w, "POST /participants/{id}/move", participantID, err)
		return
	}

	h.logger.Info("POST /participants/{id}/move - Participant moved: participant_id=%d, target_reservation_id=%d",
		participantID, req.TargetReservationID)
	handlers.RespondJSON(w, http.StatusOK, nil)
}

func (h *Handler) respondError(w http.ResponseWriter, route string, id int64, err error) {
	switch {
	case errors.Is(err, reservations.ErrInvalidInput):
		h.logger.Warn("%s - Invalid data: id=%d, error=%v", route, id, err)
		handlers.RespondBadRequest(w, msgInvalidData)

	case errors.Is(err, reservations.ErrReservationNotFound):
		h.logger.Warn("%s - Reservation not found: id=%d", route, id)
		handlers.RespondNotFound(w, msgReservationNotFound)

	case errors.Is(err, reservations.ErrParticipantNotFound):
		h.logger.Warn("%s - Participant not found: id=%d", route, id)
		handlers.RespondNotFound(w, msgParticipantNotFound)

	case errors.Is(err, reservations.ErrCapacityExceeded):
		h.logger.Warn("%s - Capacity exceeded: id=%d", route, id)
		handlers.RespondConflict(w, msgCapacityExceeded)

	case errors.Is(err, reservations.ErrAlreadyParticipant):
		h.logger.Warn("%s - Already participant: id=%d", route, id)
		handlers.RespondConflict(w, msgAlreadyParticipant)

	case errors.Is(err, reservations.ErrInvalidState):
		h.logger.Warn("%s - Invalid state: id=%d", route, id)
		handlers.RespondConflict(w, msgInvalidState)

	default:
		h.logger.Error("%s - Failed: id=%d, error=%v", route, id, err)
		handlers.RespondInternalError(w)
	}
}
