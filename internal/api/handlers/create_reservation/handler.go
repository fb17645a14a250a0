package create_reservation

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/api/handlers"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/api/middleware"
	createReservation "github.com/m04kA/SMC-DrivingSchoolService/internal/usecase/create_reservation"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDate        = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgInvalidTime        = "некорректный формат времени начала, ожидается HH:MM"
	msgSlotUnavailable    = "выбранное время недоступно, пожалуйста, выберите другое время"
	msgLessonTypeNotFound = "тип занятия не найден"
	msgCapacityExceeded   = "превышена вместимость или лимит сопровождающих"
	msgInvalidData        = "некорректные данные резервирования"
)

type Handler struct {
	useCase CreateReservationUseCase
	logger  Logger
}

func NewHandler(useCase CreateReservationUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/reservations
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req CreateReservationRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /reservations - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	identity := middleware.UserIDPtr(r.Context())

	useCaseReq, err := req.ToUseCaseRequest(identity)
	if err != nil {
		h.logger.Warn("POST /reservations - Failed to parse request: %v", err)
		var pe *parseError
		if errors.As(err, &pe) {
			handlers.RespondBadRequest(w, pe.message)
			return
		}
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, createReservation.ErrSlotUnavailable):
			h.logger.Warn("POST /reservations - Slot unavailable: date=%s, start=%s", req.Date, req.StartTime)
			handlers.RespondConflict(w, msgSlotUnavailable)

		case errors.Is(err, createReservation.ErrCapacityExceeded):
			h.logger.Warn("POST /reservations - Capacity exceeded: date=%s, start=%s", req.Date, req.StartTime)
			handlers.RespondConflict(w, msgCapacityExceeded)

		case errors.Is(err, createReservation.ErrLessonTypeNotFound):
			h.logger.Warn("POST /reservations - Lesson type not found: lesson_type_id=%d", req.LessonTypeID)
			handlers.RespondNotFound(w, msgLessonTypeNotFound)

		case errors.Is(err, createReservation.ErrInvalidInput):
			h.logger.Warn("POST /reservations - Invalid data: %v", err)
			handlers.RespondBadRequest(w, msgInvalidData)

		default:
			h.logger.Error("POST /reservations - Failed to create reservation: date=%s, start=%s, error=%v",
				req.Date, req.StartTime, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /reservations - Reservation created: reservation_id=%d, date=%s, start=%s",
		result.ID, result.Date, result.StartTime)
	handlers.RespondJSON(w, http.StatusCreated, result)
}
