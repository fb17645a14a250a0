package create_reservation

import (
	"github.com/m04kA/SMC-DrivingSchoolService/internal/api/handlers"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/service/reservations/models"
	createReservation "github.com/m04kA/SMC-DrivingSchoolService/internal/usecase/create_reservation"
	"github.com/m04kA/SMC-DrivingSchoolService/pkg/types"
)

// CreateReservationRequest HTTP request model
type CreateReservationRequest struct {
	ResourceType    string                    `json:"resourceType,omitempty"` // lesson | course
	LessonTypeID    int64                     `json:"lessonTypeId,omitempty"`
	Date            string                    `json:"date"`      // "2026-03-10"
	StartTime       string                    `json:"startTime"` // "10:00"
	DurationMinutes *int                      `json:"durationMinutes,omitempty"`
	Capacity        *int                      `json:"capacity,omitempty"`
	SupervisorLimit *int                      `json:"supervisorLimit,omitempty"`
	Participants    []models.ParticipantInput `json:"participants"`
}

// parseError ошибка разбора даты или времени с текстом для клиента
type parseError struct {
	message string
	err     error
}

func (e *parseError) Error() string { return e.err.Error() }

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateReservationRequest) ToUseCaseRequest(identity *int64) (*createReservation.Request, error) {
	date, err := handlers.ParseDate(r.Date)
	if err != nil {
		return nil, &parseError{message: msgInvalidDate, err: err}
	}

	startTime, err := types.NewTimeStringFromString(r.StartTime)
	if err != nil {
		return nil, &parseError{message: msgInvalidTime, err: err}
	}

	return &createReservation.Request{
		ResourceType:    domain.ResourceType(r.ResourceType),
		LessonTypeID:    r.LessonTypeID,
		Date:            date,
		StartTime:       startTime,
		DurationMinutes: r.DurationMinutes,
		Capacity:        r.Capacity,
		SupervisorLimit: r.SupervisorLimit,
		Participants:    r.Participants,
		Identity:        identity,
	}, nil
}
