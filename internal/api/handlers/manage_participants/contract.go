package manage_participants

import (
	"context"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/service/reservations/models"
)

type ReservationService interface {
	AddParticipant(ctx context.Context, reservationID int64, input models.ParticipantInput) (*models.ParticipantResponse, error)
	MoveParticipant(ctx context.Context, participantID, targetID int64) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
