package create_reservation

import (
	"context"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/service/reservations/models"
	createReservation "github.com/m04kA/SMC-DrivingSchoolService/internal/usecase/create_reservation"
)

type CreateReservationUseCase interface {
	Execute(ctx context.Context, req *createReservation.Request) (*models.ReservationResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
