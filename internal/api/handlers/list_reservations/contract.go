package list_reservations

import (
	"context"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/service/reservations/models"
)

type ReservationService interface {
	ListByDate(ctx context.Context, filter domain.ReservationsFilter) (*models.ReservationListResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
