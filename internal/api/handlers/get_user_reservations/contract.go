package get_user_reservations

import (
	"context"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/service/reservations/models"
)

type ReservationService interface {
	ListByIdentity(ctx context.Context, identity int64, status *domain.ReservationStatus) (*models.ReservationListResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
