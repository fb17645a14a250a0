package cancel_reservation

import (
	"context"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
)

type ReservationService interface {
	Cancel(ctx context.Context, id int64, reason domain.CancellationReason, cancelledBy *int64) error
	CancelByCustomer(ctx context.Context, id int64, identity int64) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
