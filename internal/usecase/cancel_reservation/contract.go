package cancel_reservation

import (
	"context"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
)

// ReservationService отмена резервирования
type ReservationService interface {
	Cancel(ctx context.Context, id int64, reason domain.CancellationReason, cancelledBy *int64) error
	CancelByCustomer(ctx context.Context, id int64, identity int64) error
}

// InvoiceService отмена неоплаченного счёта резервирования
type InvoiceService interface {
	CancelForReservation(ctx context.Context, reservationID int64, reason domain.CancellationReason, cancelledBy *int64) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
