package sweep_expired_holds

import (
	"context"
	"time"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
)

// InvoiceRepository выбор просроченного удержания (FOR UPDATE SKIP LOCKED)
type InvoiceRepository interface {
	ClaimDueHold(ctx context.Context, now time.Time) (*domain.Invoice, error)
}

// InvoiceService отмена счёта по таймауту и пометка просроченных
type InvoiceService interface {
	ExpireHold(ctx context.Context, id int64, now time.Time) (bool, error)
	MarkOverdue(ctx context.Context, now time.Time, limit uint64) (int, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Metrics доменные счетчики
type Metrics interface {
	AddHoldsExpired(n int)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
