package invoices

import (
	"context"
	"time"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/infra/storage/invoice"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/integrations/checkout"
)

// InvoiceRepository интерфейс репозитория счетов
type InvoiceRepository interface {
	Create(ctx context.Context, inv *domain.Invoice) (*domain.Invoice, error)
	GetByID(ctx context.Context, id int64) (*domain.Invoice, error)
	GetByCheckoutSession(ctx context.Context, sessionID string) (*domain.Invoice, error)
	GetActiveByReservation(ctx context.Context, reservationID int64) (*domain.Invoice, error)
	ListByPayer(ctx context.Context, payerIdentity int64) ([]*domain.Invoice, error)
	Update(ctx context.Context, id int64, expected []domain.InvoiceStatus, upd invoice.Update) (bool, error)
	MarkOverdue(ctx context.Context, createdBefore time.Time, limit uint64) ([]int64, error)
}

// ReservationRepository чтение резервирования с блокировкой строки
type ReservationRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Reservation, error)
}

// ReservationService переходы резервирования; вызывается внутри транзакции счёта
type ReservationService interface {
	Confirm(ctx context.Context, id int64) error
	Cancel(ctx context.Context, id int64, reason domain.CancellationReason, cancelledBy *int64) error
}

// CreditRepository интерфейс репозитория пакетов предоплаты
type CreditRepository interface {
	Debit(ctx context.Context, ref string, owner int64) (bool, error)
}

// OutboxRepository интерфейс outbox доменных событий
type OutboxRepository interface {
	Append(ctx context.Context, event *domain.Event) error
}

// StudentServiceClient источник уровня доверия плательщика
type StudentServiceClient interface {
	IsEnrolled(ctx context.Context, identity int64) (bool, error)
}

// CheckoutClient клиент hosted checkout
type CheckoutClient interface {
	CreateSession(ctx context.Context, req checkout.SessionRequest) (*checkout.Session, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Metrics доменные счетчики
type Metrics interface {
	IncInvoiceSettled(method string)
	AddHoldsExpired(n int)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реализация TimeProvider с реальным временем
type RealTimeProvider struct{}

func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
