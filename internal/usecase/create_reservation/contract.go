package create_reservation

import (
	"context"
	"time"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/integrations/catalogservice"
)

// ReservationRepository интерфейс репозитория резервирований
type ReservationRepository interface {
	LockDay(ctx context.Context, date time.Time) error
	ListActiveByDate(ctx context.Context, date time.Time) ([]*domain.Reservation, error)
	Create(ctx context.Context, reservation *domain.Reservation) (*domain.Reservation, error)
}

// AvailabilityResolver вычисляет свободные окна на дату
type AvailabilityResolver interface {
	GetAvailableWindows(ctx context.Context, date time.Time, identity *int64) ([]domain.Window, error)
}

// CatalogClient интерфейс клиента каталога типов занятий
type CatalogClient interface {
	GetLessonType(ctx context.Context, id int64) (*catalogservice.LessonType, error)
}

// OutboxRepository интерфейс outbox доменных событий
type OutboxRepository interface {
	Append(ctx context.Context, event *domain.Event) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Metrics доменные счетчики
type Metrics interface {
	IncReservationCreated(resourceType string)
	IncSlotConflict()
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

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
