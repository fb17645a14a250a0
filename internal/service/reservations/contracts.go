package reservations

import (
	"context"
	"time"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
)

// ReservationRepository интерфейс репозитория резервирований
type ReservationRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Reservation, error)
	List(ctx context.Context, filter domain.ReservationsFilter) ([]*domain.Reservation, error)
	AddParticipant(ctx context.Context, participant *domain.Participant) (*domain.Participant, error)
	GetParticipant(ctx context.Context, id int64) (*domain.Participant, error)
	MoveParticipant(ctx context.Context, participantID, fromID, toID int64) error
	UpdateStatus(ctx context.Context, id int64, from []domain.ReservationStatus, to domain.ReservationStatus) (bool, error)
	Cancel(ctx context.Context, id int64, reason domain.CancellationReason, cancelledBy *int64, at time.Time) (bool, error)
}

// OutboxRepository интерфейс outbox доменных событий
type OutboxRepository interface {
	Append(ctx context.Context, event *domain.Event) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
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
