package publish_events

import (
	"context"
	"time"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
)

// OutboxRepository интерфейс outbox событий
type OutboxRepository interface {
	ListUnpublished(ctx context.Context, limit uint64) ([]*domain.Event, error)
	MarkPublished(ctx context.Context, ids []string, at time.Time) error
}

// Publisher интерфейс шины событий
type Publisher interface {
	Publish(ctx context.Context, event *domain.Event) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Metrics счётчик опубликованных событий
type Metrics interface {
	IncEventPublished(eventType string)
}

// TimeProvider интерфейс для получения текущего времени
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
