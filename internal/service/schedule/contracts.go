package schedule

import (
	"context"
	"time"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
)

// ScheduleRepository интерфейс репозитория расписания
type ScheduleRepository interface {
	CreateTemplate(ctx context.Context, t *domain.SlotTemplate) (*domain.SlotTemplate, error)
	ListTemplates(ctx context.Context, activeOnly bool) ([]*domain.SlotTemplate, error)
	DeactivateAllTemplates(ctx context.Context) (int64, error)

	CreateBlockedRange(ctx context.Context, b *domain.BlockedRange) (*domain.BlockedRange, error)
	ListBlockedRanges(ctx context.Context, from, to time.Time) ([]*domain.BlockedRange, error)
	DeleteBlockedRange(ctx context.Context, id int64) error

	CreateExtraWindow(ctx context.Context, e *domain.ExtraWindow) (*domain.ExtraWindow, error)
	ListExtraWindows(ctx context.Context, from, to time.Time) ([]*domain.ExtraWindow, error)
	DeleteExtraWindow(ctx context.Context, id int64) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
