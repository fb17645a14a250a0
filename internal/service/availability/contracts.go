package availability

import (
	"context"
	"time"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
)

// ScheduleRepository интерфейс репозитория расписания
type ScheduleRepository interface {
	ListActiveTemplatesByWeekday(ctx context.Context, weekday time.Weekday) ([]*domain.SlotTemplate, error)
	ListBlockedByDate(ctx context.Context, date time.Time) ([]*domain.BlockedRange, error)
	ListExtraByDate(ctx context.Context, date time.Time) ([]*domain.ExtraWindow, error)
}

// ReservationRepository интерфейс репозитория резервирований
type ReservationRepository interface {
	ListActiveByDate(ctx context.Context, date time.Time) ([]*domain.Reservation, error)
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
