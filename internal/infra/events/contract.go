package events

import (
	"context"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
)

// Publisher публикует доменные события в шину
type Publisher interface {
	Publish(ctx context.Context, event *domain.Event) error
	Close() error
}

// Logger интерфейс логгера публикатора
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
