package jobs

import (
	"context"
	"time"
)

// Locker распределённая блокировка задач между репликами
type Locker interface {
	TryLock(ctx context.Context, name string, ttl time.Duration) (unlock func(context.Context) error, ok bool, err error)
}

// Metrics счётчики запусков задач
type Metrics interface {
	IncJobRun(job, result string)
}

// Logger интерфейс логгера планировщика
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
