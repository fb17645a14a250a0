package get_available_windows

import (
	"context"
	"time"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
)

type AvailabilityResolver interface {
	GetAvailableWindows(ctx context.Context, date time.Time, identity *int64) ([]domain.Window, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
