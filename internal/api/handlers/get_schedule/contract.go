package get_schedule

import (
	"context"
	"time"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/service/schedule/models"
)

type ScheduleService interface {
	GetSchedule(ctx context.Context, from, to time.Time) (*models.ScheduleResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
