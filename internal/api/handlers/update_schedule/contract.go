package update_schedule

import (
	"context"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/service/schedule/models"
)

type ScheduleService interface {
	ReplaceTemplates(ctx context.Context, req *models.ReplaceTemplatesRequest) ([]models.TemplateResponse, error)
	AddBlockedRange(ctx context.Context, input *models.BlockedRangeInput) (*models.BlockedRangeResponse, error)
	RemoveBlockedRange(ctx context.Context, id int64) error
	AddExtraWindow(ctx context.Context, input *models.ExtraWindowInput) (*models.ExtraWindowResponse, error)
	RemoveExtraWindow(ctx context.Context, id int64) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
