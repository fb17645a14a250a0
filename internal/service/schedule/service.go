package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
	scheduleRepo "github.com/m04kA/SMC-DrivingSchoolService/internal/infra/storage/schedule"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/service/schedule/models"
	"github.com/m04kA/SMC-DrivingSchoolService/pkg/types"
)

// Service сервис управления расписанием автошколы (шаблоны, блокировки, дополнительные окна)
type Service struct {
	scheduleRepo ScheduleRepository
	txManager    TransactionManager
	logger       Logger
}

// NewService создает новый экземпляр сервиса расписания
func NewService(scheduleRepo ScheduleRepository, txManager TransactionManager, logger Logger) *Service {
	return &Service{
		scheduleRepo: scheduleRepo,
		txManager:    txManager,
		logger:       logger,
	}
}

// GetSchedule возвращает активные шаблоны, блокировки и дополнительные окна за период [from, to]
func (s *Service) GetSchedule(ctx context.Context, from, to time.Time) (*models.ScheduleResponse, error) {
	s.logger.Info("GetSchedule: period=%s to %s", from.Format(domain.DateFormat), to.Format(domain.DateFormat))

	from, to = domain.DateOnly(from), domain.DateOnly(to)
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return nil, fmt.Errorf("%w: invalid period", ErrInvalidInput)
	}
	if to.Sub(from) > time.Duration(domain.MaxScheduleRangeDays)*24*time.Hour {
		return nil, fmt.Errorf("%w: period must not exceed %d days", ErrInvalidInput, domain.MaxScheduleRangeDays)
	}

	templates, err := s.scheduleRepo.ListTemplates(ctx, true)
	if err != nil {
		s.logger.Error("GetSchedule: failed to list templates: %v", err)
		return nil, fmt.Errorf("%w: GetSchedule - repository error: %w", ErrInternal, err)
	}
	blocked, err := s.scheduleRepo.ListBlockedRanges(ctx, from, to)
	if err != nil {
		s.logger.Error("GetSchedule: failed to list blocked ranges: %v", err)
		return nil, fmt.Errorf("%w: GetSchedule - repository error: %w", ErrInternal, err)
	}
	extras, err := s.scheduleRepo.ListExtraWindows(ctx, from, to)
	if err != nil {
		s.logger.Error("GetSchedule: failed to list extra windows: %v", err)
		return nil, fmt.Errorf("%w: GetSchedule - repository error: %w", ErrInternal, err)
	}

	return models.FromDomainSchedule(from, to, &domain.Schedule{
		Templates:     templates,
		BlockedRanges: blocked,
		ExtraWindows:  extras,
	}), nil
}

// ReplaceTemplates деактивирует все текущие шаблоны и создает новые одной транзакцией
// Уже созданные резервирования не затрагиваются
func (s *Service) ReplaceTemplates(ctx context.Context, req *models.ReplaceTemplatesRequest) ([]models.TemplateResponse, error) {
	s.logger.Info("ReplaceTemplates: %d templates", len(req.Templates))

	templates := make([]*domain.SlotTemplate, 0, len(req.Templates))
	for i, input := range req.Templates {
		t, err := toDomainTemplate(input)
		if err != nil {
			s.logger.Warn("ReplaceTemplates: template #%d is invalid: %v", i, err)
			return nil, fmt.Errorf("template #%d: %w", i, err)
		}
		templates = append(templates, t)
	}

	if err := validateNoTemplateOverlap(templates); err != nil {
		s.logger.Warn("ReplaceTemplates: %v", err)
		return nil, err
	}

	result := make([]models.TemplateResponse, 0, len(templates))
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		deactivated, err := s.scheduleRepo.DeactivateAllTemplates(txCtx)
		if err != nil {
			return fmt.Errorf("%w: ReplaceTemplates - deactivate: %w", ErrInternal, err)
		}
		s.logger.Info("ReplaceTemplates: deactivated %d templates", deactivated)

		for _, t := range templates {
			created, err := s.scheduleRepo.CreateTemplate(txCtx, t)
			if err != nil {
				return fmt.Errorf("%w: ReplaceTemplates - create: %w", ErrInternal, err)
			}
			result = append(result, models.FromDomainTemplate(created))
		}
		return nil
	})
	if err != nil {
		s.logger.Error("ReplaceTemplates: %v", err)
		return nil, err
	}

	s.logger.Info("ReplaceTemplates: created %d templates", len(result))
	return result, nil
}

// AddBlockedRange блокирует дату целиком или интервал внутри даты
func (s *Service) AddBlockedRange(ctx context.Context, input *models.BlockedRangeInput) (*models.BlockedRangeResponse, error) {
	s.logger.Info("AddBlockedRange: date=%s", input.Date.Format(domain.DateFormat))

	if input.Date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	if (input.StartTime == nil) != (input.EndTime == nil) {
		return nil, fmt.Errorf("%w: startTime and endTime must be set together", ErrInvalidInput)
	}
	if input.StartTime != nil {
		if err := validateInterval(*input.StartTime, *input.EndTime); err != nil {
			return nil, err
		}
	}
	reason := strings.TrimSpace(input.Reason)
	if len(reason) > domain.MaxReasonLength {
		return nil, fmt.Errorf("%w: reason is too long", ErrInvalidInput)
	}

	created, err := s.scheduleRepo.CreateBlockedRange(ctx, &domain.BlockedRange{
		Date:      domain.DateOnly(input.Date),
		StartTime: input.StartTime,
		EndTime:   input.EndTime,
		Reason:    reason,
	})
	if err != nil {
		s.logger.Error("AddBlockedRange: repository error: %v", err)
		return nil, fmt.Errorf("%w: AddBlockedRange - repository error: %w", ErrInternal, err)
	}

	s.logger.Info("AddBlockedRange: created id=%d", created.ID)
	resp := models.FromDomainBlockedRange(created)
	return &resp, nil
}

// RemoveBlockedRange удаляет блокировку
func (s *Service) RemoveBlockedRange(ctx context.Context, id int64) error {
	s.logger.Info("RemoveBlockedRange: id=%d", id)

	if err := s.scheduleRepo.DeleteBlockedRange(ctx, id); err != nil {
		if errors.Is(err, scheduleRepo.ErrBlockedRangeNotFound) {
			s.logger.Warn("RemoveBlockedRange: id=%d not found", id)
			return ErrBlockedRangeNotFound
		}
		s.logger.Error("RemoveBlockedRange: repository error for id=%d: %v", id, err)
		return fmt.Errorf("%w: RemoveBlockedRange - repository error: %w", ErrInternal, err)
	}
	return nil
}

// AddExtraWindow добавляет разовое окно на дату
func (s *Service) AddExtraWindow(ctx context.Context, input *models.ExtraWindowInput) (*models.ExtraWindowResponse, error) {
	s.logger.Info("AddExtraWindow: date=%s %s-%s", input.Date.Format(domain.DateFormat), input.StartTime, input.EndTime)

	if input.Date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	if err := validateInterval(input.StartTime, input.EndTime); err != nil {
		return nil, err
	}
	if input.Reason != nil && len(*input.Reason) > domain.MaxReasonLength {
		return nil, fmt.Errorf("%w: reason is too long", ErrInvalidInput)
	}
	if input.ReservedForIdentity != nil && *input.ReservedForIdentity <= 0 {
		return nil, fmt.Errorf("%w: reservedForIdentity must be positive", ErrInvalidInput)
	}

	created, err := s.scheduleRepo.CreateExtraWindow(ctx, &domain.ExtraWindow{
		Date:                domain.DateOnly(input.Date),
		StartTime:           input.StartTime,
		EndTime:             input.EndTime,
		Reason:              input.Reason,
		ReservedForIdentity: input.ReservedForIdentity,
	})
	if err != nil {
		s.logger.Error("AddExtraWindow: repository error: %v", err)
		return nil, fmt.Errorf("%w: AddExtraWindow - repository error: %w", ErrInternal, err)
	}

	resp := models.FromDomainExtraWindow(created)
	return &resp, nil
}

// RemoveExtraWindow удаляет дополнительное окно
func (s *Service) RemoveExtraWindow(ctx context.Context, id int64) error {
	s.logger.Info("RemoveExtraWindow: id=%d", id)

	if err := s.scheduleRepo.DeleteExtraWindow(ctx, id); err != nil {
		if errors.Is(err, scheduleRepo.ErrExtraWindowNotFound) {
			s.logger.Warn("RemoveExtraWindow: id=%d not found", id)
			return ErrExtraWindowNotFound
		}
		s.logger.Error("RemoveExtraWindow: repository error for id=%d: %v", id, err)
		return fmt.Errorf("%w: RemoveExtraWindow - repository error: %w", ErrInternal, err)
	}
	return nil
}

func toDomainTemplate(input models.TemplateInput) (*domain.SlotTemplate, error) {
	if input.DayOfWeek < 0 || input.DayOfWeek > 6 {
		return nil, fmt.Errorf("%w: dayOfWeek must be between 0 and 6", ErrInvalidInput)
	}
	if err := validateInterval(input.StartTime, input.EndTime); err != nil {
		return nil, err
	}

	duration := domain.DefaultSlotDurationMinutes
	if input.SlotDurationMinutes != nil {
		duration = *input.SlotDurationMinutes
	}
	if duration < domain.MinSlotDurationMinutes || duration > domain.MaxSlotDurationMinutes {
		return nil, fmt.Errorf("%w: slotDurationMinutes must be between %d and %d",
			ErrInvalidInput, domain.MinSlotDurationMinutes, domain.MaxSlotDurationMinutes)
	}
	if duration > input.EndTime.Minutes()-input.StartTime.Minutes() {
		return nil, fmt.Errorf("%w: slotDurationMinutes exceeds template length", ErrInvalidInput)
	}

	buffer := domain.DefaultBufferMinutes
	if input.BufferMinutes != nil {
		buffer = *input.BufferMinutes
	}
	if buffer < 0 || buffer > domain.MaxBufferMinutes {
		return nil, fmt.Errorf("%w: bufferMinutes must be between 0 and %d", ErrInvalidInput, domain.MaxBufferMinutes)
	}

	return &domain.SlotTemplate{
		DayOfWeek:           time.Weekday(input.DayOfWeek),
		StartTime:           input.StartTime,
		EndTime:             input.EndTime,
		SlotDurationMinutes: duration,
		BufferMinutes:       buffer,
		Active:              true,
	}, nil
}

func validateInterval(start, end types.TimeString) error {
	if err := start.Validate(); err != nil {
		return fmt.Errorf("%w: startTime: %v", ErrInvalidInput, err)
	}
	if err := end.Validate(); err != nil {
		return fmt.Errorf("%w: endTime: %v", ErrInvalidInput, err)
	}
	if !start.IsBefore(end) {
		return fmt.Errorf("%w: startTime must be before endTime", ErrInvalidInput)
	}
	return nil
}

// validateNoTemplateOverlap шаблоны одного дня недели не должны пересекаться
func validateNoTemplateOverlap(templates []*domain.SlotTemplate) error {
	for i := 0; i < len(templates); i++ {
		for j := i + 1; j < len(templates); j++ {
			a, b := templates[i], templates[j]
			if a.DayOfWeek != b.DayOfWeek {
				continue
			}
			if a.StartTime.Minutes() < b.EndTime.Minutes() && b.StartTime.Minutes() < a.EndTime.Minutes() {
				return fmt.Errorf("%w: templates #%d and #%d overlap on %s", ErrInvalidInput, i, j, a.DayOfWeek)
			}
		}
	}
	return nil
}
