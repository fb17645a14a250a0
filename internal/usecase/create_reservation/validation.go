package create_reservation

import (
	"fmt"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/integrations/catalogservice"
	"github.com/m04kA/SMC-DrivingSchoolService/pkg/types"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	if req.StartTime.IsZero() {
		return fmt.Errorf("%w: startTime is required", ErrInvalidInput)
	}
	if err := req.StartTime.Validate(); err != nil {
		return fmt.Errorf("%w: invalid startTime format: %v", ErrInvalidInput, err)
	}

	if req.ResourceType != "" && req.ResourceType != domain.ResourceLesson && req.ResourceType != domain.ResourceCourse {
		return fmt.Errorf("%w: unknown resourceType %q", ErrInvalidInput, req.ResourceType)
	}
	if req.LessonTypeID < 0 {
		return fmt.Errorf("%w: lessonTypeId must be positive", ErrInvalidInput)
	}
	if req.DurationMinutes != nil && *req.DurationMinutes <= 0 {
		return fmt.Errorf("%w: durationMinutes must be positive", ErrInvalidInput)
	}
	if req.Identity != nil && *req.Identity <= 0 {
		return fmt.Errorf("%w: identity must be positive", ErrInvalidInput)
	}

	if len(req.Participants) == 0 {
		return fmt.Errorf("%w: at least one participant is required", ErrInvalidInput)
	}
	seen := make(map[int64]bool, len(req.Participants))
	for i, p := range req.Participants {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("%w: participant #%d: %v", ErrInvalidInput, i, err)
		}
		if p.Identity != nil {
			if seen[*p.Identity] {
				return fmt.Errorf("%w: participant identity %d is duplicated", ErrInvalidInput, *p.Identity)
			}
			seen[*p.Identity] = true
		}
	}

	return nil
}

// resolveParams объединяет значения запроса со значениями каталога и проверяет вместимость
// Значение из запроса приоритетнее каталога
func resolveParams(req *Request, lessonType *catalogservice.LessonType) (*resolved, error) {
	params := &resolved{resourceType: req.ResourceType}

	if lessonType != nil {
		if params.resourceType == "" {
			params.resourceType = domain.ResourceType(lessonType.ResourceType)
		}
		params.durationMinutes = lessonType.DurationMinutes
		params.capacity = lessonType.Capacity
		params.supervisorLimit = lessonType.SupervisorLimit
	}
	if req.DurationMinutes != nil {
		params.durationMinutes = *req.DurationMinutes
	}
	if req.Capacity != nil {
		params.capacity = *req.Capacity
	}
	if req.SupervisorLimit != nil {
		params.supervisorLimit = *req.SupervisorLimit
	}

	if params.resourceType == "" {
		params.resourceType = domain.ResourceLesson
	}
	if params.resourceType != domain.ResourceLesson && params.resourceType != domain.ResourceCourse {
		return nil, fmt.Errorf("%w: unknown resourceType %q", ErrInvalidInput, params.resourceType)
	}
	if params.durationMinutes <= 0 {
		return nil, fmt.Errorf("%w: durationMinutes is required", ErrInvalidInput)
	}

	switch params.resourceType {
	case domain.ResourceLesson:
		if params.capacity == 0 {
			params.capacity = 1
		}
		if params.capacity != 1 {
			return nil, fmt.Errorf("%w: lesson capacity must be 1", ErrInvalidInput)
		}
	case domain.ResourceCourse:
		if params.capacity < 1 || params.capacity > domain.MaxCourseCapacity {
			return nil, fmt.Errorf("%w: course capacity must be between 1 and %d", ErrInvalidInput, domain.MaxCourseCapacity)
		}
	}
	if params.supervisorLimit < 0 {
		return nil, fmt.Errorf("%w: supervisorLimit must not be negative", ErrInvalidInput)
	}

	if len(req.Participants) > params.capacity {
		return nil, fmt.Errorf("%w: %d participants for capacity %d", ErrCapacityExceeded, len(req.Participants), params.capacity)
	}
	supervisors := 0
	for _, p := range req.Participants {
		if p.IsSupervisor {
			supervisors++
		}
	}
	if supervisors > params.supervisorLimit {
		return nil, fmt.Errorf("%w: %d supervisors for limit %d", ErrCapacityExceeded, supervisors, params.supervisorLimit)
	}

	end, err := req.StartTime.AddMinutes(params.durationMinutes)
	if err != nil {
		return nil, fmt.Errorf("%w: reservation must end within the day: %v", ErrInvalidInput, err)
	}
	params.end = end

	return params, nil
}

// findWindow возвращает окно, целиком содержащее [start, end)
func findWindow(windows []domain.Window, start, end types.TimeString) (domain.Window, bool) {
	for _, w := range windows {
		if w.Contains(start, end) {
			return w, true
		}
	}
	return domain.Window{}, false
}

// conflictsWithBuffer true, если буфер нового резервирования задевает уже занятое время
// Буфер существующих резервирований уже вычтен из окон
func conflictsWithBuffer(start, end types.TimeString, buffer int, active []*domain.Reservation) bool {
	if buffer == 0 {
		return false
	}
	paddedStart, paddedEnd := start.Minutes()-buffer, end.Minutes()+buffer
	for _, r := range active {
		if paddedStart < r.EndTime.Minutes() && r.StartTime.Minutes() < paddedEnd {
			return true
		}
	}
	return false
}
