package memory

import (
	"context"
	"sort"
	"time"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/infra/storage/schedule"
)

// ScheduleRepository шаблоны, блокировки и дополнительные окна в памяти
type ScheduleRepository struct {
	db *DB
}

// NewScheduleRepository создает репозиторий расписания
func NewScheduleRepository(db *DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (r *ScheduleRepository) CreateTemplate(_ context.Context, t *domain.SlotTemplate) (*domain.SlotTemplate, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	t.ID = r.db.nextID()
	t.CreatedAt = r.db.now()
	t.UpdatedAt = t.CreatedAt
	c := *t
	r.db.templates[t.ID] = &c
	return t, nil
}

func (r *ScheduleRepository) ListTemplates(_ context.Context, activeOnly bool) ([]*domain.SlotTemplate, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	result := make([]*domain.SlotTemplate, 0)
	for _, t := range r.db.templates {
		if activeOnly && !t.Active {
			continue
		}
		c := *t
		result = append(result, &c)
	}
	sortTemplates(result)
	return result, nil
}

func (r *ScheduleRepository) ListActiveTemplatesByWeekday(_ context.Context, weekday time.Weekday) ([]*domain.SlotTemplate, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	result := make([]*domain.SlotTemplate, 0)
	for _, t := range r.db.templates {
		if t.Active && t.DayOfWeek == weekday {
			c := *t
			result = append(result, &c)
		}
	}
	sortTemplates(result)
	return result, nil
}

func (r *ScheduleRepository) DeactivateAllTemplates(_ context.Context) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var affected int64
	for _, t := range r.db.templates {
		if t.Active {
			t.Active = false
			t.UpdatedAt = r.db.now()
			affected++
		}
	}
	return affected, nil
}

func (r *ScheduleRepository) CreateBlockedRange(_ context.Context, b *domain.BlockedRange) (*domain.BlockedRange, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	b.ID = r.db.nextID()
	b.Date = domain.DateOnly(b.Date)
	b.CreatedAt = r.db.now()
	c := *b
	r.db.blocked[b.ID] = &c
	return b, nil
}

func (r *ScheduleRepository) ListBlockedRanges(_ context.Context, from, to time.Time) ([]*domain.BlockedRange, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	result := make([]*domain.BlockedRange, 0)
	for _, b := range r.db.blocked {
		if inRange(b.Date, from, to) {
			c := *b
			result = append(result, &c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *ScheduleRepository) ListBlockedByDate(ctx context.Context, date time.Time) ([]*domain.BlockedRange, error) {
	return r.ListBlockedRanges(ctx, date, date)
}

func (r *ScheduleRepository) DeleteBlockedRange(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.blocked[id]; !ok {
		return schedule.ErrBlockedRangeNotFound
	}
	delete(r.db.blocked, id)
	return nil
}

func (r *ScheduleRepository) CreateExtraWindow(_ context.Context, e *domain.ExtraWindow) (*domain.ExtraWindow, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	e.ID = r.db.nextID()
	e.Date = domain.DateOnly(e.Date)
	e.CreatedAt = r.db.now()
	c := *e
	r.db.extras[e.ID] = &c
	return e, nil
}

func (r *ScheduleRepository) ListExtraWindows(_ context.Context, from, to time.Time) ([]*domain.ExtraWindow, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	result := make([]*domain.ExtraWindow, 0)
	for _, e := range r.db.extras {
		if inRange(e.Date, from, to) {
			c := *e
			result = append(result, &c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *ScheduleRepository) ListExtraByDate(ctx context.Context, date time.Time) ([]*domain.ExtraWindow, error) {
	return r.ListExtraWindows(ctx, date, date)
}

func (r *ScheduleRepository) DeleteExtraWindow(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.extras[id]; !ok {
		return schedule.ErrExtraWindowNotFound
	}
	delete(r.db.extras, id)
	return nil
}

func sortTemplates(templates []*domain.SlotTemplate) {
	sort.Slice(templates, func(i, j int) bool {
		if templates[i].DayOfWeek != templates[j].DayOfWeek {
			return templates[i].DayOfWeek < templates[j].DayOfWeek
		}
		return templates[i].StartTime.Minutes() < templates[j].StartTime.Minutes()
	})
}

// inRange сравнивает только календарные даты
func inRange(date, from, to time.Time) bool {
	d := dayIndex(date)
	return d >= dayIndex(from) && d <= dayIndex(to)
}

func dayIndex(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}
