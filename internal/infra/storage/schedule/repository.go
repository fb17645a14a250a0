package schedule

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
	"github.com/m04kA/SMC-DrivingSchoolService/pkg/dbmetrics"
	"github.com/m04kA/SMC-DrivingSchoolService/pkg/psqlbuilder"
)

// Repository репозиторий шаблонов расписания, блокировок и дополнительных окон
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория расписания
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// ============================================================
// Slot templates
// ============================================================

// CreateTemplate создает шаблон
func (r *Repository) CreateTemplate(ctx context.Context, t *domain.SlotTemplate) (*domain.SlotTemplate, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("slot_templates").
		Columns("day_of_week", "start_time", "end_time", "slot_duration_minutes", "buffer_minutes", "active").
		Values(int(t.DayOfWeek), t.StartTime, t.EndTime, t.SlotDurationMinutes, t.BufferMinutes, t.Active).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: CreateTemplate - build insert query: %w", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&t.ID, &createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("%w: CreateTemplate - execute insert: %w", ErrExecQuery, err)
	}
	t.CreatedAt = createdAt.Time
	t.UpdatedAt = updatedAt.Time

	return t, nil
}

// ListTemplates получает шаблоны; activeOnly отбрасывает деактивированные
func (r *Repository) ListTemplates(ctx context.Context, activeOnly bool) ([]*domain.SlotTemplate, error) {
	selectBuilder := templateSelect()
	if activeOnly {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"active": true})
	}
	return r.queryTemplates(ctx, selectBuilder.OrderBy("day_of_week ASC", "start_time ASC"), "ListTemplates")
}

// ListActiveTemplatesByWeekday получает активные шаблоны для дня недели
func (r *Repository) ListActiveTemplatesByWeekday(ctx context.Context, weekday time.Weekday) ([]*domain.SlotTemplate, error) {
	selectBuilder := templateSelect().
		Where(squirrel.Eq{"day_of_week": int(weekday), "active": true}).
		OrderBy("start_time ASC")
	return r.queryTemplates(ctx, selectBuilder, "ListActiveTemplatesByWeekday")
}

// DeactivateAllTemplates деактивирует все активные шаблоны (шаблоны не удаляются)
func (r *Repository) DeactivateAllTemplates(ctx context.Context) (int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("slot_templates").
		Set("active", false).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"active": true}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: DeactivateAllTemplates - build update query: %w", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: DeactivateAllTemplates - execute update: %w", ErrExecQuery, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: DeactivateAllTemplates - get rows affected: %w", ErrExecQuery, err)
	}

	return affected, nil
}

func templateSelect() squirrel.SelectBuilder {
	return psqlbuilder.Select(
		"id",
		"day_of_week",
		"start_time",
		"end_time",
		"slot_duration_minutes",
		"buffer_minutes",
		"active",
		"created_at",
		"updated_at",
	).From("slot_templates")
}

func (r *Repository) queryTemplates(ctx context.Context, selectBuilder squirrel.SelectBuilder, op string) ([]*domain.SlotTemplate, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %w", ErrBuildQuery, op, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s - execute query: %w", ErrExecQuery, op, err)
	}
	defer rows.Close()

	templates := make([]*domain.SlotTemplate, 0)
	for rows.Next() {
		var t domain.SlotTemplate
		var dayOfWeek int
		var createdAt, updatedAt sql.NullTime

		err := rows.Scan(
			&t.ID,
			&dayOfWeek,
			&t.StartTime,
			&t.EndTime,
			&t.SlotDurationMinutes,
			&t.BufferMinutes,
			&t.Active,
			&createdAt,
			&updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: %s - scan row: %w", ErrScanRow, op, err)
		}

		t.DayOfWeek = time.Weekday(dayOfWeek)
		t.CreatedAt = createdAt.Time
		t.UpdatedAt = updatedAt.Time
		templates = append(templates, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s - rows error: %w", ErrScanRow, op, err)
	}

	return templates, nil
}

// ============================================================
// Blocked ranges
// ============================================================

// CreateBlockedRange создает блокировку
func (r *Repository) CreateBlockedRange(ctx context.Context, b *domain.BlockedRange) (*domain.BlockedRange, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("blocked_ranges").
		Columns("date", "start_time", "end_time", "reason").
		Values(domain.DateOnly(b.Date), b.StartTime, b.EndTime, b.Reason).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: CreateBlockedRange - build insert query: %w", ErrBuildQuery, err)
	}

	var createdAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&b.ID, &createdAt); err != nil {
		return nil, fmt.Errorf("%w: CreateBlockedRange - execute insert: %w", ErrExecQuery, err)
	}
	b.CreatedAt = createdAt.Time

	return b, nil
}

// ListBlockedRanges получает блокировки в диапазоне дат [from, to]
func (r *Repository) ListBlockedRanges(ctx context.Context, from, to time.Time) ([]*domain.BlockedRange, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "date", "start_time", "end_time", "reason", "created_at").
		From("blocked_ranges").
		Where(squirrel.GtOrEq{"date": domain.DateOnly(from)}).
		Where(squirrel.LtOrEq{"date": domain.DateOnly(to)}).
		OrderBy("date ASC", "start_time ASC NULLS FIRST").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListBlockedRanges - build select query: %w", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListBlockedRanges - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	ranges := make([]*domain.BlockedRange, 0)
	for rows.Next() {
		var b domain.BlockedRange
		var createdAt sql.NullTime

		if err := rows.Scan(&b.ID, &b.Date, &b.StartTime, &b.EndTime, &b.Reason, &createdAt); err != nil {
			return nil, fmt.Errorf("%w: ListBlockedRanges - scan row: %w", ErrScanRow, err)
		}
		b.CreatedAt = createdAt.Time
		ranges = append(ranges, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListBlockedRanges - rows error: %w", ErrScanRow, err)
	}

	return ranges, nil
}

// ListBlockedByDate получает блокировки на дату
func (r *Repository) ListBlockedByDate(ctx context.Context, date time.Time) ([]*domain.BlockedRange, error) {
	return r.ListBlockedRanges(ctx, date, date)
}

// DeleteBlockedRange удаляет блокировку
func (r *Repository) DeleteBlockedRange(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "blocked_ranges", id, ErrBlockedRangeNotFound, "DeleteBlockedRange")
}

// ============================================================
// Extra windows
// ============================================================

// CreateExtraWindow создает дополнительное окно
func (r *Repository) CreateExtraWindow(ctx context.Context, e *domain.ExtraWindow) (*domain.ExtraWindow, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("extra_windows").
		Columns("date", "start_time", "end_time", "reason", "reserved_for_identity").
		Values(domain.DateOnly(e.Date), e.StartTime, e.EndTime, e.Reason, e.ReservedForIdentity).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: CreateExtraWindow - build insert query: %w", ErrBuildQuery, err)
	}

	var createdAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&e.ID, &createdAt); err != nil {
		return nil, fmt.Errorf("%w: CreateExtraWindow - execute insert: %w", ErrExecQuery, err)
	}
	e.CreatedAt = createdAt.Time

	return e, nil
}

// ListExtraWindows получает дополнительные окна в диапазоне дат [from, to]
func (r *Repository) ListExtraWindows(ctx context.Context, from, to time.Time) ([]*domain.ExtraWindow, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "date", "start_time", "end_time", "reason", "reserved_for_identity", "created_at").
		From("extra_windows").
		Where(squirrel.GtOrEq{"date": domain.DateOnly(from)}).
		Where(squirrel.LtOrEq{"date": domain.DateOnly(to)}).
		OrderBy("date ASC", "start_time ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListExtraWindows - build select query: %w", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListExtraWindows - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	windows := make([]*domain.ExtraWindow, 0)
	for rows.Next() {
		var e domain.ExtraWindow
		var createdAt sql.NullTime

		err := rows.Scan(&e.ID, &e.Date, &e.StartTime, &e.EndTime, &e.Reason, &e.ReservedForIdentity, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("%w: ListExtraWindows - scan row: %w", ErrScanRow, err)
		}
		e.CreatedAt = createdAt.Time
		windows = append(windows, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListExtraWindows - rows error: %w", ErrScanRow, err)
	}

	return windows, nil
}

// ListExtraByDate получает дополнительные окна на дату
func (r *Repository) ListExtraByDate(ctx context.Context, date time.Time) ([]*domain.ExtraWindow, error) {
	return r.ListExtraWindows(ctx, date, date)
}

// DeleteExtraWindow удаляет дополнительное окно
func (r *Repository) DeleteExtraWindow(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "extra_windows", id, ErrExtraWindowNotFound, "DeleteExtraWindow")
}

func (r *Repository) deleteByID(ctx context.Context, table string, id int64, notFound error, op string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete(table).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %s - build delete query: %w", ErrBuildQuery, op, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %s - execute delete: %w", ErrExecQuery, op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %w", ErrExecQuery, op, err)
	}

	if rowsAffected == 0 {
		return notFound
	}

	return nil
}
