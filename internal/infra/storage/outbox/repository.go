package outbox

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

// Repository репозиторий outbox доменных событий
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория outbox
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Append записывает событие в outbox в текущей транзакции
func (r *Repository) Append(ctx context.Context, event *domain.Event) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	var reason *string
	if event.Reason != nil {
		s := string(*event.Reason)
		reason = &s
	}

	payload := []byte(event.Payload)
	if len(payload) == 0 {
		payload = []byte("{}")
	}

	query, args, err := psqlbuilder.Insert("outbox_events").
		Columns("id", "event_type", "aggregate_id", "reason", "payload", "occurred_at").
		Values(event.ID, string(event.Type), event.AggregateID, reason, payload, event.OccurredAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Append - build insert query: %w", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: Append - execute insert: %w", ErrExecQuery, err)
	}

	return nil
}

// ListUnpublished получает неопубликованные события в порядке возникновения
// В транзакции строки блокируются, параллельные реле их пропускают
func (r *Repository) ListUnpublished(ctx context.Context, limit uint64) ([]*domain.Event, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select("id", "event_type", "aggregate_id", "reason", "payload", "occurred_at", "published_at").
		From("outbox_events").
		Where(squirrel.Eq{"published_at": nil}).
		OrderBy("occurred_at ASC", "seq ASC").
		Limit(limit)

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE SKIP LOCKED")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListUnpublished - build select query: %w", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListUnpublished - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	events := make([]*domain.Event, 0)
	for rows.Next() {
		var e domain.Event
		var reason sql.NullString
		var payload []byte

		if err := rows.Scan(&e.ID, &e.Type, &e.AggregateID, &reason, &payload, &e.OccurredAt, &e.PublishedAt); err != nil {
			return nil, fmt.Errorf("%w: ListUnpublished - scan row: %w", ErrScanRow, err)
		}

		if reason.Valid {
			cr := domain.CancellationReason(reason.String)
			e.Reason = &cr
		}
		e.Payload = payload
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListUnpublished - rows error: %w", ErrScanRow, err)
	}

	return events, nil
}

// MarkPublished отмечает события опубликованными
func (r *Repository) MarkPublished(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("outbox_events").
		Set("published_at", at).
		Where(squirrel.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: MarkPublished - build update query: %w", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: MarkPublished - execute update: %w", ErrExecQuery, err)
	}

	return nil
}
