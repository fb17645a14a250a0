package credit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
	"github.com/m04kA/SMC-DrivingSchoolService/pkg/dbmetrics"
	"github.com/m04kA/SMC-DrivingSchoolService/pkg/psqlbuilder"
)

// Repository репозиторий пакетов предоплаченных занятий
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория пакетов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает пакет
func (r *Repository) Create(ctx context.Context, c *domain.StoredCredit) (*domain.StoredCredit, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("stored_credits").
		Columns("ref", "owner_identity", "remaining_units").
		Values(c.Ref, c.OwnerIdentity, c.RemainingUnits).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %w", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&c.ID, &createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %w", ErrExecQuery, err)
	}
	c.CreatedAt = createdAt.Time
	c.UpdatedAt = updatedAt.Time

	return c, nil
}

// GetByRef получает пакет по внешней ссылке
func (r *Repository) GetByRef(ctx context.Context, ref string) (*domain.StoredCredit, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "ref", "owner_identity", "remaining_units", "created_at", "updated_at").
		From("stored_credits").
		Where(squirrel.Eq{"ref": ref}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByRef - build select query: %w", ErrBuildQuery, err)
	}

	var c domain.StoredCredit
	var createdAt, updatedAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&c.ID,
		&c.Ref,
		&c.OwnerIdentity,
		&c.RemainingUnits,
		&createdAt,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrCreditNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByRef - scan row: %w", ErrScanRow, err)
	}

	c.CreatedAt = createdAt.Time
	c.UpdatedAt = updatedAt.Time

	return &c, nil
}

// Debit списывает одну единицу с пакета владельца
// Возвращает false, если пакет не найден, принадлежит другому или пуст
func (r *Repository) Debit(ctx context.Context, ref string, owner int64) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("stored_credits").
		Set("remaining_units", squirrel.Expr("remaining_units - 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"ref": ref, "owner_identity": owner}).
		Where(squirrel.Gt{"remaining_units": 0}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: Debit - build update query: %w", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%w: Debit - execute update: %w", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: Debit - get rows affected: %w", ErrExecQuery, err)
	}

	return rowsAffected > 0, nil
}
