package invoice

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
	"github.com/m04kA/SMC-DrivingSchoolService/pkg/dbmetrics"
	"github.com/m04kA/SMC-DrivingSchoolService/pkg/psqlbuilder"
)

const uniqueViolation = "23505"

var invoiceColumns = []string{
	"id",
	"reservation_id",
	"payer_identity",
	"payer_email",
	"amount",
	"currency",
	"line_items",
	"status",
	"settlement_method",
	"payment_hold_deadline",
	"checkout_session_id",
	"credit_ref",
	"cancellation_reason",
	"created_at",
	"paid_at",
	"updated_at",
}

// Update набор изменений для условного обновления счёта
// nil-поля не изменяются
type Update struct {
	Status             *domain.InvoiceStatus
	SettlementMethod   *domain.SettlementMethod
	PaidAt             *time.Time
	ClearHoldDeadline  bool
	CheckoutSessionID  *string
	CreditRef          *string
	CancellationReason *domain.CancellationReason
}

// Repository репозиторий счетов
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория счетов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает счёт
func (r *Repository) Create(ctx context.Context, inv *domain.Invoice) (*domain.Invoice, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	lineItems, err := json.Marshal(inv.LineItems)
	if err != nil {
		return nil, fmt.Errorf("%w: Create - marshal line items: %w", ErrEncodeLineItems, err)
	}

	query, args, err := psqlbuilder.Insert("invoices").
		Columns(
			"reservation_id",
			"payer_identity",
			"payer_email",
			"amount",
			"currency",
			"line_items",
			"status",
			"settlement_method",
			"payment_hold_deadline",
		).
		Values(
			inv.ReservationID,
			inv.PayerIdentity,
			inv.PayerEmail,
			inv.Amount,
			inv.Currency,
			lineItems,
			inv.Status,
			inv.SettlementMethod,
			inv.PaymentHoldDeadline,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %w", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&inv.ID, &createdAt, &updatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, ErrActiveInvoiceExists
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %w", ErrExecQuery, err)
	}
	inv.CreatedAt = createdAt.Time
	inv.UpdatedAt = updatedAt.Time

	return inv, nil
}

// GetByID получает счёт; в транзакции строка блокируется (FOR UPDATE)
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Invoice, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id}, "GetByID")
}

// GetByCheckoutSession получает счёт по идентификатору сессии внешнего checkout
func (r *Repository) GetByCheckoutSession(ctx context.Context, sessionID string) (*domain.Invoice, error) {
	return r.getOne(ctx, squirrel.Eq{"checkout_session_id": sessionID}, "GetByCheckoutSession")
}

// GetActiveByReservation получает pending/overdue/paid счёт резервирования
func (r *Repository) GetActiveByReservation(ctx context.Context, reservationID int64) (*domain.Invoice, error) {
	return r.getOne(ctx, squirrel.And{
		squirrel.Eq{"reservation_id": reservationID},
		squirrel.Eq{"status": statusStrings(domain.ActiveInvoiceStatuses)},
	}, "GetActiveByReservation")
}

func (r *Repository) getOne(ctx context.Context, where squirrel.Sqlizer, op string) (*domain.Invoice, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(invoiceColumns...).
		From("invoices").
		Where(where).
		Limit(1)

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %w", ErrBuildQuery, op, err)
	}

	inv, err := scanInvoice(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrInvoiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s - scan invoice: %w", ErrScanRow, op, err)
	}

	return inv, nil
}

// ListByPayer получает счета плательщика, новые первыми
func (r *Repository) ListByPayer(ctx context.Context, payerIdentity int64) ([]*domain.Invoice, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(invoiceColumns...).
		From("invoices").
		Where(squirrel.Eq{"payer_identity": payerIdentity}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListByPayer - build select query: %w", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListByPayer - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	invoices := make([]*domain.Invoice, 0)
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: ListByPayer - scan row: %w", ErrScanRow, err)
		}
		invoices = append(invoices, inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListByPayer - rows error: %w", ErrScanRow, err)
	}

	return invoices, nil
}

// Update условно обновляет счёт: изменение применяется, только если текущий
// статус входит в expected. Возвращает false, если строка не подошла
func (r *Repository) Update(ctx context.Context, id int64, expected []domain.InvoiceStatus, upd Update) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	updateBuilder := psqlbuilder.Update("invoices").
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"status": statusStrings(expected)})

	if upd.Status != nil {
		updateBuilder = updateBuilder.Set("status", *upd.Status)
	}
	if upd.SettlementMethod != nil {
		updateBuilder = updateBuilder.Set("settlement_method", *upd.SettlementMethod)
	}
	if upd.PaidAt != nil {
		updateBuilder = updateBuilder.Set("paid_at", *upd.PaidAt)
	}
	if upd.ClearHoldDeadline {
		updateBuilder = updateBuilder.Set("payment_hold_deadline", nil)
	}
	if upd.CheckoutSessionID != nil {
		updateBuilder = updateBuilder.Set("checkout_session_id", *upd.CheckoutSessionID)
	}
	if upd.CreditRef != nil {
		updateBuilder = updateBuilder.Set("credit_ref", *upd.CreditRef)
	}
	if upd.CancellationReason != nil {
		updateBuilder = updateBuilder.Set("cancellation_reason", *upd.CancellationReason)
	}

	query, args, err := updateBuilder.ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: Update - build update query: %w", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%w: Update - execute update: %w", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: Update - get rows affected: %w", ErrExecQuery, err)
	}

	return rowsAffected > 0, nil
}

// ClaimDueHold захватывает один pending счёт с наступившим дедлайном удержания
// Строки, уже заблокированные конкурентной оплатой, пропускаются (SKIP LOCKED)
// Вызывается только внутри транзакции
func (r *Repository) ClaimDueHold(ctx context.Context, now time.Time) (*domain.Invoice, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(invoiceColumns...).
		From("invoices").
		Where(squirrel.Eq{"status": string(domain.InvoicePending)}).
		Where(squirrel.NotEq{"payment_hold_deadline": nil}).
		Where(squirrel.LtOrEq{"payment_hold_deadline": now}).
		OrderBy("payment_hold_deadline ASC", "id ASC").
		Limit(1).
		Suffix("FOR UPDATE SKIP LOCKED").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ClaimDueHold - build select query: %w", ErrBuildQuery, err)
	}

	inv, err := scanInvoice(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrInvoiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: ClaimDueHold - scan invoice: %w", ErrScanRow, err)
	}

	return inv, nil
}

// MarkOverdue переводит в overdue pending счета без удержания, созданные раньше createdBefore
// Возвращает идентификаторы обновлённых счетов
func (r *Repository) MarkOverdue(ctx context.Context, createdBefore time.Time, limit uint64) ([]int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("invoices").
		Set("status", string(domain.InvoiceOverdue)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Expr(
			"id IN (SELECT id FROM invoices WHERE status = ? AND payment_hold_deadline IS NULL AND created_at < ? ORDER BY id LIMIT ? FOR UPDATE SKIP LOCKED)",
			string(domain.InvoicePending), createdBefore, limit,
		)).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: MarkOverdue - build update query: %w", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: MarkOverdue - execute update: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: MarkOverdue - scan row: %w", ErrScanRow, err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: MarkOverdue - rows error: %w", ErrScanRow, err)
	}

	return ids, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInvoice(row rowScanner) (*domain.Invoice, error) {
	var inv domain.Invoice
	var lineItems []byte
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&inv.ID,
		&inv.ReservationID,
		&inv.PayerIdentity,
		&inv.PayerEmail,
		&inv.Amount,
		&inv.Currency,
		&lineItems,
		&inv.Status,
		&inv.SettlementMethod,
		&inv.PaymentHoldDeadline,
		&inv.CheckoutSessionID,
		&inv.CreditRef,
		&inv.CancellationReason,
		&createdAt,
		&inv.PaidAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(lineItems) > 0 {
		if err := json.Unmarshal(lineItems, &inv.LineItems); err != nil {
			return nil, fmt.Errorf("unmarshal line items: %w", err)
		}
	}

	inv.CreatedAt = createdAt.Time
	inv.UpdatedAt = updatedAt.Time

	return &inv, nil
}

func statusStrings(statuses []domain.InvoiceStatus) []string {
	result := make([]string, 0, len(statuses))
	for _, s := range statuses {
		result = append(result, string(s))
	}
	return result
}
