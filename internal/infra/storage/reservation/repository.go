package reservation

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

var reservationColumns = []string{
	"id",
	"resource_type",
	"lesson_type_id",
	"scheduled_date",
	"start_time",
	"end_time",
	"duration_minutes",
	"buffer_minutes",
	"capacity",
	"supervisor_limit",
	"current_participant_count",
	"status",
	"created_by",
	"cancellation_reason",
	"cancelled_by",
	"cancelled_at",
	"created_at",
	"updated_at",
}

var participantColumns = []string{
	"id",
	"reservation_id",
	"identity",
	"guest_name",
	"guest_email",
	"guest_phone",
	"is_supervisor",
	"position",
	"created_at",
}

// Repository репозиторий резервирований и их участников
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория резервирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// LockDay берёт транзакционную advisory-блокировку на дату расписания
// Все создания резервирований на одну дату выполняются строго по очереди,
// даже когда на дату ещё нет ни одной строки для FOR UPDATE
func (r *Repository) LockDay(ctx context.Context, date time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	if _, err := executor.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", domain.DayKey(date)); err != nil {
		return fmt.Errorf("%w: LockDay - execute: %w", ErrExecQuery, err)
	}
	return nil
}

// Create создает резервирование вместе с участниками
// Вызывается внутри транзакции use case создания резервирования
func (r *Repository) Create(ctx context.Context, reservation *domain.Reservation) (*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	reservation.CurrentParticipantCount = len(reservation.Participants)

	query, args, err := psqlbuilder.Insert("reservations").
		Columns(
			"resource_type",
			"lesson_type_id",
			"scheduled_date",
			"start_time",
			"end_time",
			"duration_minutes",
			"buffer_minutes",
			"capacity",
			"supervisor_limit",
			"current_participant_count",
			"status",
			"created_by",
		).
		Values(
			reservation.ResourceType,
			reservation.LessonTypeID,
			reservation.ScheduledDate,
			reservation.StartTime,
			reservation.EndTime,
			reservation.DurationMinutes,
			reservation.BufferMinutes,
			reservation.Capacity,
			reservation.SupervisorLimit,
			reservation.CurrentParticipantCount,
			reservation.Status,
			reservation.CreatedBy,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %w", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&reservation.ID, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %w", ErrExecQuery, err)
	}
	reservation.CreatedAt = createdAt.Time
	reservation.UpdatedAt = updatedAt.Time

	for i, p := range reservation.Participants {
		p.ReservationID = reservation.ID
		p.Position = i + 1
		if err := r.insertParticipant(ctx, executor, p); err != nil {
			return nil, err
		}
	}

	return reservation, nil
}

// GetByID получает резервирование с участниками
// В транзакции строка блокируется (FOR UPDATE)
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(reservationColumns...).
		From("reservations").
		Where(squirrel.Eq{"id": id})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %w", ErrBuildQuery, err)
	}

	reservation, err := scanReservation(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan reservation: %w", ErrScanRow, err)
	}

	if err := r.attachParticipants(ctx, executor, []*domain.Reservation{reservation}); err != nil {
		return nil, err
	}

	return reservation, nil
}

// ListActiveByDate получает held/confirmed резервирования на дату без участников
// Используется при расчёте доступности; в транзакции строки блокируются
func (r *Repository) ListActiveByDate(ctx context.Context, date time.Time) ([]*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(reservationColumns...).
		From("reservations").
		Where(squirrel.Eq{"scheduled_date": domain.DateOnly(date)}).
		Where(squirrel.Eq{"status": statusStrings(domain.ActiveReservationStatuses)}).
		OrderBy("start_time ASC")

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListActiveByDate - build select query: %w", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListActiveByDate - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanReservations(rows)
}

// List получает резервирования по фильтру вместе с участниками
func (r *Repository) List(ctx context.Context, filter domain.ReservationsFilter) ([]*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(reservationColumns...).From("reservations")

	if filter.Date != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"scheduled_date": domain.DateOnly(*filter.Date)})
	}
	if filter.Identity != nil {
		selectBuilder = selectBuilder.Where(squirrel.Expr(
			"id IN (SELECT reservation_id FROM reservation_participants WHERE identity = ?)", *filter.Identity))
	}
	if filter.Status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *filter.Status})
	} else if !filter.IncludeCancelled {
		selectBuilder = selectBuilder.Where(squirrel.NotEq{"status": string(domain.ReservationCancelled)})
	}

	if filter.Date != nil {
		selectBuilder = selectBuilder.OrderBy("start_time ASC")
	} else {
		selectBuilder = selectBuilder.OrderBy("scheduled_date DESC, start_time DESC")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: List - build select query: %w", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: List - execute query: %w", ErrExecQuery, err)
	}
	reservations, err := scanReservations(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	if err := r.attachParticipants(ctx, executor, reservations); err != nil {
		return nil, err
	}

	return reservations, nil
}

// AddParticipant увеличивает счётчик участников и добавляет участника
// Счётчик увеличивается только если он меньше вместимости, иначе ErrCapacityExceeded
func (r *Repository) AddParticipant(ctx context.Context, participant *domain.Participant) (*domain.Participant, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	position, err := r.incrementCount(ctx, executor, participant.ReservationID)
	if err != nil {
		return nil, err
	}

	participant.Position = position
	if err := r.insertParticipant(ctx, executor, participant); err != nil {
		return nil, err
	}

	return participant, nil
}

// GetParticipant получает участника по ID (в транзакции с блокировкой строки)
func (r *Repository) GetParticipant(ctx context.Context, id int64) (*domain.Participant, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(participantColumns...).
		From("reservation_participants").
		Where(squirrel.Eq{"id": id})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetParticipant - build select query: %w", ErrBuildQuery, err)
	}

	participant, err := scanParticipant(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrParticipantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetParticipant - scan participant: %w", ErrScanRow, err)
	}

	return participant, nil
}

// MoveParticipant переносит участника в другое резервирование
// Должен вызываться в транзакции: три изменения применяются вместе или не применяются вовсе
func (r *Repository) MoveParticipant(ctx context.Context, participantID, fromID, toID int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	position, err := r.incrementCount(ctx, executor, toID)
	if err != nil {
		return err
	}

	query, args, err := psqlbuilder.Update("reservations").
		Set("current_participant_count", squirrel.Expr("current_participant_count - 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": fromID}).
		Where(squirrel.Gt{"current_participant_count": 0}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: MoveParticipant - build decrement query: %w", ErrBuildQuery, err)
	}
	if err := execExpectOne(ctx, executor, query, args, ErrReservationNotFound); err != nil {
		return fmt.Errorf("MoveParticipant - decrement source: %w", err)
	}

	query, args, err = psqlbuilder.Update("reservation_participants").
		Set("reservation_id", toID).
		Set("position", position).
		Where(squirrel.Eq{"id": participantID, "reservation_id": fromID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: MoveParticipant - build move query: %w", ErrBuildQuery, err)
	}
	if err := execExpectOne(ctx, executor, query, args, ErrParticipantNotFound); err != nil {
		return fmt.Errorf("MoveParticipant - move participant: %w", err)
	}

	return nil
}

// UpdateStatus переводит резервирование в статус to, только если текущий статус входит в from
// Возвращает false, если строка не подошла под условие (статус уже изменён)
func (r *Repository) UpdateStatus(ctx context.Context, id int64, from []domain.ReservationStatus, to domain.ReservationStatus) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("reservations").
		Set("status", to).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"status": statusStrings(from)}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: UpdateStatus - build update query: %w", ErrBuildQuery, err)
	}

	return execAffected(ctx, executor, query, args)
}

// Cancel отменяет held/confirmed резервирование
// Возвращает false, если резервирование уже не активно
func (r *Repository) Cancel(ctx context.Context, id int64, reason domain.CancellationReason, cancelledBy *int64, at time.Time) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("reservations").
		Set("status", domain.ReservationCancelled).
		Set("cancellation_reason", reason).
		Set("cancelled_by", cancelledBy).
		Set("cancelled_at", at).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"status": statusStrings(domain.ActiveReservationStatuses)}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: Cancel - build update query: %w", ErrBuildQuery, err)
	}

	return execAffected(ctx, executor, query, args)
}

// incrementCount увеличивает счётчик участников с проверкой вместимости и возвращает новую позицию
func (r *Repository) incrementCount(ctx context.Context, executor DBExecutor, reservationID int64) (int, error) {
	query, args, err := psqlbuilder.Update("reservations").
		Set("current_participant_count", squirrel.Expr("current_participant_count + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": reservationID}).
		Where(squirrel.Expr("current_participant_count < capacity")).
		Suffix("RETURNING current_participant_count").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: incrementCount - build update query: %w", ErrBuildQuery, err)
	}

	var count int
	err = executor.QueryRowContext(ctx, query, args...).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, ErrCapacityExceeded
	}
	if err != nil {
		return 0, fmt.Errorf("%w: incrementCount - execute update: %w", ErrExecQuery, err)
	}

	return count, nil
}

func (r *Repository) insertParticipant(ctx context.Context, executor DBExecutor, p *domain.Participant) error {
	var guestName, guestEmail, guestPhone *string
	if p.Guest != nil {
		guestName = &p.Guest.Name
		guestEmail = &p.Guest.Email
		guestPhone = p.Guest.Phone
	}

	query, args, err := psqlbuilder.Insert("reservation_participants").
		Columns("reservation_id", "identity", "guest_name", "guest_email", "guest_phone", "is_supervisor", "position").
		Values(p.ReservationID, p.Identity, guestName, guestEmail, guestPhone, p.IsSupervisor, p.Position).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: insertParticipant - build insert query: %w", ErrBuildQuery, err)
	}

	var createdAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&p.ID, &createdAt); err != nil {
		return fmt.Errorf("%w: insertParticipant - execute insert: %w", ErrExecQuery, err)
	}
	p.CreatedAt = createdAt.Time

	return nil
}

// attachParticipants загружает участников одним запросом для всех резервирований
func (r *Repository) attachParticipants(ctx context.Context, executor DBExecutor, reservations []*domain.Reservation) error {
	if len(reservations) == 0 {
		return nil
	}

	byID := make(map[int64]*domain.Reservation, len(reservations))
	ids := make([]int64, 0, len(reservations))
	for _, res := range reservations {
		res.Participants = make([]*domain.Participant, 0)
		byID[res.ID] = res
		ids = append(ids, res.ID)
	}

	query, args, err := psqlbuilder.Select(participantColumns...).
		From("reservation_participants").
		Where(squirrel.Eq{"reservation_id": ids}).
		OrderBy("reservation_id ASC", "position ASC").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: attachParticipants - build select query: %w", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: attachParticipants - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return fmt.Errorf("%w: attachParticipants - scan row: %w", ErrScanRow, err)
		}
		if res, ok := byID[p.ReservationID]; ok {
			res.Participants = append(res.Participants, p)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: attachParticipants - rows error: %w", ErrScanRow, err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReservation(row rowScanner) (*domain.Reservation, error) {
	var res domain.Reservation
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&res.ID,
		&res.ResourceType,
		&res.LessonTypeID,
		&res.ScheduledDate,
		&res.StartTime,
		&res.EndTime,
		&res.DurationMinutes,
		&res.BufferMinutes,
		&res.Capacity,
		&res.SupervisorLimit,
		&res.CurrentParticipantCount,
		&res.Status,
		&res.CreatedBy,
		&res.CancellationReason,
		&res.CancelledBy,
		&res.CancelledAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	res.CreatedAt = createdAt.Time
	res.UpdatedAt = updatedAt.Time

	return &res, nil
}

func scanReservations(rows *sql.Rows) ([]*domain.Reservation, error) {
	reservations := make([]*domain.Reservation, 0)

	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanReservations - scan row: %w", ErrScanRow, err)
		}
		reservations = append(reservations, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanReservations - rows error: %w", ErrScanRow, err)
	}

	return reservations, nil
}

func scanParticipant(row rowScanner) (*domain.Participant, error) {
	var p domain.Participant
	var guestName, guestEmail, guestPhone sql.NullString
	var createdAt sql.NullTime

	err := row.Scan(
		&p.ID,
		&p.ReservationID,
		&p.Identity,
		&guestName,
		&guestEmail,
		&guestPhone,
		&p.IsSupervisor,
		&p.Position,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	if guestName.Valid {
		p.Guest = &domain.GuestContact{Name: guestName.String, Email: guestEmail.String}
		if guestPhone.Valid {
			phone := guestPhone.String
			p.Guest.Phone = &phone
		}
	}
	p.CreatedAt = createdAt.Time

	return &p, nil
}

func statusStrings(statuses []domain.ReservationStatus) []string {
	result := make([]string, len(statuses))
	for i, s := range statuses {
		result[i] = string(s)
	}
	return result
}

func execAffected(ctx context.Context, executor DBExecutor, query string, args []interface{}) (bool, error) {
	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%w: execute update: %w", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: get rows affected: %w", ErrExecQuery, err)
	}

	return rowsAffected > 0, nil
}

func execExpectOne(ctx context.Context, executor DBExecutor, query string, args []interface{}, notFound error) error {
	ok, err := execAffected(ctx, executor, query, args)
	if err != nil {
		return err
	}
	if !ok {
		return notFound
	}
	return nil
}
