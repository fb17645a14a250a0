package reservations

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/service/reservations/models"
	"github.com/m04kA/SMC-DrivingSchoolService/pkg/logger"
	"github.com/m04kA/SMC-DrivingSchoolService/pkg/ptr"
)

var lessonDay = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

type fixedTime struct{ now time.Time }

func (f fixedTime) Now() time.Time { return f.now }

type fixture struct {
	ctx  context.Context
	db   *memory.DB
	repo *memory.ReservationRepository
	svc  *Service
}

func newFixture() *fixture {
	db := memory.NewDB()
	repo := memory.NewReservationRepository(db)
	svc := NewService(repo, memory.NewOutboxRepository(db), memory.NewTxManager(db), logger.NewNop()).
		WithTimeProvider(fixedTime{now: lessonDay.Add(-24 * time.Hour)})
	return &fixture{ctx: context.Background(), db: db, repo: repo, svc: svc}
}

func (f *fixture) course(t *testing.T, capacity, supervisorLimit int, identities ...int64) *domain.Reservation {
	t.Helper()
	participants := make([]*domain.Participant, 0, len(identities))
	for _, id := range identities {
		participants = append(participants, &domain.Participant{Identity: ptr.Ptr(id)})
	}
	res, err := f.repo.Create(f.ctx, &domain.Reservation{
		ResourceType:    domain.ResourceCourse,
		ScheduledDate:   lessonDay,
		StartTime:       "10:00",
		EndTime:         "12:00",
		DurationMinutes: 120,
		Capacity:        capacity,
		SupervisorLimit: supervisorLimit,
		Status:          domain.ReservationHeld,
		CreatedBy:       ptr.Ptr(identities[0]),
		Participants:    participants,
	})
	require.NoError(t, err)
	return res
}

func (f *fixture) get(t *testing.T, id int64) *domain.Reservation {
	t.Helper()
	res, err := f.repo.GetByID(f.ctx, id)
	require.NoError(t, err)
	return res
}

// Курс на 4 места с лимитом 1 сопровождающий: второй сопровождающий не проходит при свободных местах
func TestAddParticipant_CapacityAndSupervisorLimit(t *testing.T) {
	f := newFixture()
	res := f.course(t, 4, 1, 1)

	_, err := f.svc.AddParticipant(f.ctx, res.ID, models.ParticipantInput{Identity: ptr.Ptr(int64(2)), IsSupervisor: true})
	require.NoError(t, err)

	_, err = f.svc.AddParticipant(f.ctx, res.ID, models.ParticipantInput{Identity: ptr.Ptr(int64(3)), IsSupervisor: true})
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, 2, f.get(t, res.ID).CurrentParticipantCount)

	_, err = f.svc.AddParticipant(f.ctx, res.ID, models.ParticipantInput{
		Guest: &models.GuestInput{Name: "Anna", Email: "anna@example.com"},
	})
	require.NoError(t, err)
	_, err = f.svc.AddParticipant(f.ctx, res.ID, models.ParticipantInput{Identity: ptr.Ptr(int64(4))})
	require.NoError(t, err)

	_, err = f.svc.AddParticipant(f.ctx, res.ID, models.ParticipantInput{Identity: ptr.Ptr(int64(5))})
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	stored := f.get(t, res.ID)
	assert.Equal(t, 4, stored.CurrentParticipantCount)
	assert.Equal(t, 1, stored.SupervisorCount())
}

func TestAddParticipant_Validation(t *testing.T) {
	f := newFixture()
	res := f.course(t, 5, 0, 1)

	_, err := f.svc.AddParticipant(f.ctx, res.ID, models.ParticipantInput{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.AddParticipant(f.ctx, res.ID, models.ParticipantInput{
		Guest: &models.GuestInput{Name: "Bob", Email: "not-an-email"},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.AddParticipant(f.ctx, res.ID, models.ParticipantInput{Identity: ptr.Ptr(int64(1))})
	assert.ErrorIs(t, err, ErrAlreadyParticipant)

	_, err = f.svc.AddParticipant(f.ctx, 999, models.ParticipantInput{Identity: ptr.Ptr(int64(2))})
	assert.ErrorIs(t, err, ErrReservationNotFound)
}

func TestAddParticipant_CancelledReservation(t *testing.T) {
	f := newFixture()
	res := f.course(t, 5, 0, 1)
	require.NoError(t, f.svc.Cancel(f.ctx, res.ID, domain.ReasonStaffDecline, nil))

	_, err := f.svc.AddParticipant(f.ctx, res.ID, models.ParticipantInput{Identity: ptr.Ptr(int64(2))})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestAddParticipant_ConcurrentNeverExceedsCapacity(t *testing.T) {
	f := newFixture()
	res := f.course(t, 5, 2, 1)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		failed    int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(identity int64) {
			defer wg.Done()
			_, err := f.svc.AddParticipant(f.ctx, res.ID, models.ParticipantInput{
				Identity:     ptr.Ptr(identity),
				IsSupervisor: identity%2 == 0,
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else {
				assert.ErrorIs(t, err, ErrCapacityExceeded)
				failed++
			}
		}(int64(100 + i))
	}
	wg.Wait()

	assert.Equal(t, 4, succeeded)
	assert.Equal(t, 16, failed)

	stored := f.get(t, res.ID)
	assert.Equal(t, 5, stored.CurrentParticipantCount)
	assert.LessOrEqual(t, stored.SupervisorCount(), 2)
}

func TestMoveParticipant(t *testing.T) {
	f := newFixture()
	source := f.course(t, 3, 0, 1, 2)
	target := f.course(t, 2, 0, 3)

	participantID := source.Participants[1].ID
	require.NoError(t, f.svc.MoveParticipant(f.ctx, participantID, target.ID))

	assert.Equal(t, 1, f.get(t, source.ID).CurrentParticipantCount)
	movedTo := f.get(t, target.ID)
	assert.Equal(t, 2, movedTo.CurrentParticipantCount)
	assert.True(t, movedTo.IsIdentityParticipant(2))

	// Целевое резервирование заполнено: ничего не меняется
	err := f.svc.MoveParticipant(f.ctx, source.Participants[0].ID, target.ID)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, 1, f.get(t, source.ID).CurrentParticipantCount)
	assert.Equal(t, 2, f.get(t, target.ID).CurrentParticipantCount)

	assert.ErrorIs(t, f.svc.MoveParticipant(f.ctx, 999, target.ID), ErrParticipantNotFound)
	assert.ErrorIs(t, f.svc.MoveParticipant(f.ctx, participantID, target.ID), ErrInvalidInput)
}

func TestCancel_IdempotentWithEvent(t *testing.T) {
	f := newFixture()
	res := f.course(t, 1, 0, 7)

	require.NoError(t, f.svc.Cancel(f.ctx, res.ID, domain.ReasonPaymentTimeout, nil))
	require.NoError(t, f.svc.Cancel(f.ctx, res.ID, domain.ReasonPaymentTimeout, nil))

	stored := f.get(t, res.ID)
	assert.Equal(t, domain.ReservationCancelled, stored.Status)
	require.NotNil(t, stored.CancellationReason)
	assert.Equal(t, domain.ReasonPaymentTimeout, *stored.CancellationReason)

	events := f.db.Events()
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventReservationCancelled, events[0].Type)
	require.NotNil(t, events[0].Reason)
	assert.Equal(t, domain.ReasonPaymentTimeout, *events[0].Reason)
	assert.Contains(t, string(events[0].Payload), `"reason":"payment_timeout"`)
}

func TestCancel_CompletedIsInvalidState(t *testing.T) {
	f := newFixture()
	res := f.course(t, 1, 0, 7)

	require.NoError(t, f.svc.Confirm(f.ctx, res.ID))
	require.NoError(t, f.svc.Complete(f.ctx, res.ID))

	assert.ErrorIs(t, f.svc.Cancel(f.ctx, res.ID, domain.ReasonCustomerCancel, nil), ErrInvalidState)
	assert.ErrorIs(t, f.svc.Cancel(f.ctx, 999, domain.ReasonCustomerCancel, nil), ErrReservationNotFound)
}

func TestCancelByCustomer_Access(t *testing.T) {
	f := newFixture()
	res := f.course(t, 2, 0, 7, 8)

	assert.ErrorIs(t, f.svc.CancelByCustomer(f.ctx, res.ID, 9), ErrAccessDenied)
	require.NoError(t, f.svc.CancelByCustomer(f.ctx, res.ID, 8))

	stored := f.get(t, res.ID)
	assert.Equal(t, domain.ReasonCustomerCancel, *stored.CancellationReason)
	assert.Equal(t, int64(8), *stored.CancelledBy)
}

func TestConfirmAndComplete(t *testing.T) {
	f := newFixture()
	res := f.course(t, 1, 0, 7)

	assert.ErrorIs(t, f.svc.Complete(f.ctx, res.ID), ErrInvalidState)

	require.NoError(t, f.svc.Confirm(f.ctx, res.ID))
	require.NoError(t, f.svc.Confirm(f.ctx, res.ID))
	assert.Equal(t, domain.ReservationConfirmed, f.get(t, res.ID).Status)

	require.NoError(t, f.svc.Complete(f.ctx, res.ID))
	assert.Equal(t, domain.ReservationCompleted, f.get(t, res.ID).Status)
	assert.ErrorIs(t, f.svc.Confirm(f.ctx, res.ID), ErrInvalidState)

	types := make([]domain.EventType, 0)
	for _, e := range f.db.Events() {
		types = append(types, e.Type)
	}
	assert.Equal(t, []domain.EventType{domain.EventReservationConfirmed, domain.EventReservationCompleted}, types)
}

func TestGetByID_Access(t *testing.T) {
	f := newFixture()
	res := f.course(t, 2, 0, 7)

	got, err := f.svc.GetByID(f.ctx, res.ID, ptr.Ptr(int64(7)), false)
	require.NoError(t, err)
	assert.Equal(t, "held", got.Status)

	_, err = f.svc.GetByID(f.ctx, res.ID, ptr.Ptr(int64(8)), false)
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = f.svc.GetByID(f.ctx, res.ID, nil, true)
	assert.NoError(t, err)
}

func TestListByIdentity(t *testing.T) {
	f := newFixture()
	first := f.course(t, 2, 0, 7)
	f.course(t, 2, 0, 8)
	require.NoError(t, f.svc.Cancel(f.ctx, first.ID, domain.ReasonCustomerCancel, nil))

	list, err := f.svc.ListByIdentity(f.ctx, 7, nil)
	require.NoError(t, err)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "cancelled", list.Reservations[0].Status)

	day := lessonDay
	active, err := f.svc.ListByDate(f.ctx, domain.ReservationsFilter{Date: &day})
	require.NoError(t, err)
	assert.Equal(t, 1, active.Total)
}
