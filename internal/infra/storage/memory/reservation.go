package memory

import (
	"context"
	"sort"
	"time"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/infra/storage/reservation"
)

// ReservationRepository резервирования и участники в памяти
type ReservationRepository struct {
	db *DB
}

// NewReservationRepository создает репозиторий резервирований
func NewReservationRepository(db *DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// LockDay транзакции в памяти и так выполняются по одной
func (r *ReservationRepository) LockDay(_ context.Context, _ time.Time) error {
	return nil
}

func (r *ReservationRepository) Create(_ context.Context, res *domain.Reservation) (*domain.Reservation, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	now := r.db.now()
	res.ID = r.db.nextID()
	res.ScheduledDate = domain.DateOnly(res.ScheduledDate)
	res.CurrentParticipantCount = len(res.Participants)
	res.CreatedAt = now
	res.UpdatedAt = now
	r.db.reservations[res.ID] = cloneReservation(res)

	for i, p := range res.Participants {
		p.ID = r.db.nextID()
		p.ReservationID = res.ID
		p.Position = i + 1
		p.CreatedAt = now
		r.db.participants[p.ID] = cloneParticipant(p)
	}

	return res, nil
}

func (r *ReservationRepository) GetByID(_ context.Context, id int64) (*domain.Reservation, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	res, ok := r.db.reservations[id]
	if !ok {
		return nil, reservation.ErrReservationNotFound
	}
	return r.withParticipants(res), nil
}

func (r *ReservationRepository) ListActiveByDate(_ context.Context, date time.Time) ([]*domain.Reservation, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	result := make([]*domain.Reservation, 0)
	for _, res := range r.db.reservations {
		if res.IsActive() && sameDay(res.ScheduledDate, date) {
			result = append(result, cloneReservation(res))
		}
	}
	sortReservations(result)
	return result, nil
}

func (r *ReservationRepository) List(_ context.Context, filter domain.ReservationsFilter) ([]*domain.Reservation, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	result := make([]*domain.Reservation, 0)
	for _, res := range r.db.reservations {
		if filter.Date != nil && !sameDay(res.ScheduledDate, *filter.Date) {
			continue
		}
		if filter.Status != nil {
			if res.Status != *filter.Status {
				continue
			}
		} else if !filter.IncludeCancelled && res.Status == domain.ReservationCancelled {
			continue
		}

		full := r.withParticipants(res)
		if filter.Identity != nil && !full.IsIdentityParticipant(*filter.Identity) {
			continue
		}
		result = append(result, full)
	}
	sortReservations(result)
	return result, nil
}

func (r *ReservationRepository) AddParticipant(_ context.Context, p *domain.Participant) (*domain.Participant, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	res, ok := r.db.reservations[p.ReservationID]
	if !ok || res.CurrentParticipantCount >= res.Capacity {
		return nil, reservation.ErrCapacityExceeded
	}

	res.CurrentParticipantCount++
	res.UpdatedAt = r.db.now()

	p.ID = r.db.nextID()
	p.Position = res.CurrentParticipantCount
	p.CreatedAt = r.db.now()
	r.db.participants[p.ID] = cloneParticipant(p)

	return p, nil
}

func (r *ReservationRepository) GetParticipant(_ context.Context, id int64) (*domain.Participant, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	p, ok := r.db.participants[id]
	if !ok {
		return nil, reservation.ErrParticipantNotFound
	}
	return cloneParticipant(p), nil
}

func (r *ReservationRepository) MoveParticipant(_ context.Context, participantID, fromID, toID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	to, ok := r.db.reservations[toID]
	if !ok || to.CurrentParticipantCount >= to.Capacity {
		return reservation.ErrCapacityExceeded
	}
	from, ok := r.db.reservations[fromID]
	if !ok || from.CurrentParticipantCount == 0 {
		return reservation.ErrReservationNotFound
	}
	p, ok := r.db.participants[participantID]
	if !ok || p.ReservationID != fromID {
		return reservation.ErrParticipantNotFound
	}

	to.CurrentParticipantCount++
	from.CurrentParticipantCount--
	p.ReservationID = toID
	p.Position = to.CurrentParticipantCount
	return nil
}

func (r *ReservationRepository) UpdateStatus(_ context.Context, id int64, from []domain.ReservationStatus, to domain.ReservationStatus) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	res, ok := r.db.reservations[id]
	if !ok || !containsStatus(from, res.Status) {
		return false, nil
	}
	res.Status = to
	res.UpdatedAt = r.db.now()
	return true, nil
}

func (r *ReservationRepository) Cancel(_ context.Context, id int64, reason domain.CancellationReason, cancelledBy *int64, at time.Time) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	res, ok := r.db.reservations[id]
	if !ok || !res.IsActive() {
		return false, nil
	}
	res.Status = domain.ReservationCancelled
	res.CancellationReason = &reason
	res.CancelledBy = cancelledBy
	res.CancelledAt = &at
	res.UpdatedAt = r.db.now()
	return true, nil
}

// withParticipants копия резервирования с участниками, вызывается под мьютексом
func (r *ReservationRepository) withParticipants(res *domain.Reservation) *domain.Reservation {
	c := cloneReservation(res)
	c.Participants = make([]*domain.Participant, 0)
	for _, p := range r.db.participants {
		if p.ReservationID == res.ID {
			c.Participants = append(c.Participants, cloneParticipant(p))
		}
	}
	sort.Slice(c.Participants, func(i, j int) bool {
		if c.Participants[i].Position != c.Participants[j].Position {
			return c.Participants[i].Position < c.Participants[j].Position
		}
		return c.Participants[i].ID < c.Participants[j].ID
	})
	return c
}

func sortReservations(reservations []*domain.Reservation) {
	sort.Slice(reservations, func(i, j int) bool {
		a, b := reservations[i], reservations[j]
		if !sameDay(a.ScheduledDate, b.ScheduledDate) {
			return a.ScheduledDate.Before(b.ScheduledDate)
		}
		return a.StartTime.Minutes() < b.StartTime.Minutes()
	})
}

func containsStatus(statuses []domain.ReservationStatus, status domain.ReservationStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}
