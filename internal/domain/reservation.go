package domain

import (
	"time"

	"github.com/m04kA/SMC-DrivingSchoolService/pkg/types"
)

// ReservationStatus статус резервирования
type ReservationStatus string

const (
	ReservationHeld      ReservationStatus = "held"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCompleted ReservationStatus = "completed"
	ReservationCancelled ReservationStatus = "cancelled"
)

// ResourceType тип резервируемого ресурса
type ResourceType string

const (
	ResourceLesson ResourceType = "lesson" // индивидуальное занятие, вместимость 1
	ResourceCourse ResourceType = "course" // групповой курс
)

// CancellationReason причина отмены, уходит в доменное событие
type CancellationReason string

const (
	ReasonPaymentTimeout CancellationReason = "payment_timeout"
	ReasonStaffDecline   CancellationReason = "staff_decline"
	ReasonCustomerCancel CancellationReason = "customer_cancel"
)

// ActiveReservationStatuses статусы, занимающие время в расписании
var ActiveReservationStatuses = []ReservationStatus{
	ReservationHeld,
	ReservationConfirmed,
}

// GuestContact контакты участника без учётной записи
type GuestContact struct {
	Name  string
	Email string
	Phone *string
}

// Participant участник резервирования: либо identity, либо гость
type Participant struct {
	ID            int64
	ReservationID int64
	Identity      *int64
	Guest         *GuestContact
	IsSupervisor  bool
	Position      int
	CreatedAt     time.Time
}

// Reservation эксклюзивное резервирование интервала расписания
type Reservation struct {
	ID                      int64
	ResourceType            ResourceType
	LessonTypeID            int64
	ScheduledDate           time.Time
	StartTime               types.TimeString
	EndTime                 types.TimeString
	DurationMinutes         int
	BufferMinutes           int
	Capacity                int
	SupervisorLimit         int
	CurrentParticipantCount int
	Participants            []*Participant
	Status                  ReservationStatus
	CreatedBy               *int64

	CancellationReason *CancellationReason
	CancelledBy        *int64
	CancelledAt        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive true для held/confirmed: резервирование занимает время
func (r *Reservation) IsActive() bool {
	return r.Status == ReservationHeld || r.Status == ReservationConfirmed
}

// IsTerminal true для completed/cancelled
func (r *Reservation) IsTerminal() bool {
	return r.Status == ReservationCompleted || r.Status == ReservationCancelled
}

// SupervisorCount количество сопровождающих среди участников
func (r *Reservation) SupervisorCount() int {
	count := 0
	for _, p := range r.Participants {
		if p.IsSupervisor {
			count++
		}
	}
	return count
}

// HasFreeSeat true, если есть место ещё для одного участника
func (r *Reservation) HasFreeSeat() bool {
	return r.CurrentParticipantCount < r.Capacity
}

// CanAddSupervisor true, если лимит сопровождающих не исчерпан
func (r *Reservation) CanAddSupervisor() bool {
	return r.SupervisorCount() < r.SupervisorLimit
}

// BlockedSpan занятый интервал с учётом буфера с обеих сторон (в минутах от начала суток)
func (r *Reservation) BlockedSpan() (start, end int) {
	return r.StartTime.Minutes() - r.BufferMinutes, r.EndTime.Minutes() + r.BufferMinutes
}

// IsIdentityParticipant true, если identity записан на это резервирование
func (r *Reservation) IsIdentityParticipant(identity int64) bool {
	for _, p := range r.Participants {
		if p.Identity != nil && *p.Identity == identity {
			return true
		}
	}
	return false
}
