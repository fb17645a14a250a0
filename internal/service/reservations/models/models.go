package models

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
)

// GuestInput контакты гостя
type GuestInput struct {
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Phone *string `json:"phone,omitempty"`
}

// ParticipantInput участник: либо identity, либо гость
type ParticipantInput struct {
	Identity     *int64      `json:"identity,omitempty"`
	Guest        *GuestInput `json:"guest,omitempty"`
	IsSupervisor bool        `json:"isSupervisor"`
}

// ToDomain конвертирует DTO в domain модель
func (p ParticipantInput) ToDomain() *domain.Participant {
	participant := &domain.Participant{
		Identity:     p.Identity,
		IsSupervisor: p.IsSupervisor,
	}
	if p.Guest != nil {
		participant.Guest = &domain.GuestContact{
			Name:  p.Guest.Name,
			Email: p.Guest.Email,
			Phone: p.Guest.Phone,
		}
	}
	return participant
}

// ParticipantResponse участник в ответе
type ParticipantResponse struct {
	ID           int64       `json:"id"`
	Identity     *int64      `json:"identity,omitempty"`
	Guest        *GuestInput `json:"guest,omitempty"`
	IsSupervisor bool        `json:"isSupervisor"`
	Position     int         `json:"position"`
}

// ReservationResponse резервирование в ответе
type ReservationResponse struct {
	ID                      int64                 `json:"id"`
	ResourceType            string                `json:"resourceType"`
	LessonTypeID            int64                 `json:"lessonTypeId,omitempty"`
	Date                    string                `json:"date"`
	StartTime               string                `json:"startTime"`
	EndTime                 string                `json:"endTime"`
	DurationMinutes         int                   `json:"durationMinutes"`
	BufferMinutes           int                   `json:"bufferMinutes"`
	Capacity                int                   `json:"capacity"`
	SupervisorLimit         int                   `json:"supervisorLimit"`
	CurrentParticipantCount int                   `json:"currentParticipantCount"`
	Participants            []ParticipantResponse `json:"participants"`
	Status                  string                `json:"status"`
	CreatedBy               *int64                `json:"createdBy,omitempty"`
	CancellationReason      *string               `json:"cancellationReason,omitempty"`
	CancelledAt             *time.Time            `json:"cancelledAt,omitempty"`
	CreatedAt               time.Time             `json:"createdAt"`
	UpdatedAt               time.Time             `json:"updatedAt"`
}

// ReservationListResponse список резервирований
type ReservationListResponse struct {
	Reservations []ReservationResponse `json:"reservations"`
	Total        int                   `json:"total"`
}

// FromDomainParticipant конвертирует domain модель в DTO
func FromDomainParticipant(p *domain.Participant) ParticipantResponse {
	resp := ParticipantResponse{
		ID:           p.ID,
		Identity:     p.Identity,
		IsSupervisor: p.IsSupervisor,
		Position:     p.Position,
	}
	if p.Guest != nil {
		resp.Guest = &GuestInput{Name: p.Guest.Name, Email: p.Guest.Email, Phone: p.Guest.Phone}
	}
	return resp
}

// FromDomainReservation конвертирует domain модель в DTO
func FromDomainReservation(r *domain.Reservation) *ReservationResponse {
	resp := &ReservationResponse{
		ID:                      r.ID,
		ResourceType:            string(r.ResourceType),
		LessonTypeID:            r.LessonTypeID,
		Date:                    r.ScheduledDate.Format(domain.DateFormat),
		StartTime:               r.StartTime.String(),
		EndTime:                 r.EndTime.String(),
		DurationMinutes:         r.DurationMinutes,
		BufferMinutes:           r.BufferMinutes,
		Capacity:                r.Capacity,
		SupervisorLimit:         r.SupervisorLimit,
		CurrentParticipantCount: r.CurrentParticipantCount,
		Participants:            make([]ParticipantResponse, 0, len(r.Participants)),
		Status:                  string(r.Status),
		CreatedBy:               r.CreatedBy,
		CancelledAt:             r.CancelledAt,
		CreatedAt:               r.CreatedAt,
		UpdatedAt:               r.UpdatedAt,
	}
	if r.CancellationReason != nil {
		reason := string(*r.CancellationReason)
		resp.CancellationReason = &reason
	}
	for _, p := range r.Participants {
		resp.Participants = append(resp.Participants, FromDomainParticipant(p))
	}
	return resp
}

// FromDomainReservationList конвертирует список domain моделей в DTO
func FromDomainReservationList(reservations []*domain.Reservation) *ReservationListResponse {
	resp := &ReservationListResponse{
		Reservations: make([]ReservationResponse, 0, len(reservations)),
		Total:        len(reservations),
	}
	for _, r := range reservations {
		resp.Reservations = append(resp.Reservations, *FromDomainReservation(r))
	}
	return resp
}

// ToDomainStatus проверяет и конвертирует статус из строки
func ToDomainStatus(status string) (domain.ReservationStatus, bool) {
	switch s := domain.ReservationStatus(status); s {
	case domain.ReservationHeld, domain.ReservationConfirmed, domain.ReservationCompleted, domain.ReservationCancelled:
		return s, true
	}
	return "", false
}

// Validate проверяет, что участник задан ровно одним способом
func (p ParticipantInput) Validate() error {
	if p.Identity != nil && p.Guest != nil {
		return errors.New("participant must have either identity or guest contact, not both")
	}
	if p.Identity == nil && p.Guest == nil {
		return errors.New("participant must have identity or guest contact")
	}
	if p.Identity != nil && *p.Identity <= 0 {
		return errors.New("participant identity must be positive")
	}
	if p.Guest != nil {
		if strings.TrimSpace(p.Guest.Name) == "" {
			return errors.New("guest name is required")
		}
		if _, err := mail.ParseAddress(p.Guest.Email); err != nil {
			return fmt.Errorf("guest email is invalid: %q", p.Guest.Email)
		}
	}
	return nil
}
