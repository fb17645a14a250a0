package reservations

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
	reservationRepo "github.com/m04kA/SMC-DrivingSchoolService/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/service/reservations/models"
)

// Service сервис жизненного цикла резервирований: участники, подтверждение, отмена
type Service struct {
	reservationRepo ReservationRepository
	outboxRepo      OutboxRepository
	txManager       TransactionManager
	timeProvider    TimeProvider
	logger          Logger
}

// NewService создает новый экземпляр сервиса резервирований
func NewService(
	reservationRepo ReservationRepository,
	outboxRepo OutboxRepository,
	txManager TransactionManager,
	logger Logger,
) *Service {
	return &Service{
		reservationRepo: reservationRepo,
		outboxRepo:      outboxRepo,
		txManager:       txManager,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// WithTimeProvider подменяет источник времени
func (s *Service) WithTimeProvider(tp TimeProvider) *Service {
	s.timeProvider = tp
	return s
}

// GetByID возвращает резервирование
// Клиент видит только резервирования, где он участник или создатель; сотрудник видит все
func (s *Service) GetByID(ctx context.Context, id int64, identity *int64, isStaff bool) (*models.ReservationResponse, error) {
	s.logger.Info("GetByID: fetching reservation id=%d", id)

	reservation, err := s.getReservation(ctx, "GetByID", id)
	if err != nil {
		return nil, err
	}

	if !isStaff && !canAccess(reservation, identity) {
		s.logger.Warn("GetByID: access denied to reservation id=%d", id)
		return nil, ErrAccessDenied
	}

	return models.FromDomainReservation(reservation), nil
}

// ListByDate резервирования на дату (дневной вид для сотрудников)
func (s *Service) ListByDate(ctx context.Context, filter domain.ReservationsFilter) (*models.ReservationListResponse, error) {
	if filter.Date == nil {
		return nil, fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	s.logger.Info("ListByDate: date=%s, includeCancelled=%t", filter.Date.Format(domain.DateFormat), filter.IncludeCancelled)

	reservations, err := s.reservationRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("ListByDate: repository error: %v", err)
		return nil, fmt.Errorf("%w: ListByDate - repository error: %w", ErrInternal, err)
	}

	return models.FromDomainReservationList(reservations), nil
}

// ListByIdentity история резервирований клиента
func (s *Service) ListByIdentity(ctx context.Context, identity int64, status *domain.ReservationStatus) (*models.ReservationListResponse, error) {
	s.logger.Info("ListByIdentity: identity=%d, status=%v", identity, status)

	reservations, err := s.reservationRepo.List(ctx, domain.ReservationsFilter{
		Identity:         &identity,
		Status:           status,
		IncludeCancelled: true,
	})
	if err != nil {
		s.logger.Error("ListByIdentity: repository error for identity=%d: %v", identity, err)
		return nil, fmt.Errorf("%w: ListByIdentity - repository error: %w", ErrInternal, err)
	}

	return models.FromDomainReservationList(reservations), nil
}

// AddParticipant добавляет участника в резервирование (групповой курс)
func (s *Service) AddParticipant(ctx context.Context, reservationID int64, input models.ParticipantInput) (*models.ParticipantResponse, error) {
	s.logger.Info("AddParticipant: reservation id=%d, supervisor=%t", reservationID, input.IsSupervisor)

	if err := input.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	var result *domain.Participant
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		// 1. Блокируем строку резервирования
		reservation, err := s.getReservation(txCtx, "AddParticipant", reservationID)
		if err != nil {
			return err
		}

		// 2. Проверки статуса и вместимости
		if !reservation.IsActive() {
			s.logger.Warn("AddParticipant: reservation id=%d has status=%s", reservationID, reservation.Status)
			return ErrInvalidState
		}
		if err := checkSeat(reservation, input); err != nil {
			s.logger.Warn("AddParticipant: reservation id=%d: %v", reservationID, err)
			return err
		}

		// 3. Вставка участника и инкремент счетчика
		participant := input.ToDomain()
		participant.ReservationID = reservationID
		result, err = s.reservationRepo.AddParticipant(txCtx, participant)
		if err != nil {
			if errors.Is(err, reservationRepo.ErrCapacityExceeded) {
				return ErrCapacityExceeded
			}
			return fmt.Errorf("%w: AddParticipant - repository error: %w", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("AddParticipant: participant id=%d added to reservation id=%d", result.ID, reservationID)
	resp := models.FromDomainParticipant(result)
	return &resp, nil
}

// MoveParticipant переносит участника в другое резервирование
// Обе строки блокируются в порядке возрастания id
func (s *Service) MoveParticipant(ctx context.Context, participantID, targetID int64) error {
	s.logger.Info("MoveParticipant: participant id=%d to reservation id=%d", participantID, targetID)

	return s.txManager.Do(ctx, func(txCtx context.Context) error {
		participant, err := s.reservationRepo.GetParticipant(txCtx, participantID)
		if err != nil {
			if errors.Is(err, reservationRepo.ErrParticipantNotFound) {
				s.logger.Warn("MoveParticipant: participant id=%d not found", participantID)
				return ErrParticipantNotFound
			}
			return fmt.Errorf("%w: MoveParticipant - get participant: %w", ErrInternal, err)
		}
		sourceID := participant.ReservationID
		if sourceID == targetID {
			return fmt.Errorf("%w: participant already belongs to reservation %d", ErrInvalidInput, targetID)
		}

		firstID, secondID := sourceID, targetID
		if firstID > secondID {
			firstID, secondID = secondID, firstID
		}
		first, err := s.getReservation(txCtx, "MoveParticipant", firstID)
		if err != nil {
			return err
		}
		second, err := s.getReservation(txCtx, "MoveParticipant", secondID)
		if err != nil {
			return err
		}
		source, target := first, second
		if source.ID != sourceID {
			source, target = second, first
		}

		if !source.IsActive() || !target.IsActive() {
			s.logger.Warn("MoveParticipant: source status=%s, target status=%s", source.Status, target.Status)
			return ErrInvalidState
		}
		input := models.ParticipantInput{Identity: participant.Identity, IsSupervisor: participant.IsSupervisor}
		if participant.Guest != nil {
			input.Guest = &models.GuestInput{Name: participant.Guest.Name, Email: participant.Guest.Email}
		}
		if err := checkSeat(target, input); err != nil {
			s.logger.Warn("MoveParticipant: target reservation id=%d: %v", targetID, err)
			return err
		}

		if err := s.reservationRepo.MoveParticipant(txCtx, participantID, sourceID, targetID); err != nil {
			if errors.Is(err, reservationRepo.ErrCapacityExceeded) {
				return ErrCapacityExceeded
			}
			return fmt.Errorf("%w: MoveParticipant - repository error: %w", ErrInternal, err)
		}

		s.logger.Info("MoveParticipant: participant id=%d moved from id=%d to id=%d", participantID, sourceID, targetID)
		return nil
	})
}

// Cancel отменяет резервирование и освобождает время
// Повторная отмена ничего не делает; завершенное резервирование отменить нельзя
func (s *Service) Cancel(ctx context.Context, id int64, reason domain.CancellationReason, cancelledBy *int64) error {
	s.logger.Info("Cancel: reservation id=%d, reason=%s", id, reason)

	return s.txManager.Do(ctx, func(txCtx context.Context) error {
		reservation, err := s.getReservation(txCtx, "Cancel", id)
		if err != nil {
			return err
		}
		return s.cancelLocked(txCtx, reservation, reason, cancelledBy)
	})
}

// CancelByCustomer отмена клиентом: разрешена только участнику или создателю
func (s *Service) CancelByCustomer(ctx context.Context, id int64, identity int64) error {
	s.logger.Info("CancelByCustomer: reservation id=%d by identity=%d", id, identity)

	return s.txManager.Do(ctx, func(txCtx context.Context) error {
		reservation, err := s.getReservation(txCtx, "CancelByCustomer", id)
		if err != nil {
			return err
		}
		if !canAccess(reservation, &identity) {
			s.logger.Warn("CancelByCustomer: identity=%d has no access to reservation id=%d", identity, id)
			return ErrAccessDenied
		}
		return s.cancelLocked(txCtx, reservation, domain.ReasonCustomerCancel, &identity)
	})
}

// Confirm переводит held -> confirmed; повторное подтверждение ничего не делает
func (s *Service) Confirm(ctx context.Context, id int64) error {
	return s.transition(ctx, "Confirm", id, domain.ReservationHeld, domain.ReservationConfirmed, domain.EventReservationConfirmed)
}

// Complete переводит confirmed -> completed после проведения занятия
func (s *Service) Complete(ctx context.Context, id int64) error {
	return s.transition(ctx, "Complete", id, domain.ReservationConfirmed, domain.ReservationCompleted, domain.EventReservationCompleted)
}

func (s *Service) transition(ctx context.Context, op string, id int64, from, to domain.ReservationStatus, eventType domain.EventType) error {
	s.logger.Info("%s: reservation id=%d", op, id)

	return s.txManager.Do(ctx, func(txCtx context.Context) error {
		reservation, err := s.getReservation(txCtx, op, id)
		if err != nil {
			return err
		}
		if reservation.Status == to {
			return nil
		}
		if reservation.Status != from {
			s.logger.Warn("%s: reservation id=%d has status=%s", op, id, reservation.Status)
			return ErrInvalidState
		}

		updated, err := s.reservationRepo.UpdateStatus(txCtx, id, []domain.ReservationStatus{from}, to)
		if err != nil {
			return fmt.Errorf("%w: %s - update status: %w", ErrInternal, op, err)
		}
		if !updated {
			return ErrInvalidState
		}

		reservation.Status = to
		return s.appendEvent(txCtx, eventType, reservation)
	})
}

func (s *Service) cancelLocked(ctx context.Context, reservation *domain.Reservation, reason domain.CancellationReason, cancelledBy *int64) error {
	switch reservation.Status {
	case domain.ReservationCancelled:
		s.logger.Info("Cancel: reservation id=%d already cancelled", reservation.ID)
		return nil
	case domain.ReservationCompleted:
		s.logger.Warn("Cancel: reservation id=%d is completed", reservation.ID)
		return ErrInvalidState
	}

	now := s.timeProvider.Now()
	cancelled, err := s.reservationRepo.Cancel(ctx, reservation.ID, reason, cancelledBy, now)
	if err != nil {
		return fmt.Errorf("%w: Cancel - repository error: %w", ErrInternal, err)
	}
	if !cancelled {
		return ErrInvalidState
	}

	reservation.Status = domain.ReservationCancelled
	reservation.CancellationReason = &reason
	reservation.CancelledBy = cancelledBy
	reservation.CancelledAt = &now
	if err := s.appendEvent(ctx, domain.EventReservationCancelled, reservation); err != nil {
		return err
	}

	s.logger.Info("Cancel: reservation id=%d cancelled, reason=%s", reservation.ID, reason)
	return nil
}

func (s *Service) appendEvent(ctx context.Context, eventType domain.EventType, reservation *domain.Reservation) error {
	event, err := domain.NewEvent(eventType, reservation.ID, reservation.CancellationReason,
		domain.NewReservationEventPayload(reservation), s.timeProvider.Now())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}
	if err := s.outboxRepo.Append(ctx, event); err != nil {
		s.logger.Error("appendEvent: failed to append %s for reservation id=%d: %v", eventType, reservation.ID, err)
		return fmt.Errorf("%w: append event: %w", ErrInternal, err)
	}
	return nil
}

func (s *Service) getReservation(ctx context.Context, op string, id int64) (*domain.Reservation, error) {
	reservation, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, reservationRepo.ErrReservationNotFound) {
			s.logger.Warn("%s: reservation id=%d not found", op, id)
			return nil, ErrReservationNotFound
		}
		s.logger.Error("%s: repository error for reservation id=%d: %v", op, id, err)
		return nil, fmt.Errorf("%w: %s - repository error: %w", ErrInternal, op, err)
	}
	return reservation, nil
}

// checkSeat проверяет вместимость, лимит сопровождающих и дубль identity
func checkSeat(reservation *domain.Reservation, input models.ParticipantInput) error {
	if input.Identity != nil && reservation.IsIdentityParticipant(*input.Identity) {
		return ErrAlreadyParticipant
	}
	if !reservation.HasFreeSeat() {
		return ErrCapacityExceeded
	}
	if input.IsSupervisor && !reservation.CanAddSupervisor() {
		return ErrCapacityExceeded
	}
	return nil
}

func canAccess(reservation *domain.Reservation, identity *int64) bool {
	if identity == nil {
		return false
	}
	if reservation.CreatedBy != nil && *reservation.CreatedBy == *identity {
		return true
	}
	return reservation.IsIdentityParticipant(*identity)
}
