package create_reservation

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
	catalogClient "github.com/m04kA/SMC-DrivingSchoolService/internal/integrations/catalogservice"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/service/reservations/models"
)

// UseCase use case для создания резервирования
type UseCase struct {
	reservationRepo ReservationRepository
	outboxRepo      OutboxRepository
	resolver        AvailabilityResolver
	catalogClient   CatalogClient
	txManager       TransactionManager
	metrics         Metrics
	timeProvider    TimeProvider
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	reservationRepo ReservationRepository,
	outboxRepo OutboxRepository,
	resolver AvailabilityResolver,
	catalogClient CatalogClient,
	txManager TransactionManager,
	metrics Metrics,
	logger Logger,
) *UseCase {
	return &UseCase{
		reservationRepo: reservationRepo,
		outboxRepo:      outboxRepo,
		resolver:        resolver,
		catalogClient:   catalogClient,
		txManager:       txManager,
		metrics:         metrics,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// WithTimeProvider подменяет источник времени
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute выполняет use case создания резервирования
// Проверка окна и вставка выполняются в одной сериализуемой транзакции под блокировкой дня
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*models.ReservationResponse, error) {
	uc.logger.Info("CreateReservation: type=%s, lessonType=%d, date=%s, time=%s, participants=%d",
		req.ResourceType, req.LessonTypeID, req.Date.Format(domain.DateFormat), req.StartTime, len(req.Participants))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateReservation: validation failed: %v", err)
		return nil, err
	}

	// 2. Параметры типа занятия из каталога
	var lessonType *catalogClient.LessonType
	if req.LessonTypeID > 0 {
		lt, err := uc.catalogClient.GetLessonType(ctx, req.LessonTypeID)
		if err != nil {
			if errors.Is(err, catalogClient.ErrLessonTypeNotFound) {
				uc.logger.Warn("CreateReservation: lesson type id=%d not found", req.LessonTypeID)
				return nil, ErrLessonTypeNotFound
			}
			uc.logger.Error("CreateReservation: failed to get lesson type id=%d: %v", req.LessonTypeID, err)
			return nil, fmt.Errorf("%w: failed to get lesson type: %w", ErrInternal, err)
		}
		lessonType = lt
	}

	// 3. Значения по умолчанию и проверка вместимости
	params, err := resolveParams(req, lessonType)
	if err != nil {
		uc.logger.Warn("CreateReservation: %v", err)
		return nil, err
	}

	date := domain.DateOnly(req.Date)
	var result *domain.Reservation

	// 4. Проверка окна и вставка в сериализуемой транзакции
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 4.1. Блокируем день: конкурентные резервирования на эту дату ждут
		if err := uc.reservationRepo.LockDay(txCtx, date); err != nil {
			return fmt.Errorf("%w: failed to lock day: %w", ErrInternal, err)
		}

		// 4.2. Пересчитываем окна на момент фиксации
		windows, err := uc.resolver.GetAvailableWindows(txCtx, date, req.Identity)
		if err != nil {
			return fmt.Errorf("%w: failed to resolve windows: %w", ErrInternal, err)
		}

		window, ok := findWindow(windows, req.StartTime, params.end)
		if !ok {
			uc.logger.Warn("CreateReservation: %s %s-%s does not fit any of %d windows",
				date.Format(domain.DateFormat), req.StartTime, params.end, len(windows))
			return ErrSlotUnavailable
		}

		// 4.3. Буфер нового резервирования не должен задевать соседние
		if window.BufferMinutes > 0 {
			active, err := uc.reservationRepo.ListActiveByDate(txCtx, date)
			if err != nil {
				return fmt.Errorf("%w: failed to list reservations: %w", ErrInternal, err)
			}
			if conflictsWithBuffer(req.StartTime, params.end, window.BufferMinutes, active) {
				uc.logger.Warn("CreateReservation: buffer of %d minutes overlaps an active reservation", window.BufferMinutes)
				return ErrSlotUnavailable
			}
		}

		// 4.4. Создаем резервирование в статусе held
		participants := make([]*domain.Participant, 0, len(req.Participants))
		for _, p := range req.Participants {
			participants = append(participants, p.ToDomain())
		}

		created, err := uc.reservationRepo.Create(txCtx, &domain.Reservation{
			ResourceType:    params.resourceType,
			LessonTypeID:    req.LessonTypeID,
			ScheduledDate:   date,
			StartTime:       req.StartTime,
			EndTime:         params.end,
			DurationMinutes: params.durationMinutes,
			BufferMinutes:   window.BufferMinutes,
			Capacity:        params.capacity,
			SupervisorLimit: params.supervisorLimit,
			Participants:    participants,
			Status:          domain.ReservationHeld,
			CreatedBy:       req.Identity,
		})
		if err != nil {
			uc.logger.Error("CreateReservation: failed to create reservation: %v", err)
			return fmt.Errorf("%w: failed to create reservation: %w", ErrInternal, err)
		}

		// 4.5. Событие в outbox в той же транзакции
		event, err := domain.NewEvent(domain.EventReservationCreated, created.ID, nil,
			domain.NewReservationEventPayload(created), uc.timeProvider.Now())
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInternal, err)
		}
		if err := uc.outboxRepo.Append(txCtx, event); err != nil {
			return fmt.Errorf("%w: failed to append event: %w", ErrInternal, err)
		}

		result = created
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrSlotUnavailable) {
			uc.metrics.IncSlotConflict()
		}
		if errors.Is(err, ErrInternal) {
			uc.logger.Error("CreateReservation: %v", err)
		}
		return nil, err
	}

	uc.metrics.IncReservationCreated(string(result.ResourceType))
	uc.logger.Info("CreateReservation: successfully created reservation id=%d", result.ID)

	return models.FromDomainReservation(result), nil
}
