package publish_events

import (
	"context"
	"fmt"
	"time"
)

// DefaultBatchSize максимум событий за один проход
const DefaultBatchSize = 100

// RealTimeProvider реальное время
type RealTimeProvider struct{}

func (RealTimeProvider) Now() time.Time {
	return time.Now().UTC()
}

// UseCase реле outbox: публикует накопленные события и помечает их отправленными
type UseCase struct {
	outbox       OutboxRepository
	publisher    Publisher
	txManager    TransactionManager
	metrics      Metrics
	batchSize    uint64
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	outbox OutboxRepository,
	publisher Publisher,
	txManager TransactionManager,
	metrics Metrics,
	batchSize int,
	logger Logger,
) *UseCase {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &UseCase{
		outbox:       outbox,
		publisher:    publisher,
		txManager:    txManager,
		metrics:      metrics,
		batchSize:    uint64(batchSize),
		timeProvider: RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider устанавливает провайдер времени
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute публикует одну пачку событий в порядке возникновения и возвращает число опубликованных
// Доставка at-least-once: при сбое после Publish событие уйдет повторно
func (uc *UseCase) Execute(ctx context.Context) (int, error) {
	var published []string
	var publishErr error

	err := uc.txManager.Do(ctx, func(txCtx context.Context) error {
		published, publishErr = nil, nil

		// 1. Забираем неопубликованные события, строки остаются заблокированными до конца транзакции
		events, err := uc.outbox.ListUnpublished(txCtx, uc.batchSize)
		if err != nil {
			return fmt.Errorf("%w: ListUnpublished - repository error: %w", ErrInternal, err)
		}

		// 2. Публикуем до первой ошибки, чтобы не нарушить порядок
		for _, event := range events {
			if err := uc.publisher.Publish(txCtx, event); err != nil {
				publishErr = err
				uc.logger.Warn("PublishEvents: failed to publish event id=%s, type=%s: %v", event.ID, event.Type, err)
				break
			}
			published = append(published, event.ID)
			uc.metrics.IncEventPublished(string(event.Type))
		}

		if len(published) == 0 {
			return nil
		}

		// 3. Отмечаем отправленные
		if err := uc.outbox.MarkPublished(txCtx, published, uc.timeProvider.Now()); err != nil {
			return fmt.Errorf("%w: MarkPublished - repository error: %w", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		uc.logger.Error("PublishEvents: %v", err)
		return 0, err
	}

	if len(published) > 0 {
		uc.logger.Info("PublishEvents: published %d events", len(published))
	}
	if publishErr != nil {
		return len(published), fmt.Errorf("%w: publish: %w", ErrInternal, publishErr)
	}
	return len(published), nil
}
