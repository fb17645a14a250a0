package sweep_expired_holds

import (
	"context"
	"errors"
	"fmt"
	"time"

	invoiceRepo "github.com/m04kA/SMC-DrivingSchoolService/internal/infra/storage/invoice"
)

// DefaultBatchSize максимум счетов за один проход
const DefaultBatchSize = 100

// UseCase отмена счетов с истекшим удержанием и освобождение их резервирований
type UseCase struct {
	invoiceRepo    InvoiceRepository
	invoiceService InvoiceService
	txManager      TransactionManager
	metrics        Metrics
	batchSize      int
	logger         Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	invoiceRepo InvoiceRepository,
	invoiceService InvoiceService,
	txManager TransactionManager,
	metrics Metrics,
	batchSize int,
	logger Logger,
) *UseCase {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &UseCase{
		invoiceRepo:    invoiceRepo,
		invoiceService: invoiceService,
		txManager:      txManager,
		metrics:        metrics,
		batchSize:      batchSize,
		logger:         logger,
	}
}

// Execute отменяет до batchSize просроченных удержаний, каждое в своей транзакции
// Безопасен при параллельном запуске: занятые строки пропускаются
func (uc *UseCase) Execute(ctx context.Context, now time.Time) (*Result, error) {
	result := &Result{}
	seen := make(map[int64]bool, uc.batchSize)

	for i := 0; i < uc.batchSize; i++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		var (
			claimedID int64
			expired   bool
		)
		err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
			claimedID, expired = 0, false

			// 1. Берем следующий просроченный счёт, пропуская заблокированные
			inv, err := uc.invoiceRepo.ClaimDueHold(txCtx, now)
			if err != nil {
				return err
			}
			claimedID = inv.ID
			if seen[inv.ID] {
				return nil
			}

			// 2. Отменяем счёт и резервирование в той же транзакции
			expired, err = uc.invoiceService.ExpireHold(txCtx, inv.ID, now)
			return err
		})
		if errors.Is(err, invoiceRepo.ErrInvoiceNotFound) {
			break
		}
		if err != nil {
			uc.logger.Error("SweepExpiredHolds: failed on invoice id=%d: %v", claimedID, err)
			uc.metrics.AddHoldsExpired(result.Expired)
			return result, fmt.Errorf("%w: invoice %d: %w", ErrInternal, claimedID, err)
		}
		if seen[claimedID] {
			break
		}
		seen[claimedID] = true

		if expired {
			result.Expired++
		} else {
			result.Skipped++
		}
	}

	uc.metrics.AddHoldsExpired(result.Expired)
	if result.Expired > 0 || result.Skipped > 0 {
		uc.logger.Info("SweepExpiredHolds: expired=%d, skipped=%d", result.Expired, result.Skipped)
	}
	return result, nil
}

// MarkOverdue помечает давно неоплаченные счета доверенных плательщиков
func (uc *UseCase) MarkOverdue(ctx context.Context, now time.Time) (int, error) {
	return uc.invoiceService.MarkOverdue(ctx, now, uint64(uc.batchSize))
}
