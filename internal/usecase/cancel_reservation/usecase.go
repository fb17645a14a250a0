package cancel_reservation

import (
	"context"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
)

// UseCase отмена резервирования вместе с его неоплаченным счётом
// Ошибки сервисов возвращаются как есть, чтобы handler различал их по тем же sentinel
type UseCase struct {
	reservations ReservationService
	invoices     InvoiceService
	txManager    TransactionManager
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(reservations ReservationService, invoices InvoiceService, txManager TransactionManager, logger Logger) *UseCase {
	return &UseCase{
		reservations: reservations,
		invoices:     invoices,
		txManager:    txManager,
		logger:       logger,
	}
}

// Cancel отмена сотрудником или системой
func (uc *UseCase) Cancel(ctx context.Context, id int64, reason domain.CancellationReason, cancelledBy *int64) error {
	return uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		if err := uc.reservations.Cancel(txCtx, id, reason, cancelledBy); err != nil {
			return err
		}
		return uc.invoices.CancelForReservation(txCtx, id, reason, cancelledBy)
	})
}

// CancelByCustomer отмена клиентом; доступ проверяет сервис резервирований
func (uc *UseCase) CancelByCustomer(ctx context.Context, id int64, identity int64) error {
	return uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		if err := uc.reservations.CancelByCustomer(txCtx, id, identity); err != nil {
			return err
		}
		return uc.invoices.CancelForReservation(txCtx, id, domain.ReasonCustomerCancel, &identity)
	})
}
