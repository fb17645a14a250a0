package invoices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
)

// ExpireHold отменяет счёт с истекшим удержанием и освобождает резервирование
// false, если счёт уже оплачен, отменен или дедлайн не наступил
func (s *Service) ExpireHold(ctx context.Context, id int64, now time.Time) (bool, error) {
	var expired bool

	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		expired = false

		inv, err := s.getInvoice(txCtx, "ExpireHold", id)
		if err != nil {
			return err
		}
		if !inv.HoldExpired(now) {
			s.logger.Info("ExpireHold: invoice id=%d has status=%s, skipping", id, inv.Status)
			return nil
		}

		expired, err = s.expireLocked(txCtx, inv, now)
		return err
	})
	if err != nil {
		return false, err
	}
	return expired, nil
}

// expireLocked отмена по таймауту оплаты; счёт уже заблокирован вызывающим
func (s *Service) expireLocked(ctx context.Context, inv *domain.Invoice, now time.Time) (bool, error) {
	err := s.cancelLocked(ctx, inv, domain.ReasonPaymentTimeout, nil)
	if errors.Is(err, ErrInvalidState) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := s.appendEvent(ctx, domain.EventInvoiceExpired, inv); err != nil {
		return false, err
	}

	s.logger.Info("expireLocked: invoice id=%d expired at %s, reservation=%v released",
		inv.ID, now.Format(time.RFC3339), inv.ReservationID)
	return true, nil
}

// MarkOverdue переводит неоплаченные счета доверенных плательщиков старше OverdueAfterDays в overdue
// Резервирование при этом не освобождается
func (s *Service) MarkOverdue(ctx context.Context, now time.Time, limit uint64) (int, error) {
	createdBefore := now.AddDate(0, 0, -s.cfg.OverdueAfterDays)

	var marked int
	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		marked = 0

		ids, err := s.invoiceRepo.MarkOverdue(txCtx, createdBefore, limit)
		if err != nil {
			return fmt.Errorf("%w: MarkOverdue - repository error: %w", ErrInternal, err)
		}

		for _, id := range ids {
			inv, err := s.getInvoice(txCtx, "MarkOverdue", id)
			if err != nil {
				return err
			}
			if err := s.appendEvent(txCtx, domain.EventInvoiceOverdue, inv); err != nil {
				return err
			}
		}
		marked = len(ids)
		return nil
	})
	if err != nil {
		s.logger.Error("MarkOverdue: %v", err)
		return 0, err
	}

	if marked > 0 {
		s.logger.Info("MarkOverdue: %d invoices created before %s are overdue", marked, createdBefore.Format(domain.DateFormat))
	}
	return marked, nil
}
