package invoices

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
	invoiceRepo "github.com/m04kA/SMC-DrivingSchoolService/internal/infra/storage/invoice"
	reservationRepo "github.com/m04kA/SMC-DrivingSchoolService/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/integrations/checkout"
	reservationsService "github.com/m04kA/SMC-DrivingSchoolService/internal/service/reservations"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/service/invoices/models"
)

var payableStatuses = []domain.InvoiceStatus{domain.InvoicePending, domain.InvoiceOverdue}

// mutateFunc операция над заблокированным счётом; возвращает способ оплаты, если счёт стал paid
type mutateFunc func(ctx context.Context, inv *domain.Invoice, now time.Time) (domain.SettlementMethod, error)

// guard проверки перед операцией над счётом
type guard uint8

const (
	// guardHold истекшее удержание отменяет счёт вместо операции
	guardHold guard = 1 << iota
	// guardReservation счёт отмененного резервирования отменяется вместо оплаты
	guardReservation
)

// mutate блокирует счёт и выполняет fn в сериализуемой транзакции
// Сработавшая проверка фиксирует отмену счёта и возвращает ошибку уже после коммита
func (s *Service) mutate(ctx context.Context, op string, id int64, guards guard, fn mutateFunc) error {
	var (
		lapsed   bool
		released bool
		settled  domain.SettlementMethod
	)

	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		lapsed, released, settled = false, false, ""

		inv, err := s.getInvoice(txCtx, op, id)
		if err != nil {
			return err
		}

		now := s.timeProvider.Now()
		if guards&guardHold != 0 && inv.HoldExpired(now) {
			s.logger.Warn("%s: payment hold of invoice id=%d expired at %s", op, id, inv.PaymentHoldDeadline.Format(time.RFC3339))
			if _, err := s.expireLocked(txCtx, inv, now); err != nil {
				return err
			}
			lapsed = true
			return nil
		}

		if guards&guardReservation != 0 {
			released, err = s.releaseIfOrphaned(txCtx, op, inv)
			if err != nil || released {
				return err
			}
		}

		settled, err = fn(txCtx, inv, now)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrInternal) {
			s.logger.Error("%s: invoice id=%d: %v", op, id, err)
		}
		return err
	}

	if lapsed {
		s.metrics.AddHoldsExpired(1)
		return ErrPaymentHoldExpired
	}
	if released {
		return fmt.Errorf("%w: reservation of invoice %d is cancelled", ErrInvalidState, id)
	}
	if settled != "" {
		s.metrics.IncInvoiceSettled(string(settled))
		s.logger.Info("%s: invoice id=%d paid via %s", op, id, settled)
	}
	return nil
}

// releaseIfOrphaned отменяет ещё не оплаченный счёт, если его резервирование уже отменено
func (s *Service) releaseIfOrphaned(ctx context.Context, op string, inv *domain.Invoice) (bool, error) {
	if inv.ReservationID == nil || !inv.CanBePaid() {
		return false, nil
	}

	reservation, err := s.reservationRepo.GetByID(ctx, *inv.ReservationID)
	if err != nil {
		if errors.Is(err, reservationRepo.ErrReservationNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %s - get reservation: %w", ErrInternal, op, err)
	}
	if reservation.Status != domain.ReservationCancelled {
		return false, nil
	}

	s.logger.Warn("%s: reservation id=%d of invoice id=%d is cancelled, invoice is cancelled too", op, reservation.ID, inv.ID)
	reason := domain.ReasonCustomerCancel
	if reservation.CancellationReason != nil {
		reason = *reservation.CancellationReason
	}
	if err := s.cancelLocked(ctx, inv, reason, nil); err != nil {
		return false, err
	}
	return true, s.appendEvent(ctx, domain.EventInvoiceDeclined, inv)
}

// CancelForReservation отменяет неоплаченный счёт резервирования; вызывается в транзакции отмены резервирования
// Оплаченный счёт не трогаем: возврат денег выполняется вне сервиса
func (s *Service) CancelForReservation(ctx context.Context, reservationID int64, reason domain.CancellationReason, cancelledBy *int64) error {
	return s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		inv, err := s.invoiceRepo.GetActiveByReservation(txCtx, reservationID)
		if err != nil {
			if errors.Is(err, invoiceRepo.ErrInvoiceNotFound) {
				return nil
			}
			return fmt.Errorf("%w: CancelForReservation - get active invoice: %w", ErrInternal, err)
		}
		if inv.Status == domain.InvoicePaid {
			s.logger.Warn("CancelForReservation: invoice id=%d of reservation id=%d is paid, refund required", inv.ID, reservationID)
			return nil
		}

		if err := s.cancelLocked(txCtx, inv, reason, cancelledBy); err != nil {
			return err
		}
		s.logger.Info("CancelForReservation: invoice id=%d cancelled with reservation id=%d (%s)", inv.ID, reservationID, reason)
		return s.appendEvent(txCtx, domain.EventInvoiceDeclined, inv)
	})
}

// ConfirmInstantMobile ручное подтверждение мобильного платежа сотрудником
// Деньги уже получены, поэтому дедлайн удержания не проверяется: побеждает первый переход
func (s *Service) ConfirmInstantMobile(ctx context.Context, id int64) error {
	s.logger.Info("ConfirmInstantMobile: invoice id=%d", id)

	return s.mutate(ctx, "ConfirmInstantMobile", id, guardReservation, func(txCtx context.Context, inv *domain.Invoice, now time.Time) (domain.SettlementMethod, error) {
		switch inv.Status {
		case domain.InvoicePaid:
			return "", nil
		case domain.InvoicePending, domain.InvoiceOverdue:
			return domain.MethodInstantMobile, s.markPaid(txCtx, inv, domain.MethodInstantMobile, now, invoiceRepo.Update{})
		default:
			s.logger.Warn("ConfirmInstantMobile: invoice id=%d has status=%s", inv.ID, inv.Status)
			return "", ErrInvalidState
		}
	})
}

// ConfirmOnLocation подтверждение оплаты на месте; счёт должен быть переведен в on_location
func (s *Service) ConfirmOnLocation(ctx context.Context, id int64) error {
	s.logger.Info("ConfirmOnLocation: invoice id=%d", id)

	return s.mutate(ctx, "ConfirmOnLocation", id, guardReservation, func(txCtx context.Context, inv *domain.Invoice, now time.Time) (domain.SettlementMethod, error) {
		if inv.Status == domain.InvoicePaid {
			return "", nil
		}
		if inv.SettlementMethod != domain.MethodOnLocation || !inv.CanBePaid() {
			s.logger.Warn("ConfirmOnLocation: invoice id=%d has status=%s, method=%s", inv.ID, inv.Status, inv.SettlementMethod)
			return "", ErrInvalidState
		}
		return domain.MethodOnLocation, s.markPaid(txCtx, inv, domain.MethodOnLocation, now, invoiceRepo.Update{})
	})
}

// BeginHostedCheckout создает checkout-сессию и возвращает ссылку на оплату
// Внешний вызов выполняется вне транзакции; сессия сохраняется условным обновлением
func (s *Service) BeginHostedCheckout(ctx context.Context, id int64) (*models.CheckoutResponse, error) {
	s.logger.Info("BeginHostedCheckout: invoice id=%d", id)

	if s.checkoutClient == nil {
		return nil, ErrCheckoutUnavailable
	}

	// 1. Проверяем счёт и дедлайн удержания
	var snapshot *domain.Invoice
	err := s.mutate(ctx, "BeginHostedCheckout", id, guardHold|guardReservation, func(_ context.Context, inv *domain.Invoice, _ time.Time) (domain.SettlementMethod, error) {
		if !inv.CanBePaid() {
			s.logger.Warn("BeginHostedCheckout: invoice id=%d has status=%s", inv.ID, inv.Status)
			return "", ErrInvalidState
		}
		snapshot = inv
		return "", nil
	})
	if err != nil {
		return nil, err
	}

	// 2. Создаем сессию во внешнем checkout
	session, err := s.checkoutClient.CreateSession(ctx, checkout.SessionRequest{
		InvoiceID:  snapshot.ID,
		Currency:   snapshot.Currency,
		PayerEmail: snapshot.PayerEmail,
		LineItems:  snapshot.LineItems,
		HoldUntil:  snapshot.PaymentHoldDeadline,
	})
	if err != nil {
		s.logger.Error("BeginHostedCheckout: failed to create session for invoice id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: %v", ErrCheckoutUnavailable, err)
	}

	// 3. Сохраняем сессию, если счёт всё ещё ожидает оплаты
	method := domain.MethodHostedCheckout
	err = s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		updated, err := s.invoiceRepo.Update(txCtx, id, payableStatuses, invoiceRepo.Update{
			SettlementMethod:  &method,
			CheckoutSessionID: &session.ID,
		})
		if err != nil {
			return fmt.Errorf("%w: BeginHostedCheckout - update: %w", ErrInternal, err)
		}
		if !updated {
			return ErrInvalidState
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("BeginHostedCheckout: failed to store session %s for invoice id=%d: %v", session.ID, id, err)
		return nil, err
	}

	s.logger.Info("BeginHostedCheckout: invoice id=%d, session=%s", id, session.ID)
	return &models.CheckoutResponse{
		InvoiceID:   id,
		SessionID:   session.ID,
		RedirectURL: session.RedirectURL,
		ExpiresAt:   session.ExpiresAt,
	}, nil
}

// ReconcileHostedCheckout применяет результат внешнего checkout; безопасен при повторной доставке
// Оплата, подтвержденная шлюзом, засчитывается даже после дедлайна, если счёт ещё не отменен
func (s *Service) ReconcileHostedCheckout(ctx context.Context, id int64, status domain.CheckoutStatus) error {
	s.logger.Info("ReconcileHostedCheckout: invoice id=%d, status=%s", id, status)

	switch status {
	case domain.CheckoutPaid, domain.CheckoutFailed:
	case domain.CheckoutOpen:
		return nil
	default:
		return fmt.Errorf("%w: unknown checkout status %q", ErrInvalidInput, status)
	}

	err := s.mutate(ctx, "ReconcileHostedCheckout", id, guardReservation, func(txCtx context.Context, inv *domain.Invoice, now time.Time) (domain.SettlementMethod, error) {
		if status == domain.CheckoutFailed {
			return "", s.markFailed(txCtx, inv)
		}

		switch inv.Status {
		case domain.InvoicePending, domain.InvoiceOverdue:
			return domain.MethodHostedCheckout, s.markPaid(txCtx, inv, domain.MethodHostedCheckout, now, invoiceRepo.Update{})
		case domain.InvoiceCancelled:
			s.logger.Error("ReconcileHostedCheckout: payment received for cancelled invoice id=%d, refund required", inv.ID)
		case domain.InvoiceError:
			s.logger.Warn("ReconcileHostedCheckout: payment received for invoice id=%d in error state", inv.ID)
		}
		return "", nil
	})
	if status == domain.CheckoutPaid && errors.Is(err, ErrInvalidState) {
		s.logger.Error("ReconcileHostedCheckout: payment received for invoice id=%d that cannot be settled, refund required", id)
	}
	return err
}

// ReconcileCheckoutSession то же, что ReconcileHostedCheckout, но по идентификатору сессии
func (s *Service) ReconcileCheckoutSession(ctx context.Context, sessionID string, status domain.CheckoutStatus) error {
	inv, err := s.invoiceRepo.GetByCheckoutSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, invoiceRepo.ErrInvoiceNotFound) {
			s.logger.Warn("ReconcileCheckoutSession: no invoice for session %s", sessionID)
			return ErrInvoiceNotFound
		}
		return fmt.Errorf("%w: ReconcileCheckoutSession - repository error: %w", ErrInternal, err)
	}
	return s.ReconcileHostedCheckout(ctx, inv.ID, status)
}

// SettleWithStoredCredit списывает одну единицу пакета плательщика и оплачивает счёт одной транзакцией
func (s *Service) SettleWithStoredCredit(ctx context.Context, id int64, creditRef string) error {
	s.logger.Info("SettleWithStoredCredit: invoice id=%d, credit=%s", id, creditRef)

	creditRef = strings.TrimSpace(creditRef)
	if creditRef == "" {
		return fmt.Errorf("%w: creditRef is required", ErrInvalidInput)
	}

	return s.mutate(ctx, "SettleWithStoredCredit", id, guardHold|guardReservation, func(txCtx context.Context, inv *domain.Invoice, now time.Time) (domain.SettlementMethod, error) {
		if inv.Status == domain.InvoicePaid && inv.CreditRef != nil && *inv.CreditRef == creditRef {
			return "", nil
		}
		if !inv.CanBePaid() {
			s.logger.Warn("SettleWithStoredCredit: invoice id=%d has status=%s", inv.ID, inv.Status)
			return "", ErrInvalidState
		}
		if inv.PayerIdentity == nil {
			return "", fmt.Errorf("%w: stored credit requires an identified payer", ErrInvalidInput)
		}

		debited, err := s.creditRepo.Debit(txCtx, creditRef, *inv.PayerIdentity)
		if err != nil {
			return "", fmt.Errorf("%w: SettleWithStoredCredit - debit: %w", ErrInternal, err)
		}
		if !debited {
			s.logger.Warn("SettleWithStoredCredit: credit %s of payer=%d is exhausted or missing", creditRef, *inv.PayerIdentity)
			return "", ErrInsufficientCredit
		}

		return domain.MethodStoredCredit, s.markPaid(txCtx, inv, domain.MethodStoredCredit, now, invoiceRepo.Update{CreditRef: &creditRef})
	})
}

// MarkPayOnLocation откладывает оплату до занятия: снимает дедлайн и подтверждает резервирование
// Статус счёта остается pending
func (s *Service) MarkPayOnLocation(ctx context.Context, id int64) error {
	s.logger.Info("MarkPayOnLocation: invoice id=%d", id)

	return s.mutate(ctx, "MarkPayOnLocation", id, guardHold|guardReservation, func(txCtx context.Context, inv *domain.Invoice, _ time.Time) (domain.SettlementMethod, error) {
		if inv.Status != domain.InvoicePending {
			s.logger.Warn("MarkPayOnLocation: invoice id=%d has status=%s", inv.ID, inv.Status)
			return "", ErrInvalidState
		}
		if inv.SettlementMethod == domain.MethodOnLocation {
			return "", nil
		}

		method := domain.MethodOnLocation
		updated, err := s.invoiceRepo.Update(txCtx, inv.ID, []domain.InvoiceStatus{domain.InvoicePending}, invoiceRepo.Update{
			SettlementMethod:  &method,
			ClearHoldDeadline: true,
		})
		if err != nil {
			return "", fmt.Errorf("%w: MarkPayOnLocation - update: %w", ErrInternal, err)
		}
		if !updated {
			return "", ErrInvalidState
		}

		if inv.ReservationID != nil {
			return "", s.confirmReservation(txCtx, *inv.ReservationID)
		}
		return "", nil
	})
}

// Decline отказ сотрудника: отменяет счёт и резервирование с причиной staff_decline
func (s *Service) Decline(ctx context.Context, id int64, declinedBy *int64) error {
	s.logger.Info("Decline: invoice id=%d", id)

	return s.mutate(ctx, "Decline", id, 0, func(txCtx context.Context, inv *domain.Invoice, _ time.Time) (domain.SettlementMethod, error) {
		switch inv.Status {
		case domain.InvoiceCancelled:
			return "", nil
		case domain.InvoicePaid:
			s.logger.Warn("Decline: invoice id=%d is already paid", inv.ID)
			return "", ErrInvalidState
		}

		if err := s.cancelLocked(txCtx, inv, domain.ReasonStaffDecline, declinedBy); err != nil {
			return "", err
		}
		return "", s.appendEvent(txCtx, domain.EventInvoiceDeclined, inv)
	})
}

// markPaid условный переход pending|overdue -> paid и подтверждение резервирования
func (s *Service) markPaid(ctx context.Context, inv *domain.Invoice, method domain.SettlementMethod, now time.Time, upd invoiceRepo.Update) error {
	status := domain.InvoicePaid
	upd.Status = &status
	upd.SettlementMethod = &method
	upd.PaidAt = &now
	upd.ClearHoldDeadline = true

	updated, err := s.invoiceRepo.Update(ctx, inv.ID, payableStatuses, upd)
	if err != nil {
		return fmt.Errorf("%w: markPaid - update: %w", ErrInternal, err)
	}
	if !updated {
		return ErrInvalidState
	}

	inv.Status = domain.InvoicePaid
	inv.SettlementMethod = method
	inv.PaidAt = &now
	inv.PaymentHoldDeadline = nil

	if inv.ReservationID != nil {
		if err := s.confirmReservation(ctx, *inv.ReservationID); err != nil {
			return err
		}
	}
	return s.appendEvent(ctx, domain.EventInvoicePaid, inv)
}

// markFailed pending -> error; повторный вызов ничего не делает
func (s *Service) markFailed(ctx context.Context, inv *domain.Invoice) error {
	if inv.Status != domain.InvoicePending {
		return nil
	}

	status := domain.InvoiceError
	updated, err := s.invoiceRepo.Update(ctx, inv.ID, []domain.InvoiceStatus{domain.InvoicePending}, invoiceRepo.Update{Status: &status})
	if err != nil {
		return fmt.Errorf("%w: markFailed - update: %w", ErrInternal, err)
	}
	if !updated {
		return nil
	}

	inv.Status = domain.InvoiceError
	s.logger.Warn("markFailed: checkout failed for invoice id=%d", inv.ID)
	return s.appendEvent(ctx, domain.EventInvoiceFailed, inv)
}

// cancelLocked отменяет счёт и связанное резервирование
func (s *Service) cancelLocked(ctx context.Context, inv *domain.Invoice, reason domain.CancellationReason, cancelledBy *int64) error {
	status := domain.InvoiceCancelled
	updated, err := s.invoiceRepo.Update(ctx, inv.ID,
		[]domain.InvoiceStatus{domain.InvoicePending, domain.InvoiceOverdue, domain.InvoiceError},
		invoiceRepo.Update{Status: &status, CancellationReason: &reason})
	if err != nil {
		return fmt.Errorf("%w: cancel invoice: %w", ErrInternal, err)
	}
	if !updated {
		return ErrInvalidState
	}

	inv.Status = domain.InvoiceCancelled
	inv.CancellationReason = &reason

	if inv.ReservationID == nil {
		return nil
	}
	err = s.reservations.Cancel(ctx, *inv.ReservationID, reason, cancelledBy)
	if errors.Is(err, reservationsService.ErrInvalidState) || errors.Is(err, reservationsService.ErrReservationNotFound) {
		s.logger.Warn("cancelLocked: reservation id=%d of invoice id=%d not cancelled: %v", *inv.ReservationID, inv.ID, err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: cancel reservation: %w", ErrInternal, err)
	}
	return nil
}

// confirmReservation held -> confirmed; отмененное или завершенное резервирование оставляем как есть
func (s *Service) confirmReservation(ctx context.Context, reservationID int64) error {
	err := s.reservations.Confirm(ctx, reservationID)
	if errors.Is(err, reservationsService.ErrInvalidState) || errors.Is(err, reservationsService.ErrReservationNotFound) {
		s.logger.Warn("confirmReservation: reservation id=%d not confirmed: %v", reservationID, err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: confirm reservation: %w", ErrInternal, err)
	}
	return nil
}
