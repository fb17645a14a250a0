package invoices

import (
	"context"
	"database/sql"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
	invoiceRepo "github.com/m04kA/SMC-DrivingSchoolService/internal/infra/storage/invoice"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/service/reservations"
	"github.com/m04kA/SMC-DrivingSchoolService/pkg/dbmetrics"
	"github.com/m04kA/SMC-DrivingSchoolService/pkg/logger"
	"github.com/m04kA/SMC-DrivingSchoolService/pkg/ptr"
	"github.com/m04kA/SMC-DrivingSchoolService/pkg/txmanager"
)

type noopTx struct {
	dbmetrics.DBExecutor
}

func (noopTx) Commit() error   { return nil }
func (noopTx) Rollback() error { return nil }

type countingBeginner struct {
	begins int
}

func (b *countingBeginner) BeginTx(_ context.Context, _ *sql.TxOptions) (dbmetrics.TxExecutor, error) {
	b.begins++
	return noopTx{}, nil
}

// conflictingInvoices первое чтение счёта падает с ошибкой сериализации
type conflictingInvoices struct {
	*memory.InvoiceRepository
	failures   int
	onConflict func()
}

func (r *conflictingInvoices) GetByID(ctx context.Context, id int64) (*domain.Invoice, error) {
	if r.failures > 0 {
		r.failures--
		if r.onConflict != nil {
			r.onConflict()
		}
		return nil, &pq.Error{Code: "40001"}
	}
	return r.InvoiceRepository.GetByID(ctx, id)
}

func (f *fixture) withPostgresTx(repo *conflictingInvoices) (*Service, *countingBeginner) {
	beginner := &countingBeginner{}
	tm := txmanager.NewTransactionManager(beginner)
	outbox := memory.NewOutboxRepository(f.db)
	reservationSvc := reservations.NewService(f.reservations, outbox, tm, logger.NewNop()).WithTimeProvider(f.clock)

	svc := NewService(repo, f.reservations, reservationSvc, f.credits, outbox,
		f.students, f.checkout, tm, f.metrics,
		Config{HoldMinutes: 120, OverdueAfterDays: 14, Currency: "EUR"}, logger.NewNop()).
		WithTimeProvider(f.clock)
	return svc, beginner
}

func TestConfirmInstantMobile_RetriedAfterConcurrentDecline(t *testing.T) {
	f := newFixture()
	invoiceID, reservationID := f.createInvoice(t, nil)

	repo := &conflictingInvoices{InvoiceRepository: f.invoices, failures: 1}
	repo.onConflict = func() {
		status := domain.InvoiceCancelled
		reason := domain.ReasonStaffDecline
		updated, err := f.invoices.Update(f.ctx, invoiceID, []domain.InvoiceStatus{domain.InvoicePending},
			invoiceRepo.Update{Status: &status, CancellationReason: &reason})
		require.NoError(t, err)
		require.True(t, updated)
	}
	svc, beginner := f.withPostgresTx(repo)

	err := svc.ConfirmInstantMobile(f.ctx, invoiceID)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.NotErrorIs(t, err, ErrInternal)
	assert.Equal(t, 2, beginner.begins)

	assert.Equal(t, domain.InvoiceCancelled, f.invoice(t, invoiceID).Status)
	assert.Equal(t, domain.ReservationHeld, f.reservationStatus(t, reservationID))
	assert.Empty(t, f.metrics.settled)
}

func TestConfirmInstantMobile_RetriedToSuccess(t *testing.T) {
	f := newFixture()
	invoiceID, reservationID := f.createInvoice(t, ptr.Ptr(int64(7)))

	svc, beginner := f.withPostgresTx(&conflictingInvoices{InvoiceRepository: f.invoices, failures: 1})

	require.NoError(t, svc.ConfirmInstantMobile(f.ctx, invoiceID))
	assert.Equal(t, 2, beginner.begins)
	assert.Equal(t, domain.InvoicePaid, f.invoice(t, invoiceID).Status)
	assert.Equal(t, domain.ReservationConfirmed, f.reservationStatus(t, reservationID))
	assert.Equal(t, 1, f.metrics.settled["instant_mobile"])
}
