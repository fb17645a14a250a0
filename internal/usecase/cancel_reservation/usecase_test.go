package cancel_reservation

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/service/invoices"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/service/invoices/models"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/service/reservations"
	"github.com/m04kA/SMC-DrivingSchoolService/pkg/logger"
	"github.com/m04kA/SMC-DrivingSchoolService/pkg/ptr"
)

var now = time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)

type fixedTime struct{ now time.Time }

func (f fixedTime) Now() time.Time { return f.now }

type noStudents struct{}

func (noStudents) IsEnrolled(context.Context, int64) (bool, error) { return false, nil }

type nopMetrics struct{}

func (nopMetrics) IncInvoiceSettled(string) {}
func (nopMetrics) AddHoldsExpired(int)      {}

type fixture struct {
	ctx          context.Context
	reservations *memory.ReservationRepository
	invoices     *memory.InvoiceRepository
	invoiceSvc   *invoices.Service
	uc           *UseCase
}

func newFixture() *fixture {
	db := memory.NewDB()
	clock := fixedTime{now: now}
	db.SetClock(clock.Now)

	f := &fixture{
		ctx:          context.Background(),
		reservations: memory.NewReservationRepository(db),
		invoices:     memory.NewInvoiceRepository(db),
	}

	txManager := memory.NewTxManager(db)
	outbox := memory.NewOutboxRepository(db)
	reservationSvc := reservations.NewService(f.reservations, outbox, txManager, logger.NewNop()).WithTimeProvider(clock)
	f.invoiceSvc = invoices.NewService(f.invoices, f.reservations, reservationSvc, memory.NewCreditRepository(db), outbox,
		noStudents{}, nil, txManager, nopMetrics{},
		invoices.Config{HoldMinutes: 120, OverdueAfterDays: 14, Currency: "EUR"}, logger.NewNop()).
		WithTimeProvider(clock)

	f.uc = NewUseCase(reservationSvc, f.invoiceSvc, txManager, logger.NewNop())
	return f
}

// reservationWithInvoice резервирование клиента 7 и его неоплаченный счёт
func (f *fixture) reservationWithInvoice(t *testing.T) (int64, int64) {
	t.Helper()
	res, err := f.reservations.Create(f.ctx, &domain.Reservation{
		ResourceType: domain.ResourceLesson, ScheduledDate: now.AddDate(0, 0, 1),
		StartTime: "10:00", EndTime: "11:00", DurationMinutes: 60, Capacity: 1,
		Status:       domain.ReservationHeld,
		Participants: []*domain.Participant{{Identity: ptr.Ptr(int64(7))}},
		CreatedBy:    ptr.Ptr(int64(7)),
	})
	require.NoError(t, err)

	inv, err := f.invoiceSvc.CreateInvoice(f.ctx, &models.CreateInvoiceRequest{
		ReservationID: &res.ID,
		PayerIdentity: ptr.Ptr(int64(7)),
		PayerEmail:    ptr.Ptr("student@example.com"),
		LineItems:     []models.LineItemInput{{Description: "Driving lesson", Quantity: 1, UnitPrice: decimal.NewFromInt(450)}},
	})
	require.NoError(t, err)
	return res.ID, inv.ID
}

func (f *fixture) statuses(t *testing.T, reservationID, invoiceID int64) (domain.ReservationStatus, *domain.Invoice) {
	t.Helper()
	res, err := f.reservations.GetByID(f.ctx, reservationID)
	require.NoError(t, err)
	inv, err := f.invoices.GetByID(f.ctx, invoiceID)
	require.NoError(t, err)
	return res.Status, inv
}

func TestCancelByCustomer_CancelsPendingInvoice(t *testing.T) {
	f := newFixture()
	reservationID, invoiceID := f.reservationWithInvoice(t)

	require.NoError(t, f.uc.CancelByCustomer(f.ctx, reservationID, 7))

	status, inv := f.statuses(t, reservationID, invoiceID)
	assert.Equal(t, domain.ReservationCancelled, status)
	assert.Equal(t, domain.InvoiceCancelled, inv.Status)
	assert.Equal(t, domain.ReasonCustomerCancel, *inv.CancellationReason)

	// Оплатить счёт отмененного резервирования нельзя
	assert.ErrorIs(t, f.invoiceSvc.ConfirmInstantMobile(f.ctx, invoiceID), invoices.ErrInvalidState)
}

func TestCancel_StaffDeclineCancelsInvoice(t *testing.T) {
	f := newFixture()
	reservationID, invoiceID := f.reservationWithInvoice(t)

	require.NoError(t, f.uc.Cancel(f.ctx, reservationID, domain.ReasonStaffDecline, ptr.Ptr(int64(1))))
	require.NoError(t, f.uc.Cancel(f.ctx, reservationID, domain.ReasonStaffDecline, ptr.Ptr(int64(1))))

	status, inv := f.statuses(t, reservationID, invoiceID)
	assert.Equal(t, domain.ReservationCancelled, status)
	assert.Equal(t, domain.InvoiceCancelled, inv.Status)
	assert.Equal(t, domain.ReasonStaffDecline, *inv.CancellationReason)
}

func TestCancel_PaidInvoiceKept(t *testing.T) {
	f := newFixture()
	reservationID, invoiceID := f.reservationWithInvoice(t)
	require.NoError(t, f.invoiceSvc.ConfirmInstantMobile(f.ctx, invoiceID))

	require.NoError(t, f.uc.Cancel(f.ctx, reservationID, domain.ReasonStaffDecline, ptr.Ptr(int64(1))))

	status, inv := f.statuses(t, reservationID, invoiceID)
	assert.Equal(t, domain.ReservationCancelled, status)
	assert.Equal(t, domain.InvoicePaid, inv.Status)
}

func TestCancelByCustomer_ForeignReservationUntouched(t *testing.T) {
	f := newFixture()
	reservationID, invoiceID := f.reservationWithInvoice(t)

	err := f.uc.CancelByCustomer(f.ctx, reservationID, 8)
	assert.ErrorIs(t, err, reservations.ErrAccessDenied)

	status, inv := f.statuses(t, reservationID, invoiceID)
	assert.Equal(t, domain.ReservationHeld, status)
	assert.Equal(t, domain.InvoicePending, inv.Status)

	assert.ErrorIs(t, f.uc.CancelByCustomer(f.ctx, 999, 7), reservations.ErrReservationNotFound)
}
