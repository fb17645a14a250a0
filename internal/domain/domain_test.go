package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/m04kA/SMC-DrivingSchoolService/pkg/ptr"
)

func TestInvoice_HoldExpired(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	deadline := now.Add(2 * time.Hour)

	inv := &Invoice{Status: InvoicePending, PaymentHoldDeadline: &deadline}
	assert.True(t, inv.HasPaymentHold())
	assert.False(t, inv.HoldExpired(now))
	assert.True(t, inv.HoldExpired(deadline))
	assert.True(t, inv.HoldExpired(deadline.Add(time.Minute)))

	trusted := &Invoice{Status: InvoicePending}
	assert.False(t, trusted.HasPaymentHold())
	assert.False(t, trusted.HoldExpired(now.Add(1000*time.Hour)))

	paid := &Invoice{Status: InvoicePaid, PaymentHoldDeadline: &deadline}
	assert.False(t, paid.HoldExpired(deadline.Add(time.Hour)))
}

func TestSumLineItems(t *testing.T) {
	items := []LineItem{
		{Description: "Lesson", Quantity: 2, UnitPrice: decimal.RequireFromString("200.00")},
		{Description: "Extra supervisor", Quantity: 1, UnitPrice: decimal.RequireFromString("100.50")},
	}

	assert.True(t, decimal.RequireFromString("500.50").Equal(SumLineItems(items)))
	assert.True(t, SumLineItems(nil).IsZero())
}

func TestReservation_Participants(t *testing.T) {
	r := &Reservation{
		Capacity:                4,
		SupervisorLimit:         1,
		CurrentParticipantCount: 2,
		Participants: []*Participant{
			{Identity: ptr.Ptr(int64(7))},
			{Guest: &GuestContact{Name: "Anna"}, IsSupervisor: true},
		},
		StartTime:     "10:00",
		EndTime:       "11:00",
		BufferMinutes: 15,
	}

	assert.Equal(t, 1, r.SupervisorCount())
	assert.False(t, r.CanAddSupervisor())
	assert.True(t, r.HasFreeSeat())
	assert.True(t, r.IsIdentityParticipant(7))
	assert.False(t, r.IsIdentityParticipant(8))

	start, end := r.BlockedSpan()
	assert.Equal(t, 9*60+45, start)
	assert.Equal(t, 11*60+15, end)
}

func TestExtraWindow_VisibleTo(t *testing.T) {
	open := &ExtraWindow{}
	assert.True(t, open.VisibleTo(nil))

	private := &ExtraWindow{ReservedForIdentity: ptr.Ptr(int64(5))}
	assert.False(t, private.VisibleTo(nil))
	assert.False(t, private.VisibleTo(ptr.Ptr(int64(6))))
	assert.True(t, private.VisibleTo(ptr.Ptr(int64(5))))
}

func TestDayKey(t *testing.T) {
	assert.Equal(t, int64(20260310), DayKey(time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC)))
}
