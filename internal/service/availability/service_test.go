package availability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-DrivingSchoolService/pkg/logger"
	"github.com/m04kA/SMC-DrivingSchoolService/pkg/ptr"
	"github.com/m04kA/SMC-DrivingSchoolService/pkg/types"
)

type fixedTime struct {
	now time.Time
}

func (f fixedTime) Now() time.Time {
	return f.now
}

// 2026-03-10 вторник
var tuesday = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

type fixture struct {
	ctx          context.Context
	scheduleRepo *memory.ScheduleRepository
	reservations *memory.ReservationRepository
	resolver     *Resolver
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()

	db := memory.NewDB()
	f := &fixture{
		ctx:          context.Background(),
		scheduleRepo: memory.NewScheduleRepository(db),
		reservations: memory.NewReservationRepository(db),
	}
	f.resolver = NewResolver(f.scheduleRepo, f.reservations, logger.NewNop()).
		WithTimeProvider(fixedTime{now: now})
	return f
}

// weekdayTemplates шаблоны пн-пт 09:00-17:00 по 60 минут
func (f *fixture) weekdayTemplates(t *testing.T, buffer int) {
	t.Helper()
	for day := time.Monday; day <= time.Friday; day++ {
		_, err := f.scheduleRepo.CreateTemplate(f.ctx, &domain.SlotTemplate{
			DayOfWeek:           day,
			StartTime:           "09:00",
			EndTime:             "17:00",
			SlotDurationMinutes: 60,
			BufferMinutes:       buffer,
			Active:              true,
		})
		require.NoError(t, err)
	}
}

func (f *fixture) reserve(t *testing.T, start, end types.TimeString, buffer int, status domain.ReservationStatus) {
	t.Helper()
	_, err := f.reservations.Create(f.ctx, &domain.Reservation{
		ResourceType:    domain.ResourceLesson,
		ScheduledDate:   tuesday,
		StartTime:       start,
		EndTime:         end,
		DurationMinutes: end.Minutes() - start.Minutes(),
		BufferMinutes:   buffer,
		Capacity:        1,
		Status:          status,
		Participants:    []*domain.Participant{{Identity: ptr.Ptr(int64(1))}},
	})
	require.NoError(t, err)
}

func starts(windows []domain.Window) []string {
	result := make([]string, 0, len(windows))
	for _, w := range windows {
		result = append(result, w.Start.String()+"-"+w.End.String())
	}
	return result
}

func TestResolver_WeekdayTemplate(t *testing.T) {
	f := newFixture(t, tuesday.AddDate(0, 0, -1))
	f.weekdayTemplates(t, 0)

	windows, err := f.resolver.GetAvailableWindows(f.ctx, tuesday, nil)
	require.NoError(t, err)

	require.Len(t, windows, 8)
	assert.Equal(t, types.TimeString("09:00"), windows[0].Start)
	assert.Equal(t, types.TimeString("10:00"), windows[0].End)
	assert.Equal(t, types.TimeString("16:00"), windows[7].Start)
	for _, w := range windows {
		assert.Equal(t, 60, w.DurationMinutes())
	}
}

func TestResolver_FullDayBlocked(t *testing.T) {
	f := newFixture(t, tuesday.AddDate(0, 0, -1))
	f.weekdayTemplates(t, 0)

	_, err := f.scheduleRepo.CreateBlockedRange(f.ctx, &domain.BlockedRange{Date: tuesday, Reason: "exam day"})
	require.NoError(t, err)

	windows, err := f.resolver.GetAvailableWindows(f.ctx, tuesday, nil)
	require.NoError(t, err)
	assert.Empty(t, windows)

	// Среда не затронута
	windows, err = f.resolver.GetAvailableWindows(f.ctx, tuesday.AddDate(0, 0, 1), nil)
	require.NoError(t, err)
	assert.Len(t, windows, 8)
}

func TestResolver_PartialBlockSplitsWindows(t *testing.T) {
	f := newFixture(t, tuesday.AddDate(0, 0, -1))
	f.weekdayTemplates(t, 0)

	_, err := f.scheduleRepo.CreateBlockedRange(f.ctx, &domain.BlockedRange{
		Date:      tuesday,
		StartTime: ptr.Ptr(types.TimeString("10:30")),
		EndTime:   ptr.Ptr(types.TimeString("12:00")),
	})
	require.NoError(t, err)

	windows, err := f.resolver.GetAvailableWindows(f.ctx, tuesday, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"09:00-10:00", "10:00-10:30", "12:00-13:00", "13:00-14:00",
		"14:00-15:00", "15:00-16:00", "16:00-17:00",
	}, starts(windows))

	// Никакое окно не пересекается с блокировкой
	for _, w := range windows {
		assert.False(t, w.Start.Minutes() < 12*60 && w.End.Minutes() > 10*60+30, "window %s-%s overlaps blocked range", w.Start, w.End)
	}
}

func TestResolver_ReservationsWithBuffer(t *testing.T) {
	f := newFixture(t, tuesday.AddDate(0, 0, -1))
	f.weekdayTemplates(t, 15)

	f.reserve(t, "10:00", "11:00", 15, domain.ReservationHeld)
	f.reserve(t, "14:00", "15:00", 0, domain.ReservationCancelled)

	windows, err := f.resolver.GetAvailableWindows(f.ctx, tuesday, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"09:00-09:45", "11:15-12:00", "12:00-13:00", "13:00-14:00",
		"14:00-15:00", "15:00-16:00", "16:00-17:00",
	}, starts(windows))
	assert.Equal(t, 15, windows[0].BufferMinutes)
}

func TestResolver_ExtraWindows(t *testing.T) {
	f := newFixture(t, tuesday.AddDate(0, 0, -1))
	f.weekdayTemplates(t, 0)

	_, err := f.scheduleRepo.CreateExtraWindow(f.ctx, &domain.ExtraWindow{
		Date: tuesday, StartTime: "18:00", EndTime: "20:00",
	})
	require.NoError(t, err)
	_, err = f.scheduleRepo.CreateExtraWindow(f.ctx, &domain.ExtraWindow{
		Date: tuesday, StartTime: "07:00", EndTime: "08:00", ReservedForIdentity: ptr.Ptr(int64(42)),
	})
	require.NoError(t, err)
	// Пересекается с окнами шаблона: добавится только хвост 17:00-17:30
	_, err = f.scheduleRepo.CreateExtraWindow(f.ctx, &domain.ExtraWindow{
		Date: tuesday, StartTime: "16:30", EndTime: "17:30",
	})
	require.NoError(t, err)

	guest, err := f.resolver.GetAvailableWindows(f.ctx, tuesday, nil)
	require.NoError(t, err)
	assert.Len(t, guest, 10)
	assert.Equal(t, "17:00-17:30", starts(guest)[8])
	assert.Equal(t, "18:00-20:00", starts(guest)[9])

	owner, err := f.resolver.GetAvailableWindows(f.ctx, tuesday, ptr.Ptr(int64(42)))
	require.NoError(t, err)
	assert.Len(t, owner, 11)
	assert.Equal(t, "07:00-08:00", starts(owner)[0])

	other, err := f.resolver.GetAvailableWindows(f.ctx, tuesday, ptr.Ptr(int64(7)))
	require.NoError(t, err)
	assert.Len(t, other, 10)
}

func TestResolver_PastAndZeroDates(t *testing.T) {
	f := newFixture(t, tuesday.Add(12*time.Hour))
	f.weekdayTemplates(t, 0)

	windows, err := f.resolver.GetAvailableWindows(f.ctx, tuesday.AddDate(0, 0, -1), nil)
	require.NoError(t, err)
	assert.Empty(t, windows)

	windows, err = f.resolver.GetAvailableWindows(f.ctx, time.Time{}, nil)
	require.NoError(t, err)
	assert.Empty(t, windows)
}

func TestResolver_TodayDropsStartedWindows(t *testing.T) {
	f := newFixture(t, tuesday.Add(12*time.Hour+10*time.Minute))
	f.weekdayTemplates(t, 0)

	windows, err := f.resolver.GetAvailableWindows(f.ctx, tuesday, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"13:00-14:00", "14:00-15:00", "15:00-16:00", "16:00-17:00"}, starts(windows))
}

func TestResolver_NoTemplatesForWeekend(t *testing.T) {
	f := newFixture(t, tuesday)
	f.weekdayTemplates(t, 0)

	windows, err := f.resolver.GetAvailableWindows(f.ctx, tuesday.AddDate(0, 0, 5), nil)
	require.NoError(t, err)
	assert.Empty(t, windows)
}

func TestSubtract(t *testing.T) {
	spans := []span{{start: 0, end: 60}, {start: 60, end: 120}}

	assert.Equal(t, []span{{start: 0, end: 60}, {start: 60, end: 120}}, subtract(spans, span{start: 120, end: 180}))
	assert.Equal(t, []span{{start: 0, end: 20}, {start: 40, end: 60}, {start: 60, end: 120}}, subtract(spans, span{start: 20, end: 40}))
	assert.Equal(t, []span{{start: 0, end: 30}, {start: 90, end: 120}}, subtract(spans, span{start: 30, end: 90}))
	assert.Empty(t, subtract(spans, span{start: -10, end: 200}))
}

func TestResolver_BlockedRangeCutsExtraWindow(t *testing.T) {
	f := newFixture(t, tuesday.AddDate(0, 0, -1))
	f.weekdayTemplates(t, 0)

	_, err := f.scheduleRepo.CreateExtraWindow(f.ctx, &domain.ExtraWindow{
		Date: tuesday, StartTime: "17:00", EndTime: "20:00",
	})
	require.NoError(t, err)
	_, err = f.scheduleRepo.CreateBlockedRange(f.ctx, &domain.BlockedRange{
		Date:      tuesday,
		StartTime: ptr.Ptr(types.TimeString("16:30")),
		EndTime:   ptr.Ptr(types.TimeString("18:30")),
		Reason:    "инструктор на техосмотре",
	})
	require.NoError(t, err)

	windows, err := f.resolver.GetAvailableWindows(f.ctx, tuesday, nil)
	require.NoError(t, err)

	got := starts(windows)
	assert.Contains(t, got, "16:00-16:30")
	assert.Contains(t, got, "18:30-20:00")
	assert.NotContains(t, got, "17:00-20:00")

	for _, w := range windows {
		assert.False(t, w.Start.Minutes() < 18*60+30 && w.End.Minutes() > 16*60+30,
			"window %s-%s overlaps blocked range", w.Start, w.End)
	}
}
