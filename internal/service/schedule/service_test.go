package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/service/schedule/models"
	"github.com/m04kA/SMC-DrivingSchoolService/pkg/logger"
	"github.com/m04kA/SMC-DrivingSchoolService/pkg/ptr"
	"github.com/m04kA/SMC-DrivingSchoolService/pkg/types"
)

var monday = time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

func newService() (*Service, *memory.ScheduleRepository) {
	db := memory.NewDB()
	repo := memory.NewScheduleRepository(db)
	return NewService(repo, memory.NewTxManager(db), logger.NewNop()), repo
}

func TestReplaceTemplates_DeactivatesPrevious(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService()

	_, err := svc.ReplaceTemplates(ctx, &models.ReplaceTemplatesRequest{Templates: []models.TemplateInput{
		{DayOfWeek: 1, StartTime: "09:00", EndTime: "17:00"},
		{DayOfWeek: 2, StartTime: "09:00", EndTime: "12:00", SlotDurationMinutes: ptr.Ptr(90), BufferMinutes: ptr.Ptr(15)},
	}})
	require.NoError(t, err)

	created, err := svc.ReplaceTemplates(ctx, &models.ReplaceTemplatesRequest{Templates: []models.TemplateInput{
		{DayOfWeek: 3, StartTime: "10:00", EndTime: "14:00"},
	}})
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, 60, created[0].SlotDurationMinutes)
	assert.Equal(t, 0, created[0].BufferMinutes)

	active, err := repo.ListTemplates(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, time.Wednesday, active[0].DayOfWeek)

	all, err := repo.ListTemplates(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestReplaceTemplates_Validation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		template models.TemplateInput
	}{
		{name: "bad weekday", template: models.TemplateInput{DayOfWeek: 7, StartTime: "09:00", EndTime: "10:00"}},
		{name: "end before start", template: models.TemplateInput{DayOfWeek: 1, StartTime: "12:00", EndTime: "10:00"}},
		{name: "invalid time", template: models.TemplateInput{DayOfWeek: 1, StartTime: "9am", EndTime: "10:00"}},
		{name: "too short slot", template: models.TemplateInput{DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00", SlotDurationMinutes: ptr.Ptr(5)}},
		{name: "slot longer than template", template: models.TemplateInput{DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00", SlotDurationMinutes: ptr.Ptr(90)}},
		{name: "negative buffer", template: models.TemplateInput{DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00", BufferMinutes: ptr.Ptr(-1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newService()
			_, err := svc.ReplaceTemplates(ctx, &models.ReplaceTemplatesRequest{Templates: []models.TemplateInput{tt.template}})
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestReplaceTemplates_OverlapRejectedAndNothingChanged(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService()

	_, err := svc.ReplaceTemplates(ctx, &models.ReplaceTemplatesRequest{Templates: []models.TemplateInput{
		{DayOfWeek: 1, StartTime: "09:00", EndTime: "17:00"},
	}})
	require.NoError(t, err)

	_, err = svc.ReplaceTemplates(ctx, &models.ReplaceTemplatesRequest{Templates: []models.TemplateInput{
		{DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00"},
		{DayOfWeek: 1, StartTime: "11:00", EndTime: "14:00"},
	}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	active, err := repo.ListTemplates(ctx, true)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestBlockedRanges(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	full, err := svc.AddBlockedRange(ctx, &models.BlockedRangeInput{Date: monday, Reason: "holiday"})
	require.NoError(t, err)
	assert.Nil(t, full.StartTime)

	partial, err := svc.AddBlockedRange(ctx, &models.BlockedRangeInput{
		Date:      monday.AddDate(0, 0, 1).Add(15 * time.Hour),
		StartTime: ptr.Ptr(types.TimeString("10:00")),
		EndTime:   ptr.Ptr(types.TimeString("12:00")),
	})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-10", partial.Date)
	assert.Equal(t, "10:00", *partial.StartTime)

	_, err = svc.AddBlockedRange(ctx, &models.BlockedRangeInput{Date: monday, StartTime: ptr.Ptr(types.TimeString("10:00"))})
	assert.ErrorIs(t, err, ErrInvalidInput)

	schedule, err := svc.GetSchedule(ctx, monday, monday.AddDate(0, 0, 6))
	require.NoError(t, err)
	assert.Len(t, schedule.BlockedRanges, 2)

	require.NoError(t, svc.RemoveBlockedRange(ctx, full.ID))
	assert.ErrorIs(t, svc.RemoveBlockedRange(ctx, full.ID), ErrBlockedRangeNotFound)
}

func TestExtraWindows(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	extra, err := svc.AddExtraWindow(ctx, &models.ExtraWindowInput{
		Date:                monday,
		StartTime:           "18:00",
		EndTime:             "19:30",
		ReservedForIdentity: ptr.Ptr(int64(42)),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), *extra.ReservedForIdentity)

	_, err = svc.AddExtraWindow(ctx, &models.ExtraWindowInput{Date: monday, StartTime: "19:00", EndTime: "18:00"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	schedule, err := svc.GetSchedule(ctx, monday, monday)
	require.NoError(t, err)
	require.Len(t, schedule.ExtraWindows, 1)
	assert.Equal(t, "18:00", schedule.ExtraWindows[0].StartTime)

	require.NoError(t, svc.RemoveExtraWindow(ctx, extra.ID))
	assert.ErrorIs(t, svc.RemoveExtraWindow(ctx, extra.ID), ErrExtraWindowNotFound)
}

func TestGetSchedule_InvalidPeriod(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	_, err := svc.GetSchedule(ctx, monday, monday.AddDate(0, 0, -1))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.GetSchedule(ctx, monday, monday.AddDate(0, 0, 90))
	assert.ErrorIs(t, err, ErrInvalidInput)
}
