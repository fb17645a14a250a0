package models

import (
	"time"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
	"github.com/m04kA/SMC-DrivingSchoolService/pkg/types"
)

// TemplateInput шаблон в запросе на замену недельного расписания
type TemplateInput struct {
	DayOfWeek           int              `json:"dayOfWeek"` // 0 = воскресенье
	StartTime           types.TimeString `json:"startTime"`
	EndTime             types.TimeString `json:"endTime"`
	SlotDurationMinutes *int             `json:"slotDurationMinutes,omitempty"`
	BufferMinutes       *int             `json:"bufferMinutes,omitempty"`
}

// ReplaceTemplatesRequest запрос на замену недельного расписания
type ReplaceTemplatesRequest struct {
	Templates []TemplateInput `json:"templates"`
}

// BlockedRangeInput запрос на добавление блокировки
type BlockedRangeInput struct {
	Date      time.Time
	StartTime *types.TimeString
	EndTime   *types.TimeString
	Reason    string
}

// ExtraWindowInput запрос на добавление дополнительного окна
type ExtraWindowInput struct {
	Date                time.Time
	StartTime           types.TimeString
	EndTime             types.TimeString
	Reason              *string
	ReservedForIdentity *int64
}

// TemplateResponse шаблон в ответе
type TemplateResponse struct {
	ID                  int64  `json:"id"`
	DayOfWeek           int    `json:"dayOfWeek"`
	StartTime           string `json:"startTime"`
	EndTime             string `json:"endTime"`
	SlotDurationMinutes int    `json:"slotDurationMinutes"`
	BufferMinutes       int    `json:"bufferMinutes"`
	Active              bool   `json:"active"`
}

// BlockedRangeResponse блокировка в ответе
type BlockedRangeResponse struct {
	ID        int64   `json:"id"`
	Date      string  `json:"date"`
	StartTime *string `json:"startTime,omitempty"`
	EndTime   *string `json:"endTime,omitempty"`
	Reason    string  `json:"reason"`
}

// ExtraWindowResponse дополнительное окно в ответе
type ExtraWindowResponse struct {
	ID                  int64   `json:"id"`
	Date                string  `json:"date"`
	StartTime           string  `json:"startTime"`
	EndTime             string  `json:"endTime"`
	Reason              *string `json:"reason,omitempty"`
	ReservedForIdentity *int64  `json:"reservedForIdentity,omitempty"`
}

// ScheduleResponse расписание за период
type ScheduleResponse struct {
	From          string                 `json:"from"`
	To            string                 `json:"to"`
	Templates     []TemplateResponse     `json:"templates"`
	BlockedRanges []BlockedRangeResponse `json:"blockedRanges"`
	ExtraWindows  []ExtraWindowResponse  `json:"extraWindows"`
}

// FromDomainTemplate конвертирует domain модель в DTO
func FromDomainTemplate(t *domain.SlotTemplate) TemplateResponse {
	return TemplateResponse{
		ID:                  t.ID,
		DayOfWeek:           int(t.DayOfWeek),
		StartTime:           t.StartTime.String(),
		EndTime:             t.EndTime.String(),
		SlotDurationMinutes: t.SlotDurationMinutes,
		BufferMinutes:       t.BufferMinutes,
		Active:              t.Active,
	}
}

// FromDomainBlockedRange конвертирует domain модель в DTO
func FromDomainBlockedRange(b *domain.BlockedRange) BlockedRangeResponse {
	resp := BlockedRangeResponse{
		ID:     b.ID,
		Date:   b.Date.Format(domain.DateFormat),
		Reason: b.Reason,
	}
	if !b.IsFullDay() {
		start, end := b.StartTime.String(), b.EndTime.String()
		resp.StartTime = &start
		resp.EndTime = &end
	}
	return resp
}

// FromDomainExtraWindow конвертирует domain модель в DTO
func FromDomainExtraWindow(e *domain.ExtraWindow) ExtraWindowResponse {
	return ExtraWindowResponse{
		ID:                  e.ID,
		Date:                e.Date.Format(domain.DateFormat),
		StartTime:           e.StartTime.String(),
		EndTime:             e.EndTime.String(),
		Reason:              e.Reason,
		ReservedForIdentity: e.ReservedForIdentity,
	}
}

// FromDomainSchedule конвертирует расписание за период в DTO
func FromDomainSchedule(from, to time.Time, s *domain.Schedule) *ScheduleResponse {
	resp := &ScheduleResponse{
		From:          from.Format(domain.DateFormat),
		To:            to.Format(domain.DateFormat),
		Templates:     make([]TemplateResponse, 0, len(s.Templates)),
		BlockedRanges: make([]BlockedRangeResponse, 0, len(s.BlockedRanges)),
		ExtraWindows:  make([]ExtraWindowResponse, 0, len(s.ExtraWindows)),
	}
	for _, t := range s.Templates {
		resp.Templates = append(resp.Templates, FromDomainTemplate(t))
	}
	for _, b := range s.BlockedRanges {
		resp.BlockedRanges = append(resp.BlockedRanges, FromDomainBlockedRange(b))
	}
	for _, e := range s.ExtraWindows {
		resp.ExtraWindows = append(resp.ExtraWindows, FromDomainExtraWindow(e))
	}
	return resp
}
