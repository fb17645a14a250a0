package get_available_windows

import (
	"time"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
)

// WindowResponse свободное окно
type WindowResponse struct {
	StartTime       string `json:"startTime"`
	EndTime         string `json:"endTime"`
	DurationMinutes int    `json:"durationMinutes"`
	BufferMinutes   int    `json:"bufferMinutes"`
}

// AvailabilityResponse свободные окна на дату
type AvailabilityResponse struct {
	Date    string           `json:"date"`
	Windows []WindowResponse `json:"windows"`
}

// FromDomain конвертирует окна резолвера в HTTP ответ
func FromDomain(date time.Time, windows []domain.Window) *AvailabilityResponse {
	resp := &AvailabilityResponse{
		Date:    date.Format(domain.DateFormat),
		Windows: make([]WindowResponse, 0, len(windows)),
	}
	for _, w := range windows {
		resp.Windows = append(resp.Windows, WindowResponse{
			StartTime:       w.Start.String(),
			EndTime:         w.End.String(),
			DurationMinutes: w.DurationMinutes(),
			BufferMinutes:   w.BufferMinutes,
		})
	}
	return resp
}
