package domain

import "time"

// Значения по умолчанию
const (
	DefaultSlotDurationMinutes = 60
	DefaultBufferMinutes       = 0
	DefaultPaymentHoldMinutes  = 120
	DefaultSupervisorLimit     = 0
	DefaultOverdueAfterDays    = 14
)

// Ограничения бизнес-валидации
const (
	MinSlotDurationMinutes    = 15
	MaxSlotDurationMinutes    = 480 // 8 часов
	MaxBufferMinutes          = 120
	MaxCourseCapacity         = 50
	MaxReasonLength           = 500
	MaxLineItems              = 50
	MaxLineItemDescriptionLen = 200
	MaxScheduleRangeDays      = 62
)

// Форматы даты и времени
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// DateOnly обнуляет время, оставляя дату в той же локации
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DayKey числовой ключ дня YYYYMMDD (для advisory lock на дату)
func DayKey(t time.Time) int64 {
	y, m, d := t.Date()
	return int64(y)*10000 + int64(m)*100 + int64(d)
}
