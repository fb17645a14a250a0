package domain

import (
	"time"

	"github.com/m04kA/SMC-DrivingSchoolService/pkg/types"
)

// SlotTemplate еженедельное правило доступности
// Шаблон режется на окна длиной SlotDurationMinutes. Шаблоны не удаляются, а деактивируются
type SlotTemplate struct {
	ID                  int64
	DayOfWeek           time.Weekday // 0 = воскресенье
	StartTime           types.TimeString
	EndTime             types.TimeString
	SlotDurationMinutes int
	BufferMinutes       int
	Active              bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// BlockedRange блокировка на дату. Без StartTime/EndTime блокирует весь день
type BlockedRange struct {
	ID        int64
	Date      time.Time
	StartTime *types.TimeString
	EndTime   *types.TimeString
	Reason    string
	CreatedAt time.Time
}

// IsFullDay true, если заблокирован весь день
func (b *BlockedRange) IsFullDay() bool {
	return b.StartTime == nil || b.EndTime == nil
}

// ExtraWindow дополнительное окно на дату, опционально только для одного клиента
type ExtraWindow struct {
	ID                  int64
	Date                time.Time
	StartTime           types.TimeString
	EndTime             types.TimeString
	Reason              *string
	ReservedForIdentity *int64
	CreatedAt           time.Time
}

// VisibleTo true, если окно видно клиенту identity (nil = гость)
func (e *ExtraWindow) VisibleTo(identity *int64) bool {
	if e.ReservedForIdentity == nil {
		return true
	}
	return identity != nil && *identity == *e.ReservedForIdentity
}

// Schedule расписание за период (для админки)
type Schedule struct {
	Templates     []*SlotTemplate
	BlockedRanges []*BlockedRange
	ExtraWindows  []*ExtraWindow
}
