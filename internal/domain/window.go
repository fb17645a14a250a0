package domain

import "github.com/m04kA/SMC-DrivingSchoolService/pkg/types"

// Window полуоткрытый интервал [Start, End) внутри одного дня
// BufferMinutes буфер шаблона, из которого получено окно; копируется в резервирование
type Window struct {
	Start         types.TimeString
	End           types.TimeString
	BufferMinutes int
}

// DurationMinutes длительность окна
func (w Window) DurationMinutes() int {
	return w.End.Minutes() - w.Start.Minutes()
}

// Contains true, если [start, end) целиком лежит внутри окна
func (w Window) Contains(start, end types.TimeString) bool {
	return !start.IsBefore(w.Start) && !end.IsAfter(w.End) && start.IsBefore(end)
}
