package availability

import (
	"sort"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
	"github.com/m04kA/SMC-DrivingSchoolService/pkg/types"
)

// span полуоткрытый интервал [start, end) в минутах от начала суток
type span struct {
	start  int
	end    int
	buffer int
}

func (s span) empty() bool {
	return s.start >= s.end
}

// overlaps строгое пересечение: соприкасающиеся интервалы не пересекаются
func (s span) overlaps(other span) bool {
	return s.start < other.end && other.start < s.end
}

// cutTemplate режет шаблон на последовательные окна длиной SlotDurationMinutes
// Хвост короче длительности окна отбрасывается
func cutTemplate(t *domain.SlotTemplate) []span {
	step := t.SlotDurationMinutes
	if step <= 0 {
		step = domain.DefaultSlotDurationMinutes
	}

	start, end := t.StartTime.Minutes(), t.EndTime.Minutes()
	if start < 0 || end < 0 {
		return nil
	}

	spans := make([]span, 0, (end-start)/step)
	for cur := start; cur+step <= end; cur += step {
		spans = append(spans, span{start: cur, end: cur + step, buffer: t.BufferMinutes})
	}
	return spans
}

// subtract вычитает cut из каждого окна; окно может распасться на 0, 1 или 2 части
func subtract(spans []span, cut span) []span {
	result := make([]span, 0, len(spans)+1)
	for _, s := range spans {
		if !s.overlaps(cut) {
			result = append(result, s)
			continue
		}
		if left := (span{start: s.start, end: cut.start, buffer: s.buffer}); !left.empty() {
			result = append(result, left)
		}
		if right := (span{start: cut.end, end: s.end, buffer: s.buffer}); !right.empty() {
			result = append(result, right)
		}
	}
	return result
}

// subtractAll вычитает из окна все интервалы base
func subtractAll(s span, base []span) []span {
	return subtractSpans([]span{s}, base)
}

func subtractSpans(spans []span, cuts []span) []span {
	for _, cut := range cuts {
		spans = subtract(spans, cut)
	}
	return spans
}

func sortSpans(spans []span) {
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end < spans[j].end
	})
}

func toWindows(spans []span) []domain.Window {
	windows := make([]domain.Window, 0, len(spans))
	for _, s := range spans {
		start, err := types.FromMinutes(s.start)
		if err != nil {
			continue
		}
		end, err := types.FromMinutes(s.end)
		if err != nil {
			continue
		}
		windows = append(windows, domain.Window{Start: start, End: end, BufferMinutes: s.buffer})
	}
	return windows
}

func spanOf(start, end types.TimeString) span {
	return span{start: start.Minutes(), end: end.Minutes()}
}
