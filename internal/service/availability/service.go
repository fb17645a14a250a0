package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
)

// Resolver вычисляет свободные окна расписания на дату
// Чтение без блокировок; внутри транзакции репозитории читают через её executor
type Resolver struct {
	scheduleRepo    ScheduleRepository
	reservationRepo ReservationRepository
	timeProvider    TimeProvider
	logger          Logger
}

// NewResolver создает новый экземпляр резолвера доступности
func NewResolver(
	scheduleRepo ScheduleRepository,
	reservationRepo ReservationRepository,
	logger Logger,
) *Resolver {
	return &Resolver{
		scheduleRepo:    scheduleRepo,
		reservationRepo: reservationRepo,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// WithTimeProvider подменяет источник времени
func (r *Resolver) WithTimeProvider(tp TimeProvider) *Resolver {
	r.timeProvider = tp
	return r
}

// GetAvailableWindows возвращает упорядоченные свободные окна [start, end) на дату
// identity (nil для гостя) влияет только на видимость персональных дополнительных окон
// Нулевая или прошедшая дата даёт пустой список без ошибки
func (r *Resolver) GetAvailableWindows(ctx context.Context, date time.Time, identity *int64) ([]domain.Window, error) {
	now := r.timeProvider.Now()

	// 1. Нулевая и прошедшая дата
	if date.IsZero() || isDateInPast(date, now) {
		r.logger.Info("GetAvailableWindows: date %s is zero or in the past, nothing to offer", date.Format(domain.DateFormat))
		return []domain.Window{}, nil
	}

	// 2. Блокировки: блокировка на весь день закрывает дату целиком
	blocked, err := r.scheduleRepo.ListBlockedByDate(ctx, date)
	if err != nil {
		r.logger.Error("GetAvailableWindows: failed to get blocked ranges for %s: %v", date.Format(domain.DateFormat), err)
		return nil, fmt.Errorf("%w: GetAvailableWindows - list blocked ranges: %w", ErrInternal, err)
	}
	for _, b := range blocked {
		if b.IsFullDay() {
			r.logger.Info("GetAvailableWindows: %s is blocked for the whole day", date.Format(domain.DateFormat))
			return []domain.Window{}, nil
		}
	}

	// 3. Окна из активных шаблонов дня недели
	templates, err := r.scheduleRepo.ListActiveTemplatesByWeekday(ctx, date.Weekday())
	if err != nil {
		r.logger.Error("GetAvailableWindows: failed to get templates for %s: %v", date.Weekday(), err)
		return nil, fmt.Errorf("%w: GetAvailableWindows - list templates: %w", ErrInternal, err)
	}

	base := make([]span, 0)
	for _, t := range templates {
		base = append(base, cutTemplate(t)...)
	}

	// 4. Вычитаем частичные блокировки
	blockedSpans := make([]span, 0, len(blocked))
	for _, b := range blocked {
		blockedSpans = append(blockedSpans, spanOf(*b.StartTime, *b.EndTime))
	}
	for _, cut := range blockedSpans {
		base = subtract(base, cut)
	}

	// 5. Дополнительные окна, видимые клиенту; не нарезаются, но блокировка важнее окна
	extras, err := r.scheduleRepo.ListExtraByDate(ctx, date)
	if err != nil {
		r.logger.Error("GetAvailableWindows: failed to get extra windows for %s: %v", date.Format(domain.DateFormat), err)
		return nil, fmt.Errorf("%w: GetAvailableWindows - list extra windows: %w", ErrInternal, err)
	}

	spans := append([]span{}, base...)
	for _, e := range extras {
		if !e.VisibleTo(identity) {
			continue
		}
		// Часть, уже покрытая окнами шаблонов, не дублируется
		pieces := subtractAll(spanOf(e.StartTime, e.EndTime), base)
		spans = append(spans, subtractSpans(pieces, blockedSpans)...)
	}

	// 6. Вычитаем активные резервирования вместе с их буфером
	reservations, err := r.reservationRepo.ListActiveByDate(ctx, date)
	if err != nil {
		r.logger.Error("GetAvailableWindows: failed to get reservations for %s: %v", date.Format(domain.DateFormat), err)
		return nil, fmt.Errorf("%w: GetAvailableWindows - list reservations: %w", ErrInternal, err)
	}
	for _, res := range reservations {
		if !res.IsActive() {
			continue
		}
		start, end := res.BlockedSpan()
		spans = subtract(spans, span{start: start, end: end})
	}

	// 7. Сегодня не предлагаем окна, которые уже начались
	if isSameDay(date, now) {
		nowMinutes := now.Hour()*60 + now.Minute()
		upcoming := spans[:0]
		for _, s := range spans {
			if s.start >= nowMinutes {
				upcoming = append(upcoming, s)
			}
		}
		spans = upcoming
	}

	sortSpans(spans)
	windows := toWindows(spans)

	r.logger.Info("GetAvailableWindows: %d windows on %s (templates=%d, blocked=%d, extras=%d, reservations=%d)",
		len(windows), date.Format(domain.DateFormat), len(templates), len(blocked), len(extras), len(reservations))

	return windows, nil
}

// isSameDay проверяет, что две даты относятся к одному и тому же дню
func isSameDay(date1, date2 time.Time) bool {
	y1, m1, d1 := date1.Date()
	y2, m2, d2 := date2.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// isDateInPast проверяет, что дата раньше сегодняшнего дня
func isDateInPast(date, now time.Time) bool {
	y1, m1, d1 := date.Date()
	y2, m2, d2 := now.Date()
	return time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC).Before(time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC))
}
