package domain

import "time"

// ReservationsFilter фильтр списка резервирований
type ReservationsFilter struct {
	Date             *time.Time         // Конкретная дата (опционально)
	Identity         *int64             // Участник (опционально)
	Status           *ReservationStatus // Статус (опционально)
	IncludeCancelled bool               // Включать отменённые
}
