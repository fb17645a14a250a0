package catalogservice

import "github.com/shopspring/decimal"

// LessonType тип занятия из каталога
type LessonType struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	ResourceType    string          `json:"resource_type"` // lesson | course
	Capacity        int             `json:"capacity"`
	SupervisorLimit int             `json:"supervisor_limit"`
	DurationMinutes int             `json:"duration_minutes"`
	Price           decimal.Decimal `json:"price"`
	Currency        string          `json:"currency"`
}
