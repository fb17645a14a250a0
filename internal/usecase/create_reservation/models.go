package create_reservation

import (
	"time"

	"github.com/m04kA/SMC-DrivingSchoolService/internal/domain"
	"github.com/m04kA/SMC-DrivingSchoolService/internal/service/reservations/models"
	"github.com/m04kA/SMC-DrivingSchoolService/pkg/types"
)

// Request модель запроса на создание резервирования
// Capacity, SupervisorLimit и DurationMinutes берутся из каталога, если не указаны
type Request struct {
	ResourceType    domain.ResourceType       // lesson | course; пусто = из каталога
	LessonTypeID    int64                     // ID типа занятия в каталоге (опционально)
	Date            time.Time                 // Дата занятия
	StartTime       types.TimeString          // Время начала, HH:MM
	DurationMinutes *int                      // Длительность
	Capacity        *int                      // Вместимость
	SupervisorLimit *int                      // Лимит сопровождающих
	Participants    []models.ParticipantInput // Участники, минимум один
	Identity        *int64                    // Кто создает; nil = гость
}

// resolved параметры резервирования после применения значений каталога
type resolved struct {
	resourceType    domain.ResourceType
	durationMinutes int
	capacity        int
	supervisorLimit int
	end             types.TimeString
}
