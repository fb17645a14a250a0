package create_reservation

import "errors"

var (
	// ErrLessonTypeNotFound возвращается, когда тип занятия не найден в каталоге
	ErrLessonTypeNotFound = errors.New("create_reservation: lesson type not found")

	// ErrSlotUnavailable возвращается, когда интервал не помещается ни в одно свободное окно
	ErrSlotUnavailable = errors.New("create_reservation: slot is not available, please choose another time")

	// ErrCapacityExceeded возвращается, когда участников или сопровождающих больше лимита
	ErrCapacityExceeded = errors.New("create_reservation: capacity exceeded")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_reservation: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_reservation: internal error")
)
