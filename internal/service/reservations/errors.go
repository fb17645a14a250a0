package reservations

import "errors"

var (
	// ErrReservationNotFound возвращается, когда резервирование не найдено
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrParticipantNotFound возвращается, когда участник не найден
	ErrParticipantNotFound = errors.New("participant not found")

	// ErrAccessDenied возвращается, когда у пользователя нет доступа к резервированию
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidState возвращается, когда переход из текущего статуса невозможен
	ErrInvalidState = errors.New("reservation is in invalid state for this operation")

	// ErrCapacityExceeded возвращается, когда нет мест или исчерпан лимит сопровождающих
	ErrCapacityExceeded = errors.New("reservation capacity exceeded")

	// ErrAlreadyParticipant возвращается, когда identity уже записан на резервирование
	ErrAlreadyParticipant = errors.New("identity is already a participant")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("reservations service: internal error")
)
