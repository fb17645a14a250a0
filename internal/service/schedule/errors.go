package schedule

import "errors"

var (
	// ErrBlockedRangeNotFound возвращается, когда блокировка не найдена
	ErrBlockedRangeNotFound = errors.New("blocked range not found")

	// ErrExtraWindowNotFound возвращается, когда дополнительное окно не найдено
	ErrExtraWindowNotFound = errors.New("extra window not found")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("schedule service: internal error")
)
