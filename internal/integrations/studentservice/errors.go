package studentservice

import "errors"

var (
	// ErrStudentNotFound возвращается, когда identity не зарегистрирован как ученик
	ErrStudentNotFound = errors.New("student not found")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("studentservice client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от сервиса
	ErrInvalidResponse = errors.New("studentservice client: invalid response")

	// ErrServiceDegraded возвращается при применении graceful degradation
	// Плательщик в этом случае считается недоверенным
	ErrServiceDegraded = errors.New("studentservice unavailable: graceful degradation applied")
)
