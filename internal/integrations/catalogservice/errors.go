package catalogservice

import "errors"

var (
	// ErrLessonTypeNotFound возвращается, когда тип занятия отсутствует в каталоге
	ErrLessonTypeNotFound = errors.New("lesson type not found")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("catalogservice client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от сервиса
	ErrInvalidResponse = errors.New("catalogservice client: invalid response")
)
