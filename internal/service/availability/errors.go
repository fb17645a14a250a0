package availability

import "errors"

var (
	// ErrInternal возвращается при внутренних ошибках резолвера
	ErrInternal = errors.New("availability: internal error")
)
