package sweep_expired_holds

import "errors"

var (
	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("sweep_expired_holds: internal error")
)
