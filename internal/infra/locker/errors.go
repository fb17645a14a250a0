package locker

import "errors"

var (
	// ErrNotAcquired возвращается, когда блокировку держит другой экземпляр
	ErrNotAcquired = errors.New("locker: lock is held by another owner")

	// ErrUnavailable возвращается при недоступности Redis
	ErrUnavailable = errors.New("locker: redis unavailable")
)
