package publish_events

import "errors"

var (
	// ErrInternal возвращается при ошибке outbox
	ErrInternal = errors.New("internal error")
)
