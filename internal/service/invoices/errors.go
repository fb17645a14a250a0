package invoices

import "errors"

var (
	// ErrInvoiceNotFound возвращается, когда счёт не найден
	ErrInvoiceNotFound = errors.New("invoice not found")

	// ErrReservationNotFound возвращается, когда резервирование счёта не найдено
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrAccessDenied возвращается, когда счёт принадлежит другому плательщику
	ErrAccessDenied = errors.New("access denied")

	// ErrActiveInvoiceExists возвращается, когда у резервирования уже есть pending/overdue/paid счёт
	ErrActiveInvoiceExists = errors.New("reservation already has an active invoice")

	// ErrInvalidState возвращается, когда переход из текущего статуса счёта невозможен
	ErrInvalidState = errors.New("invoice is in invalid state for this operation")

	// ErrPaymentHoldExpired возвращается, когда удержание истекло; счёт и резервирование отменены
	ErrPaymentHoldExpired = errors.New("payment hold expired, reservation released")

	// ErrInsufficientCredit возвращается, когда пакет не найден, чужой или исчерпан
	ErrInsufficientCredit = errors.New("insufficient stored credit")

	// ErrCheckoutUnavailable возвращается, когда внешний checkout не создал сессию
	ErrCheckoutUnavailable = errors.New("hosted checkout is unavailable")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("invoices service: internal error")
)
