package schedule

import "errors"

var (
	// ErrTemplateNotFound возвращается, когда шаблон не найден
	ErrTemplateNotFound = errors.New("schedule.repository: slot template not found")

	// ErrBlockedRangeNotFound возвращается, когда блокировка не найдена
	ErrBlockedRangeNotFound = errors.New("schedule.repository: blocked range not found")

	// ErrExtraWindowNotFound возвращается, когда дополнительное окно не найдено
	ErrExtraWindowNotFound = errors.New("schedule.repository: extra window not found")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("schedule.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("schedule.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("schedule.repository: failed to scan row")
)
