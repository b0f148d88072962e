package subscriptions

import "errors"

var (
	// ErrSubscriptionNotFound возвращается, когда подписка не найдена
	ErrSubscriptionNotFound = errors.New("subscriptions.repository: subscription not found")

	// ErrUsageNotFound возвращается, когда запись использования за период не найдена
	ErrUsageNotFound = errors.New("subscriptions.repository: usage not found")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("subscriptions.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("subscriptions.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("subscriptions.repository: failed to scan row")
)
