package conversation

import "errors"

var (
	// ErrStateNotFound возвращается, когда у контакта еще нет сохраненного диалога
	ErrStateNotFound = errors.New("conversation.repository: state not found")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("conversation.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("conversation.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("conversation.repository: failed to scan row")

	// ErrPayload возвращается, когда данные шага не удается закодировать или разобрать
	ErrPayload = errors.New("conversation.repository: invalid payload")
)
