package process_message

import "errors"

var (
	// ErrInvalidInput пустой контакт, текст или идентификатор сообщения
	ErrInvalidInput = errors.New("process_message: invalid input")

	// ErrTenantNotFound арендатор не найден
	ErrTenantNotFound = errors.New("process_message: tenant not found")

	// ErrInternal не удалось загрузить или сохранить состояние разговора
	ErrInternal = errors.New("process_message: internal error")
)

// TurnError сбой обработки сообщения уже известного арендатора.
// Содержит ответ с извинением, который транспорт отправляет контакту
type TurnError struct {
	TenantID int64
	Reply    string
	Err      error
}

func (e *TurnError) Error() string {
	return e.Err.Error()
}

func (e *TurnError) Unwrap() error {
	return e.Err
}

func failedTurn(tenantID int64, err error) error {
	return &TurnError{TenantID: tenantID, Reply: textFailure, Err: err}
}
