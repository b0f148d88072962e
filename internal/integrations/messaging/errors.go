package messaging

import "errors"

var (
	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("messaging client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе провайдера
	ErrInvalidResponse = errors.New("messaging client: invalid response")

	// ErrUnauthorized возвращается, когда провайдер отклонил токен
	ErrUnauthorized = errors.New("messaging client: unauthorized")
)
