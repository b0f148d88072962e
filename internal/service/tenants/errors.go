package tenants

import "errors"

var (
	// ErrTenantNotFound возвращается, когда арендатор не найден или неактивен
	ErrTenantNotFound = errors.New("tenants: tenant not found")

	// ErrInvalidReference возвращается для пустой ссылки на арендатора
	ErrInvalidReference = errors.New("tenants: invalid tenant reference")

	// ErrInternal возвращается при внутренних ошибках
	ErrInternal = errors.New("tenants: internal error")
)
