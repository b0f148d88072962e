package holds

import "errors"

var (
	// ErrHoldConflict окно уже удерживается другим разговором или занято записью
	ErrHoldConflict = errors.New("holds: slot is held or taken")

	// ErrHoldNotFound удержание не найдено или уже не активно
	ErrHoldNotFound = errors.New("holds: hold not found")

	// ErrInvalidRequest некорректные параметры удержания
	ErrInvalidRequest = errors.New("holds: invalid request")

	// ErrInternal внутренняя ошибка
	ErrInternal = errors.New("holds: internal error")
)
