package reservation

import "errors"

var (
	// ErrTimeConflict окно пересекается с записью или блокировкой (ожидаемый исход гонки)
	ErrTimeConflict = errors.New("reservation: time conflict")

	// ErrStaffNotFound сотрудник не найден, неактивен или нет подходящего
	ErrStaffNotFound = errors.New("reservation: staff not found")

	// ErrInvalidRequest некорректные параметры резервирования
	ErrInvalidRequest = errors.New("reservation: invalid request")

	// ErrInternal внутренняя ошибка при фиксации бронирования
	ErrInternal = errors.New("reservation: internal error")
)
