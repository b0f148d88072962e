package availability

import "errors"

var (
	// ErrServiceNotFound услуга не найдена или неактивна
	ErrServiceNotFound = errors.New("availability: service not found")

	// ErrStaffNotFound сотрудник не найден, неактивен или не оказывает услугу
	ErrStaffNotFound = errors.New("availability: staff not found")

	// ErrInvalidQuery некорректные параметры запроса
	ErrInvalidQuery = errors.New("availability: invalid query")

	// ErrInternal внутренняя ошибка
	ErrInternal = errors.New("availability: internal error")
)
