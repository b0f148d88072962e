package create_booking

import "errors"

var (
	// ErrInvalidPayload возвращается при некорректных или неполных входных данных
	ErrInvalidPayload = errors.New("create_booking: invalid payload")

	// ErrTenantNotFound возвращается, когда арендатор не найден
	ErrTenantNotFound = errors.New("create_booking: tenant not found")

	// ErrServiceNotFound возвращается, когда услуга не найдена или неактивна
	ErrServiceNotFound = errors.New("create_booking: service not found")

	// ErrStaffNotFound возвращается, когда сотрудник не найден, неактивен или нет подходящего
	ErrStaffNotFound = errors.New("create_booking: staff not found")

	// ErrTimeConflict возвращается, когда время уже занято
	ErrTimeConflict = errors.New("create_booking: time conflict")

	// ErrPackageInvalid возвращается, когда указанный пакет не может оплатить запись
	ErrPackageInvalid = errors.New("create_booking: package invalid")

	// ErrSubscriptionInvalid возвращается, когда указанная подписка не может оплатить запись
	ErrSubscriptionInvalid = errors.New("create_booking: subscription invalid")

	// ErrCustomerCreateFailed возвращается при ошибке сохранения клиента
	ErrCustomerCreateFailed = errors.New("create_booking: customer create failed")

	// ErrBookingCreateFailed возвращается при неожиданной ошибке фиксации записи
	ErrBookingCreateFailed = errors.New("create_booking: booking create failed")
)

// Коды ошибок для клиентов API
const (
	CodeInvalidPayload       = "INVALID_PAYLOAD"
	CodeTenantNotFound       = "TENANT_NOT_FOUND"
	CodeServiceNotFound      = "SERVICE_NOT_FOUND"
	CodeStaffNotFound        = "STAFF_NOT_FOUND"
	CodeTimeConflict         = "TIME_CONFLICT"
	CodePackageInvalid       = "PACKAGE_INVALID"
	CodeSubscriptionInvalid  = "SUBSCRIPTION_INVALID"
	CodeCustomerCreateFailed = "CUSTOMER_CREATE_FAILED"
	CodeBookingCreateFailed  = "BOOKING_CREATE_FAILED"
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrInvalidPayload, CodeInvalidPayload},
	{ErrTenantNotFound, CodeTenantNotFound},
	{ErrServiceNotFound, CodeServiceNotFound},
	{ErrStaffNotFound, CodeStaffNotFound},
	{ErrTimeConflict, CodeTimeConflict},
	{ErrPackageInvalid, CodePackageInvalid},
	{ErrSubscriptionInvalid, CodeSubscriptionInvalid},
	{ErrCustomerCreateFailed, CodeCustomerCreateFailed},
	{ErrBookingCreateFailed, CodeBookingCreateFailed},
}

// ErrorCode возвращает код ошибки для ответа API.
// Незнакомые ошибки считаются BOOKING_CREATE_FAILED
func ErrorCode(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return CodeBookingCreateFailed
}
