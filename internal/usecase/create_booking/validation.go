package create_booking

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

// minPhoneDigits минимальная длина нормализованного телефона (DDD + 8 цифр)
const minPhoneDigits = 10

// validateRequest валидирует входные данные запроса и нормализует телефон клиента
func validateRequest(req *Request) error {
	if strings.TrimSpace(req.TenantRef) == "" {
		return fmt.Errorf("%w: tenant is required", ErrInvalidPayload)
	}

	if req.ServiceID <= 0 {
		return fmt.Errorf("%w: serviceId must be positive", ErrInvalidPayload)
	}

	if req.StaffID != nil && *req.StaffID <= 0 {
		return fmt.Errorf("%w: staffId must be positive", ErrInvalidPayload)
	}

	req.Customer.Name = strings.TrimSpace(req.Customer.Name)
	nameLen := utf8.RuneCountInString(req.Customer.Name)
	if nameLen < domain.MinCustomerNameLength || nameLen > domain.MaxCustomerNameLength {
		return fmt.Errorf("%w: customer name must be %d-%d characters",
			ErrInvalidPayload, domain.MinCustomerNameLength, domain.MaxCustomerNameLength)
	}

	req.Customer.Phone = domain.NormalizePhone(req.Customer.Phone)
	if len(req.Customer.Phone) < minPhoneDigits {
		return fmt.Errorf("%w: customer phone is invalid", ErrInvalidPayload)
	}

	if req.Customer.Email != nil {
		email := strings.TrimSpace(*req.Customer.Email)
		if email == "" {
			req.Customer.Email = nil
		} else if !strings.Contains(email, "@") {
			return fmt.Errorf("%w: customer email is invalid", ErrInvalidPayload)
		} else {
			req.Customer.Email = &email
		}
	}

	if req.StartsAt.IsZero() {
		return fmt.Errorf("%w: startsAt is required", ErrInvalidPayload)
	}

	if req.ExtraSlots < 0 || req.ExtraSlots > domain.MaxExtraSlots {
		return fmt.Errorf("%w: extraSlots must be between 0 and %d", ErrInvalidPayload, domain.MaxExtraSlots)
	}

	if req.Notes != nil && utf8.RuneCountInString(*req.Notes) > domain.MaxNotesLength {
		return fmt.Errorf("%w: notes exceed %d characters", ErrInvalidPayload, domain.MaxNotesLength)
	}

	if req.PaymentMethod == "" {
		req.PaymentMethod = domain.PaymentOnSite
	}
	if !req.PaymentMethod.IsValid() {
		return fmt.Errorf("%w: unknown paymentMethod %q", ErrInvalidPayload, req.PaymentMethod)
	}

	if req.CreatedVia == "" {
		req.CreatedVia = domain.CreatedViaWeb
	}
	if !req.CreatedVia.IsValid() {
		return fmt.Errorf("%w: unknown createdVia %q", ErrInvalidPayload, req.CreatedVia)
	}

	if req.ExplicitPackageID != nil && req.ExplicitSubscriptionID != nil {
		return fmt.Errorf("%w: packageId and subscriptionId are mutually exclusive", ErrInvalidPayload)
	}

	return nil
}

// validateStartTime проверяет, что запись начинается в будущем
func validateStartTime(startsAt, now time.Time) error {
	if !startsAt.After(now) {
		return fmt.Errorf("%w: startsAt must be in the future", ErrInvalidPayload)
	}
	return nil
}

// bookingStatus начальный статус записи: ожидание оплаты только для онлайн-оплаты без льготы
func bookingStatus(method domain.PaymentMethod, benefit domain.BenefitSource) domain.BookingStatus {
	if method == domain.PaymentOnline && benefit.IsNone() {
		return domain.StatusPendingPayment
	}
	return domain.StatusConfirmed
}

// shouldNotify уведомление отправляется для записей без онлайн-оплаты, созданных не автоматически
func shouldNotify(booking *domain.Booking) bool {
	return booking.PaymentMethod != domain.PaymentOnline && booking.CreatedVia != domain.CreatedViaRecurring
}
