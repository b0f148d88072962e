package reservation

import (
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

// Request параметры резервирования
type Request struct {
	TenantID      int64
	ServiceID     int64
	StaffID       *int64 // nil - первый активный сотрудник, оказывающий услугу
	CustomerID    int64
	StartsAt      time.Time
	EndsAt        time.Time
	Buffer        time.Duration
	Status        domain.BookingStatus
	PaymentMethod domain.PaymentMethod
	CreatedVia    domain.CreatedVia
	Notes         *string
	Benefit       domain.BenefitSource
}

func (r *Request) validate() error {
	if r.TenantID <= 0 || r.ServiceID <= 0 || r.CustomerID <= 0 {
		return ErrInvalidRequest
	}
	if !r.StartsAt.Before(r.EndsAt) || r.Buffer < 0 {
		return ErrInvalidRequest
	}
	return nil
}
