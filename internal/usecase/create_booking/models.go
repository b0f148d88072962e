package create_booking

import (
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

// CustomerInput данные клиента из запроса
type CustomerInput struct {
	Name  string
	Phone string // в любом формате, нормализуется
	Email *string
}

// Request модель запроса на создание бронирования
type Request struct {
	TenantRef     string // ID или slug арендатора
	ServiceID     int64
	StaffID       *int64 // nil - любой сотрудник
	Customer      CustomerInput
	StartsAt      time.Time
	ExtraSlots    int
	Notes         *string
	PaymentMethod domain.PaymentMethod
	CreatedVia    domain.CreatedVia

	ExplicitPackageID      *int64
	ExplicitSubscriptionID *int64
}

// Response модель ответа с созданным бронированием
type Response struct {
	Booking  *domain.Booking
	Benefit  domain.BenefitSource
	Customer *domain.Customer
	Tenant   *domain.Tenant
	Service  *domain.Service
}
