package create_booking

import (
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/internal/service/bookings/models"
	createBooking "github.com/m04kA/SMC-ReservationEngine/internal/usecase/create_booking"
)

// CustomerRequest данные клиента
type CustomerRequest struct {
	Name  string  `json:"name"`
	Phone string  `json:"phone"`
	Email *string `json:"email,omitempty"`
}

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	ServiceID      int64           `json:"serviceId"`
	StaffID        *int64          `json:"staffId,omitempty"` // null - любой сотрудник
	Customer       CustomerRequest `json:"customer"`
	StartsAt       string          `json:"startsAt"` // RFC 3339, "2026-03-10T10:00:00-03:00"
	ExtraSlots     int             `json:"extraSlots,omitempty"`
	Notes          *string         `json:"notes,omitempty"`
	PaymentMethod  string          `json:"paymentMethod,omitempty"` // on_site | online
	CreatedVia     string          `json:"createdVia,omitempty"`    // web | messaging | internal | recurring
	PackageID      *int64          `json:"packageId,omitempty"`
	SubscriptionID *int64          `json:"subscriptionId,omitempty"`
}

// CreateBookingResponse HTTP response model
type CreateBookingResponse struct {
	Booking     *models.BookingResponse `json:"booking"`
	Benefit     models.BenefitResponse  `json:"benefit"`
	CustomerID  int64                   `json:"customerId"`
	ServiceName string                  `json:"serviceName"`
	Price       string                  `json:"price"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateBookingRequest) ToUseCaseRequest(tenantRef string) (*createBooking.Request, error) {
	startsAt, err := time.Parse(time.RFC3339, r.StartsAt)
	if err != nil {
		return nil, err
	}

	return &createBooking.Request{
		TenantRef: tenantRef,
		ServiceID: r.ServiceID,
		StaffID:   r.StaffID,
		Customer: createBooking.CustomerInput{
			Name:  r.Customer.Name,
			Phone: r.Customer.Phone,
			Email: r.Customer.Email,
		},
		StartsAt:               startsAt,
		ExtraSlots:             r.ExtraSlots,
		Notes:                  r.Notes,
		PaymentMethod:          domain.PaymentMethod(r.PaymentMethod),
		CreatedVia:             domain.CreatedVia(r.CreatedVia),
		ExplicitPackageID:      r.PackageID,
		ExplicitSubscriptionID: r.SubscriptionID,
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createBooking.Response) *CreateBookingResponse {
	out := &CreateBookingResponse{
		Booking: models.FromDomainBooking(resp.Booking),
		Benefit: models.FromBenefitSource(resp.Benefit),
	}
	if resp.Customer != nil {
		out.CustomerID = resp.Customer.ID
	}
	if resp.Service != nil {
		out.ServiceName = resp.Service.Name
		out.Price = resp.Service.Price.StringFixed(2)
	}
	return out
}
