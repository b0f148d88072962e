package models

import (
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

// BenefitResponse источник оплаты записи
type BenefitResponse struct {
	Kind       string `json:"kind"` // none, package, subscription
	InstanceID *int64 `json:"instanceId,omitempty"`
}

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	ID            int64   `json:"id"`
	TenantID      int64   `json:"tenantId"`
	ServiceID     int64   `json:"serviceId"`
	StaffID       int64   `json:"staffId"`
	CustomerID    int64   `json:"customerId"`
	StartsAt      string  `json:"startsAt"` // RFC 3339
	EndsAt        string  `json:"endsAt"`
	Status        string  `json:"status"`
	PaymentMethod string  `json:"paymentMethod"`
	CreatedVia    string  `json:"createdVia"`
	Notes         *string `json:"notes,omitempty"`

	Benefit BenefitResponse `json:"benefit"`

	CancelledAt *string `json:"cancelledAt,omitempty"` // ISO 8601 format

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FromDomainBooking конвертирует domain модель в DTO
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	if b == nil {
		return nil
	}

	resp := &BookingResponse{
		ID:            b.ID,
		TenantID:      b.TenantID,
		ServiceID:     b.ServiceID,
		StaffID:       b.StaffID,
		CustomerID:    b.CustomerID,
		StartsAt:      b.StartsAt.Format(time.RFC3339),
		EndsAt:        b.EndsAt.Format(time.RFC3339),
		Status:        string(b.Status),
		PaymentMethod: string(b.PaymentMethod),
		CreatedVia:    string(b.CreatedVia),
		Notes:         b.Notes,
		Benefit:       FromBenefitSource(b.Benefit()),
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}

	if b.CancelledAt != nil {
		cancelledAt := b.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &cancelledAt
	}

	return resp
}

// FromBenefitSource конвертирует источник оплаты в DTO
func FromBenefitSource(src domain.BenefitSource) BenefitResponse {
	if src.IsNone() {
		return BenefitResponse{Kind: string(domain.BenefitNone)}
	}
	resp := BenefitResponse{Kind: string(src.Kind)}
	switch src.Kind {
	case domain.BenefitPackage:
		resp.InstanceID = src.PackageInstanceID
	case domain.BenefitSubscription:
		resp.InstanceID = src.SubscriptionInstanceID
	}
	return resp
}
