package notifier

import (
	"time"

	"github.com/google/uuid"
)

// RoutingKeyBookingConfirmed ключ маршрутизации события о подтвержденной записи
const RoutingKeyBookingConfirmed = "booking.confirmed"

// BookingConfirmed событие для сервиса уведомлений
type BookingConfirmed struct {
	EventID       uuid.UUID `json:"event_id"`
	TenantID      int64     `json:"tenant_id"`
	BookingID     int64     `json:"booking_id"`
	CustomerID    int64     `json:"customer_id"`
	CustomerName  string    `json:"customer_name"`
	CustomerPhone string    `json:"customer_phone"`
	ServiceID     int64     `json:"service_id"`
	StaffID       int64     `json:"staff_id"`
	StartsAt      time.Time `json:"starts_at"`
	EndsAt        time.Time `json:"ends_at"`
	Channel       string    `json:"channel"`
	OccurredAt    time.Time `json:"occurred_at"`
}
