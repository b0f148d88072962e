package domain

import "time"

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	StatusPendingPayment BookingStatus = "pending_payment"
	StatusConfirmed      BookingStatus = "confirmed"
	StatusCompleted      BookingStatus = "completed"
	StatusCancelled      BookingStatus = "cancelled"
	StatusNoShow         BookingStatus = "no_show"
)

// CreatedVia the channel a booking was created through
type CreatedVia string

const (
	CreatedViaWeb       CreatedVia = "web"
	CreatedViaMessaging CreatedVia = "messaging"
	CreatedViaInternal  CreatedVia = "internal"
	CreatedViaRecurring CreatedVia = "recurring"
)

// IsValid reports whether the channel is known
func (c CreatedVia) IsValid() bool {
	switch c {
	case CreatedViaWeb, CreatedViaMessaging, CreatedViaInternal, CreatedViaRecurring:
		return true
	}
	return false
}

// PaymentMethod how an unbenefited booking is paid
type PaymentMethod string

const (
	PaymentOnSite PaymentMethod = "on_site"
	PaymentOnline PaymentMethod = "online"
)

// IsValid reports whether the payment method is known
func (p PaymentMethod) IsValid() bool {
	return p == PaymentOnSite || p == PaymentOnline
}

// Booking represents a reservation of a staff member's time
type Booking struct {
	ID            int64
	TenantID      int64
	ServiceID     int64
	StaffID       int64
	CustomerID    int64
	StartsAt      time.Time
	EndsAt        time.Time
	Status        BookingStatus
	PaymentMethod PaymentMethod
	CreatedVia    CreatedVia
	Notes         *string

	// Benefit linkage, at most one is set
	PackageInstanceID      *int64
	SubscriptionInstanceID *int64

	CancelledAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsBlocking returns true if the booking occupies staff time
func (b *Booking) IsBlocking() bool {
	for _, s := range BlockingStatuses {
		if b.Status == s {
			return true
		}
	}
	return false
}

// CanBeCancelled returns true if the booking can be cancelled
func (b *Booking) CanBeCancelled() bool {
	return b.Status == StatusPendingPayment || b.Status == StatusConfirmed
}

// IsCancelled returns true if the booking has been cancelled
func (b *Booking) IsCancelled() bool {
	return b.Status == StatusCancelled
}

// Benefit returns the benefit the booking consumed
func (b *Booking) Benefit() BenefitSource {
	switch {
	case b.SubscriptionInstanceID != nil:
		return SubscriptionBenefit(*b.SubscriptionInstanceID)
	case b.PackageInstanceID != nil:
		return PackageBenefit(*b.PackageInstanceID)
	default:
		return NoBenefit()
	}
}

// Duration returns the booked time span
func (b *Booking) Duration() time.Duration {
	return b.EndsAt.Sub(b.StartsAt)
}
