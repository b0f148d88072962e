package domain

import (
	"errors"
	"time"
)

var (
	ErrNoSessionsRemaining = errors.New("domain: no sessions remaining")
	ErrBookingNotLinked    = errors.New("domain: booking is not linked to usage record")
)

// BenefitKind what pays for a booking
type BenefitKind string

const (
	BenefitNone         BenefitKind = "none"
	BenefitPackage      BenefitKind = "package"
	BenefitSubscription BenefitKind = "subscription"
)

// BenefitSource resolved benefit of a booking
type BenefitSource struct {
	Kind                   BenefitKind
	PackageInstanceID      *int64
	SubscriptionInstanceID *int64
}

func NoBenefit() BenefitSource {
	return BenefitSource{Kind: BenefitNone}
}

func PackageBenefit(instanceID int64) BenefitSource {
	return BenefitSource{Kind: BenefitPackage, PackageInstanceID: &instanceID}
}

func SubscriptionBenefit(instanceID int64) BenefitSource {
	return BenefitSource{Kind: BenefitSubscription, SubscriptionInstanceID: &instanceID}
}

// IsNone returns true if the booking is not covered by a benefit
func (b BenefitSource) IsNone() bool {
	return b.Kind == "" || b.Kind == BenefitNone
}

// PackageStatus status of a purchased package
type PackageStatus string

const (
	PackageActive         PackageStatus = "active"
	PackagePendingPayment PackageStatus = "pending_payment"
	PackageCompleted      PackageStatus = "completed"
	PackageCancelled      PackageStatus = "cancelled"
)

// PaymentStatus status of the charge behind a package purchase
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusConfirmed PaymentStatus = "confirmed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// PackageInstance a customer's purchase of a package with an aggregate session count
type PackageInstance struct {
	ID            int64
	TenantID      int64
	CustomerID    int64
	PackageID     int64
	Status        PackageStatus
	PaymentStatus PaymentStatus
	SessionsUsed  int
	SessionsTotal int
	PurchasedAt   time.Time
	UpdatedAt     time.Time
}

// IsUsable returns true if sessions of the package can be booked
func (p *PackageInstance) IsUsable() bool {
	return p.Status == PackageActive && p.PaymentStatus == PaymentStatusConfirmed
}

// Consume counts one session against the aggregate; the instance completes when it runs out
func (p *PackageInstance) Consume() error {
	if p.SessionsUsed >= p.SessionsTotal {
		return ErrNoSessionsRemaining
	}
	p.SessionsUsed++
	if p.SessionsUsed >= p.SessionsTotal {
		p.Status = PackageCompleted
	}
	return nil
}

// Release returns one session; a completed instance becomes active again once below total
func (p *PackageInstance) Release() {
	if p.SessionsUsed > 0 {
		p.SessionsUsed--
	}
	if p.Status == PackageCompleted && p.SessionsUsed < p.SessionsTotal {
		p.Status = PackageActive
	}
}

// PackageServiceUsage per-service session counter of a package instance
type PackageServiceUsage struct {
	ID                int64
	PackageInstanceID int64
	ServiceID         int64
	SessionsUsed      int
	SessionsTotal     int
	BookingIDs        []int64 // bookings that consumed a session
}

// HasRemaining returns true if another session of the service can be booked
func (u *PackageServiceUsage) HasRemaining() bool {
	return u.SessionsUsed < u.SessionsTotal
}

// Consume counts a session for the booking and links it to the counter
func (u *PackageServiceUsage) Consume(bookingID int64) error {
	if !u.HasRemaining() {
		return ErrNoSessionsRemaining
	}
	u.BookingIDs = append(u.BookingIDs, bookingID)
	u.SessionsUsed++
	return nil
}

// Release returns the session of a linked booking, clamped at zero.
// A booking that never consumed a session is rejected with ErrBookingNotLinked
func (u *PackageServiceUsage) Release(bookingID int64) error {
	for i, id := range u.BookingIDs {
		if id == bookingID {
			u.BookingIDs = append(u.BookingIDs[:i:i], u.BookingIDs[i+1:]...)
			if u.SessionsUsed > 0 {
				u.SessionsUsed--
			}
			return nil
		}
	}
	return ErrBookingNotLinked
}

// HasBooking returns true if the booking already consumed a session of this counter
func (u *PackageServiceUsage) HasBooking(bookingID int64) bool {
	for _, id := range u.BookingIDs {
		if id == bookingID {
			return true
		}
	}
	return false
}

// SubscriptionStatus status of a recurring subscription
type SubscriptionStatus string

const (
	SubscriptionActive     SubscriptionStatus = "active"
	SubscriptionAuthorized SubscriptionStatus = "authorized"
	SubscriptionPastDue    SubscriptionStatus = "past_due"
	SubscriptionCancelled  SubscriptionStatus = "cancelled"
)

// SubscriptionInstance a customer's subscription to a plan
type SubscriptionInstance struct {
	ID                 int64
	TenantID           int64
	CustomerID         int64
	PlanID             int64
	Status             SubscriptionStatus
	CoveredServiceIDs  []int64 // services included in the plan
	StartedAt          time.Time
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	FailedAt           *time.Time // set when a charge fails, starts the grace clock
	UpdatedAt          time.Time
}

// Covers returns true if the plan includes the service
func (s *SubscriptionInstance) Covers(serviceID int64) bool {
	for _, id := range s.CoveredServiceIDs {
		if id == serviceID {
			return true
		}
	}
	return false
}

// Period returns the current billing period. A missing end defaults to start + 30 days
func (s *SubscriptionInstance) Period() TimeRange {
	start := s.StartedAt
	if s.CurrentPeriodStart != nil {
		start = *s.CurrentPeriodStart
	}
	end := start.AddDate(0, 0, DefaultSubscriptionPeriodDays)
	if s.CurrentPeriodEnd != nil {
		end = *s.CurrentPeriodEnd
	}
	return TimeRange{Start: start, End: end}
}

// IsEligible checks status, grace window and billing period at the given moment.
// Service coverage is checked separately with Covers
func (s *SubscriptionInstance) IsEligible(now time.Time, grace time.Duration) bool {
	switch s.Status {
	case SubscriptionActive, SubscriptionAuthorized:
	case SubscriptionPastDue:
		if s.FailedAt == nil || now.Sub(*s.FailedAt) > grace {
			return false
		}
	default:
		return false
	}

	period := s.Period()
	return !now.Before(period.Start) && !now.After(period.End)
}

// SubscriptionUsage sessions of one service used within one billing period.
// Usage is tracked, never capped
type SubscriptionUsage struct {
	ID                     int64
	SubscriptionInstanceID int64
	ServiceID              int64
	PeriodStart            time.Time
	PeriodEnd              time.Time
	SessionsUsed           int
	BookingIDs             []int64
}

// Record links a booking to the period. Recording the same booking twice is a no-op
func (u *SubscriptionUsage) Record(bookingID int64) {
	for _, id := range u.BookingIDs {
		if id == bookingID {
			return
		}
	}
	u.BookingIDs = append(u.BookingIDs, bookingID)
	u.SessionsUsed++
}

// Remove unlinks a booking and decrements the counter, clamped at zero
func (u *SubscriptionUsage) Remove(bookingID int64) error {
	for i, id := range u.BookingIDs {
		if id == bookingID {
			u.BookingIDs = append(u.BookingIDs[:i:i], u.BookingIDs[i+1:]...)
			if u.SessionsUsed > 0 {
				u.SessionsUsed--
			}
			return nil
		}
	}
	return ErrBookingNotLinked
}

// HasBooking returns true if the booking is linked to this usage record
func (u *SubscriptionUsage) HasBooking(bookingID int64) bool {
	for _, id := range u.BookingIDs {
		if id == bookingID {
			return true
		}
	}
	return false
}
