package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-ReservationEngine/pkg/types"
)

// Service a bookable service of a tenant. Read-only for the engine
type Service struct {
	ID              int64
	TenantID        int64
	Name            string
	DurationMinutes int
	Price           decimal.Decimal
	Active          bool
}

// StaffMember a person who performs services
type StaffMember struct {
	ID       int64
	TenantID int64
	Name     string
	Active   bool
	// ServiceIDs restricts the staff member to a subset of services; empty means all services
	ServiceIDs []int64
}

// CanPerform returns true if the staff member is active and allowed to perform the service
func (s *StaffMember) CanPerform(serviceID int64) bool {
	if !s.Active {
		return false
	}
	if len(s.ServiceIDs) == 0 {
		return true
	}
	for _, id := range s.ServiceIDs {
		if id == serviceID {
			return true
		}
	}
	return false
}

// WorkingHoursEntry working hours of a staff member for one weekday
type WorkingHoursEntry struct {
	ID         int64
	StaffID    int64
	Weekday    time.Weekday
	StartTime  types.TimeString
	EndTime    types.TimeString
	BreakStart *types.TimeString
	BreakEnd   *types.TimeString
	Active     bool
}

// HasBreak returns true if a valid break window is set
func (w *WorkingHoursEntry) HasBreak() bool {
	return w.BreakStart != nil && w.BreakEnd != nil && w.BreakStart.IsBefore(*w.BreakEnd)
}

// BlackoutPeriod blocks booking for one staff member or, when StaffID is nil, for the whole tenant
type BlackoutPeriod struct {
	ID       int64
	TenantID int64
	StaffID  *int64
	StartsAt time.Time
	EndsAt   time.Time
	Reason   *string
}

// AppliesTo returns true if the blackout blocks the given staff member
func (b *BlackoutPeriod) AppliesTo(staffID int64) bool {
	return b.StaffID == nil || *b.StaffID == staffID
}
