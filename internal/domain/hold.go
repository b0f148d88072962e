package domain

import (
	"time"

	"github.com/google/uuid"
)

// HoldStatus status of a reservation hold
type HoldStatus string

const (
	HoldActive    HoldStatus = "active"
	HoldConverted HoldStatus = "converted"
	HoldExpired   HoldStatus = "expired"
)

// ReservationHold short-lived claim on a staff time window made by a conversation.
// It hides the window from other conversations, the reservation conflict check ignores it
type ReservationHold struct {
	ID              uuid.UUID
	TenantID        int64
	StaffID         int64
	ServiceID       int64
	ConversationKey string
	StartsAt        time.Time
	EndsAt          time.Time
	ExpiresAt       time.Time
	Status          HoldStatus
	BookingID       *int64
	CreatedAt       time.Time
}

// IsActiveAt returns true if the hold still blocks the window at the given moment
func (h *ReservationHold) IsActiveAt(now time.Time) bool {
	return h.Status == HoldActive && now.Before(h.ExpiresAt)
}

// Range returns the held window
func (h *ReservationHold) Range() TimeRange {
	return TimeRange{Start: h.StartsAt, End: h.EndsAt}
}
