package domain

import "time"

// AvailableSlot a bookable start time for a staff member
type AvailableSlot struct {
	StartsAt time.Time
	StaffID  int64
}

// TimeRange a half-open time interval [Start, End)
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Overlaps returns true if both ranges share at least one instant.
// Touching ranges (one ends where the other starts) do not overlap
func (r TimeRange) Overlaps(other TimeRange) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}

// Contains returns true if other lies entirely inside r
func (r TimeRange) Contains(other TimeRange) bool {
	return !other.Start.Before(r.Start) && !other.End.After(r.End)
}

// Expand widens the range by d on both sides
func (r TimeRange) Expand(d time.Duration) TimeRange {
	return TimeRange{Start: r.Start.Add(-d), End: r.End.Add(d)}
}

// IsEmpty returns true if the range has no duration
func (r TimeRange) IsEmpty() bool {
	return !r.Start.Before(r.End)
}
