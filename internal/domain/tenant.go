package domain

import "time"

// Tenant owns services, staff, customers and bookings.
// Identity is immutable; Config is edited by admin tooling outside the engine
type Tenant struct {
	ID        int64
	Slug      string
	Name      string
	Timezone  string // IANA name, e.g. "America/Sao_Paulo"
	Active    bool
	Config    TenantConfig
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TenantConfig booking parameters of a tenant
type TenantConfig struct {
	SlotDurationMinutes    int
	BufferMinutes          int
	ExtraSlotMinutes       int
	SubscriptionGraceHours int
	OnlinePaymentEnabled   bool
}

// WithDefaults returns a copy where unset values are replaced by defaults.
// Zero buffer and zero grace are valid settings and are kept
func (c TenantConfig) WithDefaults() TenantConfig {
	if c.SlotDurationMinutes <= 0 {
		c.SlotDurationMinutes = DefaultSlotDurationMinutes
	}
	if c.BufferMinutes < 0 {
		c.BufferMinutes = DefaultBufferMinutes
	}
	if c.ExtraSlotMinutes <= 0 {
		c.ExtraSlotMinutes = DefaultExtraSlotMinutes
	}
	if c.SubscriptionGraceHours < 0 {
		c.SubscriptionGraceHours = DefaultSubscriptionGraceHours
	}
	return c
}

// SlotDuration returns the slot granularity
func (c TenantConfig) SlotDuration() time.Duration {
	return time.Duration(c.SlotDurationMinutes) * time.Minute
}

// Buffer returns the gap kept around every booking
func (c TenantConfig) Buffer() time.Duration {
	return time.Duration(c.BufferMinutes) * time.Minute
}

// GracePeriod returns how long a past_due subscription stays usable after a failed charge
func (c TenantConfig) GracePeriod() time.Duration {
	return time.Duration(c.SubscriptionGraceHours) * time.Hour
}

// TotalDuration returns service duration extended by extra slots
func (c TenantConfig) TotalDuration(serviceMinutes, extraSlots int) time.Duration {
	return time.Duration(serviceMinutes+extraSlots*c.ExtraSlotMinutes) * time.Minute
}

// Location resolves the tenant timezone, falling back when it is empty or unknown
func (t *Tenant) Location(fallback *time.Location) *time.Location {
	if t.Timezone != "" {
		if loc, err := time.LoadLocation(t.Timezone); err == nil {
			return loc
		}
	}
	if fallback != nil {
		return fallback
	}
	return time.UTC
}
