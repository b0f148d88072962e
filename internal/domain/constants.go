package domain

// Default tenant configuration values
const (
	DefaultSlotDurationMinutes    = 30
	DefaultBufferMinutes          = 0
	DefaultExtraSlotMinutes       = 15
	DefaultSubscriptionGraceHours = 48
	DefaultSubscriptionPeriodDays = 30
	DefaultTimezone               = "America/Sao_Paulo"
)

// Business validation constants
const (
	MinSlotDurationMinutes = 5
	MaxSlotDurationMinutes = 480 // 8 hours
	MaxBufferMinutes       = 240
	MaxExtraSlots          = 12
	MaxNotesLength         = 500
	MaxCustomerNameLength  = 120
	MinCustomerNameLength  = 2
)

// Time format constants
const (
	TimeFormat        = "15:04"      // HH:MM
	DateFormat        = "2006-01-02" // YYYY-MM-DD
	DisplayDateFormat = "02/01/2006" // DD/MM/YYYY, used by the messaging channel
)

// BlockingStatuses booking statuses that occupy staff time.
// Used when computing availability and when checking reservation conflicts
var BlockingStatuses = []BookingStatus{
	StatusPendingPayment,
	StatusConfirmed,
	StatusCompleted,
}

// BlockingStatusStrings BlockingStatuses as plain strings for SQL filters
func BlockingStatusStrings() []string {
	out := make([]string, len(BlockingStatuses))
	for i, s := range BlockingStatuses {
		out[i] = string(s)
	}
	return out
}
