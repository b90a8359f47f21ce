package domain

// Default schedule values used when a facility has no weekly rule row for a weekday
const (
	DefaultSessionDurationMinutes = 60
	DefaultBufferMinutes          = 0
)

// Business validation constants
const (
	MinSessionDurationMinutes = 15
	MaxSessionDurationMinutes = 480 // 8 hours
	MinBufferMinutes          = 0
	MaxBufferMinutes          = 120
	MaxOverrideReasonLength   = 500
	MaxCancelReasonLength     = 500
)

// Lock TTL bounds in seconds; the effective default comes from config
const (
	DefaultLockTTLSeconds = 90
	MinLockTTLSeconds     = 10
	MaxLockTTLSeconds     = 600
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// InactiveStatuses bookings in these statuses do not occupy a slot
var InactiveStatuses = []BookingStatus{
	StatusCancelledByUser,
	StatusCancelledByCompany,
	StatusNoShow,
}
