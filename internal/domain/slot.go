package domain

import (
	"time"

	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

// SlotStatus represents the client-facing state of a single slot
type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotLocked    SlotStatus = "locked"
	SlotReserved  SlotStatus = "reserved"
	SlotConfirmed SlotStatus = "confirmed"
)

// SlotKey identifies one bookable time window of one court.
// Slot start times double as lock keys, so generation must be deterministic.
type SlotKey struct {
	FacilityID int64
	CourtID    int64
	Date       time.Time
	StartTime  types.TimeString
}

// Slot is a value object of the day view; it is never persisted
type Slot struct {
	CourtID   int64
	Date      time.Time
	StartTime types.TimeString
	EndTime   types.TimeString
	Status    SlotStatus
	BookingID *int64
}

// Key returns the slot key for the given facility
func (s *Slot) Key(facilityID int64) SlotKey {
	return SlotKey{
		FacilityID: facilityID,
		CourtID:    s.CourtID,
		Date:       s.Date,
		StartTime:  s.StartTime,
	}
}
