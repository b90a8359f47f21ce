package domain

import (
	"time"

	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

// Lock is a short-lived advisory claim on a slot key.
// It exists only in the shared lock store and always self-expires;
// a crashed holder can never permanently block a slot.
type Lock struct {
	Key        SlotKey
	HolderID   string
	AcquiredAt time.Time
	ExpiresAt  time.Time
}

// HeldBy returns true if the lock belongs to the given holder
func (l *Lock) HeldBy(holderID string) bool {
	return l.HolderID == holderID
}

// SlotEvent is a per-slot state change delta broadcast to facility subscribers.
// Deltas never carry full state; subscribers reconcile via the day view.
type SlotEvent struct {
	FacilityID int64
	CourtID    int64
	Date       time.Time
	StartTime  types.TimeString
	NewStatus  SlotStatus
}
