package domain

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

// WeeklyRule is the recurring operating rule for one weekday of a facility.
// A row exists for all 7 days once the facility is onboarded; rows are
// overwritten by bulk updates, never deleted.
type WeeklyRule struct {
	ID                     int64
	FacilityID             int64
	DayOfWeek              int // 0 = Sunday ... 6 = Saturday, matches time.Weekday
	OpenTime               types.TimeString
	CloseTime              types.TimeString
	IsClosed               bool
	SessionDurationMinutes int
	BufferMinutes          int
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// DateOverride replaces the weekly rule for one exact date.
// It carries no duration configuration; session duration and buffer
// always come from the weekday's weekly rule.
type DateOverride struct {
	ID         int64
	FacilityID int64
	Date       time.Time
	OpenTime   *types.TimeString
	CloseTime  *types.TimeString
	IsClosed   bool
	Reason     *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// EffectiveHours is the resolved open/close state for one calendar date
// after applying any date override onto the recurring weekly rule.
type EffectiveHours struct {
	IsOpen                 bool
	OpenTime               types.TimeString
	CloseTime              types.TimeString
	SessionDurationMinutes int
	BufferMinutes          int
	IsOverride             bool
	Reason                 *string
}

// StepMinutes is the distance between consecutive slot starts.
// The buffer portion is dead time and is never itself bookable.
func (e EffectiveHours) StepMinutes() int {
	return e.SessionDurationMinutes + e.BufferMinutes
}

// ResolveEffectiveHours merges a date override onto the weekly rule.
// Both arguments are optional: a missing weekly rule means the facility is
// closed that day (unless an override opens it), and duration settings fall
// back to the defaults. An override, when present, fully determines
// isOpen/openTime/closeTime for the date.
func ResolveEffectiveHours(weekly *WeeklyRule, override *DateOverride) EffectiveHours {
	eff := EffectiveHours{
		SessionDurationMinutes: DefaultSessionDurationMinutes,
		BufferMinutes:          DefaultBufferMinutes,
	}
	if weekly != nil {
		eff.SessionDurationMinutes = weekly.SessionDurationMinutes
		eff.BufferMinutes = weekly.BufferMinutes
	}

	if override != nil {
		eff.IsOverride = true
		eff.Reason = override.Reason

		if override.IsClosed || override.OpenTime == nil || override.CloseTime == nil {
			return eff
		}

		eff.IsOpen = true
		eff.OpenTime = *override.OpenTime
		eff.CloseTime = *override.CloseTime
		return eff
	}

	if weekly == nil || weekly.IsClosed {
		return eff
	}

	eff.IsOpen = true
	eff.OpenTime = weekly.OpenTime
	eff.CloseTime = weekly.CloseTime
	return eff
}

// SlotStarts expands the effective hours into the ordered list of slot start
// times for the date. Slot n starts at openTime + n*step; the count is
// floor((close-open)/step), so every slot's session AND trailing buffer fit
// before closing. Identical effective hours always produce an identical
// list - slot start times double as lock keys.
func (e EffectiveHours) SlotStarts() []types.TimeString {
	if !e.IsOpen || e.StepMinutes() <= 0 || e.SessionDurationMinutes <= 0 {
		return []types.TimeString{}
	}

	openMinutes, err := e.OpenTime.TotalMinutes()
	if err != nil {
		return []types.TimeString{}
	}
	closeMinutes, err := e.CloseTime.TotalMinutes()
	if err != nil {
		return []types.TimeString{}
	}
	if closeMinutes <= openMinutes {
		return []types.TimeString{}
	}

	step := e.StepMinutes()
	count := (closeMinutes - openMinutes) / step
	starts := make([]types.TimeString, 0, count)

	for n := 0; n < count; n++ {
		starts = append(starts, minutesToTimeString(openMinutes+n*step))
	}

	return starts
}

// ContainsSlotStart reports whether t is exactly one of the generated slot
// start times: aligned to the step grid and within the floor((close-open)/step)
// slot count, mirroring SlotStarts.
func (e EffectiveHours) ContainsSlotStart(t types.TimeString) bool {
	if !e.IsOpen || e.StepMinutes() <= 0 || e.SessionDurationMinutes <= 0 {
		return false
	}

	openMinutes, err := e.OpenTime.TotalMinutes()
	if err != nil {
		return false
	}
	closeMinutes, err := e.CloseTime.TotalMinutes()
	if err != nil {
		return false
	}
	startMinutes, err := t.TotalMinutes()
	if err != nil {
		return false
	}

	if startMinutes < openMinutes {
		return false
	}

	step := e.StepMinutes()
	if (startMinutes-openMinutes)%step != 0 {
		return false
	}
	return (startMinutes-openMinutes)/step < (closeMinutes-openMinutes)/step
}

// SessionEnd returns the end time of a session starting at t
func (e EffectiveHours) SessionEnd(t types.TimeString) (types.TimeString, error) {
	return t.AddMinutes(e.SessionDurationMinutes)
}

func minutesToTimeString(m int) types.TimeString {
	return types.TimeString(fmt.Sprintf("%02d:%02d", m/60, m%60))
}
