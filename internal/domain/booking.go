package domain

import (
	"time"

	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	StatusPendingPayment     BookingStatus = "pending_payment"
	StatusConfirmed          BookingStatus = "confirmed"
	StatusCancelledByUser    BookingStatus = "cancelled_by_user"
	StatusCancelledByCompany BookingStatus = "cancelled_by_company"
	StatusNoShow             BookingStatus = "no_show"
)

// Booking represents a court booking in the system
type Booking struct {
	ID              int64
	UserID          int64
	FacilityID      int64
	CourtID         int64
	BookingDate     time.Time
	StartTime       types.TimeString
	DurationMinutes int
	Status          BookingStatus

	Notes              *string
	CancellationReason *string
	CancelledAt        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive returns true if the booking still occupies its slot
func (b *Booking) IsActive() bool {
	return b.Status != StatusCancelledByUser &&
		b.Status != StatusCancelledByCompany &&
		b.Status != StatusNoShow
}

// CanBeCancelled returns true if the booking can be cancelled
func (b *Booking) CanBeCancelled() bool {
	return b.Status == StatusPendingPayment || b.Status == StatusConfirmed
}

// CanBeConfirmed returns true if the booking is awaiting payment
func (b *Booking) CanBeConfirmed() bool {
	return b.Status == StatusPendingPayment
}

// IsCancelled returns true if the booking has been cancelled
func (b *Booking) IsCancelled() bool {
	return b.Status == StatusCancelledByUser || b.Status == StatusCancelledByCompany
}

// SlotStatus maps the booking status onto the day-view slot status
func (b *Booking) SlotStatus() SlotStatus {
	if b.Status == StatusConfirmed {
		return SlotConfirmed
	}
	return SlotReserved
}

// SlotKey returns the slot key occupied by this booking
func (b *Booking) SlotKey() SlotKey {
	return SlotKey{
		FacilityID: b.FacilityID,
		CourtID:    b.CourtID,
		Date:       b.BookingDate,
		StartTime:  b.StartTime,
	}
}

// FacilityBookingsFilter фильтр для получения бронирований площадки
type FacilityBookingsFilter struct {
	FacilityID      int64          // Обязательный параметр
	CourtID         *int64         // Фильтр по корту (опционально)
	StartDate       *time.Time     // Начало периода (опционально)
	EndDate         *time.Time     // Конец периода (опционально)
	Status          *BookingStatus // Фильтр по статусу (опционально)
	IncludeInactive bool           // Включать ли неактивные бронирования
}
