package get_day_slots

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/internal/integrations/courtservice"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	// GetActiveByFacilityAndDate получает активные бронирования площадки на дату
	GetActiveByFacilityAndDate(ctx context.Context, facilityID int64, date time.Time) ([]*domain.Booking, error)
}

// ScheduleRepository интерфейс репозитория расписания
type ScheduleRepository interface {
	GetWeeklyRule(ctx context.Context, facilityID int64, dayOfWeek int) (*domain.WeeklyRule, error)
	GetOverride(ctx context.Context, facilityID int64, date time.Time) (*domain.DateOverride, error)
}

// LockStore интерфейс хранилища блокировок слотов
type LockStore interface {
	// GetHeld возвращает держателей для набора ключей одним запросом
	GetHeld(ctx context.Context, keys []domain.SlotKey) (map[domain.SlotKey]string, error)
}

// CourtServiceClient интерфейс клиента для CourtService
type CourtServiceClient interface {
	// GetActiveCourts возвращает площадку и её активные корты в порядке отображения
	GetActiveCourts(ctx context.Context, facilityID int64) (*courtservice.Facility, []courtservice.Court, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
