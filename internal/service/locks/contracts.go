package locks

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/internal/integrations/courtservice"
	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

// LockStore интерфейс хранилища блокировок слотов
type LockStore interface {
	Acquire(ctx context.Context, key domain.SlotKey, holderID string, ttl time.Duration) (*domain.Lock, error)
	Release(ctx context.Context, key domain.SlotKey, holderID string) (bool, error)
	Renew(ctx context.Context, key domain.SlotKey, holderID string, additional time.Duration) (*domain.Lock, error)
	Get(ctx context.Context, key domain.SlotKey) (*domain.Lock, error)
}

// ScheduleRepository интерфейс репозитория расписания
type ScheduleRepository interface {
	GetWeeklyRule(ctx context.Context, facilityID int64, dayOfWeek int) (*domain.WeeklyRule, error)
	GetOverride(ctx context.Context, facilityID int64, date time.Time) (*domain.DateOverride, error)
}

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	ExistsActiveAtSlot(ctx context.Context, courtID int64, date time.Time, startTime types.TimeString) (bool, error)
}

// CourtServiceClient интерфейс клиента для CourtService
type CourtServiceClient interface {
	GetFacility(ctx context.Context, facilityID int64) (*courtservice.Facility, error)
}

// Broadcaster интерфейс публикации дельт состояния слотов
type Broadcaster interface {
	Publish(ctx context.Context, event domain.SlotEvent) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
