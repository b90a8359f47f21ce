package create_booking

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/internal/integrations/courtservice"
	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	ExistsActiveAtSlot(ctx context.Context, courtID int64, date time.Time, startTime types.TimeString) (bool, error)
}

// ScheduleRepository интерфейс репозитория расписания
type ScheduleRepository interface {
	GetWeeklyRule(ctx context.Context, facilityID int64, dayOfWeek int) (*domain.WeeklyRule, error)
	GetOverride(ctx context.Context, facilityID int64, date time.Time) (*domain.DateOverride, error)
}

// LockStore интерфейс хранилища блокировок слотов
type LockStore interface {
	Get(ctx context.Context, key domain.SlotKey) (*domain.Lock, error)
	Release(ctx context.Context, key domain.SlotKey, holderID string) (bool, error)
}

// CourtServiceClient интерфейс клиента для CourtService
type CourtServiceClient interface {
	GetFacility(ctx context.Context, facilityID int64) (*courtservice.Facility, error)
}

// Broadcaster интерфейс публикации дельт состояния слотов
type Broadcaster interface {
	Publish(ctx context.Context, event domain.SlotEvent) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
