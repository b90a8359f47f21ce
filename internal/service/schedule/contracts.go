package schedule

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/internal/integrations/courtservice"
)

// ScheduleRepository интерфейс репозитория расписания
type ScheduleRepository interface {
	GetWeeklyRules(ctx context.Context, facilityID int64) ([]*domain.WeeklyRule, error)
	UpsertWeeklyRule(ctx context.Context, rule *domain.WeeklyRule) (*domain.WeeklyRule, error)
	GetOverride(ctx context.Context, facilityID int64, date time.Time) (*domain.DateOverride, error)
	ListOverrides(ctx context.Context, facilityID int64, from time.Time) ([]*domain.DateOverride, error)
	CreateOverride(ctx context.Context, override *domain.DateOverride) (*domain.DateOverride, error)
	DeleteOverride(ctx context.Context, facilityID int64, date time.Time) error
}

// CourtServiceClient интерфейс клиента для CourtService
type CourtServiceClient interface {
	GetFacility(ctx context.Context, facilityID int64) (*courtservice.Facility, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
