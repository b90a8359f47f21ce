package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	scheduleRepo "github.com/m04kA/SMC-AvailabilityService/internal/infra/storage/schedule"
	courtClient "github.com/m04kA/SMC-AvailabilityService/internal/integrations/courtservice"
	"github.com/m04kA/SMC-AvailabilityService/internal/service/schedule/models"
	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

// Service сервис для работы с расписанием площадок
type Service struct {
	scheduleRepo ScheduleRepository
	courtClient  CourtServiceClient
	txManager    TransactionManager
	logger       Logger
}

// NewService создает новый экземпляр сервиса расписания
func NewService(
	scheduleRepo ScheduleRepository,
	courtClient CourtServiceClient,
	txManager TransactionManager,
	logger Logger,
) *Service {
	return &Service{
		scheduleRepo: scheduleRepo,
		courtClient:  courtClient,
		txManager:    txManager,
		logger:       logger,
	}
}

// GetSchedule получает недельное расписание площадки с предстоящими переопределениями
// Публичный метод - доступен всем
func (s *Service) GetSchedule(ctx context.Context, facilityID int64) (*models.ScheduleResponse, error) {
	s.logger.Info("GetSchedule: fetching schedule for facility=%d", facilityID)

	rules, err := s.scheduleRepo.GetWeeklyRules(ctx, facilityID)
	if err != nil {
		s.logger.Error("GetSchedule: repository error for facility=%d: %v", facilityID, err)
		return nil, fmt.Errorf("%w: GetSchedule - repository error: %v", ErrInternal, err)
	}

	// Прошедшие переопределения интереса не представляют
	overrides, err := s.scheduleRepo.ListOverrides(ctx, facilityID, truncateToDate(time.Now()))
	if err != nil {
		s.logger.Error("GetSchedule: overrides lookup failed for facility=%d: %v", facilityID, err)
		return nil, fmt.Errorf("%w: GetSchedule - overrides lookup: %v", ErrInternal, err)
	}

	s.logger.Info("GetSchedule: fetched %d rules and %d overrides for facility=%d",
		len(rules), len(overrides), facilityID)
	return models.FromDomainSchedule(facilityID, rules, overrides), nil
}

// UpdateSchedule массово обновляет правила недельного расписания
// Доступно только менеджерам площадки. Все правила применяются в одной
// транзакции - расписание не бывает обновлённым наполовину.
func (s *Service) UpdateSchedule(ctx context.Context, req *models.UpdateScheduleRequest) (*models.ScheduleResponse, error) {
	s.logger.Info("UpdateSchedule: updating %d rules for facility=%d by user=%d",
		len(req.Rules), req.FacilityID, req.UserID)

	// 1. Валидируем входные данные
	if len(req.Rules) == 0 {
		return nil, fmt.Errorf("%w: rules must not be empty", ErrInvalidInput)
	}
	for i := range req.Rules {
		if err := s.validateRule(&req.Rules[i]); err != nil {
			s.logger.Warn("UpdateSchedule: validation failed for facility=%d day=%d: %v",
				req.FacilityID, req.Rules[i].DayOfWeek, err)
			return nil, err
		}
	}

	// 2. Проверяем права доступа (только менеджер площадки)
	if err := s.checkManagerAccess(ctx, req.FacilityID, req.UserID); err != nil {
		return nil, err
	}

	// 3. Применяем правила в одной транзакции
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		for i := range req.Rules {
			rule := req.Rules[i].ToDomainRule(req.FacilityID)
			if _, err := s.scheduleRepo.UpsertWeeklyRule(ctx, rule); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("UpdateSchedule: transaction failed for facility=%d: %v", req.FacilityID, err)
		return nil, fmt.Errorf("%w: UpdateSchedule - transaction: %v", ErrInternal, err)
	}

	s.logger.Info("UpdateSchedule: successfully updated %d rules for facility=%d", len(req.Rules), req.FacilityID)
	return s.GetSchedule(ctx, req.FacilityID)
}

// CreateOverride создаёт переопределение расписания на конкретную дату
// Доступно только менеджерам площадки. На одну дату допускается
// не более одного переопределения.
func (s *Service) CreateOverride(ctx context.Context, req *models.CreateOverrideRequest) (*models.OverrideResponse, error) {
	s.logger.Info("CreateOverride: facility=%d date=%s by user=%d", req.FacilityID, req.Date, req.UserID)

	// 1. Валидируем и конвертируем запрос
	override, err := req.ToDomainOverride()
	if err != nil {
		s.logger.Warn("CreateOverride: invalid date=%s for facility=%d", req.Date, req.FacilityID)
		return nil, fmt.Errorf("%w: invalid date format, expected YYYY-MM-DD", ErrInvalidInput)
	}
	if err := s.validateOverride(override); err != nil {
		s.logger.Warn("CreateOverride: validation failed for facility=%d: %v", req.FacilityID, err)
		return nil, err
	}

	// 2. Проверяем права доступа (только менеджер площадки)
	if err := s.checkManagerAccess(ctx, req.FacilityID, req.UserID); err != nil {
		return nil, err
	}

	// 3. Создаём переопределение
	created, err := s.scheduleRepo.CreateOverride(ctx, override)
	if err != nil {
		if errors.Is(err, scheduleRepo.ErrDuplicateOverride) {
			s.logger.Warn("CreateOverride: override already exists for facility=%d date=%s",
				req.FacilityID, req.Date)
			return nil, ErrOverrideAlreadyExists
		}
		s.logger.Error("CreateOverride: repository error for facility=%d: %v", req.FacilityID, err)
		return nil, fmt.Errorf("%w: CreateOverride - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("CreateOverride: successfully created override id=%d for facility=%d date=%s",
		created.ID, req.FacilityID, req.Date)
	resp := models.FromDomainOverride(created)
	return &resp, nil
}

// DeleteOverride удаляет переопределение на дату
// Доступно только менеджерам площадки
func (s *Service) DeleteOverride(ctx context.Context, facilityID int64, date time.Time, userID int64) error {
	s.logger.Info("DeleteOverride: facility=%d date=%s by user=%d",
		facilityID, date.Format(domain.DateFormat), userID)

	// Проверяем права доступа (только менеджер площадки)
	if err := s.checkManagerAccess(ctx, facilityID, userID); err != nil {
		return err
	}

	if err := s.scheduleRepo.DeleteOverride(ctx, facilityID, date); err != nil {
		if errors.Is(err, scheduleRepo.ErrOverrideNotFound) {
			s.logger.Warn("DeleteOverride: override not found for facility=%d date=%s",
				facilityID, date.Format(domain.DateFormat))
			return ErrOverrideNotFound
		}
		s.logger.Error("DeleteOverride: repository error for facility=%d: %v", facilityID, err)
		return fmt.Errorf("%w: DeleteOverride - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("DeleteOverride: successfully deleted override for facility=%d date=%s",
		facilityID, date.Format(domain.DateFormat))
	return nil
}

// Вспомогательные методы

// checkManagerAccess проверяет, что пользователь является менеджером площадки
func (s *Service) checkManagerAccess(ctx context.Context, facilityID int64, userID int64) error {
	facility, err := s.courtClient.GetFacility(ctx, facilityID)
	if err != nil {
		if errors.Is(err, courtClient.ErrFacilityNotFound) {
			s.logger.Warn("checkManagerAccess: facility id=%d not found", facilityID)
			return ErrFacilityNotFound
		}
		s.logger.Error("checkManagerAccess: failed to get facility id=%d: %v", facilityID, err)
		return fmt.Errorf("%w: checkManagerAccess - failed to get facility: %v", ErrInternal, err)
	}

	if facility.HasManager(userID) {
		return nil
	}

	s.logger.Warn("checkManagerAccess: user=%d is not a manager of facility=%d", userID, facilityID)
	return ErrAccessDenied
}

// validateRule валидирует правило дня недели
func (s *Service) validateRule(rule *models.WeeklyRuleInput) error {
	if rule.DayOfWeek < 0 || rule.DayOfWeek > 6 {
		return fmt.Errorf("%w: dayOfWeek must be between 0 and 6", ErrInvalidInput)
	}

	if rule.SessionDurationMinutes < domain.MinSessionDurationMinutes ||
		rule.SessionDurationMinutes > domain.MaxSessionDurationMinutes {
		return fmt.Errorf("%w: sessionDurationMinutes must be between %d and %d",
			ErrInvalidInput, domain.MinSessionDurationMinutes, domain.MaxSessionDurationMinutes)
	}

	if rule.BufferMinutes < domain.MinBufferMinutes || rule.BufferMinutes > domain.MaxBufferMinutes {
		return fmt.Errorf("%w: bufferMinutes must be between %d and %d",
			ErrInvalidInput, domain.MinBufferMinutes, domain.MaxBufferMinutes)
	}

	if rule.IsClosed {
		return nil
	}

	open := types.TimeString(rule.OpenTime)
	closeT := types.TimeString(rule.CloseTime)
	if err := open.Validate(); err != nil {
		return fmt.Errorf("%w: openTime: %v", ErrInvalidInput, err)
	}
	if err := closeT.Validate(); err != nil {
		return fmt.Errorf("%w: closeTime: %v", ErrInvalidInput, err)
	}
	if !open.IsBefore(closeT) {
		return fmt.Errorf("%w: openTime must be before closeTime", ErrInvalidInput)
	}

	return nil
}

// validateOverride валидирует переопределение на дату
func (s *Service) validateOverride(override *domain.DateOverride) error {
	if override.Reason != nil && len(*override.Reason) > domain.MaxOverrideReasonLength {
		return fmt.Errorf("%w: reason must not exceed %d characters",
			ErrInvalidInput, domain.MaxOverrideReasonLength)
	}

	if override.IsClosed {
		return nil
	}

	if override.OpenTime == nil || override.CloseTime == nil {
		return fmt.Errorf("%w: openTime and closeTime are required when the date is open", ErrInvalidInput)
	}
	if err := override.OpenTime.Validate(); err != nil {
		return fmt.Errorf("%w: openTime: %v", ErrInvalidInput, err)
	}
	if err := override.CloseTime.Validate(); err != nil {
		return fmt.Errorf("%w: closeTime: %v", ErrInvalidInput, err)
	}
	if !override.OpenTime.IsBefore(*override.CloseTime) {
		return fmt.Errorf("%w: openTime must be before closeTime", ErrInvalidInput)
	}

	return nil
}

// truncateToDate отбрасывает время, оставляя дату
func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
