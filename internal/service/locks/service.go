package locks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/internal/infra/lockstore"
	scheduleRepo "github.com/m04kA/SMC-AvailabilityService/internal/infra/storage/schedule"
	courtClient "github.com/m04kA/SMC-AvailabilityService/internal/integrations/courtservice"
	"github.com/m04kA/SMC-AvailabilityService/internal/service/locks/models"
	"github.com/m04kA/SMC-AvailabilityService/pkg/metrics"
	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

// Service сервис мягкого удержания слотов на время чекаута
//
// Блокировка - это consultative hold: она даёт держателю окно, в течение
// которого никто другой не может начать бронирование того же слота.
// Истечение TTL освобождает слот автоматически, без компенсационных джобов.
type Service struct {
	lockStore    LockStore
	scheduleRepo ScheduleRepository
	bookingRepo  BookingRepository
	courtClient  CourtServiceClient
	broadcaster  Broadcaster
	metrics      *metrics.Metrics
	logger       Logger

	defaultTTL time.Duration
	maxTTL     time.Duration
}

// NewService создает новый экземпляр сервиса блокировок
// metrics может быть nil, если сбор метрик выключен
func NewService(
	lockStore LockStore,
	scheduleRepo ScheduleRepository,
	bookingRepo BookingRepository,
	courtClient CourtServiceClient,
	broadcaster Broadcaster,
	m *metrics.Metrics,
	logger Logger,
	defaultTTL time.Duration,
	maxTTL time.Duration,
) *Service {
	if defaultTTL <= 0 {
		defaultTTL = domain.DefaultLockTTLSeconds * time.Second
	}
	if maxTTL <= 0 {
		maxTTL = domain.MaxLockTTLSeconds * time.Second
	}

	return &Service{
		lockStore:    lockStore,
		scheduleRepo: scheduleRepo,
		bookingRepo:  bookingRepo,
		courtClient:  courtClient,
		broadcaster:  broadcaster,
		metrics:      m,
		logger:       logger,
		defaultTTL:   defaultTTL,
		maxTTL:       maxTTL,
	}
}

// Acquire захватывает блокировку на слот
//
// Последовательность проверок:
//  1. Площадка и корт существуют, корт активен
//  2. Слот существует в расписании на эту дату (выравнивание по сетке)
//  3. Слот не занят активным бронированием
//  4. Атомарный захват в хранилище - при конкуренции выигрывает ровно один
//
// Пустой HolderID означает нового держателя - сервис генерирует UUID.
// Повторный захват тем же держателем продлевает удержание на полный TTL.
func (s *Service) Acquire(ctx context.Context, req *models.AcquireSlotRequest) (*models.LockResponse, error) {
	s.logger.Info("Acquire: facility=%d court=%d date=%s slot=%s holder=%s",
		req.FacilityID, req.CourtID, req.Date.Format(domain.DateFormat), req.StartTime, req.HolderID)

	ttl, err := s.resolveTTL(req.TTLSeconds)
	if err != nil {
		s.logger.Warn("Acquire: invalid ttl=%d for facility=%d", req.TTLSeconds, req.FacilityID)
		return nil, err
	}

	if req.HolderID == "" {
		req.HolderID = uuid.NewString()
	}

	if err := s.checkSlotExists(ctx, req.FacilityID, req.CourtID, req.Date, req.StartTime); err != nil {
		return nil, err
	}

	// Слот с активным бронированием захватывать бессмысленно
	booked, err := s.bookingRepo.ExistsActiveAtSlot(ctx, req.CourtID, req.Date, req.StartTime)
	if err != nil {
		s.logger.Error("Acquire: booking check failed for court=%d: %v", req.CourtID, err)
		return nil, fmt.Errorf("%w: Acquire - booking check: %v", ErrInternal, err)
	}
	if booked {
		s.logger.Warn("Acquire: slot court=%d date=%s slot=%s already booked",
			req.CourtID, req.Date.Format(domain.DateFormat), req.StartTime)
		return nil, ErrSlotAlreadyBooked
	}

	lock, err := s.lockStore.Acquire(ctx, req.SlotKey(), req.HolderID, ttl)
	if err != nil {
		if errors.Is(err, lockstore.ErrAlreadyLocked) {
			s.countLockOp("acquire", "conflict")
			s.logger.Warn("Acquire: slot court=%d date=%s slot=%s held by another holder",
				req.CourtID, req.Date.Format(domain.DateFormat), req.StartTime)
			return nil, ErrSlotAlreadyLocked
		}
		s.countLockOp("acquire", "error")
		s.logger.Error("Acquire: lock store error: %v", err)
		return nil, fmt.Errorf("%w: Acquire - lock store: %v", ErrInternal, err)
	}

	s.countLockOp("acquire", "ok")
	s.publishDelta(ctx, lock.Key, domain.SlotLocked)

	s.logger.Info("Acquire: slot court=%d date=%s slot=%s locked by holder=%s until %s",
		req.CourtID, req.Date.Format(domain.DateFormat), req.StartTime, lock.HolderID, lock.ExpiresAt.Format(time.RFC3339))
	return models.FromDomainLock(lock), nil
}

// Release освобождает блокировку держателя
// Освобождение отсутствующей или истекшей блокировки - это no-op успех:
// клиент, отпускающий просроченное удержание, не должен получать ошибку.
// Дельта публикуется только если блокировка была реально удалена.
func (s *Service) Release(ctx context.Context, req *models.ReleaseSlotRequest) error {
	s.logger.Info("Release: facility=%d court=%d date=%s slot=%s holder=%s",
		req.FacilityID, req.CourtID, req.Date.Format(domain.DateFormat), req.StartTime, req.HolderID)

	if req.HolderID == "" {
		return fmt.Errorf("%w: holderId is required", ErrInvalidInput)
	}

	released, err := s.lockStore.Release(ctx, req.SlotKey(), req.HolderID)
	if err != nil {
		s.countLockOp("release", "error")
		s.logger.Error("Release: lock store error: %v", err)
		return fmt.Errorf("%w: Release - lock store: %v", ErrInternal, err)
	}

	if released {
		s.countLockOp("release", "ok")
		s.publishDelta(ctx, req.SlotKey(), domain.SlotAvailable)
		s.logger.Info("Release: slot court=%d date=%s slot=%s released by holder=%s",
			req.CourtID, req.Date.Format(domain.DateFormat), req.StartTime, req.HolderID)
	} else {
		s.countLockOp("release", "noop")
		s.logger.Info("Release: nothing to release for court=%d date=%s slot=%s holder=%s",
			req.CourtID, req.Date.Format(domain.DateFormat), req.StartTime, req.HolderID)
	}

	return nil
}

// Renew продлевает блокировку держателя
// Продление возможно только пока блокировка ещё удерживается этим держателем;
// истекшая блокировка не продлевается - нужен новый Acquire.
func (s *Service) Renew(ctx context.Context, req *models.RenewSlotRequest) (*models.LockResponse, error) {
	s.logger.Info("Renew: facility=%d court=%d date=%s slot=%s holder=%s",
		req.FacilityID, req.CourtID, req.Date.Format(domain.DateFormat), req.StartTime, req.HolderID)

	if req.HolderID == "" {
		return nil, fmt.Errorf("%w: holderId is required", ErrInvalidInput)
	}

	additional, err := s.resolveTTL(req.AdditionalSeconds)
	if err != nil {
		s.logger.Warn("Renew: invalid additional=%d for facility=%d", req.AdditionalSeconds, req.FacilityID)
		return nil, err
	}

	lock, err := s.lockStore.Renew(ctx, req.SlotKey(), req.HolderID, additional)
	if err != nil {
		if errors.Is(err, lockstore.ErrLockNotHeld) {
			s.countLockOp("renew", "not_held")
			s.logger.Warn("Renew: lock court=%d date=%s slot=%s not held by holder=%s",
				req.CourtID, req.Date.Format(domain.DateFormat), req.StartTime, req.HolderID)
			return nil, ErrLockNotHeld
		}
		s.countLockOp("renew", "error")
		s.logger.Error("Renew: lock store error: %v", err)
		return nil, fmt.Errorf("%w: Renew - lock store: %v", ErrInternal, err)
	}

	s.countLockOp("renew", "ok")
	s.logger.Info("Renew: lock court=%d date=%s slot=%s extended until %s",
		req.CourtID, req.Date.Format(domain.DateFormat), req.StartTime, lock.ExpiresAt.Format(time.RFC3339))
	return models.FromDomainLock(lock), nil
}

// IsSlotFree отвечает, свободен ли слот прямо сейчас:
// нет живой блокировки и нет активного бронирования.
// Ответ - мгновенный снимок: слот может быть захвачен сразу после проверки,
// поэтому для захвата используется Acquire, а не проверка перед записью.
func (s *Service) IsSlotFree(ctx context.Context, key domain.SlotKey) (bool, error) {
	_, err := s.lockStore.Get(ctx, key)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, lockstore.ErrLockNotFound) {
		s.logger.Error("IsSlotFree: lock store error: %v", err)
		return false, fmt.Errorf("%w: IsSlotFree - lock store: %v", ErrInternal, err)
	}

	booked, err := s.bookingRepo.ExistsActiveAtSlot(ctx, key.CourtID, key.Date, key.StartTime)
	if err != nil {
		s.logger.Error("IsSlotFree: booking check failed for court=%d: %v", key.CourtID, err)
		return false, fmt.Errorf("%w: IsSlotFree - booking check: %v", ErrInternal, err)
	}

	return !booked, nil
}

// Вспомогательные методы

// countLockOp инкрементирует счетчик операций с блокировками
func (s *Service) countLockOp(operation, result string) {
	if s.metrics != nil {
		s.metrics.LockOperationsTotal.WithLabelValues(operation, result).Inc()
	}
}

// resolveTTL валидирует TTL из запроса и применяет значение по умолчанию
func (s *Service) resolveTTL(seconds int) (time.Duration, error) {
	if seconds == 0 {
		return s.defaultTTL, nil
	}
	if seconds < domain.MinLockTTLSeconds {
		return 0, fmt.Errorf("%w: ttl must be at least %d seconds", ErrInvalidInput, domain.MinLockTTLSeconds)
	}

	ttl := time.Duration(seconds) * time.Second
	if ttl > s.maxTTL {
		return 0, fmt.Errorf("%w: ttl must not exceed %d seconds", ErrInvalidInput, int(s.maxTTL.Seconds()))
	}

	return ttl, nil
}

// checkSlotExists проверяет, что запрошенное время - это старт слота
// в эффективном расписании площадки на дату
func (s *Service) checkSlotExists(ctx context.Context, facilityID, courtID int64, date time.Time, startTime types.TimeString) error {
	facility, err := s.courtClient.GetFacility(ctx, facilityID)
	if err != nil {
		if errors.Is(err, courtClient.ErrFacilityNotFound) {
			s.logger.Warn("checkSlotExists: facility id=%d not found", facilityID)
			return ErrFacilityNotFound
		}
		s.logger.Error("checkSlotExists: failed to get facility id=%d: %v", facilityID, err)
		return fmt.Errorf("%w: checkSlotExists - failed to get facility: %v", ErrInternal, err)
	}

	court, ok := facility.CourtByID(courtID)
	if !ok || !court.IsActive {
		s.logger.Warn("checkSlotExists: court id=%d not found or inactive at facility=%d", courtID, facilityID)
		return ErrCourtNotFound
	}

	eff, err := s.effectiveHours(ctx, facilityID, date)
	if err != nil {
		return err
	}

	if !eff.IsOpen {
		s.logger.Warn("checkSlotExists: facility=%d closed on %s", facilityID, date.Format(domain.DateFormat))
		return ErrFacilityClosed
	}

	if !eff.ContainsSlotStart(startTime) {
		s.logger.Warn("checkSlotExists: %s is not a slot start at facility=%d on %s",
			startTime, facilityID, date.Format(domain.DateFormat))
		return ErrInvalidTimeSlot
	}

	return nil
}

// effectiveHours резолвит эффективное расписание площадки на дату
// Отсутствие правила или переопределения - не ошибка, а nil-аргумент резолвера
func (s *Service) effectiveHours(ctx context.Context, facilityID int64, date time.Time) (domain.EffectiveHours, error) {
	weekly, err := s.scheduleRepo.GetWeeklyRule(ctx, facilityID, int(date.Weekday()))
	if err != nil && !errors.Is(err, scheduleRepo.ErrWeeklyRuleNotFound) {
		s.logger.Error("effectiveHours: weekly rule lookup failed for facility=%d: %v", facilityID, err)
		return domain.EffectiveHours{}, fmt.Errorf("%w: effectiveHours - weekly rule: %v", ErrInternal, err)
	}

	override, err := s.scheduleRepo.GetOverride(ctx, facilityID, date)
	if err != nil && !errors.Is(err, scheduleRepo.ErrOverrideNotFound) {
		s.logger.Error("effectiveHours: override lookup failed for facility=%d: %v", facilityID, err)
		return domain.EffectiveHours{}, fmt.Errorf("%w: effectiveHours - override: %v", ErrInternal, err)
	}

	return domain.ResolveEffectiveHours(weekly, override), nil
}

// publishDelta публикует дельту состояния слота
// Ошибка публикации не откатывает операцию - блокировка уже изменена
func (s *Service) publishDelta(ctx context.Context, key domain.SlotKey, status domain.SlotStatus) {
	event := domain.SlotEvent{
		FacilityID: key.FacilityID,
		CourtID:    key.CourtID,
		Date:       key.Date,
		StartTime:  key.StartTime,
		NewStatus:  status,
	}

	if err := s.broadcaster.Publish(ctx, event); err != nil {
		s.logger.Error("publishDelta: failed to publish %s for court=%d slot=%s: %v",
			status, key.CourtID, key.StartTime, err)
	}
}
