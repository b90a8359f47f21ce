package create_booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/internal/infra/lockstore"
	bookingRepo "github.com/m04kA/SMC-AvailabilityService/internal/infra/storage/booking"
	scheduleRepo "github.com/m04kA/SMC-AvailabilityService/internal/infra/storage/schedule"
	courtClient "github.com/m04kA/SMC-AvailabilityService/internal/integrations/courtservice"
)

// UseCase use case для создания бронирования
//
// Advisory-блокировка даёт UX-защиту от гонки (второй клиент даже не дойдёт
// до попытки), но финальная гарантия - проверка занятости в сериализуемой
// транзакции плюс частичный уникальный индекс в Postgres. Бронирование
// валидно и без предварительного удержания, если слот никем не занят.
type UseCase struct {
	bookingRepo  BookingRepository
	scheduleRepo ScheduleRepository
	lockStore    LockStore
	courtClient  CourtServiceClient
	broadcaster  Broadcaster
	txManager    TransactionManager
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	scheduleRepo ScheduleRepository,
	lockStore LockStore,
	courtClient CourtServiceClient,
	broadcaster Broadcaster,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		scheduleRepo: scheduleRepo,
		lockStore:    lockStore,
		courtClient:  courtClient,
		broadcaster:  broadcaster,
		txManager:    txManager,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Execute выполняет use case создания бронирования
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateBooking: user=%d, facility=%d, court=%d, date=%s, time=%s",
		req.UserID, req.FacilityID, req.CourtID, req.Date.Format(domain.DateFormat), req.StartTime)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	// 2. Дата не в прошлом
	now := uc.timeProvider.Now()
	if err := validateDate(req.Date, now); err != nil {
		uc.logger.Warn("CreateBooking: date validation failed: %v", err)
		return nil, err
	}

	// 3. Площадка и корт существуют, корт активен
	facility, err := uc.courtClient.GetFacility(ctx, req.FacilityID)
	if err != nil {
		if errors.Is(err, courtClient.ErrFacilityNotFound) {
			uc.logger.Warn("CreateBooking: facility id=%d not found", req.FacilityID)
			return nil, ErrFacilityNotFound
		}
		uc.logger.Error("CreateBooking: failed to get facility id=%d: %v", req.FacilityID, err)
		return nil, fmt.Errorf("%w: failed to get facility: %v", ErrInternal, err)
	}

	court, ok := facility.CourtByID(req.CourtID)
	if !ok || !court.IsActive {
		uc.logger.Warn("CreateBooking: court id=%d not found or inactive at facility=%d", req.CourtID, req.FacilityID)
		return nil, ErrCourtNotFound
	}

	// 4. Время должно быть стартом слота эффективного расписания
	eff, err := uc.effectiveHours(ctx, req)
	if err != nil {
		return nil, err
	}
	if !eff.IsOpen {
		uc.logger.Warn("CreateBooking: facility=%d closed on %s", req.FacilityID, req.Date.Format(domain.DateFormat))
		return nil, ErrFacilityClosed
	}
	if !eff.ContainsSlotStart(req.StartTime) {
		uc.logger.Warn("CreateBooking: %s is not a slot start at facility=%d", req.StartTime, req.FacilityID)
		return nil, ErrInvalidTimeSlot
	}

	// 5. Чужое живое удержание запрещает бронирование
	lock, err := uc.lockStore.Get(ctx, req.SlotKey())
	if err != nil && !errors.Is(err, lockstore.ErrLockNotFound) {
		uc.logger.Error("CreateBooking: lock lookup failed: %v", err)
		return nil, fmt.Errorf("%w: lock lookup: %v", ErrInternal, err)
	}
	if lock != nil && lock.HolderID != req.HolderID {
		uc.logger.Warn("CreateBooking: slot court=%d date=%s time=%s is locked by another holder",
			req.CourtID, req.Date.Format(domain.DateFormat), req.StartTime)
		return nil, ErrSlotLockedByAnother
	}

	// 6. Проверка занятости и вставка в одной сериализуемой транзакции
	var result *domain.Booking
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		taken, err := uc.bookingRepo.ExistsActiveAtSlot(txCtx, req.CourtID, req.Date, req.StartTime)
		if err != nil {
			uc.logger.Error("CreateBooking: occupancy check failed: %v", err)
			return fmt.Errorf("%w: occupancy check: %v", ErrInternal, err)
		}
		if taken {
			uc.logger.Warn("CreateBooking: slot court=%d date=%s time=%s already booked",
				req.CourtID, req.Date.Format(domain.DateFormat), req.StartTime)
			return ErrSlotNotAvailable
		}

		booking := &domain.Booking{
			UserID:          req.UserID,
			FacilityID:      req.FacilityID,
			CourtID:         req.CourtID,
			BookingDate:     req.Date,
			StartTime:       req.StartTime,
			DurationMinutes: eff.SessionDurationMinutes,
			Status:          domain.StatusPendingPayment,
			Notes:           req.Notes,
		}

		created, err := uc.bookingRepo.Create(txCtx, booking)
		if err != nil {
			// Уникальный индекс сработал под гонкой - тот же исход, что и проверка выше
			if errors.Is(err, bookingRepo.ErrSlotTaken) {
				uc.logger.Warn("CreateBooking: unique index rejected duplicate for court=%d time=%s",
					req.CourtID, req.StartTime)
				return ErrSlotNotAvailable
			}
			uc.logger.Error("CreateBooking: failed to create booking: %v", err)
			return fmt.Errorf("%w: failed to create booking: %v", ErrInternal, err)
		}

		result = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 7. Удержание больше не нужно - освобождаем best-effort
	if req.HolderID != "" {
		if _, err := uc.lockStore.Release(ctx, req.SlotKey(), req.HolderID); err != nil {
			uc.logger.Warn("CreateBooking: failed to release lock after booking id=%d: %v", result.ID, err)
		}
	}

	// 8. Публикуем дельту reserved
	event := domain.SlotEvent{
		FacilityID: req.FacilityID,
		CourtID:    req.CourtID,
		Date:       req.Date,
		StartTime:  req.StartTime,
		NewStatus:  domain.SlotReserved,
	}
	if err := uc.broadcaster.Publish(ctx, event); err != nil {
		uc.logger.Error("CreateBooking: failed to publish reserved delta for booking id=%d: %v", result.ID, err)
	}

	uc.logger.Info("CreateBooking: successfully created booking id=%d", result.ID)

	return &Response{
		ID:              result.ID,
		UserID:          result.UserID,
		FacilityID:      result.FacilityID,
		CourtID:         result.CourtID,
		BookingDate:     result.BookingDate,
		StartTime:       result.StartTime,
		DurationMinutes: result.DurationMinutes,
		Status:          string(result.Status),
		Notes:           result.Notes,
		CreatedAt:       result.CreatedAt,
		UpdatedAt:       result.UpdatedAt,
	}, nil
}

// effectiveHours резолвит эффективное расписание площадки на дату
func (uc *UseCase) effectiveHours(ctx context.Context, req *Request) (domain.EffectiveHours, error) {
	weekly, err := uc.scheduleRepo.GetWeeklyRule(ctx, req.FacilityID, int(req.Date.Weekday()))
	if err != nil && !errors.Is(err, scheduleRepo.ErrWeeklyRuleNotFound) {
		uc.logger.Error("CreateBooking: weekly rule lookup failed: %v", err)
		return domain.EffectiveHours{}, fmt.Errorf("%w: weekly rule lookup: %v", ErrInternal, err)
	}

	override, err := uc.scheduleRepo.GetOverride(ctx, req.FacilityID, req.Date)
	if err != nil && !errors.Is(err, scheduleRepo.ErrOverrideNotFound) {
		uc.logger.Error("CreateBooking: override lookup failed: %v", err)
		return domain.EffectiveHours{}, fmt.Errorf("%w: override lookup: %v", ErrInternal, err)
	}

	return domain.ResolveEffectiveHours(weekly, override), nil
}
