package get_day_slots

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	scheduleRepo "github.com/m04kA/SMC-AvailabilityService/internal/infra/storage/schedule"
	courtClient "github.com/m04kA/SMC-AvailabilityService/internal/integrations/courtservice"
	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

// UseCase use case дневной выдачи слотов площадки
//
// Выдача собирается из трёх источников: детерминированной сетки слотов
// из эффективного расписания, активных бронирований из Postgres и живых
// блокировок из хранилища. Бронирование всегда сильнее блокировки: если слот
// одновременно и забронирован, и удерживается устаревшей блокировкой,
// наружу уходит статус бронирования.
type UseCase struct {
	bookingRepo  BookingRepository
	scheduleRepo ScheduleRepository
	lockStore    LockStore
	courtClient  CourtServiceClient
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	scheduleRepo ScheduleRepository,
	lockStore LockStore,
	courtClient CourtServiceClient,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		scheduleRepo: scheduleRepo,
		lockStore:    lockStore,
		courtClient:  courtClient,
		logger:       logger,
	}
}

// Execute выполняет use case дневной выдачи слотов
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetDaySlots: facility=%d, date=%s", req.FacilityID, req.Date.Format(domain.DateFormat))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetDaySlots: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем площадку и её активные корты в порядке отображения
	_, courts, err := uc.courtClient.GetActiveCourts(ctx, req.FacilityID)
	if err != nil {
		if errors.Is(err, courtClient.ErrFacilityNotFound) {
			uc.logger.Warn("GetDaySlots: facility id=%d not found", req.FacilityID)
			return nil, ErrFacilityNotFound
		}
		uc.logger.Error("GetDaySlots: failed to get facility id=%d: %v", req.FacilityID, err)
		return nil, fmt.Errorf("%w: failed to get facility: %v", ErrInternal, err)
	}

	// 3. Резолвим эффективное расписание на дату
	eff, err := uc.effectiveHours(ctx, req.FacilityID, req)
	if err != nil {
		return nil, err
	}

	resp := &Response{
		FacilityID: req.FacilityID,
		Date:       req.Date.Format(domain.DateFormat),
		IsOpen:     eff.IsOpen,
		IsOverride: eff.IsOverride,
		Reason:     eff.Reason,
		Slots:      []Slot{},
	}

	// 4. Закрытый день - пустая выдача, не ошибка
	if !eff.IsOpen {
		uc.logger.Info("GetDaySlots: facility=%d closed on %s", req.FacilityID, resp.Date)
		return resp, nil
	}

	starts := eff.SlotStarts()
	if len(starts) == 0 || len(courts) == 0 {
		uc.logger.Info("GetDaySlots: no slots for facility=%d on %s", req.FacilityID, resp.Date)
		return resp, nil
	}

	// 5. Активные бронирования на дату
	bookings, err := uc.bookingRepo.GetActiveByFacilityAndDate(ctx, req.FacilityID, req.Date)
	if err != nil {
		uc.logger.Error("GetDaySlots: failed to get bookings: %v", err)
		return nil, fmt.Errorf("%w: failed to get bookings: %v", ErrInternal, err)
	}

	bookingBySlot := make(map[string]*domain.Booking, len(bookings))
	for _, booking := range bookings {
		bookingBySlot[occupancyKey(booking.CourtID, booking.StartTime)] = booking
	}

	// 6. Живые блокировки по всем ключам корт x слот одним запросом
	keys := make([]domain.SlotKey, 0, len(courts)*len(starts))
	for _, court := range courts {
		for _, start := range starts {
			keys = append(keys, domain.SlotKey{
				FacilityID: req.FacilityID,
				CourtID:    court.ID,
				Date:       req.Date,
				StartTime:  start,
			})
		}
	}

	held, err := uc.lockStore.GetHeld(ctx, keys)
	if err != nil {
		uc.logger.Error("GetDaySlots: failed to get locks: %v", err)
		return nil, fmt.Errorf("%w: failed to get locks: %v", ErrInternal, err)
	}

	// 7. Собираем выдачу: бронирование сильнее блокировки
	resp.Slots = make([]Slot, 0, len(courts)*len(starts))
	for _, court := range courts {
		for _, start := range starts {
			slot := Slot{
				CourtID:   court.ID,
				CourtName: court.Name,
				Date:      resp.Date,
				StartTime: start.String(),
				Status:    slotStatusOf(domain.SlotAvailable),
			}

			if end, err := eff.SessionEnd(start); err == nil {
				slot.EndTime = end.String()
			}

			if booking, ok := bookingBySlot[occupancyKey(court.ID, start)]; ok {
				slot.Status = slotStatusOf(booking.SlotStatus())
				slot.BookingID = &booking.ID
			} else if _, locked := held[domain.SlotKey{
				FacilityID: req.FacilityID,
				CourtID:    court.ID,
				Date:       req.Date,
				StartTime:  start,
			}]; locked {
				slot.Status = slotStatusOf(domain.SlotLocked)
			}

			resp.Slots = append(resp.Slots, slot)
		}
	}

	uc.logger.Info("GetDaySlots: %d courts x %d slots for facility=%d on %s",
		len(courts), len(starts), req.FacilityID, resp.Date)
	return resp, nil
}

// effectiveHours резолвит эффективное расписание площадки на дату
func (uc *UseCase) effectiveHours(ctx context.Context, facilityID int64, req *Request) (domain.EffectiveHours, error) {
	weekly, err := uc.scheduleRepo.GetWeeklyRule(ctx, facilityID, int(req.Date.Weekday()))
	if err != nil && !errors.Is(err, scheduleRepo.ErrWeeklyRuleNotFound) {
		uc.logger.Error("GetDaySlots: weekly rule lookup failed: %v", err)
		return domain.EffectiveHours{}, fmt.Errorf("%w: weekly rule lookup: %v", ErrInternal, err)
	}

	override, err := uc.scheduleRepo.GetOverride(ctx, facilityID, req.Date)
	if err != nil && !errors.Is(err, scheduleRepo.ErrOverrideNotFound) {
		uc.logger.Error("GetDaySlots: override lookup failed: %v", err)
		return domain.EffectiveHours{}, fmt.Errorf("%w: override lookup: %v", ErrInternal, err)
	}

	return domain.ResolveEffectiveHours(weekly, override), nil
}

// occupancyKey ключ занятости слота внутри одной площадки и даты
func occupancyKey(courtID int64, start types.TimeString) string {
	return fmt.Sprintf("%d@%s", courtID, start)
}
