package bookings

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-AvailabilityService/internal/infra/storage/booking"
	courtClient "github.com/m04kA/SMC-AvailabilityService/internal/integrations/courtservice"
	"github.com/m04kA/SMC-AvailabilityService/internal/service/bookings/models"
)

// Service сервис для работы с бронированиями
type Service struct {
	bookingRepo BookingRepository
	courtClient CourtServiceClient
	broadcaster Broadcaster
	logger      Logger
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	bookingRepo BookingRepository,
	courtClient CourtServiceClient,
	broadcaster Broadcaster,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo: bookingRepo,
		courtClient: courtClient,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// GetByID получает бронирование по ID
// Проверяет права доступа - пользователь может видеть только своё бронирование
// или если он является менеджером площадки
func (s *Service) GetByID(ctx context.Context, id int64, userID int64) (*models.BookingResponse, error) {
	s.logger.Info("GetByID: fetching booking id=%d for user=%d", id, userID)

	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("GetByID: booking id=%d not found", id)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("GetByID: repository error for booking id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %v", ErrInternal, err)
	}

	// Проверяем права доступа
	if err := s.checkUserAccess(ctx, booking, userID); err != nil {
		s.logger.Warn("GetByID: access denied for user=%d to booking id=%d", userID, id)
		return nil, err
	}

	s.logger.Info("GetByID: successfully fetched booking id=%d", id)
	return models.FromDomainBooking(booking), nil
}

// GetUserBookings получает историю бронирований пользователя
// Опционально фильтрует по статусу
func (s *Service) GetUserBookings(ctx context.Context, req *models.GetUserBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("GetUserBookings: fetching bookings for user=%d, status=%v", req.UserID, req.Status)

	// Конвертируем статус из строки в domain.BookingStatus
	var domainStatus *domain.BookingStatus
	if req.Status != nil {
		status, err := models.ToDomainBookingStatus(*req.Status)
		if err != nil {
			s.logger.Warn("GetUserBookings: invalid status=%s for user=%d", *req.Status, req.UserID)
			return nil, fmt.Errorf("%w: invalid status", ErrInvalidInput)
		}
		domainStatus = &status
	}

	bookings, err := s.bookingRepo.GetByUserID(ctx, req.UserID, domainStatus)
	if err != nil {
		s.logger.Error("GetUserBookings: repository error for user=%d: %v", req.UserID, err)
		return nil, fmt.Errorf("%w: GetUserBookings - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetUserBookings: successfully fetched %d bookings for user=%d", len(bookings), req.UserID)
	return models.FromDomainBookingList(bookings), nil
}

// GetFacilityBookings получает бронирования площадки с гибкой фильтрацией
// Поддерживает фильтрацию по корту, периоду, статусу и включению неактивных бронирований
// Доступно только менеджерам площадки
func (s *Service) GetFacilityBookings(ctx context.Context, req *models.GetFacilityBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("GetFacilityBookings: fetching bookings for facility=%d, user=%d", req.FacilityID, req.UserID)

	// Проверяем права доступа менеджера
	if err := s.checkManagerAccess(ctx, req.FacilityID, req.UserID); err != nil {
		return nil, err
	}

	// Конвертируем request в domain фильтр
	filter, err := req.ToDomainFilter()
	if err != nil {
		s.logger.Warn("GetFacilityBookings: invalid filter for facility=%d: %v", req.FacilityID, err)
		return nil, fmt.Errorf("%w: invalid filter", ErrInvalidInput)
	}

	// Получаем бронирования с фильтрацией
	bookings, err := s.bookingRepo.GetByFacilityWithFilter(ctx, filter)
	if err != nil {
		s.logger.Error("GetFacilityBookings: repository error for facility=%d: %v", req.FacilityID, err)
		return nil, fmt.Errorf("%w: GetFacilityBookings - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetFacilityBookings: successfully fetched %d bookings for facility=%d", len(bookings), req.FacilityID)
	return models.FromDomainBookingList(bookings), nil
}

// Cancel отменяет бронирование
// Пользователь может отменить только своё бронирование (cancelled_by_user)
// Менеджер может отменить любое бронирование площадки (cancelled_by_company)
// После отмены слот снова доступен - публикуем дельту available
func (s *Service) Cancel(ctx context.Context, bookingID int64, req *models.CancelBookingRequest) error {
	s.logger.Info("Cancel: cancelling booking id=%d by user=%d", bookingID, req.UserID)

	// Получаем бронирование
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("Cancel: booking id=%d not found", bookingID)
			return ErrBookingNotFound
		}
		s.logger.Error("Cancel: repository error for booking id=%d: %v", bookingID, err)
		return fmt.Errorf("%w: Cancel - repository error: %v", ErrInternal, err)
	}

	// Проверяем, можно ли отменить бронирование
	if !booking.CanBeCancelled() {
		s.logger.Warn("Cancel: booking id=%d cannot be cancelled, status=%s", bookingID, booking.Status)
		return ErrCannotCancel
	}

	// Определяем статус отмены в зависимости от прав доступа
	var cancelStatus domain.BookingStatus

	// Проверяем, является ли пользователь владельцем бронирования
	if booking.UserID == req.UserID {
		cancelStatus = domain.StatusCancelledByUser
	} else {
		// Проверяем, является ли пользователь менеджером площадки
		if err := s.checkManagerAccess(ctx, booking.FacilityID, req.UserID); err != nil {
			s.logger.Warn("Cancel: access denied for user=%d to cancel booking id=%d", req.UserID, bookingID)
			return ErrAccessDenied
		}
		cancelStatus = domain.StatusCancelledByCompany
	}

	// Отменяем бронирование
	if err := s.bookingRepo.Cancel(ctx, bookingID, cancelStatus, req.CancellationReason); err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("Cancel: booking id=%d not found during cancellation", bookingID)
			return ErrBookingNotFound
		}
		s.logger.Error("Cancel: repository error for booking id=%d: %v", bookingID, err)
		return fmt.Errorf("%w: Cancel - repository error: %v", ErrInternal, err)
	}

	// Слот освободился - уведомляем подписчиков площадки
	s.publishDelta(ctx, booking, domain.SlotAvailable)

	s.logger.Info("Cancel: successfully cancelled booking id=%d with status=%s", bookingID, cancelStatus)
	return nil
}

// Confirm подтверждает оплату бронирования
// Доступно владельцу бронирования и менеджерам площадки
// После подтверждения публикуем дельту confirmed
func (s *Service) Confirm(ctx context.Context, bookingID int64, userID int64) error {
	s.logger.Info("Confirm: confirming booking id=%d by user=%d", bookingID, userID)

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("Confirm: booking id=%d not found", bookingID)
			return ErrBookingNotFound
		}
		s.logger.Error("Confirm: repository error for booking id=%d: %v", bookingID, err)
		return fmt.Errorf("%w: Confirm - repository error: %v", ErrInternal, err)
	}

	if err := s.checkUserAccess(ctx, booking, userID); err != nil {
		s.logger.Warn("Confirm: access denied for user=%d to booking id=%d", userID, bookingID)
		return err
	}

	if !booking.CanBeConfirmed() {
		s.logger.Warn("Confirm: booking id=%d cannot be confirmed, status=%s", bookingID, booking.Status)
		return ErrCannotConfirm
	}

	if err := s.bookingRepo.UpdateStatus(ctx, bookingID, domain.StatusConfirmed); err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("Confirm: booking id=%d not found during update", bookingID)
			return ErrBookingNotFound
		}
		s.logger.Error("Confirm: repository error for booking id=%d: %v", bookingID, err)
		return fmt.Errorf("%w: Confirm - repository error: %v", ErrInternal, err)
	}

	s.publishDelta(ctx, booking, domain.SlotConfirmed)

	s.logger.Info("Confirm: successfully confirmed booking id=%d", bookingID)
	return nil
}

// Вспомогательные методы

// publishDelta публикует дельту состояния слота
// Ошибка публикации не откатывает операцию - состояние в БД уже изменено,
// подписчики при расхождении перечитывают дневную выдачу
func (s *Service) publishDelta(ctx context.Context, booking *domain.Booking, status domain.SlotStatus) {
	event := domain.SlotEvent{
		FacilityID: booking.FacilityID,
		CourtID:    booking.CourtID,
		Date:       booking.BookingDate,
		StartTime:  booking.StartTime,
		NewStatus:  status,
	}

	if err := s.broadcaster.Publish(ctx, event); err != nil {
		s.logger.Error("publishDelta: failed to publish %s for booking id=%d: %v", status, booking.ID, err)
	}
}

// checkUserAccess проверяет, что пользователь имеет доступ к бронированию
// Пользователь может видеть своё бронирование или если он менеджер площадки
func (s *Service) checkUserAccess(ctx context.Context, booking *domain.Booking, userID int64) error {
	// Если пользователь владелец бронирования - доступ разрешён
	if booking.UserID == userID {
		return nil
	}

	// Проверяем, является ли пользователь менеджером площадки
	if err := s.checkManagerAccess(ctx, booking.FacilityID, userID); err != nil {
		// Ошибка уже залогирована в checkManagerAccess
		return ErrAccessDenied
	}

	return nil
}

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
