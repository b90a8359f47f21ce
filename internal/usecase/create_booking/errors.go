package create_booking

import "errors"

var (
	// ErrFacilityNotFound возвращается, когда площадка не найдена
	ErrFacilityNotFound = errors.New("facility not found")

	// ErrCourtNotFound возвращается, когда корт не найден или неактивен
	ErrCourtNotFound = errors.New("court not found")

	// ErrFacilityClosed возвращается, когда площадка закрыта в указанную дату
	ErrFacilityClosed = errors.New("facility is closed on this date")

	// ErrInvalidTimeSlot возвращается, когда время не совпадает со стартом слота
	ErrInvalidTimeSlot = errors.New("time does not match a slot start")

	// ErrSlotLockedByAnother возвращается, когда слот удерживается другим пользователем
	ErrSlotLockedByAnother = errors.New("slot is locked by another holder")

	// ErrSlotNotAvailable возвращается, когда слот уже занят активным бронированием
	ErrSlotNotAvailable = errors.New("slot is not available")

	// ErrInvalidDate возвращается при некорректной дате бронирования
	ErrInvalidDate = errors.New("invalid booking date")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("usecase: internal error")
)
