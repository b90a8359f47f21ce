package locks

import "errors"

var (
	// ErrSlotAlreadyLocked возвращается, когда слот удерживается другим пользователем
	ErrSlotAlreadyLocked = errors.New("slot is already locked by another holder")

	// ErrSlotAlreadyBooked возвращается, когда слот занят активным бронированием
	ErrSlotAlreadyBooked = errors.New("slot is already booked")

	// ErrLockNotHeld возвращается, когда блокировка не удерживается этим держателем
	ErrLockNotHeld = errors.New("lock is not held by this holder")

	// ErrFacilityNotFound возвращается, когда площадка не найдена
	ErrFacilityNotFound = errors.New("facility not found")

	// ErrCourtNotFound возвращается, когда корт не найден или неактивен
	ErrCourtNotFound = errors.New("court not found")

	// ErrFacilityClosed возвращается, когда площадка закрыта на запрошенную дату
	ErrFacilityClosed = errors.New("facility is closed on this date")

	// ErrInvalidTimeSlot возвращается, когда время не совпадает со стартом слота
	ErrInvalidTimeSlot = errors.New("time does not match a slot start")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("service: internal error")
)
