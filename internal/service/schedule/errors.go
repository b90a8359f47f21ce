package schedule

import "errors"

var (
	// ErrFacilityNotFound возвращается, когда площадка не найдена
	ErrFacilityNotFound = errors.New("facility not found")

	// ErrOverrideNotFound возвращается, когда переопределение не найдено
	ErrOverrideNotFound = errors.New("date override not found")

	// ErrOverrideAlreadyExists возвращается при повторном переопределении на дату
	ErrOverrideAlreadyExists = errors.New("override already exists for this date")

	// ErrAccessDenied возвращается, когда у пользователя нет прав доступа
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("service: internal error")
)
