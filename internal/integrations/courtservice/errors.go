package courtservice

import "errors"

var (
	// ErrFacilityNotFound возвращается, когда площадка не найдена
	ErrFacilityNotFound = errors.New("facility not found")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("courtservice client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от сервиса
	ErrInvalidResponse = errors.New("courtservice client: invalid response")
)
