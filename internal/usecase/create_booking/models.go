package create_booking

import (
	"time"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

// Request модель запроса на создание бронирования
// HolderID - идентификатор удержания слота, полученный при acquire.
// Пустой HolderID допустим: бронирование без предварительного удержания
// проходит, если слот никем не удерживается и не занят.
type Request struct {
	UserID     int64            // ID пользователя
	FacilityID int64            // ID площадки
	CourtID    int64            // ID корта
	Date       time.Time        // Дата бронирования (без времени)
	StartTime  types.TimeString // Время начала слота (например, "10:00")
	HolderID   string           // Идентификатор удержания слота
	Notes      *string          // Дополнительные заметки (опционально)
}

// SlotKey возвращает ключ слота запроса
func (r *Request) SlotKey() domain.SlotKey {
	return domain.SlotKey{
		FacilityID: r.FacilityID,
		CourtID:    r.CourtID,
		Date:       r.Date,
		StartTime:  r.StartTime,
	}
}

// Response модель ответа с созданным бронированием
type Response struct {
	ID              int64            // ID созданного бронирования
	UserID          int64            // ID пользователя
	FacilityID      int64            // ID площадки
	CourtID         int64            // ID корта
	BookingDate     time.Time        // Дата бронирования
	StartTime       types.TimeString // Время начала
	DurationMinutes int              // Длительность в минутах
	Status          string           // Статус бронирования
	Notes           *string          // Заметки

	CreatedAt time.Time // Время создания
	UpdatedAt time.Time // Время обновления
}
