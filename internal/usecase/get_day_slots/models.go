package get_day_slots

import (
	"time"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
)

// Request модель запроса дневной выдачи слотов
type Request struct {
	FacilityID int64     // ID площадки
	Date       time.Time // Дата выдачи (без времени)
}

// Response дневная выдача: плоский список всех слотов всех активных кортов
// Слоты упорядочены по порядку отображения кортов, внутри корта -
// по возрастанию времени начала
type Response struct {
	FacilityID int64   `json:"facilityId"`
	Date       string  `json:"date"` // "2025-10-15"
	IsOpen     bool    `json:"isOpen"`
	IsOverride bool    `json:"isOverride"`
	Reason     *string `json:"reason,omitempty"`
	Slots      []Slot  `json:"slots"`
}

// Slot один слот дневной выдачи
type Slot struct {
	CourtID   int64  `json:"courtId"`
	CourtName string `json:"courtName"`
	Date      string `json:"date"`      // "2025-10-15"
	StartTime string `json:"startTime"` // "10:00"
	EndTime   string `json:"endTime"`   // "11:00"
	Status    string `json:"status"`    // available | locked | reserved | confirmed
	BookingID *int64 `json:"bookingId,omitempty"`
}

// slotStatusOf возвращает статус слота из domain модели
func slotStatusOf(status domain.SlotStatus) string {
	return string(status)
}
