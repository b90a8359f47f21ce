package models

import (
	"time"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

// Request модели

// AcquireSlotRequest запрос на захват слота
// HolderID пустой - сервис сгенерирует новый идентификатор держателя
// TTLSeconds нулевой - применяется TTL по умолчанию из конфигурации
type AcquireSlotRequest struct {
	FacilityID int64
	CourtID    int64
	Date       time.Time
	StartTime  types.TimeString
	HolderID   string
	TTLSeconds int
}

// ReleaseSlotRequest запрос на освобождение слота
type ReleaseSlotRequest struct {
	FacilityID int64
	CourtID    int64
	Date       time.Time
	StartTime  types.TimeString
	HolderID   string
}

// RenewSlotRequest запрос на продление блокировки
// AdditionalSeconds нулевой - продление на TTL по умолчанию
type RenewSlotRequest struct {
	FacilityID        int64
	CourtID           int64
	Date              time.Time
	StartTime         types.TimeString
	HolderID          string
	AdditionalSeconds int
}

// SlotKey возвращает ключ слота запроса
func (r *AcquireSlotRequest) SlotKey() domain.SlotKey {
	return domain.SlotKey{
		FacilityID: r.FacilityID,
		CourtID:    r.CourtID,
		Date:       r.Date,
		StartTime:  r.StartTime,
	}
}

// SlotKey возвращает ключ слота запроса
func (r *ReleaseSlotRequest) SlotKey() domain.SlotKey {
	return domain.SlotKey{
		FacilityID: r.FacilityID,
		CourtID:    r.CourtID,
		Date:       r.Date,
		StartTime:  r.StartTime,
	}
}

// SlotKey возвращает ключ слота запроса
func (r *RenewSlotRequest) SlotKey() domain.SlotKey {
	return domain.SlotKey{
		FacilityID: r.FacilityID,
		CourtID:    r.CourtID,
		Date:       r.Date,
		StartTime:  r.StartTime,
	}
}

// Response модели

// LockResponse ответ с данными блокировки
type LockResponse struct {
	FacilityID int64  `json:"facilityId"`
	CourtID    int64  `json:"courtId"`
	Date       string `json:"date"`      // "2025-10-15"
	StartTime  string `json:"startTime"` // "10:00"
	HolderID   string `json:"holderId"`
	ExpiresAt  string `json:"expiresAt"` // ISO 8601 format
}

// FromDomainLock конвертирует domain модель в DTO
func FromDomainLock(l *domain.Lock) *LockResponse {
	if l == nil {
		return nil
	}

	return &LockResponse{
		FacilityID: l.Key.FacilityID,
		CourtID:    l.Key.CourtID,
		Date:       l.Key.Date.Format(domain.DateFormat),
		StartTime:  l.Key.StartTime.String(),
		HolderID:   l.HolderID,
		ExpiresAt:  l.ExpiresAt.UTC().Format(time.RFC3339),
	}
}
