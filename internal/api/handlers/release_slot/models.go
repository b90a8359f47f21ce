package release_slot

import (
	"time"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/internal/service/locks/models"
	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

// ReleaseSlotRequest HTTP request model
type ReleaseSlotRequest struct {
	FacilityID int64  `json:"facilityId"`
	CourtID    int64  `json:"courtId"`
	Date       string `json:"date"`      // "2025-10-15"
	StartTime  string `json:"startTime"` // "10:00"
	HolderID   string `json:"holderId"`
}

// ToServiceRequest конвертирует HTTP запрос в модель сервиса
func (r *ReleaseSlotRequest) ToServiceRequest() (*models.ReleaseSlotRequest, error) {
	date, err := time.Parse(domain.DateFormat, r.Date)
	if err != nil {
		return nil, err
	}

	startTime, err := types.NewTimeStringFromString(r.StartTime)
	if err != nil {
		return nil, err
	}

	return &models.ReleaseSlotRequest{
		FacilityID: r.FacilityID,
		CourtID:    r.CourtID,
		Date:       date,
		StartTime:  startTime,
		HolderID:   r.HolderID,
	}, nil
}
