package create_override

import "github.com/m04kA/SMC-AvailabilityService/internal/service/schedule/models"

// CreateOverrideRequest HTTP request model
type CreateOverrideRequest struct {
	Date      string  `json:"date"`               // "2025-10-15"
	OpenTime  *string `json:"openTime,omitempty"` // nil при isClosed=true
	CloseTime *string `json:"closeTime,omitempty"`
	IsClosed  bool    `json:"isClosed"`
	Reason    *string `json:"reason,omitempty"`
}

// ToServiceRequest конвертирует HTTP запрос в модель сервиса
func (r *CreateOverrideRequest) ToServiceRequest(facilityID, userID int64) *models.CreateOverrideRequest {
	return &models.CreateOverrideRequest{
		UserID:     userID,
		FacilityID: facilityID,
		Date:       r.Date,
		OpenTime:   r.OpenTime,
		CloseTime:  r.CloseTime,
		IsClosed:   r.IsClosed,
		Reason:     r.Reason,
	}
}
