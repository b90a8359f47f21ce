package update_schedule

import "github.com/m04kA/SMC-AvailabilityService/internal/service/schedule/models"

// UpdateScheduleRequest HTTP request model
type UpdateScheduleRequest struct {
	Rules []models.WeeklyRuleInput `json:"rules"`
}

// ToServiceRequest конвертирует HTTP запрос в модель сервиса
func (r *UpdateScheduleRequest) ToServiceRequest(facilityID, userID int64) *models.UpdateScheduleRequest {
	return &models.UpdateScheduleRequest{
		UserID:     userID,
		FacilityID: facilityID,
		Rules:      r.Rules,
	}
}
