package get_schedule

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AvailabilityService/internal/api/handlers"
	schedule "github.com/m04kA/SMC-AvailabilityService/internal/service/schedule"
)

const (
	msgInvalidFacilityID = "некорректный ID площадки"
	msgFacilityNotFound  = "площадка не найдена"
)

type Handler struct {
	service ScheduleService
	logger  Logger
}

func NewHandler(service ScheduleService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/facilities/{facilityId}/schedule
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	facilityID, err := strconv.ParseInt(vars["facilityId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /facilities/{id}/schedule - Invalid facility ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidFacilityID)
		return
	}

	result, err := h.service.GetSchedule(r.Context(), facilityID)
	if err != nil {
		switch {
		case errors.Is(err, schedule.ErrFacilityNotFound):
			h.logger.Warn("GET /facilities/{id}/schedule - Facility not found: facility_id=%d", facilityID)
			handlers.RespondNotFound(w, msgFacilityNotFound)

		default:
			h.logger.Error("GET /facilities/{id}/schedule - Failed: facility_id=%d, error=%v", facilityID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /facilities/{id}/schedule - Served: facility_id=%d, rules=%d, overrides=%d",
		facilityID, len(result.Rules), len(result.Overrides))
	handlers.RespondJSON(w, http.StatusOK, result)
}
