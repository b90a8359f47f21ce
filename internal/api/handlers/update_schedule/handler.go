package update_schedule

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AvailabilityService/internal/api/handlers"
	"github.com/m04kA/SMC-AvailabilityService/internal/api/middleware"
	schedule "github.com/m04kA/SMC-AvailabilityService/internal/service/schedule"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidFacilityID  = "некорректный ID площадки"
	msgMissingUserID      = "отсутствует идентификатор пользователя"
	msgFacilityNotFound   = "площадка не найдена"
	msgAccessDenied       = "управление расписанием доступно только менеджеру площадки"
	msgInvalidRules       = "некорректные правила расписания"
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

// Handle PUT /api/v1/facilities/{facilityId}/schedule
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("PUT /facilities/{id}/schedule - Missing user ID header")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	vars := mux.Vars(r)
	facilityID, err := strconv.ParseInt(vars["facilityId"], 10, 64)
	if err != nil {
		h.logger.Warn("PUT /facilities/{id}/schedule - Invalid facility ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidFacilityID)
		return
	}

	var req UpdateScheduleRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PUT /facilities/{id}/schedule - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.service.UpdateSchedule(r.Context(), req.ToServiceRequest(facilityID, userID))
	if err != nil {
		switch {
		case errors.Is(err, schedule.ErrFacilityNotFound):
			h.logger.Warn("PUT /facilities/{id}/schedule - Facility not found: facility_id=%d", facilityID)
			handlers.RespondNotFound(w, msgFacilityNotFound)

		case errors.Is(err, schedule.ErrAccessDenied):
			h.logger.Warn("PUT /facilities/{id}/schedule - Access denied: facility_id=%d, user_id=%d", facilityID, userID)
			handlers.RespondForbidden(w, msgAccessDenied)

		case errors.Is(err, schedule.ErrInvalidInput):
			h.logger.Warn("PUT /facilities/{id}/schedule - Invalid rules: facility_id=%d, error=%v", facilityID, err)
			handlers.RespondBadRequest(w, msgInvalidRules)

		default:
			h.logger.Error("PUT /facilities/{id}/schedule - Failed: facility_id=%d, error=%v", facilityID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PUT /facilities/{id}/schedule - Updated: facility_id=%d, rules=%d, user_id=%d",
		facilityID, len(req.Rules), userID)
	handlers.RespondJSON(w, http.StatusOK, result)
}
