package create_override

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
	msgOverrideExists     = "переопределение на эту дату уже существует"
	msgInvalidOverride    = "некорректное переопределение расписания"
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

// Handle POST /api/v1/facilities/{facilityId}/overrides
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("POST /facilities/{id}/overrides - Missing user ID header")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	vars := mux.Vars(r)
	facilityID, err := strconv.ParseInt(vars["facilityId"], 10, 64)
	if err != nil {
		h.logger.Warn("POST /facilities/{id}/overrides - Invalid facility ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidFacilityID)
		return
	}

	var req CreateOverrideRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /facilities/{id}/overrides - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.service.CreateOverride(r.Context(), req.ToServiceRequest(facilityID, userID))
	if err != nil {
		switch {
		case errors.Is(err, schedule.ErrOverrideAlreadyExists):
			h.logger.Warn("POST /facilities/{id}/overrides - Override exists: facility_id=%d, date=%s", facilityID, req.Date)
			handlers.RespondConflict(w, msgOverrideExists)

		case errors.Is(err, schedule.ErrFacilityNotFound):
			h.logger.Warn("POST /facilities/{id}/overrides - Facility not found: facility_id=%d", facilityID)
			handlers.RespondNotFound(w, msgFacilityNotFound)

		case errors.Is(err, schedule.ErrAccessDenied):
			h.logger.Warn("POST /facilities/{id}/overrides - Access denied: facility_id=%d, user_id=%d", facilityID, userID)
			handlers.RespondForbidden(w, msgAccessDenied)

		case errors.Is(err, schedule.ErrInvalidInput):
			h.logger.Warn("POST /facilities/{id}/overrides - Invalid override: facility_id=%d, error=%v", facilityID, err)
			handlers.RespondBadRequest(w, msgInvalidOverride)

		default:
			h.logger.Error("POST /facilities/{id}/overrides - Failed: facility_id=%d, error=%v", facilityID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /facilities/{id}/overrides - Created: facility_id=%d, date=%s, user_id=%d",
		facilityID, req.Date, userID)
	handlers.RespondJSON(w, http.StatusCreated, result)
}
