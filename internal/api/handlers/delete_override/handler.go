package delete_override

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AvailabilityService/internal/api/handlers"
	"github.com/m04kA/SMC-AvailabilityService/internal/api/middleware"
	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	schedule "github.com/m04kA/SMC-AvailabilityService/internal/service/schedule"
)

const (
	msgInvalidFacilityID = "некорректный ID площадки"
	msgInvalidDate       = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgMissingUserID     = "отсутствует идентификатор пользователя"
	msgFacilityNotFound  = "площадка не найдена"
	msgOverrideNotFound  = "переопределение не найдено"
	msgAccessDenied      = "управление расписанием доступно только менеджеру площадки"
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

// Handle DELETE /api/v1/facilities/{facilityId}/overrides/{date}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("DELETE /facilities/{id}/overrides/{date} - Missing user ID header")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	vars := mux.Vars(r)
	facilityID, err := strconv.ParseInt(vars["facilityId"], 10, 64)
	if err != nil {
		h.logger.Warn("DELETE /facilities/{id}/overrides/{date} - Invalid facility ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidFacilityID)
		return
	}

	date, err := time.Parse(domain.DateFormat, vars["date"])
	if err != nil {
		h.logger.Warn("DELETE /facilities/{id}/overrides/{date} - Invalid date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	if err := h.service.DeleteOverride(r.Context(), facilityID, date, userID); err != nil {
		switch {
		case errors.Is(err, schedule.ErrOverrideNotFound):
			h.logger.Warn("DELETE /facilities/{id}/overrides/{date} - Override not found: facility_id=%d, date=%s",
				facilityID, vars["date"])
			handlers.RespondNotFound(w, msgOverrideNotFound)

		case errors.Is(err, schedule.ErrFacilityNotFound):
			h.logger.Warn("DELETE /facilities/{id}/overrides/{date} - Facility not found: facility_id=%d", facilityID)
			handlers.RespondNotFound(w, msgFacilityNotFound)

		case errors.Is(err, schedule.ErrAccessDenied):
			h.logger.Warn("DELETE /facilities/{id}/overrides/{date} - Access denied: facility_id=%d, user_id=%d",
				facilityID, userID)
			handlers.RespondForbidden(w, msgAccessDenied)

		default:
			h.logger.Error("DELETE /facilities/{id}/overrides/{date} - Failed: facility_id=%d, error=%v", facilityID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("DELETE /facilities/{id}/overrides/{date} - Deleted: facility_id=%d, date=%s, user_id=%d",
		facilityID, vars["date"], userID)
	handlers.RespondJSON(w, http.StatusNoContent, nil)
}
