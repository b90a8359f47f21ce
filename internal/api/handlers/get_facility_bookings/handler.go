package get_facility_bookings

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AvailabilityService/internal/api/handlers"
	"github.com/m04kA/SMC-AvailabilityService/internal/api/middleware"
	bookings "github.com/m04kA/SMC-AvailabilityService/internal/service/bookings"
)

const (
	msgInvalidFacilityID = "некорректный ID площадки"
	msgMissingUserID     = "отсутствует идентификатор пользователя"
	msgInvalidQuery      = "некорректные параметры фильтра"
	msgFacilityNotFound  = "площадка не найдена"
	msgAccessDenied      = "доступ к бронированиям площадки запрещен"
)

type Handler struct {
	service BookingService
	logger  Logger
}

func NewHandler(service BookingService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/facilities/{facilityId}/bookings?courtId=&startDate=&endDate=&status=&includeInactive=
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("GET /facilities/{id}/bookings - Missing user ID header")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	vars := mux.Vars(r)
	facilityID, err := strconv.ParseInt(vars["facilityId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /facilities/{id}/bookings - Invalid facility ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidFacilityID)
		return
	}

	req, err := parseQuery(r.URL.Query(), facilityID, userID)
	if err != nil {
		h.logger.Warn("GET /facilities/{id}/bookings - Invalid query: facility_id=%d, error=%v", facilityID, err)
		handlers.RespondBadRequest(w, msgInvalidQuery)
		return
	}

	result, err := h.service.GetFacilityBookings(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrFacilityNotFound):
			h.logger.Warn("GET /facilities/{id}/bookings - Facility not found: facility_id=%d", facilityID)
			handlers.RespondNotFound(w, msgFacilityNotFound)

		case errors.Is(err, bookings.ErrAccessDenied):
			h.logger.Warn("GET /facilities/{id}/bookings - Access denied: facility_id=%d, user_id=%d", facilityID, userID)
			handlers.RespondForbidden(w, msgAccessDenied)

		case errors.Is(err, bookings.ErrInvalidInput):
			h.logger.Warn("GET /facilities/{id}/bookings - Invalid input: facility_id=%d, error=%v", facilityID, err)
			handlers.RespondBadRequest(w, msgInvalidQuery)

		default:
			h.logger.Error("GET /facilities/{id}/bookings - Failed: facility_id=%d, error=%v", facilityID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /facilities/{id}/bookings - Served: facility_id=%d, count=%d", facilityID, len(result.Bookings))
	handlers.RespondJSON(w, http.StatusOK, result)
}
