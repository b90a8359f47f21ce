package get_day_slots

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AvailabilityService/internal/api/handlers"
	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	getDaySlots "github.com/m04kA/SMC-AvailabilityService/internal/usecase/get_day_slots"
)

const (
	msgInvalidFacilityID = "некорректный ID площадки"
	msgInvalidDate       = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgMissingDate       = "отсутствует обязательный параметр date"
	msgFacilityNotFound  = "площадка не найдена"
)

type Handler struct {
	useCase GetDaySlotsUseCase
	logger  Logger
}

func NewHandler(useCase GetDaySlotsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/facilities/{facilityId}/day-slots?date=YYYY-MM-DD
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	facilityID, err := strconv.ParseInt(vars["facilityId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /facilities/{id}/day-slots - Invalid facility ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidFacilityID)
		return
	}

	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		h.logger.Warn("GET /facilities/{id}/day-slots - Missing date parameter: facility_id=%d", facilityID)
		handlers.RespondBadRequest(w, msgMissingDate)
		return
	}

	date, err := time.Parse(domain.DateFormat, dateStr)
	if err != nil {
		h.logger.Warn("GET /facilities/{id}/day-slots - Invalid date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	result, err := h.useCase.Execute(r.Context(), &getDaySlots.Request{
		FacilityID: facilityID,
		Date:       date,
	})
	if err != nil {
		switch {
		case errors.Is(err, getDaySlots.ErrFacilityNotFound):
			h.logger.Warn("GET /facilities/{id}/day-slots - Facility not found: facility_id=%d", facilityID)
			handlers.RespondNotFound(w, msgFacilityNotFound)

		case errors.Is(err, getDaySlots.ErrInvalidInput):
			h.logger.Warn("GET /facilities/{id}/day-slots - Invalid input: facility_id=%d, error=%v", facilityID, err)
			handlers.RespondBadRequest(w, msgInvalidFacilityID)

		default:
			h.logger.Error("GET /facilities/{id}/day-slots - Failed: facility_id=%d, error=%v", facilityID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /facilities/{id}/day-slots - Served day view: facility_id=%d, date=%s, slots=%d",
		facilityID, dateStr, len(result.Slots))
	handlers.RespondJSON(w, http.StatusOK, result)
}
