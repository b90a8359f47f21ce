package acquire_slot

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-AvailabilityService/internal/api/handlers"
	locks "github.com/m04kA/SMC-AvailabilityService/internal/service/locks"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDateOrTime  = "некорректный формат даты или времени, ожидается YYYY-MM-DD и HH:MM"
	msgSlotAlreadyLocked  = "слот уже удерживается другим пользователем"
	msgSlotAlreadyBooked  = "слот уже забронирован"
	msgFacilityNotFound   = "площадка не найдена"
	msgCourtNotFound      = "корт не найден или неактивен"
	msgFacilityClosed     = "площадка закрыта в выбранную дату"
	msgInvalidTimeSlot    = "время не совпадает с сеткой слотов"
	msgInvalidInput       = "некорректные параметры запроса"
)

type Handler struct {
	service LockService
	logger  Logger
}

func NewHandler(service LockService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/slots/acquire
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req AcquireSlotRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /slots/acquire - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	serviceReq, err := req.ToServiceRequest()
	if err != nil {
		h.logger.Warn("POST /slots/acquire - Failed to parse request: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDateOrTime)
		return
	}

	result, err := h.service.Acquire(r.Context(), serviceReq)
	if err != nil {
		switch {
		case errors.Is(err, locks.ErrSlotAlreadyLocked):
			h.logger.Warn("POST /slots/acquire - Slot held by another holder: court_id=%d, date=%s, start=%s",
				req.CourtID, req.Date, req.StartTime)
			handlers.RespondConflict(w, msgSlotAlreadyLocked)

		case errors.Is(err, locks.ErrSlotAlreadyBooked):
			h.logger.Warn("POST /slots/acquire - Slot already booked: court_id=%d, date=%s, start=%s",
				req.CourtID, req.Date, req.StartTime)
			handlers.RespondConflict(w, msgSlotAlreadyBooked)

		case errors.Is(err, locks.ErrFacilityNotFound):
			h.logger.Warn("POST /slots/acquire - Facility not found: facility_id=%d", req.FacilityID)
			handlers.RespondNotFound(w, msgFacilityNotFound)

		case errors.Is(err, locks.ErrCourtNotFound):
			h.logger.Warn("POST /slots/acquire - Court not found: facility_id=%d, court_id=%d", req.FacilityID, req.CourtID)
			handlers.RespondNotFound(w, msgCourtNotFound)

		case errors.Is(err, locks.ErrFacilityClosed):
			h.logger.Warn("POST /slots/acquire - Facility closed: facility_id=%d, date=%s", req.FacilityID, req.Date)
			handlers.RespondBadRequest(w, msgFacilityClosed)

		case errors.Is(err, locks.ErrInvalidTimeSlot):
			h.logger.Warn("POST /slots/acquire - Invalid time slot: facility_id=%d, start=%s", req.FacilityID, req.StartTime)
			handlers.RespondBadRequest(w, msgInvalidTimeSlot)

		case errors.Is(err, locks.ErrInvalidInput):
			h.logger.Warn("POST /slots/acquire - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("POST /slots/acquire - Failed: facility_id=%d, court_id=%d, error=%v",
				req.FacilityID, req.CourtID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /slots/acquire - Lock acquired: court_id=%d, date=%s, start=%s, holder=%s",
		req.CourtID, req.Date, req.StartTime, result.HolderID)
	handlers.RespondJSON(w, http.StatusCreated, result)
}
