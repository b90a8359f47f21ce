package renew_slot

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-AvailabilityService/internal/api/handlers"
	locks "github.com/m04kA/SMC-AvailabilityService/internal/service/locks"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDateOrTime  = "некорректный формат даты или времени, ожидается YYYY-MM-DD и HH:MM"
	msgLockNotHeld        = "блокировка не удерживается этим держателем"
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

// Handle POST /api/v1/slots/renew
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req RenewSlotRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /slots/renew - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	serviceReq, err := req.ToServiceRequest()
	if err != nil {
		h.logger.Warn("POST /slots/renew - Failed to parse request: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDateOrTime)
		return
	}

	result, err := h.service.Renew(r.Context(), serviceReq)
	if err != nil {
		switch {
		case errors.Is(err, locks.ErrLockNotHeld):
			h.logger.Warn("POST /slots/renew - Lock not held: court_id=%d, date=%s, start=%s, holder=%s",
				req.CourtID, req.Date, req.StartTime, req.HolderID)
			handlers.RespondConflict(w, msgLockNotHeld)

		case errors.Is(err, locks.ErrInvalidInput):
			h.logger.Warn("POST /slots/renew - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("POST /slots/renew - Failed: court_id=%d, date=%s, error=%v", req.CourtID, req.Date, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /slots/renew - Extended: court_id=%d, date=%s, start=%s, expires=%s",
		req.CourtID, req.Date, req.StartTime, result.ExpiresAt)
	handlers.RespondJSON(w, http.StatusOK, result)
}
