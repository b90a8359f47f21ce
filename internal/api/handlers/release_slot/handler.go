package release_slot

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-AvailabilityService/internal/api/handlers"
	locks "github.com/m04kA/SMC-AvailabilityService/internal/service/locks"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDateOrTime  = "некорректный формат даты или времени, ожидается YYYY-MM-DD и HH:MM"
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

// Handle POST /api/v1/slots/release
// Освобождение отсутствующей или чужой блокировки отвечает 204:
// клиент с просроченным удержанием не должен получать ошибку.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req ReleaseSlotRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /slots/release - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	serviceReq, err := req.ToServiceRequest()
	if err != nil {
		h.logger.Warn("POST /slots/release - Failed to parse request: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDateOrTime)
		return
	}

	if err := h.service.Release(r.Context(), serviceReq); err != nil {
		switch {
		case errors.Is(err, locks.ErrInvalidInput):
			h.logger.Warn("POST /slots/release - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("POST /slots/release - Failed: court_id=%d, date=%s, error=%v", req.CourtID, req.Date, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /slots/release - Released: court_id=%d, date=%s, start=%s, holder=%s",
		req.CourtID, req.Date, req.StartTime, req.HolderID)
	handlers.RespondJSON(w, http.StatusNoContent, nil)
}
