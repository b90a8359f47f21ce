package acquire_slot

import (
	"context"

	"github.com/m04kA/SMC-AvailabilityService/internal/service/locks/models"
)

type LockService interface {
	Acquire(ctx context.Context, req *models.AcquireSlotRequest) (*models.LockResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
