package release_slot

import (
	"context"

	"github.com/m04kA/SMC-AvailabilityService/internal/service/locks/models"
)

type LockService interface {
	Release(ctx context.Context, req *models.ReleaseSlotRequest) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
