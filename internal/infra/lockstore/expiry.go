package lockstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Publisher публикует дельты состояния слотов
type Publisher interface {
	Publish(ctx context.Context, event domain.SlotEvent) error
}

// ParseLockKey разбирает ключ блокировки обратно в ключ слота
// Формат зеркален lockKey: lock:facility:{f}:court:{c}:date:{d}:slot:{hh:mm}
func ParseLockKey(raw string) (domain.SlotKey, bool) {
	parts := strings.Split(raw, ":")
	if len(parts) != 10 ||
		parts[0] != "lock" || parts[1] != "facility" ||
		parts[3] != "court" || parts[5] != "date" || parts[7] != "slot" {
		return domain.SlotKey{}, false
	}

	facilityID, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || facilityID <= 0 {
		return domain.SlotKey{}, false
	}
	courtID, err := strconv.ParseInt(parts[4], 10, 64)
	if err != nil || courtID <= 0 {
		return domain.SlotKey{}, false
	}
	date, err := time.Parse(domain.DateFormat, parts[6])
	if err != nil {
		return domain.SlotKey{}, false
	}
	startTime := types.TimeString(parts[8] + ":" + parts[9])
	if err := startTime.Validate(); err != nil {
		return domain.SlotKey{}, false
	}

	return domain.SlotKey{
		FacilityID: facilityID,
		CourtID:    courtID,
		Date:       date,
		StartTime:  startTime,
	}, true
}

// ExpiryWatcher слушает keyspace-уведомления Redis об истечении ключей
// и публикует дельту available для истёкших блокировок слотов.
// Без него подписчики видели бы locked до полного перечитывания дня.
type ExpiryWatcher struct {
	client    *redis.Client
	db        int
	publisher Publisher
	log       Logger
}

// NewExpiryWatcher создает наблюдатель за истечением блокировок
func NewExpiryWatcher(client *redis.Client, db int, publisher Publisher, log Logger) *ExpiryWatcher {
	return &ExpiryWatcher{
		client:    client,
		db:        db,
		publisher: publisher,
		log:       log,
	}
}

// Run подписывается на события истечения и обрабатывает их до отмены контекста
// Уведомления Redis доставляются best-effort (без подтверждений), поэтому
// дельта истечения - ускорение сходимости, а не источник истины:
// источником остаётся TTL самого ключа.
func (w *ExpiryWatcher) Run(ctx context.Context) error {
	// Включаем события истечения; на managed Redis CONFIG может быть запрещён -
	// тогда флаг notify-keyspace-events выставляется на стороне сервера
	if err := w.client.ConfigSet(ctx, "notify-keyspace-events", "Ex").Err(); err != nil {
		w.log.Warn("ExpiryWatcher: config set notify-keyspace-events failed, relying on server config: %v", err)
	}

	channel := fmt.Sprintf("__keyevent@%d__:expired", w.db)
	pubsub := w.client.PSubscribe(ctx, channel)
	defer pubsub.Close()

	w.log.Info("ExpiryWatcher: listening for expired locks on %s", channel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			w.handleExpired(ctx, msg.Payload)
		}
	}
}

// handleExpired публикует дельту available для истёкшего ключа блокировки
// Чужие истёкшие ключи (не блокировки слотов) пропускаются молча
func (w *ExpiryWatcher) handleExpired(ctx context.Context, expiredKey string) {
	key, ok := ParseLockKey(expiredKey)
	if !ok {
		return
	}

	event := domain.SlotEvent{
		FacilityID: key.FacilityID,
		CourtID:    key.CourtID,
		Date:       key.Date,
		StartTime:  key.StartTime,
		NewStatus:  domain.SlotAvailable,
	}

	if err := w.publisher.Publish(ctx, event); err != nil {
		w.log.Error("ExpiryWatcher: failed to publish expiry for %s: %v", expiredKey, err)
		return
	}

	w.log.Info("ExpiryWatcher: lock expired, slot released: facility=%d court=%d date=%s slot=%s",
		key.FacilityID, key.CourtID, key.Date.Format(domain.DateFormat), key.StartTime)
}
