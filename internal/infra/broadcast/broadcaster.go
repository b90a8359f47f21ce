package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/pkg/metrics"
	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// slotDelta wire-модель дельты изменения состояния слота
// Публикуется всегда дельта, никогда полное состояние дня
type slotDelta struct {
	CourtID   int64  `json:"courtId"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	NewStatus string `json:"newStatus"`
}

// Broadcaster публикует дельты состояния слотов в канал площадки (Redis Pub/Sub)
//
// Гарантии упорядоченности: Redis сериализует операции по одному ключу, поэтому
// дельты одного слота приходят подписчикам в порядке применения. Между разными
// ключами порядок не гарантируется - подписчики при расхождении перечитывают
// полную дневную выдачу.
type Broadcaster struct {
	client  *redis.Client
	metrics *metrics.Metrics
	log     Logger
}

// New создает новый broadcaster
// metrics может быть nil, если сбор метрик выключен
func New(client *redis.Client, m *metrics.Metrics, log Logger) *Broadcaster {
	return &Broadcaster{client: client, metrics: m, log: log}
}

// channelName возвращает имя канала площадки
func channelName(facilityID int64) string {
	return fmt.Sprintf("slots:facility:%d", facilityID)
}

// Publish публикует дельту в канал площадки
func (b *Broadcaster) Publish(ctx context.Context, event domain.SlotEvent) error {
	payload, err := json.Marshal(slotDelta{
		CourtID:   event.CourtID,
		Date:      event.Date.Format(domain.DateFormat),
		StartTime: event.StartTime.String(),
		NewStatus: string(event.NewStatus),
	})
	if err != nil {
		return fmt.Errorf("broadcast: marshal delta: %w", err)
	}

	if err := b.client.Publish(ctx, channelName(event.FacilityID), payload).Err(); err != nil {
		return fmt.Errorf("broadcast: publish to %s: %w", channelName(event.FacilityID), err)
	}

	if b.metrics != nil {
		b.metrics.EventsPublishedTotal.WithLabelValues(string(event.NewStatus)).Inc()
	}

	return nil
}

// Subscription подписка на дельты одной площадки
type Subscription struct {
	pubsub *redis.PubSub
	events chan domain.SlotEvent
}

// Events возвращает канал дельт
func (s *Subscription) Events() <-chan domain.SlotEvent {
	return s.events
}

// Close завершает подписку
func (s *Subscription) Close() error {
	return s.pubsub.Close()
}

// Subscribe подписывается на дельты площадки
// Дельты, которые не удалось разобрать, пропускаются с логированием
func (b *Broadcaster) Subscribe(ctx context.Context, facilityID int64) *Subscription {
	pubsub := b.client.Subscribe(ctx, channelName(facilityID))

	sub := &Subscription{
		pubsub: pubsub,
		events: make(chan domain.SlotEvent),
	}

	go func() {
		defer close(sub.events)

		for msg := range pubsub.Channel() {
			var delta slotDelta
			if err := json.Unmarshal([]byte(msg.Payload), &delta); err != nil {
				b.log.Warn("Subscribe: skipping malformed delta on %s: %v", msg.Channel, err)
				continue
			}

			date, err := time.Parse(domain.DateFormat, delta.Date)
			if err != nil {
				b.log.Warn("Subscribe: skipping delta with bad date on %s: %v", msg.Channel, err)
				continue
			}

			event := domain.SlotEvent{
				FacilityID: facilityID,
				CourtID:    delta.CourtID,
				Date:       date,
				StartTime:  types.TimeString(delta.StartTime),
				NewStatus:  domain.SlotStatus(delta.NewStatus),
			}

			select {
			case sub.events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return sub
}
