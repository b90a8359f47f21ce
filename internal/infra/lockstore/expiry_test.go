package lockstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type recordingPublisher struct {
	events []domain.SlotEvent
}

func (r *recordingPublisher) Publish(_ context.Context, event domain.SlotEvent) error {
	r.events = append(r.events, event)
	return nil
}

func TestParseLockKey_RoundTrip(t *testing.T) {
	key := testKey()

	parsed, ok := ParseLockKey(lockKey(key))

	require.True(t, ok)
	assert.Equal(t, key.FacilityID, parsed.FacilityID)
	assert.Equal(t, key.CourtID, parsed.CourtID)
	assert.Equal(t, key.Date.Format(domain.DateFormat), parsed.Date.Format(domain.DateFormat))
	assert.Equal(t, key.StartTime, parsed.StartTime)
}

func TestParseLockKey_RejectsForeignKeys(t *testing.T) {
	foreign := []string{
		"session:user:42",
		"lock:facility:1:court:2:date:2025-06-10",
		"lock:facility:abc:court:2:date:2025-06-10:slot:10:00",
		"lock:facility:1:court:2:date:not-a-date:slot:10:00",
		"lock:facility:1:court:2:date:2025-06-10:slot:99:99",
		"",
	}

	for _, raw := range foreign {
		_, ok := ParseLockKey(raw)
		assert.False(t, ok, "key %q must be rejected", raw)
	}
}

func TestExpiryWatcher_PublishesAvailableDelta(t *testing.T) {
	publisher := &recordingPublisher{}
	watcher := NewExpiryWatcher(nil, 0, publisher, nopLogger{})

	watcher.handleExpired(context.Background(), lockKey(testKey()))

	require.Len(t, publisher.events, 1)
	event := publisher.events[0]
	assert.Equal(t, domain.SlotAvailable, event.NewStatus)
	assert.Equal(t, testKey().CourtID, event.CourtID)
	assert.Equal(t, testKey().StartTime, event.StartTime)
}

func TestExpiryWatcher_IgnoresForeignExpiredKeys(t *testing.T) {
	publisher := &recordingPublisher{}
	watcher := NewExpiryWatcher(nil, 0, publisher, nopLogger{})

	watcher.handleExpired(context.Background(), "cache:facility:1:day:2025-06-10")

	assert.Empty(t, publisher.events)
}
