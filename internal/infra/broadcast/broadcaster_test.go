package broadcast

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/pkg/metrics"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func TestPublish_SendsDeltaToFacilityChannel(t *testing.T) {
	client, mock := redismock.NewClientMock()
	b := New(client, nil, nopLogger{})

	event := domain.SlotEvent{
		FacilityID: 7,
		CourtID:    3,
		Date:       time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		StartTime:  "10:00",
		NewStatus:  domain.SlotLocked,
	}

	expected := `{"courtId":3,"date":"2025-06-10","startTime":"10:00","newStatus":"locked"}`
	mock.ExpectPublish("slots:facility:7", []byte(expected)).SetVal(1)

	err := b.Publish(context.Background(), event)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublish_CountsPublishedEvents(t *testing.T) {
	client, mock := redismock.NewClientMock()
	m := metrics.New("availability-broadcast-test")
	b := New(client, m, nopLogger{})

	event := domain.SlotEvent{
		FacilityID: 7,
		CourtID:    3,
		Date:       time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		StartTime:  "10:00",
		NewStatus:  domain.SlotAvailable,
	}

	payload := `{"courtId":3,"date":"2025-06-10","startTime":"10:00","newStatus":"available"}`
	mock.ExpectPublish("slots:facility:7", []byte(payload)).SetVal(1)

	require.NoError(t, b.Publish(context.Background(), event))

	counted := testutil.ToFloat64(m.EventsPublishedTotal.WithLabelValues("available"))
	assert.Equal(t, float64(1), counted)
}

func TestChannelName_ScopedPerFacility(t *testing.T) {
	assert.Equal(t, "slots:facility:1", channelName(1))
	assert.NotEqual(t, channelName(1), channelName(2))
}
