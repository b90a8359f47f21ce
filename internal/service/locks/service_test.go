package locks

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/internal/infra/lockstore"
	scheduleRepo "github.com/m04kA/SMC-AvailabilityService/internal/infra/storage/schedule"
	"github.com/m04kA/SMC-AvailabilityService/internal/integrations/courtservice"
	"github.com/m04kA/SMC-AvailabilityService/internal/service/locks/models"
	"github.com/m04kA/SMC-AvailabilityService/pkg/metrics"
	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

// Фейки

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// fakeLockStore эмулирует атомарность Redis через общий мьютекс:
// каждая операция - это один неделимый compare-and-set
type fakeLockStore struct {
	mu    sync.Mutex
	locks map[string]fakeLockEntry
}

type fakeLockEntry struct {
	holderID  string
	expiresAt time.Time
}

func newFakeLockStore() *fakeLockStore {
	return &fakeLockStore{locks: make(map[string]fakeLockEntry)}
}

func storeKey(key domain.SlotKey) string {
	return fmt.Sprintf("%d/%d/%s/%s", key.FacilityID, key.CourtID, key.Date.Format(domain.DateFormat), key.StartTime)
}

func (f *fakeLockStore) Acquire(_ context.Context, key domain.SlotKey, holderID string, ttl time.Duration) (*domain.Lock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	k := storeKey(key)

	if entry, ok := f.locks[k]; ok && entry.expiresAt.After(now) && entry.holderID != holderID {
		return nil, lockstore.ErrAlreadyLocked
	}

	f.locks[k] = fakeLockEntry{holderID: holderID, expiresAt: now.Add(ttl)}
	return &domain.Lock{Key: key, HolderID: holderID, AcquiredAt: now, ExpiresAt: now.Add(ttl)}, nil
}

func (f *fakeLockStore) Release(_ context.Context, key domain.SlotKey, holderID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	k := storeKey(key)
	entry, ok := f.locks[k]
	if !ok || entry.holderID != holderID || !entry.expiresAt.After(time.Now()) {
		return false, nil
	}

	delete(f.locks, k)
	return true, nil
}

func (f *fakeLockStore) Renew(_ context.Context, key domain.SlotKey, holderID string, additional time.Duration) (*domain.Lock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	k := storeKey(key)
	entry, ok := f.locks[k]
	if !ok || entry.holderID != holderID || !entry.expiresAt.After(time.Now()) {
		return nil, lockstore.ErrLockNotHeld
	}

	entry.expiresAt = entry.expiresAt.Add(additional)
	f.locks[k] = entry
	return &domain.Lock{Key: key, HolderID: holderID, ExpiresAt: entry.expiresAt}, nil
}

func (f *fakeLockStore) Get(_ context.Context, key domain.SlotKey) (*domain.Lock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entry, ok := f.locks[storeKey(key)]
	if !ok || !entry.expiresAt.After(time.Now()) {
		return nil, lockstore.ErrLockNotFound
	}
	return &domain.Lock{Key: key, HolderID: entry.holderID, ExpiresAt: entry.expiresAt}, nil
}

type fakeScheduleRepo struct {
	weekly   map[int]*domain.WeeklyRule
	override *domain.DateOverride
}

func (f *fakeScheduleRepo) GetWeeklyRule(_ context.Context, _ int64, dayOfWeek int) (*domain.WeeklyRule, error) {
	rule, ok := f.weekly[dayOfWeek]
	if !ok {
		return nil, scheduleRepo.ErrWeeklyRuleNotFound
	}
	return rule, nil
}

func (f *fakeScheduleRepo) GetOverride(_ context.Context, _ int64, _ time.Time) (*domain.DateOverride, error) {
	if f.override == nil {
		return nil, scheduleRepo.ErrOverrideNotFound
	}
	return f.override, nil
}

type fakeBookingRepo struct {
	booked map[string]bool
}

func (f *fakeBookingRepo) ExistsActiveAtSlot(_ context.Context, courtID int64, date time.Time, startTime types.TimeString) (bool, error) {
	return f.booked[date.Format(domain.DateFormat)+"/"+startTime.String()], nil
}

type fakeCourtClient struct {
	facility *courtservice.Facility
}

func (f *fakeCourtClient) GetFacility(_ context.Context, facilityID int64) (*courtservice.Facility, error) {
	if f.facility == nil || f.facility.ID != facilityID {
		return nil, courtservice.ErrFacilityNotFound
	}
	return f.facility, nil
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []domain.SlotEvent
}

func (b *recordingBroadcaster) Publish(_ context.Context, event domain.SlotEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	return nil
}

func (b *recordingBroadcaster) published() []domain.SlotEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.SlotEvent(nil), b.events...)
}

// Тестовая обвязка

type serviceFixture struct {
	service     *Service
	lockStore   *fakeLockStore
	bookingRepo *fakeBookingRepo
	broadcaster *recordingBroadcaster
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	return newServiceFixtureWithMetrics(t, nil)
}

func newServiceFixtureWithMetrics(t *testing.T, m *metrics.Metrics) *serviceFixture {
	t.Helper()

	weekly := map[int]*domain.WeeklyRule{}
	for day := 0; day < 7; day++ {
		weekly[day] = &domain.WeeklyRule{
			FacilityID:             1,
			DayOfWeek:              day,
			OpenTime:               "08:00",
			CloseTime:              "22:00",
			SessionDurationMinutes: 60,
			BufferMinutes:          0,
		}
	}

	facility := &courtservice.Facility{
		ID:         1,
		Name:       "Центральный корт",
		ManagerIDs: []int64{100},
		Courts: []courtservice.Court{
			{ID: 2, FacilityID: 1, Name: "Корт 1", DisplayOrder: 1, IsActive: true},
			{ID: 3, FacilityID: 1, Name: "Корт 2", DisplayOrder: 2, IsActive: false},
		},
	}

	store := newFakeLockStore()
	bookings := &fakeBookingRepo{booked: map[string]bool{}}
	broadcaster := &recordingBroadcaster{}

	svc := NewService(
		store,
		&fakeScheduleRepo{weekly: weekly},
		bookings,
		&fakeCourtClient{facility: facility},
		broadcaster,
		m,
		nopLogger{},
		90*time.Second,
		600*time.Second,
	)

	return &serviceFixture{
		service:     svc,
		lockStore:   store,
		bookingRepo: bookings,
		broadcaster: broadcaster,
	}
}

func acquireRequest() *models.AcquireSlotRequest {
	return &models.AcquireSlotRequest{
		FacilityID: 1,
		CourtID:    2,
		Date:       time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		StartTime:  "10:00",
	}
}

// Тесты

func TestAcquire_Success(t *testing.T) {
	f := newServiceFixture(t)

	resp, err := f.service.Acquire(context.Background(), acquireRequest())

	require.NoError(t, err)
	assert.NotEmpty(t, resp.HolderID, "holder ID must be generated when absent")
	assert.Equal(t, "2025-06-10", resp.Date)
	assert.Equal(t, "10:00", resp.StartTime)

	events := f.broadcaster.published()
	require.Len(t, events, 1)
	assert.Equal(t, domain.SlotLocked, events[0].NewStatus)
}

func TestAcquire_ConflictWithAnotherHolder(t *testing.T) {
	f := newServiceFixture(t)

	first := acquireRequest()
	first.HolderID = "holder-a"
	_, err := f.service.Acquire(context.Background(), first)
	require.NoError(t, err)

	second := acquireRequest()
	second.HolderID = "holder-b"
	_, err = f.service.Acquire(context.Background(), second)

	assert.ErrorIs(t, err, ErrSlotAlreadyLocked)
}

func TestAcquire_SameHolderExtends(t *testing.T) {
	f := newServiceFixture(t)

	req := acquireRequest()
	req.HolderID = "holder-a"

	_, err := f.service.Acquire(context.Background(), req)
	require.NoError(t, err)

	resp, err := f.service.Acquire(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "holder-a", resp.HolderID)
}

func TestAcquire_BookedSlotRejected(t *testing.T) {
	f := newServiceFixture(t)
	f.bookingRepo.booked["2025-06-10/10:00"] = true

	_, err := f.service.Acquire(context.Background(), acquireRequest())

	assert.ErrorIs(t, err, ErrSlotAlreadyBooked)
}

func TestAcquire_MisalignedTimeRejected(t *testing.T) {
	f := newServiceFixture(t)

	req := acquireRequest()
	req.StartTime = "10:30" // сетка шагает по 60 минут от 08:00

	_, err := f.service.Acquire(context.Background(), req)

	assert.ErrorIs(t, err, ErrInvalidTimeSlot)
}

func TestAcquire_InactiveCourtRejected(t *testing.T) {
	f := newServiceFixture(t)

	req := acquireRequest()
	req.CourtID = 3

	_, err := f.service.Acquire(context.Background(), req)

	assert.ErrorIs(t, err, ErrCourtNotFound)
}

func TestAcquire_UnknownFacilityRejected(t *testing.T) {
	f := newServiceFixture(t)

	req := acquireRequest()
	req.FacilityID = 99

	_, err := f.service.Acquire(context.Background(), req)

	assert.ErrorIs(t, err, ErrFacilityNotFound)
}

func TestAcquire_TTLBounds(t *testing.T) {
	f := newServiceFixture(t)

	req := acquireRequest()
	req.TTLSeconds = 5 // ниже минимума

	_, err := f.service.Acquire(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidInput)

	req.TTLSeconds = 700 // выше максимума
	_, err = f.service.Acquire(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAcquire_ConcurrentAttemptsExactlyOneWinner(t *testing.T) {
	f := newServiceFixture(t)

	const attempts = 50

	var wg sync.WaitGroup
	results := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := acquireRequest()
			req.HolderID = fmt.Sprintf("holder-%d", i)
			_, results[i] = f.service.Acquire(context.Background(), req)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range results {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, ErrSlotAlreadyLocked)
		}
	}

	assert.Equal(t, 1, winners, "exactly one concurrent acquire must win")
}

func TestRelease_OwnLockPublishesAvailable(t *testing.T) {
	f := newServiceFixture(t)

	req := acquireRequest()
	req.HolderID = "holder-a"
	_, err := f.service.Acquire(context.Background(), req)
	require.NoError(t, err)

	err = f.service.Release(context.Background(), &models.ReleaseSlotRequest{
		FacilityID: req.FacilityID,
		CourtID:    req.CourtID,
		Date:       req.Date,
		StartTime:  req.StartTime,
		HolderID:   "holder-a",
	})

	require.NoError(t, err)

	events := f.broadcaster.published()
	require.Len(t, events, 2)
	assert.Equal(t, domain.SlotAvailable, events[1].NewStatus)
}

func TestRelease_ForeignLockIsNoopWithoutDelta(t *testing.T) {
	f := newServiceFixture(t)

	req := acquireRequest()
	req.HolderID = "holder-a"
	_, err := f.service.Acquire(context.Background(), req)
	require.NoError(t, err)

	err = f.service.Release(context.Background(), &models.ReleaseSlotRequest{
		FacilityID: req.FacilityID,
		CourtID:    req.CourtID,
		Date:       req.Date,
		StartTime:  req.StartTime,
		HolderID:   "holder-b",
	})

	require.NoError(t, err, "releasing a lock held by someone else is a no-op")
	assert.Len(t, f.broadcaster.published(), 1, "no available delta for a no-op release")

	// Блокировка holder-a не тронута
	_, err = f.service.Acquire(context.Background(), &models.AcquireSlotRequest{
		FacilityID: req.FacilityID,
		CourtID:    req.CourtID,
		Date:       req.Date,
		StartTime:  req.StartTime,
		HolderID:   "holder-c",
	})
	assert.ErrorIs(t, err, ErrSlotAlreadyLocked)
}

func TestRenew_ExtendsHeldLock(t *testing.T) {
	f := newServiceFixture(t)

	req := acquireRequest()
	req.HolderID = "holder-a"
	_, err := f.service.Acquire(context.Background(), req)
	require.NoError(t, err)

	resp, err := f.service.Renew(context.Background(), &models.RenewSlotRequest{
		FacilityID:        req.FacilityID,
		CourtID:           req.CourtID,
		Date:              req.Date,
		StartTime:         req.StartTime,
		HolderID:          "holder-a",
		AdditionalSeconds: 60,
	})

	require.NoError(t, err)
	assert.Equal(t, "holder-a", resp.HolderID)
}

func TestRenew_NotHeldLockRejected(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.Renew(context.Background(), &models.RenewSlotRequest{
		FacilityID: 1,
		CourtID:    2,
		Date:       time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		StartTime:  "10:00",
		HolderID:   "holder-a",
	})

	assert.ErrorIs(t, err, ErrLockNotHeld)
}

func TestIsSlotFree_ReflectsLockAndBookingState(t *testing.T) {
	f := newServiceFixture(t)

	key := domain.SlotKey{
		FacilityID: 1,
		CourtID:    2,
		Date:       time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		StartTime:  "10:00",
	}

	free, err := f.service.IsSlotFree(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, free, "untouched slot is free")

	req := acquireRequest()
	req.HolderID = "holder-a"
	_, err = f.service.Acquire(context.Background(), req)
	require.NoError(t, err)

	free, err = f.service.IsSlotFree(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, free, "held slot is not free")

	err = f.service.Release(context.Background(), &models.ReleaseSlotRequest{
		FacilityID: req.FacilityID,
		CourtID:    req.CourtID,
		Date:       req.Date,
		StartTime:  req.StartTime,
		HolderID:   "holder-a",
	})
	require.NoError(t, err)

	free, err = f.service.IsSlotFree(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, free, "released slot is free again")
}

func TestIsSlotFree_BookedSlotIsNotFree(t *testing.T) {
	f := newServiceFixture(t)
	f.bookingRepo.booked["2025-06-10/10:00"] = true

	free, err := f.service.IsSlotFree(context.Background(), domain.SlotKey{
		FacilityID: 1,
		CourtID:    2,
		Date:       time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		StartTime:  "10:00",
	})

	require.NoError(t, err)
	assert.False(t, free, "actively booked slot is not free even without a lock")
}

func TestLockOperations_AreCounted(t *testing.T) {
	m := metrics.New("availability-locks-test")
	f := newServiceFixtureWithMetrics(t, m)

	req := acquireRequest()
	req.HolderID = "holder-a"
	_, err := f.service.Acquire(context.Background(), req)
	require.NoError(t, err)

	conflicting := acquireRequest()
	conflicting.HolderID = "holder-b"
	_, err = f.service.Acquire(context.Background(), conflicting)
	require.ErrorIs(t, err, ErrSlotAlreadyLocked)

	_, err = f.service.Renew(context.Background(), &models.RenewSlotRequest{
		FacilityID:        req.FacilityID,
		CourtID:           req.CourtID,
		Date:              req.Date,
		StartTime:         req.StartTime,
		HolderID:          "holder-a",
		AdditionalSeconds: 60,
	})
	require.NoError(t, err)

	err = f.service.Release(context.Background(), &models.ReleaseSlotRequest{
		FacilityID: req.FacilityID,
		CourtID:    req.CourtID,
		Date:       req.Date,
		StartTime:  req.StartTime,
		HolderID:   "holder-a",
	})
	require.NoError(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.LockOperationsTotal.WithLabelValues("acquire", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.LockOperationsTotal.WithLabelValues("acquire", "conflict")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.LockOperationsTotal.WithLabelValues("renew", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.LockOperationsTotal.WithLabelValues("release", "ok")))
}

func TestRelease_MissingHolderIDRejected(t *testing.T) {
	f := newServiceFixture(t)

	err := f.service.Release(context.Background(), &models.ReleaseSlotRequest{
		FacilityID: 1,
		CourtID:    2,
		Date:       time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		StartTime:  "10:00",
	})

	assert.ErrorIs(t, err, ErrInvalidInput)
}
