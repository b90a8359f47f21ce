package create_booking

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/internal/infra/lockstore"
	bookingRepo "github.com/m04kA/SMC-AvailabilityService/internal/infra/storage/booking"
	scheduleRepo "github.com/m04kA/SMC-AvailabilityService/internal/infra/storage/schedule"
	"github.com/m04kA/SMC-AvailabilityService/internal/integrations/courtservice"
	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

// Фейки

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fakeTxManager struct{}

func (fakeTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixedTimeProvider struct{ now time.Time }

func (p fixedTimeProvider) Now() time.Time { return p.now }

type fakeBookingRepo struct {
	existing  map[string]bool
	created   []*domain.Booking
	nextID    int64
	createErr error
}

func occupancy(courtID int64, start types.TimeString) string {
	return fmt.Sprintf("%d@%s", courtID, start)
}

func (f *fakeBookingRepo) ExistsActiveAtSlot(_ context.Context, courtID int64, _ time.Time, startTime types.TimeString) (bool, error) {
	return f.existing[occupancy(courtID, startTime)], nil
}

func (f *fakeBookingRepo) Create(_ context.Context, booking *domain.Booking) (*domain.Booking, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}

	f.nextID++
	created := *booking
	created.ID = f.nextID
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	f.created = append(f.created, &created)
	return &created, nil
}

type fakeScheduleRepo struct {
	weekly *domain.WeeklyRule
}

func (f *fakeScheduleRepo) GetWeeklyRule(_ context.Context, _ int64, _ int) (*domain.WeeklyRule, error) {
	if f.weekly == nil {
		return nil, scheduleRepo.ErrWeeklyRuleNotFound
	}
	return f.weekly, nil
}

func (f *fakeScheduleRepo) GetOverride(_ context.Context, _ int64, _ time.Time) (*domain.DateOverride, error) {
	return nil, scheduleRepo.ErrOverrideNotFound
}

type fakeLockStore struct {
	lock     *domain.Lock
	released []string
}

func (f *fakeLockStore) Get(_ context.Context, _ domain.SlotKey) (*domain.Lock, error) {
	if f.lock == nil {
		return nil, lockstore.ErrLockNotFound
	}
	return f.lock, nil
}

func (f *fakeLockStore) Release(_ context.Context, _ domain.SlotKey, holderID string) (bool, error) {
	f.released = append(f.released, holderID)
	if f.lock != nil && f.lock.HolderID == holderID {
		f.lock = nil
		return true, nil
	}
	return false, nil
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
	events []domain.SlotEvent
}

func (b *recordingBroadcaster) Publish(_ context.Context, event domain.SlotEvent) error {
	b.events = append(b.events, event)
	return nil
}

// Тестовая обвязка

var (
	testNow  = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	testDate = time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
)

type fixture struct {
	usecase     *UseCase
	bookings    *fakeBookingRepo
	locks       *fakeLockStore
	broadcaster *recordingBroadcaster
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	bookings := &fakeBookingRepo{existing: map[string]bool{}}
	locks := &fakeLockStore{}
	broadcaster := &recordingBroadcaster{}

	uc := NewUseCase(
		bookings,
		&fakeScheduleRepo{weekly: &domain.WeeklyRule{
			FacilityID:             1,
			DayOfWeek:              int(testDate.Weekday()),
			OpenTime:               "08:00",
			CloseTime:              "22:00",
			SessionDurationMinutes: 60,
		}},
		locks,
		&fakeCourtClient{facility: &courtservice.Facility{
			ID: 1,
			Courts: []courtservice.Court{
				{ID: 2, FacilityID: 1, Name: "Корт 1", IsActive: true},
				{ID: 3, FacilityID: 1, Name: "Корт 2", IsActive: false},
			},
		}},
		broadcaster,
		fakeTxManager{},
		nopLogger{},
	)
	uc.timeProvider = fixedTimeProvider{now: testNow}

	return &fixture{usecase: uc, bookings: bookings, locks: locks, broadcaster: broadcaster}
}

func request() *Request {
	return &Request{
		UserID:     10,
		FacilityID: 1,
		CourtID:    2,
		Date:       testDate,
		StartTime:  "10:00",
	}
}

// Тесты

func TestExecute_CreatesPendingPaymentBooking(t *testing.T) {
	f := newFixture(t)

	resp, err := f.usecase.Execute(context.Background(), request())

	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusPendingPayment), resp.Status)
	assert.Equal(t, 60, resp.DurationMinutes)

	require.Len(t, f.broadcaster.events, 1)
	assert.Equal(t, domain.SlotReserved, f.broadcaster.events[0].NewStatus)
}

func TestExecute_ReleasesOwnLockAfterBooking(t *testing.T) {
	f := newFixture(t)
	f.locks.lock = &domain.Lock{HolderID: "holder-a", ExpiresAt: testNow.Add(time.Minute)}

	req := request()
	req.HolderID = "holder-a"

	_, err := f.usecase.Execute(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, []string{"holder-a"}, f.locks.released)
	assert.Nil(t, f.locks.lock)
}

func TestExecute_ForeignLockRejected(t *testing.T) {
	f := newFixture(t)
	f.locks.lock = &domain.Lock{HolderID: "holder-a", ExpiresAt: testNow.Add(time.Minute)}

	req := request()
	req.HolderID = "holder-b"

	_, err := f.usecase.Execute(context.Background(), req)

	assert.ErrorIs(t, err, ErrSlotLockedByAnother)
	assert.Empty(t, f.bookings.created)
}

func TestExecute_NoLockAllowed(t *testing.T) {
	f := newFixture(t)

	// Без предварительного удержания и без конкурентов бронирование проходит
	resp, err := f.usecase.Execute(context.Background(), request())

	require.NoError(t, err)
	assert.NotZero(t, resp.ID)
	assert.Empty(t, f.locks.released, "nothing to release when no hold was taken")
}

func TestExecute_OccupiedSlotRejected(t *testing.T) {
	f := newFixture(t)
	f.bookings.existing[occupancy(2, "10:00")] = true

	_, err := f.usecase.Execute(context.Background(), request())

	assert.ErrorIs(t, err, ErrSlotNotAvailable)
}

func TestExecute_UniqueIndexViolationMapped(t *testing.T) {
	f := newFixture(t)
	f.bookings.createErr = bookingRepo.ErrSlotTaken

	_, err := f.usecase.Execute(context.Background(), request())

	assert.ErrorIs(t, err, ErrSlotNotAvailable)
	assert.Empty(t, f.broadcaster.events, "no delta for a failed booking")
}

func TestExecute_MisalignedTimeRejected(t *testing.T) {
	f := newFixture(t)

	req := request()
	req.StartTime = "10:17"

	_, err := f.usecase.Execute(context.Background(), req)

	assert.ErrorIs(t, err, ErrInvalidTimeSlot)
}

func TestExecute_PastDateRejected(t *testing.T) {
	f := newFixture(t)

	req := request()
	req.Date = testNow.AddDate(0, 0, -1)

	_, err := f.usecase.Execute(context.Background(), req)

	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestExecute_InactiveCourtRejected(t *testing.T) {
	f := newFixture(t)

	req := request()
	req.CourtID = 3

	_, err := f.usecase.Execute(context.Background(), req)

	assert.ErrorIs(t, err, ErrCourtNotFound)
}

func TestExecute_UnknownFacilityRejected(t *testing.T) {
	f := newFixture(t)

	req := request()
	req.FacilityID = 42

	_, err := f.usecase.Execute(context.Background(), req)

	assert.ErrorIs(t, err, ErrFacilityNotFound)
}
