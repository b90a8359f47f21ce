package bookings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-AvailabilityService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-AvailabilityService/internal/integrations/courtservice"
	"github.com/m04kA/SMC-AvailabilityService/internal/service/bookings/models"
	"github.com/m04kA/SMC-AvailabilityService/pkg/ptr"
	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

// Фейки

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fakeBookingRepo struct {
	bookings map[int64]*domain.Booking

	cancelledWith domain.BookingStatus
	updatedWith   domain.BookingStatus
}

func newFakeBookingRepo(bookings ...*domain.Booking) *fakeBookingRepo {
	repo := &fakeBookingRepo{bookings: make(map[int64]*domain.Booking)}
	for _, b := range bookings {
		repo.bookings[b.ID] = b
	}
	return repo
}

func (f *fakeBookingRepo) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	booking, ok := f.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	return booking, nil
}

func (f *fakeBookingRepo) GetByUserID(_ context.Context, userID int64, status *domain.BookingStatus) ([]*domain.Booking, error) {
	var result []*domain.Booking
	for _, b := range f.bookings {
		if b.UserID != userID {
			continue
		}
		if status != nil && b.Status != *status {
			continue
		}
		result = append(result, b)
	}
	return result, nil
}

func (f *fakeBookingRepo) GetByFacilityWithFilter(_ context.Context, filter domain.FacilityBookingsFilter) ([]*domain.Booking, error) {
	var result []*domain.Booking
	for _, b := range f.bookings {
		if b.FacilityID == filter.FacilityID {
			result = append(result, b)
		}
	}
	return result, nil
}

func (f *fakeBookingRepo) UpdateStatus(_ context.Context, id int64, status domain.BookingStatus) error {
	booking, ok := f.bookings[id]
	if !ok {
		return bookingRepo.ErrBookingNotFound
	}
	booking.Status = status
	f.updatedWith = status
	return nil
}

func (f *fakeBookingRepo) Cancel(_ context.Context, id int64, status domain.BookingStatus, reason string) error {
	booking, ok := f.bookings[id]
	if !ok {
		return bookingRepo.ErrBookingNotFound
	}
	booking.Status = status
	booking.CancellationReason = &reason
	f.cancelledWith = status
	return nil
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

func (r *recordingBroadcaster) Publish(_ context.Context, event domain.SlotEvent) error {
	r.events = append(r.events, event)
	return nil
}

// Фикстуры

const (
	testFacilityID = int64(10)
	testCourtID    = int64(3)
	testOwnerID    = int64(100)
	testManagerID  = int64(500)
	testStrangerID = int64(999)
)

func testFacility() *courtservice.Facility {
	return &courtservice.Facility{
		ID:         testFacilityID,
		Name:       "Арена Юг",
		ManagerIDs: []int64{testManagerID},
	}
}

func testBooking(status domain.BookingStatus) *domain.Booking {
	return &domain.Booking{
		ID:              1,
		UserID:          testOwnerID,
		FacilityID:      testFacilityID,
		CourtID:         testCourtID,
		BookingDate:     time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		StartTime:       types.TimeString("10:00"),
		DurationMinutes: 60,
		Status:          status,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
}

func newTestService(repo *fakeBookingRepo, broadcaster *recordingBroadcaster) *Service {
	return NewService(repo, &fakeCourtClient{facility: testFacility()}, broadcaster, nopLogger{})
}

// GetByID

func TestGetByID_Owner(t *testing.T) {
	repo := newFakeBookingRepo(testBooking(domain.StatusPendingPayment))
	svc := newTestService(repo, &recordingBroadcaster{})

	resp, err := svc.GetByID(context.Background(), 1, testOwnerID)

	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.ID)
	assert.Equal(t, "pending_payment", resp.Status)
	assert.Equal(t, "10:00", resp.StartTime)
}

func TestGetByID_ManagerAllowed(t *testing.T) {
	repo := newFakeBookingRepo(testBooking(domain.StatusConfirmed))
	svc := newTestService(repo, &recordingBroadcaster{})

	resp, err := svc.GetByID(context.Background(), 1, testManagerID)

	require.NoError(t, err)
	assert.Equal(t, testOwnerID, resp.UserID)
}

func TestGetByID_StrangerDenied(t *testing.T) {
	repo := newFakeBookingRepo(testBooking(domain.StatusConfirmed))
	svc := newTestService(repo, &recordingBroadcaster{})

	_, err := svc.GetByID(context.Background(), 1, testStrangerID)

	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestGetByID_NotFound(t *testing.T) {
	svc := newTestService(newFakeBookingRepo(), &recordingBroadcaster{})

	_, err := svc.GetByID(context.Background(), 42, testOwnerID)

	assert.ErrorIs(t, err, ErrBookingNotFound)
}

// Cancel

func TestCancel_ByOwner(t *testing.T) {
	repo := newFakeBookingRepo(testBooking(domain.StatusPendingPayment))
	broadcaster := &recordingBroadcaster{}
	svc := newTestService(repo, broadcaster)

	err := svc.Cancel(context.Background(), 1, &models.CancelBookingRequest{
		UserID:             testOwnerID,
		CancellationReason: "передумал",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelledByUser, repo.cancelledWith)

	// Слот освободился - подписчики площадки получают дельту available
	require.Len(t, broadcaster.events, 1)
	assert.Equal(t, domain.SlotAvailable, broadcaster.events[0].NewStatus)
	assert.Equal(t, testCourtID, broadcaster.events[0].CourtID)
}

func TestCancel_ByManager(t *testing.T) {
	repo := newFakeBookingRepo(testBooking(domain.StatusConfirmed))
	broadcaster := &recordingBroadcaster{}
	svc := newTestService(repo, broadcaster)

	err := svc.Cancel(context.Background(), 1, &models.CancelBookingRequest{
		UserID:             testManagerID,
		CancellationReason: "ремонт покрытия",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelledByCompany, repo.cancelledWith)
	assert.Len(t, broadcaster.events, 1)
}

func TestCancel_StrangerDenied(t *testing.T) {
	repo := newFakeBookingRepo(testBooking(domain.StatusConfirmed))
	broadcaster := &recordingBroadcaster{}
	svc := newTestService(repo, broadcaster)

	err := svc.Cancel(context.Background(), 1, &models.CancelBookingRequest{
		UserID:             testStrangerID,
		CancellationReason: "чужое бронирование",
	})

	assert.ErrorIs(t, err, ErrAccessDenied)
	assert.Empty(t, broadcaster.events)
}

func TestCancel_AlreadyCancelled(t *testing.T) {
	repo := newFakeBookingRepo(testBooking(domain.StatusCancelledByUser))
	broadcaster := &recordingBroadcaster{}
	svc := newTestService(repo, broadcaster)

	err := svc.Cancel(context.Background(), 1, &models.CancelBookingRequest{
		UserID:             testOwnerID,
		CancellationReason: "повторная отмена",
	})

	assert.ErrorIs(t, err, ErrCannotCancel)
	assert.Empty(t, broadcaster.events)
}

// Confirm

func TestConfirm_Pending(t *testing.T) {
	repo := newFakeBookingRepo(testBooking(domain.StatusPendingPayment))
	broadcaster := &recordingBroadcaster{}
	svc := newTestService(repo, broadcaster)

	err := svc.Confirm(context.Background(), 1, testOwnerID)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, repo.updatedWith)

	require.Len(t, broadcaster.events, 1)
	assert.Equal(t, domain.SlotConfirmed, broadcaster.events[0].NewStatus)
}

func TestConfirm_AlreadyConfirmed(t *testing.T) {
	repo := newFakeBookingRepo(testBooking(domain.StatusConfirmed))
	broadcaster := &recordingBroadcaster{}
	svc := newTestService(repo, broadcaster)

	err := svc.Confirm(context.Background(), 1, testOwnerID)

	assert.ErrorIs(t, err, ErrCannotConfirm)
	assert.Empty(t, broadcaster.events)
}

func TestConfirm_StrangerDenied(t *testing.T) {
	repo := newFakeBookingRepo(testBooking(domain.StatusPendingPayment))
	svc := newTestService(repo, &recordingBroadcaster{})

	err := svc.Confirm(context.Background(), 1, testStrangerID)

	assert.ErrorIs(t, err, ErrAccessDenied)
}

// Списки

func TestGetUserBookings_InvalidStatus(t *testing.T) {
	svc := newTestService(newFakeBookingRepo(), &recordingBroadcaster{})

	_, err := svc.GetUserBookings(context.Background(), &models.GetUserBookingsRequest{
		UserID: testOwnerID,
		Status: ptr.Ptr("unknown_status"),
	})

	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetUserBookings_FilterByStatus(t *testing.T) {
	confirmed := testBooking(domain.StatusConfirmed)
	cancelled := testBooking(domain.StatusCancelledByUser)
	cancelled.ID = 2
	repo := newFakeBookingRepo(confirmed, cancelled)
	svc := newTestService(repo, &recordingBroadcaster{})

	resp, err := svc.GetUserBookings(context.Background(), &models.GetUserBookingsRequest{
		UserID: testOwnerID,
		Status: ptr.Ptr("confirmed"),
	})

	require.NoError(t, err)
	require.Len(t, resp.Bookings, 1)
	assert.Equal(t, "confirmed", resp.Bookings[0].Status)
}

func TestGetFacilityBookings_NonManagerDenied(t *testing.T) {
	repo := newFakeBookingRepo(testBooking(domain.StatusConfirmed))
	svc := newTestService(repo, &recordingBroadcaster{})

	_, err := svc.GetFacilityBookings(context.Background(), &models.GetFacilityBookingsRequest{
		UserID:     testStrangerID,
		FacilityID: testFacilityID,
	})

	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestGetFacilityBookings_Manager(t *testing.T) {
	repo := newFakeBookingRepo(testBooking(domain.StatusConfirmed))
	svc := newTestService(repo, &recordingBroadcaster{})

	resp, err := svc.GetFacilityBookings(context.Background(), &models.GetFacilityBookingsRequest{
		UserID:     testManagerID,
		FacilityID: testFacilityID,
	})

	require.NoError(t, err)
	assert.Len(t, resp.Bookings, 1)
}
