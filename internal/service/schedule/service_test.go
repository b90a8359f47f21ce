package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	scheduleRepo "github.com/m04kA/SMC-AvailabilityService/internal/infra/storage/schedule"
	"github.com/m04kA/SMC-AvailabilityService/internal/integrations/courtservice"
	"github.com/m04kA/SMC-AvailabilityService/internal/service/schedule/models"
	"github.com/m04kA/SMC-AvailabilityService/pkg/ptr"
)

// Фейки

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fakeTxManager struct{}

func (fakeTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeScheduleRepo struct {
	rules     map[int]*domain.WeeklyRule
	overrides map[string]*domain.DateOverride
	nextID    int64
}

func newFakeScheduleRepo() *fakeScheduleRepo {
	return &fakeScheduleRepo{
		rules:     map[int]*domain.WeeklyRule{},
		overrides: map[string]*domain.DateOverride{},
		nextID:    1,
	}
}

func (f *fakeScheduleRepo) GetWeeklyRules(_ context.Context, facilityID int64) ([]*domain.WeeklyRule, error) {
	rules := make([]*domain.WeeklyRule, 0, len(f.rules))
	for day := 0; day < 7; day++ {
		if rule, ok := f.rules[day]; ok {
			rules = append(rules, rule)
		}
	}
	return rules, nil
}

func (f *fakeScheduleRepo) UpsertWeeklyRule(_ context.Context, rule *domain.WeeklyRule) (*domain.WeeklyRule, error) {
	stored := *rule
	stored.ID = f.nextID
	f.nextID++
	f.rules[rule.DayOfWeek] = &stored
	return &stored, nil
}

func (f *fakeScheduleRepo) GetOverride(_ context.Context, _ int64, date time.Time) (*domain.DateOverride, error) {
	override, ok := f.overrides[date.Format(domain.DateFormat)]
	if !ok {
		return nil, scheduleRepo.ErrOverrideNotFound
	}
	return override, nil
}

func (f *fakeScheduleRepo) ListOverrides(_ context.Context, _ int64, from time.Time) ([]*domain.DateOverride, error) {
	overrides := make([]*domain.DateOverride, 0, len(f.overrides))
	for _, override := range f.overrides {
		if !override.Date.Before(from) {
			overrides = append(overrides, override)
		}
	}
	return overrides, nil
}

func (f *fakeScheduleRepo) CreateOverride(_ context.Context, override *domain.DateOverride) (*domain.DateOverride, error) {
	key := override.Date.Format(domain.DateFormat)
	if _, ok := f.overrides[key]; ok {
		return nil, scheduleRepo.ErrDuplicateOverride
	}

	stored := *override
	stored.ID = f.nextID
	f.nextID++
	f.overrides[key] = &stored
	return &stored, nil
}

func (f *fakeScheduleRepo) DeleteOverride(_ context.Context, _ int64, date time.Time) error {
	key := date.Format(domain.DateFormat)
	if _, ok := f.overrides[key]; !ok {
		return scheduleRepo.ErrOverrideNotFound
	}
	delete(f.overrides, key)
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

// Тестовая обвязка

const (
	managerID  = int64(100)
	outsiderID = int64(200)
)

func newTestService(t *testing.T) (*Service, *fakeScheduleRepo) {
	t.Helper()

	repo := newFakeScheduleRepo()
	client := &fakeCourtClient{facility: &courtservice.Facility{
		ID:         1,
		Name:       "Сетка-Центр",
		ManagerIDs: []int64{managerID},
	}}

	return NewService(repo, client, fakeTxManager{}, nopLogger{}), repo
}

func validRules() []models.WeeklyRuleInput {
	rules := make([]models.WeeklyRuleInput, 0, 7)
	for day := 0; day < 7; day++ {
		rules = append(rules, models.WeeklyRuleInput{
			DayOfWeek:              day,
			OpenTime:               "08:00",
			CloseTime:              "22:00",
			SessionDurationMinutes: 60,
			BufferMinutes:          0,
		})
	}
	return rules
}

// Тесты

func TestUpdateSchedule_UpsertsAllRules(t *testing.T) {
	svc, repo := newTestService(t)

	resp, err := svc.UpdateSchedule(context.Background(), &models.UpdateScheduleRequest{
		UserID:     managerID,
		FacilityID: 1,
		Rules:      validRules(),
	})

	require.NoError(t, err)
	assert.Len(t, resp.Rules, 7)
	assert.Len(t, repo.rules, 7)
}

func TestUpdateSchedule_NonManagerRejected(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.UpdateSchedule(context.Background(), &models.UpdateScheduleRequest{
		UserID:     outsiderID,
		FacilityID: 1,
		Rules:      validRules(),
	})

	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestUpdateSchedule_OpenAfterCloseRejected(t *testing.T) {
	svc, _ := newTestService(t)

	rules := validRules()
	rules[0].OpenTime = "22:00"
	rules[0].CloseTime = "08:00"

	_, err := svc.UpdateSchedule(context.Background(), &models.UpdateScheduleRequest{
		UserID:     managerID,
		FacilityID: 1,
		Rules:      rules,
	})

	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateSchedule_DurationBounds(t *testing.T) {
	svc, _ := newTestService(t)

	rules := validRules()
	rules[0].SessionDurationMinutes = 5 // ниже минимума

	_, err := svc.UpdateSchedule(context.Background(), &models.UpdateScheduleRequest{
		UserID:     managerID,
		FacilityID: 1,
		Rules:      rules,
	})

	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateSchedule_ClosedDaySkipsTimeValidation(t *testing.T) {
	svc, _ := newTestService(t)

	rules := []models.WeeklyRuleInput{{
		DayOfWeek:              0,
		IsClosed:               true,
		SessionDurationMinutes: 60,
	}}

	_, err := svc.UpdateSchedule(context.Background(), &models.UpdateScheduleRequest{
		UserID:     managerID,
		FacilityID: 1,
		Rules:      rules,
	})

	require.NoError(t, err)
}

func TestCreateOverride_Success(t *testing.T) {
	svc, _ := newTestService(t)

	resp, err := svc.CreateOverride(context.Background(), &models.CreateOverrideRequest{
		UserID:     managerID,
		FacilityID: 1,
		Date:       "2025-12-31",
		OpenTime:   ptr.Ptr("10:00"),
		CloseTime:  ptr.Ptr("16:00"),
		Reason:     ptr.Ptr("Сокращённый день"),
	})

	require.NoError(t, err)
	assert.Equal(t, "2025-12-31", resp.Date)
	assert.False(t, resp.IsClosed)
}

func TestCreateOverride_DuplicateDateRejected(t *testing.T) {
	svc, _ := newTestService(t)

	req := &models.CreateOverrideRequest{
		UserID:     managerID,
		FacilityID: 1,
		Date:       "2025-12-31",
		IsClosed:   true,
	}

	_, err := svc.CreateOverride(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.CreateOverride(context.Background(), req)
	assert.ErrorIs(t, err, ErrOverrideAlreadyExists)
}

func TestCreateOverride_OpenWithoutTimesRejected(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateOverride(context.Background(), &models.CreateOverrideRequest{
		UserID:     managerID,
		FacilityID: 1,
		Date:       "2025-12-31",
		IsClosed:   false,
	})

	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateOverride_BadDateRejected(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateOverride(context.Background(), &models.CreateOverrideRequest{
		UserID:     managerID,
		FacilityID: 1,
		Date:       "31.12.2025",
		IsClosed:   true,
	})

	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeleteOverride_Success(t *testing.T) {
	svc, repo := newTestService(t)

	_, err := svc.CreateOverride(context.Background(), &models.CreateOverrideRequest{
		UserID:     managerID,
		FacilityID: 1,
		Date:       "2025-12-31",
		IsClosed:   true,
	})
	require.NoError(t, err)

	date := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	err = svc.DeleteOverride(context.Background(), 1, date, managerID)

	require.NoError(t, err)
	assert.Empty(t, repo.overrides)
}

func TestDeleteOverride_NotFound(t *testing.T) {
	svc, _ := newTestService(t)

	date := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	err := svc.DeleteOverride(context.Background(), 1, date, managerID)

	assert.ErrorIs(t, err, ErrOverrideNotFound)
}

func TestGetSchedule_UnknownFacilityStillReturnsEmptySchedule(t *testing.T) {
	svc, _ := newTestService(t)

	resp, err := svc.GetSchedule(context.Background(), 1)

	require.NoError(t, err)
	assert.Empty(t, resp.Rules)
	assert.Empty(t, resp.Overrides)
}
