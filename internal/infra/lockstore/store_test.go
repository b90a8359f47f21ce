package lockstore

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
)

func testKey() domain.SlotKey {
	return domain.SlotKey{
		FacilityID: 1,
		CourtID:    2,
		Date:       time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		StartTime:  "10:00",
	}
}

const testRedisKey = "lock:facility:1:court:2:date:2025-06-10:slot:10:00"

func TestAcquire_Success(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := New(client)

	mock.ExpectSetNX(testRedisKey, "holder-a", 90*time.Second).SetVal(true)

	lock, err := store.Acquire(context.Background(), testKey(), "holder-a", 90*time.Second)

	require.NoError(t, err)
	assert.Equal(t, "holder-a", lock.HolderID)
	assert.Equal(t, testKey(), lock.Key)
	assert.True(t, lock.ExpiresAt.After(time.Now()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcquire_AlreadyLockedByAnotherHolder(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := New(client)

	mock.ExpectSetNX(testRedisKey, "holder-b", 90*time.Second).SetVal(false)
	mock.ExpectGet(testRedisKey).SetVal("holder-a")

	lock, err := store.Acquire(context.Background(), testKey(), "holder-b", 90*time.Second)

	assert.ErrorIs(t, err, ErrAlreadyLocked)
	assert.Nil(t, lock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcquire_SameHolderRefreshesTTL(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := New(client)

	mock.ExpectSetNX(testRedisKey, "holder-a", 90*time.Second).SetVal(false)
	mock.ExpectGet(testRedisKey).SetVal("holder-a")
	mock.ExpectEval(refreshScript, []string{testRedisKey}, "holder-a", int64(90000)).SetVal(int64(1))

	lock, err := store.Acquire(context.Background(), testKey(), "holder-a", 90*time.Second)

	require.NoError(t, err)
	assert.Equal(t, "holder-a", lock.HolderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcquire_ExpiredBetweenSetNXAndGet(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := New(client)

	mock.ExpectSetNX(testRedisKey, "holder-b", 90*time.Second).SetVal(false)
	mock.ExpectGet(testRedisKey).RedisNil()

	_, err := store.Acquire(context.Background(), testKey(), "holder-b", 90*time.Second)

	assert.ErrorIs(t, err, ErrAlreadyLocked)
}

func TestGet_ReturnsHolderAndExpiry(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := New(client)

	mock.ExpectGet(testRedisKey).SetVal("holder-a")
	mock.ExpectPTTL(testRedisKey).SetVal(45 * time.Second)

	lock, err := store.Get(context.Background(), testKey())

	require.NoError(t, err)
	assert.Equal(t, "holder-a", lock.HolderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_NotFound(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := New(client)

	mock.ExpectGet(testRedisKey).RedisNil()

	_, err := store.Get(context.Background(), testKey())

	assert.ErrorIs(t, err, ErrLockNotFound)
}

func TestGetHeld_SkipsFreeKeys(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := New(client)

	keyA := testKey()
	keyB := testKey()
	keyB.StartTime = "11:00"

	mock.ExpectMGet(testRedisKey, "lock:facility:1:court:2:date:2025-06-10:slot:11:00").
		SetVal([]interface{}{"holder-a", nil})

	held, err := store.GetHeld(context.Background(), []domain.SlotKey{keyA, keyB})

	require.NoError(t, err)
	assert.Equal(t, map[domain.SlotKey]string{keyA: "holder-a"}, held)
}

func TestGetHeld_EmptyKeys(t *testing.T) {
	client, _ := redismock.NewClientMock()
	store := New(client)

	held, err := store.GetHeld(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, held)
}

func TestRelease_DeletesOwnLock(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := New(client)

	mock.ExpectEval(releaseScript, []string{testRedisKey}, "holder-a").SetVal(int64(1))

	deleted, err := store.Release(context.Background(), testKey(), "holder-a")

	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestRelease_UnheldLockIsNoOpSuccess(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := New(client)

	mock.ExpectEval(releaseScript, []string{testRedisKey}, "holder-b").SetVal(int64(0))

	deleted, err := store.Release(context.Background(), testKey(), "holder-b")

	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestRenew_ExtendsHeldLock(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := New(client)

	mock.ExpectEval(renewScript, []string{testRedisKey}, "holder-a", int64(60000)).SetVal(int64(105000))

	lock, err := store.Renew(context.Background(), testKey(), "holder-a", 60*time.Second)

	require.NoError(t, err)
	assert.Equal(t, "holder-a", lock.HolderID)
	assert.True(t, lock.ExpiresAt.After(time.Now().Add(100*time.Second)))
}

func TestRenew_NotHeld(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := New(client)

	mock.ExpectEval(renewScript, []string{testRedisKey}, "holder-b", int64(60000)).SetVal(int64(-1))

	_, err := store.Renew(context.Background(), testKey(), "holder-b", 60*time.Second)

	assert.ErrorIs(t, err, ErrLockNotHeld)
}
