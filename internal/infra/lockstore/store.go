package lockstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
)

// Скрипты выполняются в Redis атомарно, поэтому сравнение держателя
// и удаление/продление ключа происходят без read-then-write гонки.
const (
	// releaseScript compare-and-delete: удаляет ключ только если он принадлежит держателю
	// Возвращает 1, если ключ удалён, иначе 0
	releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end`

	// renewScript compare-and-extend: продлевает TTL на ARGV[2] мс, только если ключ принадлежит держателю
	// Возвращает новый TTL в мс или -1, если блокировка не удерживается
	renewScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
	local ttl = redis.call("pttl", KEYS[1])
	if ttl < 0 then
		return -1
	end
	local newttl = ttl + tonumber(ARGV[2])
	redis.call("pexpire", KEYS[1], newttl)
	return newttl
else
	return -1
end`

	// refreshScript сбрасывает TTL на полное значение, только если ключ принадлежит держателю
	// Возвращает 1 при успехе, иначе 0
	refreshScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
	redis.call("pexpire", KEYS[1], ARGV[2])
	return 1
else
	return 0
end`
)

// Store хранилище блокировок слотов поверх Redis
//
// Единственный примитив захвата - атомарный SET NX PX (create-if-absent-with-expiry),
// поэтому при N конкурентных попытках захвата одного ключа ровно одна завершается
// успехом, остальные детерминированно получают ErrAlreadyLocked. Вся эксклюзивность
// делегирована атомарности Redis - процесс не держит собственных мьютексов,
// и корректность сохраняется при нескольких инстансах сервиса.
type Store struct {
	client redis.Cmdable
}

// New создает новое хранилище блокировок
func New(client redis.Cmdable) *Store {
	return &Store{client: client}
}

// lockKey формирует ключ блокировки
// Ключи неймспейсятся по facility+court+date+start, чтобы арендаторы не пересекались
func lockKey(key domain.SlotKey) string {
	return fmt.Sprintf("lock:facility:%d:court:%d:date:%s:slot:%s",
		key.FacilityID, key.CourtID, key.Date.Format(domain.DateFormat), key.StartTime)
}

// Acquire пытается захватить блокировку на ключ слота
// Возвращает ErrAlreadyLocked, если ключ занят другим держателем.
// Повторный захват тем же держателем продлевает блокировку на полный TTL.
func (s *Store) Acquire(ctx context.Context, key domain.SlotKey, holderID string, ttl time.Duration) (*domain.Lock, error) {
	k := lockKey(key)

	ok, err := s.client.SetNX(ctx, k, holderID, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: Acquire - setnx: %v", ErrStoreUnavailable, err)
	}

	now := time.Now()
	if ok {
		return &domain.Lock{
			Key:        key,
			HolderID:   holderID,
			AcquiredAt: now,
			ExpiresAt:  now.Add(ttl),
		}, nil
	}

	// Ключ занят - выясняем кем
	current, err := s.client.Get(ctx, k).Result()
	if err == redis.Nil {
		// Блокировка истекла между SETNX и GET - для вызывающего это обычный конфликт,
		// следующий acquire пройдет
		return nil, ErrAlreadyLocked
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Acquire - get holder: %v", ErrStoreUnavailable, err)
	}

	if current != holderID {
		return nil, ErrAlreadyLocked
	}

	// Тот же держатель - атомарно сбрасываем TTL на полное значение
	res, err := s.client.Eval(ctx, refreshScript, []string{k}, holderID, ttl.Milliseconds()).Int64()
	if err != nil {
		return nil, fmt.Errorf("%w: Acquire - refresh ttl: %v", ErrStoreUnavailable, err)
	}
	if res != 1 {
		return nil, ErrAlreadyLocked
	}

	return &domain.Lock{
		Key:        key,
		HolderID:   holderID,
		AcquiredAt: now,
		ExpiresAt:  now.Add(ttl),
	}, nil
}

// Get возвращает текущую неистёкшую блокировку по ключу
// Возвращает ErrLockNotFound, если блокировки нет или она истекла
func (s *Store) Get(ctx context.Context, key domain.SlotKey) (*domain.Lock, error) {
	k := lockKey(key)

	holder, err := s.client.Get(ctx, k).Result()
	if err == redis.Nil {
		return nil, ErrLockNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Get - get holder: %v", ErrStoreUnavailable, err)
	}

	ttl, err := s.client.PTTL(ctx, k).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: Get - pttl: %v", ErrStoreUnavailable, err)
	}
	if ttl < 0 {
		return nil, ErrLockNotFound
	}

	return &domain.Lock{
		Key:       key,
		HolderID:  holder,
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}

// GetHeld возвращает держателей для набора ключей слотов одним запросом (MGET)
// Используется дневной выдачей: ключи без блокировки в результат не попадают
func (s *Store) GetHeld(ctx context.Context, keys []domain.SlotKey) (map[domain.SlotKey]string, error) {
	if len(keys) == 0 {
		return map[domain.SlotKey]string{}, nil
	}

	redisKeys := make([]string, len(keys))
	for i, key := range keys {
		redisKeys[i] = lockKey(key)
	}

	values, err := s.client.MGet(ctx, redisKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: GetHeld - mget: %v", ErrStoreUnavailable, err)
	}

	held := make(map[domain.SlotKey]string, len(keys))
	for i, v := range values {
		if v == nil {
			continue
		}
		if holder, ok := v.(string); ok {
			held[keys[i]] = holder
		}
	}

	return held, nil
}

// Release освобождает блокировку (compare-and-delete)
// Удаляет ключ только если он принадлежит держателю. Освобождение отсутствующей
// или истекшей блокировки - это no-op успех, не ошибка.
// Возвращает true, если блокировка была реально удалена.
func (s *Store) Release(ctx context.Context, key domain.SlotKey, holderID string) (bool, error) {
	res, err := s.client.Eval(ctx, releaseScript, []string{lockKey(key)}, holderID).Int64()
	if err != nil {
		return false, fmt.Errorf("%w: Release - eval: %v", ErrStoreUnavailable, err)
	}
	return res == 1, nil
}

// Renew атомарно продлевает блокировку на additional, только если она всё ещё
// удерживается этим держателем. Используется во время многошагового чекаута.
func (s *Store) Renew(ctx context.Context, key domain.SlotKey, holderID string, additional time.Duration) (*domain.Lock, error) {
	res, err := s.client.Eval(ctx, renewScript, []string{lockKey(key)}, holderID, additional.Milliseconds()).Int64()
	if err != nil {
		return nil, fmt.Errorf("%w: Renew - eval: %v", ErrStoreUnavailable, err)
	}
	if res < 0 {
		return nil, ErrLockNotHeld
	}

	return &domain.Lock{
		Key:       key,
		HolderID:  holderID,
		ExpiresAt: time.Now().Add(time.Duration(res) * time.Millisecond),
	}, nil
}

// IsConflict возвращает true для ошибок, означающих конфликт за ключ
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyLocked) || errors.Is(err, ErrLockNotHeld)
}
