package locker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "driving_school:lock:"

// releaseScript удаляет ключ, только если он всё ещё принадлежит владельцу токена
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker распределённая блокировка на SET NX PX
// Гарантирует, что фоновую задачу в один момент выполняет одна реплика
type RedisLocker struct {
	client *redis.Client
}

// Lock удерживаемая блокировка
type Lock struct {
	key   string
	token string
}

// NewRedisLocker создает блокировщик
func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

// NewClient создает клиент Redis по параметрам конфигурации
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// Acquire пытается взять блокировку name на ttl
func (l *RedisLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (*Lock, error) {
	lock := &Lock{key: keyPrefix + name, token: uuid.NewString()}

	ok, err := l.client.SetNX(ctx, lock.key, lock.token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: acquire %s: %v", ErrUnavailable, name, err)
	}
	if !ok {
		return nil, ErrNotAcquired
	}

	return lock, nil
}

// Release снимает блокировку; чужую (истёкшую и перехваченную) блокировку не трогает
func (l *RedisLocker) Release(ctx context.Context, lock *Lock) error {
	if lock == nil {
		return nil
	}

	if err := releaseScript.Run(ctx, l.client, []string{lock.key}, lock.token).Err(); err != nil {
		return fmt.Errorf("%w: release %s: %v", ErrUnavailable, lock.key, err)
	}
	return nil
}

// TryLock берёт блокировку и возвращает функцию её снятия
// ok == false, если блокировку держит другой владелец
func (l *RedisLocker) TryLock(ctx context.Context, name string, ttl time.Duration) (func(context.Context) error, bool, error) {
	lock, err := l.Acquire(ctx, name, ttl)
	if errors.Is(err, ErrNotAcquired) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return func(ctx context.Context) error {
		return l.Release(ctx, lock)
	}, true, nil
}

// Ping проверяет доступность Redis
func (l *RedisLocker) Ping(ctx context.Context) error {
	if err := l.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
