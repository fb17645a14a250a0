package locker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestRedisLocker_Unavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	l := NewRedisLocker(client)
	ctx := context.Background()

	_, err := l.Acquire(ctx, "sweep", time.Second)
	assert.True(t, errors.Is(err, ErrUnavailable))

	assert.True(t, errors.Is(l.Ping(ctx), ErrUnavailable))
	assert.NoError(t, l.Release(ctx, nil))
}
