// internal/lock/lock.go
package lock

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker grants short-lived leases so two overlapping processor invocations
// never pick up the same schedule.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

// RedisLocker implements Locker with SET NX on a shared redis instance.
type RedisLocker struct {
	client *redis.Client
}

func NewRedisLocker(url string) (*RedisLocker, error) {
	opt, err := redis.ParseURL(strings.TrimSpace(url))
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	log.Println("Redis connection established")
	return &RedisLocker{client: client}, nil
}

// releaseScript deletes the lease only if we still own it, so a lease that
// expired and was re-acquired elsewhere is never clobbered.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
    return redis.call("del", KEYS[1])
end
return 0
`)

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	release := func() {
		if err := releaseScript.Run(context.Background(), l.client, []string{key}, token).Err(); err != nil && err != redis.Nil {
			log.Printf("⚠️ failed to release lease %s: %v", key, err)
		}
	}
	return release, true, nil
}
