package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisLockStore struct {
	client *redis.Client
}

func NewRedisLockStore(client *redis.Client) LockStore {
	return &redisLockStore{client: client}
}

func (s *redisLockStore) Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, key, owner, ttl).Result()
}

func (s *redisLockStore) Release(ctx context.Context, key, owner string) error {
	err := releaseScript.Run(ctx, s.client, []string{key}, owner).Err()
	if err == redis.Nil {
		return nil
	}
	return err
}
