package session

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisStore lets several agents on one host share a session.
// Keys live under eduhere:<namespace>:.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStore(rdb *redis.Client, namespace string) *RedisStore {
	if namespace == "" {
		namespace = "default"
	}
	return &RedisStore{rdb: rdb, prefix: "eduhere:" + namespace + ":"}
}

// DialRedis is a convenience for the CLI and the agent.
func DialRedis(addr, password, namespace string) *RedisStore {
	return NewRedisStore(redis.NewClient(&redis.Options{Addr: addr, Password: password}), namespace)
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.rdb.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return v, err
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	return s.rdb.Set(ctx, s.prefix+key, value, 0).Err()
}

func (s *RedisStore) Remove(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, s.prefix+key).Err()
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RedisStore) Close() error { return s.rdb.Close() }
