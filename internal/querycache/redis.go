package querycache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

// RedisStore shares cached pages and generations between dashboard
// instances, so an invalidation on one instance is seen by all.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to the Redis server at rawURL and verifies the
// connection.
func NewRedisStore(ctx context.Context, rawURL, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, eris.Wrap(err, "failed to parse redis url")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, eris.Wrap(err, "failed to connect to redis")
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrapf(err, "redis get %s", key)
	}
	return val, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.prefix+key, value, ttl).Err(); err != nil {
		return eris.Wrapf(err, "redis set %s", key)
	}
	return nil
}

func (s *RedisStore) Generation(ctx context.Context, kind string) (int64, error) {
	gen, err := s.client.Get(ctx, s.generationKey(kind)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, eris.Wrapf(err, "redis generation %s", kind)
	}
	return gen, nil
}

// Bump increments the generation. Pages of older generations are left to
// expire through their TTL.
func (s *RedisStore) Bump(ctx context.Context, kind string) (int64, error) {
	gen, err := s.client.Incr(ctx, s.generationKey(kind)).Result()
	if err != nil {
		return 0, eris.Wrapf(err, "redis bump %s", kind)
	}
	return gen, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) generationKey(kind string) string {
	return s.prefix + "gen:" + kind
}
