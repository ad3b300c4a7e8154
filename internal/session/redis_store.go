package session

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/kavach/internal/errors"
)

// redisClient is the subset of redis.Cmdable the store uses
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisOptions configures a Redis-backed store
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// Prefix namespaces keys, e.g. "kavach:alice:"
	Prefix string
	// TTL expires every key; zero keeps keys until deleted
	TTL time.Duration
}

// RedisStore keeps session values in Redis so several terminals or CI
// runners can share one session.
type RedisStore struct {
	client redisClient
	closer func() error
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects to the server described by opts
func NewRedisStore(opts RedisOptions) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	s := newRedisStore(client, opts.Prefix, opts.TTL)
	s.closer = client.Close
	return s
}

func newRedisStore(client redisClient, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(k string) string {
	return s.prefix + k
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.key(key)).Result()
	if stderrors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(errors.ErrCodeStoreBackend, fmt.Sprintf("redis GET %s failed", s.key(key)), err)
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.key(key), value, s.ttl).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeStoreBackend, fmt.Sprintf("redis SET %s failed", s.key(key)), err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.key(k)
	}
	if err := s.client.Del(ctx, full...).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeStoreBackend, "redis DEL failed", err)
	}
	return nil
}

// Close releases the connection pool when the store owns it
func (s *RedisStore) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}
