package session

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis implements redisClient over a map
type fakeRedis struct {
	data    map[string]string
	ttls    map[string]time.Duration
	failErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.failErr != nil {
		return redis.NewStringResult("", f.failErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	if f.failErr != nil {
		return redis.NewStatusResult("", f.failErr)
	}
	f.data[key] = value.(string)
	f.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	if f.failErr != nil {
		return redis.NewIntResult(0, f.failErr)
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	store := newRedisStore(fake, "kavach:alice:", time.Hour)

	_, ok, err := store.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, KeyToken, "tok"))
	assert.Equal(t, "tok", fake.data["kavach:alice:token"])
	assert.Equal(t, time.Hour, fake.ttls["kavach:alice:token"])

	v, ok, err := store.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok", v)

	require.NoError(t, store.Delete(ctx, KeyToken, KeyCategory))
	assert.Empty(t, fake.data)
	require.NoError(t, store.Delete(ctx))
	require.NoError(t, store.Close())
}

func TestRedisStoreBackendErrors(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	fake.failErr = stderrors.New("connection reset")
	store := newRedisStore(fake, "", 0)

	_, _, err := store.Get(ctx, KeyToken)
	assert.ErrorContains(t, err, "connection reset")
	assert.Error(t, store.Set(ctx, KeyToken, "x"))
	assert.Error(t, store.Delete(ctx, KeyToken))
}

func TestManagerOverRedisStore(t *testing.T) {
	ctx := context.Background()
	nav := &Recorder{}
	m := NewManager(newRedisStore(newFakeRedis(), "p:", 0), nav)

	require.NoError(t, m.StartSession(ctx, "tok", Employee))
	assert.True(t, m.IsAuthenticated(ctx))
	assert.Equal(t, Employee, m.CurrentCategory(ctx))

	require.NoError(t, m.EndSession(ctx))
	assert.False(t, m.IsAuthenticated(ctx))
}
