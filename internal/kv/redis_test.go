package kv

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/delivery"
)

// fakeRedis implements the handful of commands used here; anything else
// panics through the nil embedded interface.
type fakeRedis struct {
	redis.Cmdable

	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
	err  error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewBoolResult(false, f.err)
	}
	if _, ok := f.data[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.data[key] = value.(string)
	f.ttls[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

// EvalSha stands in for the guard release script: delete keys[0] only
// while it holds args[0].
func (f *fakeRedis) EvalSha(ctx context.Context, sha1 string, keys []string, args ...interface{}) *redis.Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewCmdResult(nil, f.err)
	}
	if v, ok := f.data[keys[0]]; ok && v == args[0] {
		delete(f.data, keys[0])
		return redis.NewCmdResult(int64(1), nil)
	}
	return redis.NewCmdResult(int64(0), nil)
}

func (f *fakeRedis) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	return f.EvalSha(ctx, "", keys, args...)
}

func TestRedisGuard(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	g := NewRedisGuard(rdb, 30*time.Second)

	token, ok, err := g.Acquire(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 30*time.Second, rdb.ttls["checkout:submitting:s1"])
	assert.Equal(t, token, rdb.data["checkout:submitting:s1"])

	_, ok, err = g.Acquire(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, ok, "second acquire must fail while held")

	_, ok, err = g.Acquire(ctx, "s2")
	require.NoError(t, err)
	assert.True(t, ok, "other sessions are independent")

	require.NoError(t, g.Release(ctx, "s1", token))
	_, ok, err = g.Acquire(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisGuard_StaleReleaseKeepsNewHolder(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	g := NewRedisGuard(rdb, time.Second)

	stale, ok, err := g.Acquire(ctx, "s1")
	require.NoError(t, err)
	require.True(t, ok)

	// the ttl ran out while the first holder was still sending
	delete(rdb.data, "checkout:submitting:s1")
	current, ok, err := g.Acquire(ctx, "s1")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEqual(t, stale, current)

	require.NoError(t, g.Release(ctx, "s1", stale))
	assert.Equal(t, current, rdb.data["checkout:submitting:s1"])
	_, ok, err = g.Acquire(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, ok, "the new holder still owns the key")

	require.NoError(t, g.Release(ctx, "s1", current))
	assert.NotContains(t, rdb.data, "checkout:submitting:s1")
}

func TestRedisGuard_Error(t *testing.T) {
	rdb := newFakeRedis()
	rdb.err = errors.New("dial tcp: connection refused")
	g := NewRedisGuard(rdb, time.Second)

	_, ok, err := g.Acquire(context.Background(), "s1")
	require.Error(t, err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), "redis setnx")

	assert.ErrorContains(t, g.Release(context.Background(), "s1", "token"), "redis release")
}

func TestGeocodeCache(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	c := NewGeocodeCache(rdb, time.Hour)

	_, ok, err := c.Get(ctx, "cankaya ankara")
	require.NoError(t, err)
	assert.False(t, ok)

	want := delivery.Coordinates{Lat: 39.9, Lng: 32.86}
	require.NoError(t, c.Set(ctx, "cankaya ankara", want))
	assert.Equal(t, time.Hour, rdb.ttls["geocode:cankaya ankara"])

	got, ok, err := c.Get(ctx, "cankaya ankara")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)
}

func TestGeocodeCache_Errors(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	rdb.data["geocode:bad"] = "not-json"
	c := NewGeocodeCache(rdb, time.Hour)

	_, ok, err := c.Get(ctx, "bad")
	require.Error(t, err)
	assert.False(t, ok)

	rdb.err = errors.New("timeout")
	_, _, err = c.Get(ctx, "anything")
	assert.ErrorContains(t, err, "redis get")
	assert.ErrorContains(t, c.Set(ctx, "anything", delivery.Coordinates{}), "redis set")
}
