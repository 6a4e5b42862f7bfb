package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eaglebank/purchase-service/internal/logging"
)

type fakeKV struct {
	data   map[string]string
	ttl    time.Duration
	getErr error
}

func newFakeKV() *fakeKV { return &fakeKV{data: map[string]string{}} }

func (f *fakeKV) Get(_ context.Context, key string) *goredis.StringCmd {
	if f.getErr != nil {
		return goredis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(v, nil)
}

func (f *fakeKV) Set(_ context.Context, key string, value any, ttl time.Duration) *goredis.StatusCmd {
	f.data[key] = string(value.([]byte))
	f.ttl = ttl
	return goredis.NewStatusResult("OK", nil)
}

func (f *fakeKV) Del(_ context.Context, keys ...string) *goredis.IntCmd {
	for _, k := range keys {
		delete(f.data, k)
	}
	return goredis.NewIntResult(int64(len(keys)), nil)
}

type item struct {
	Name string `json:"name"`
}

func TestViewCache_RoundTrip(t *testing.T) {
	kv := newFakeKV()
	cache := NewViewCache[item](kv, time.Minute, logging.Discard())
	ctx := context.Background()

	_, ok := cache.Get(ctx, "k")
	assert.False(t, ok)

	cache.Set(ctx, "k", &item{Name: "milk"})
	got, ok := cache.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "milk", got.Name)
	assert.Equal(t, time.Minute, kv.ttl)

	cache.Delete(ctx, "k")
	_, ok = cache.Get(ctx, "k")
	assert.False(t, ok)
}

func TestViewCache_CorruptEntryIsMiss(t *testing.T) {
	kv := newFakeKV()
	kv.data["k"] = "{not json"
	cache := NewViewCache[item](kv, 0, logging.Discard())

	_, ok := cache.Get(context.Background(), "k")
	assert.False(t, ok)
}

func TestViewCache_ReadErrorIsMiss(t *testing.T) {
	kv := newFakeKV()
	kv.getErr = errors.New("connection refused")
	cache := NewViewCache[item](kv, 0, logging.Discard())

	_, ok := cache.Get(context.Background(), "k")
	assert.False(t, ok)
}

func TestViewCache_Disabled(t *testing.T) {
	cache := NewViewCache[item](nil, 0, logging.Discard())
	ctx := context.Background()

	cache.Set(ctx, "k", &item{Name: "x"})
	cache.Delete(ctx, "k")
	_, ok := cache.Get(ctx, "k")
	assert.False(t, ok)
}
