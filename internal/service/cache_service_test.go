package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/edusync/edusync-api/pkg/errors"
)

type fakeCacheBackend struct {
	entries  map[string][]byte
	getErr   error
	setCalls int
}

func newFakeCacheBackend() *fakeCacheBackend {
	return &fakeCacheBackend{entries: make(map[string][]byte)}
}

func (f *fakeCacheBackend) Get(ctx context.Context, key string, dest interface{}) error {
	if f.getErr != nil {
		return f.getErr
	}
	raw, ok := f.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (f *fakeCacheBackend) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	f.setCalls++
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.entries[key] = raw
	return nil
}

func (f *fakeCacheBackend) Delete(ctx context.Context, key string) error {
	delete(f.entries, key)
	return nil
}

func (f *fakeCacheBackend) DeleteByPattern(ctx context.Context, pattern string) error {
	f.entries = make(map[string][]byte)
	return nil
}

func TestCacheGetMissThenHit(t *testing.T) {
	backend := newFakeCacheBackend()
	metrics := NewMetricsService()
	svc := NewCacheService(backend, metrics, zap.NewNop())
	ctx := context.Background()

	var out string
	hit, err := svc.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	svc.Set(ctx, "k", "value", time.Minute)
	hit, err = svc.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "value", out)

	snapshot := metrics.Snapshot()
	assert.Equal(t, int64(1), snapshot.CacheHits)
	assert.Equal(t, int64(1), snapshot.CacheMisses)
}

func TestCacheGetUnavailableBackendFallsThrough(t *testing.T) {
	backend := newFakeCacheBackend()
	backend.getErr = appErrors.ErrCacheUnavailable
	metrics := NewMetricsService()
	svc := NewCacheService(backend, metrics, zap.NewNop())

	var out string
	hit, err := svc.Get(context.Background(), "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	snapshot := metrics.Snapshot()
	assert.Equal(t, int64(0), snapshot.CacheHits)
	assert.Equal(t, int64(0), snapshot.CacheMisses)
}

func TestCacheDisabledWithoutBackend(t *testing.T) {
	svc := NewCacheService(nil, nil, zap.NewNop())
	ctx := context.Background()

	assert.False(t, svc.Enabled())
	var out string
	hit, err := svc.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)
	// Writes are silently dropped.
	svc.Set(ctx, "k", "value", time.Minute)
	svc.Delete(ctx, "k")
	svc.Invalidate(ctx, "*")
}
