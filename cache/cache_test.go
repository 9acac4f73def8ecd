package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newTestMemory(t *testing.T) *Memory {
	t.Helper()
	m, err := NewMemory(MemoryConfig{NumCounters: 1000, MaxCost: 1 << 20, BufferItems: 64})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestMemoryCache(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", sample{Name: "a", Count: 2}, time.Minute))

	var got sample
	require.NoError(t, m.Get(ctx, "k", &got))
	assert.Equal(t, sample{Name: "a", Count: 2}, got)

	exists, err := m.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, m.Delete(ctx, "k"))
	err = m.Get(ctx, "k", &got)
	assert.True(t, IsCacheMiss(err))
	assert.NoError(t, m.Ping(ctx))
}

func TestMemoryCacheExpiration(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "short", "v", 50*time.Millisecond))
	assert.Eventually(t, func() bool {
		var s string
		return IsCacheMiss(m.Get(ctx, "short", &s))
	}, 3*time.Second, 20*time.Millisecond)
}

func TestKeyBuilder(t *testing.T) {
	assert.Equal(t, "admin_stats", AdminStats.Build())
	assert.Equal(t, "trending_tags:10", TrendingTags.Build("10"))
	assert.Equal(t, "trending_tags:42", TrendingTags.BuildID(42))
}

func TestAddJitter(t *testing.T) {
	base := 10 * time.Minute
	for i := 0; i < 100; i++ {
		d := addJitter(base)
		assert.GreaterOrEqual(t, d, base)
		assert.Less(t, d, base+base/10)
	}
	assert.Equal(t, time.Duration(0), addJitter(0))
}

func TestGetOrLoad(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()
	var calls atomic.Int32

	load := func(ctx context.Context) (sample, error) {
		calls.Add(1)
		return sample{Name: "loaded", Count: 7}, nil
	}

	v, err := GetOrLoad(ctx, m, "stats", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, "loaded", v.Name)

	v, err = GetOrLoad(ctx, m, "stats", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 7, v.Count)
	assert.Equal(t, int32(1), calls.Load())

	Invalidate(ctx, m, "stats")
	_, err = GetOrLoad(ctx, m, "stats", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetOrLoadErrorIsNotCached(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()
	boom := errors.New("boom")

	_, err := GetOrLoad(ctx, m, "failing", time.Minute, func(ctx context.Context) (int, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)

	v, err := GetOrLoad(ctx, m, "failing", time.Minute, func(ctx context.Context) (int, error) {
		return 3, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestGetOrLoadWithoutProvider(t *testing.T) {
	v, err := GetOrLoad(context.Background(), nil, "k", time.Minute, func(ctx context.Context) (string, error) {
		return "direct", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "direct", v)
}

func TestGetOrLoadConcurrent(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()
	var calls atomic.Int32
	release := make(chan struct{})

	load := func(ctx context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 1, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := GetOrLoad(ctx, m, "concurrent", time.Minute, load)
			assert.NoError(t, err)
			assert.Equal(t, 1, v)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, calls.Load(), int32(2))
}
