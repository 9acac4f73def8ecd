//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestRedisCacheIntegration(t *testing.T) {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	r, err := NewRedisCache(ctx, RedisConfig{Address: endpoint, KeyPrefix: "test:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	require.NoError(t, r.Set(ctx, "k", sample{Name: "redis", Count: 1}, time.Minute))
	var got sample
	require.NoError(t, r.Get(ctx, "k", &got))
	assert.Equal(t, "redis", got.Name)

	exists, err := r.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, r.Delete(ctx, "k"))
	assert.True(t, IsCacheMiss(r.Get(ctx, "k", &got)))
}
