//go:build integration

package redis

import (
	"context"
	"os"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/revenue-engine/domain"
)

func newTestClient(t *testing.T) *redislib.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redislib.NewClient(&redislib.Options{Addr: addr, DB: 15})
	require.NoError(t, client.Ping(context.Background()).Err())
	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})
	return client
}

func TestAPIKeyCache_RoundTrip(t *testing.T) {
	client := newTestClient(t)
	cache := NewAPIKeyCache(client, time.Minute)
	ctx := context.Background()

	_, err := cache.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)

	require.NoError(t, cache.Save(ctx, &domain.APIKey{Key: "k1", WorkspaceID: "ws", IsActive: true}))
	got, err := cache.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "ws", got.WorkspaceID)
	assert.True(t, got.IsActive)
}

func TestReportCache_InvalidateWorkspace(t *testing.T) {
	client := newTestClient(t)
	cache := NewReportCache(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "ws-a:top", []string{"a"}, 0))
	require.NoError(t, cache.Set(ctx, "ws-b:top", []string{"b"}, 0))

	require.NoError(t, cache.InvalidateWorkspace(ctx, "ws-a"))

	var dst []string
	assert.ErrorIs(t, cache.Get(ctx, "ws-a:top", &dst), domain.ErrCacheMiss)
	require.NoError(t, cache.Get(ctx, "ws-b:top", &dst))
	assert.Equal(t, []string{"b"}, dst)
}
