//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/pharmdist/salesflow/internal/domain/territory"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start Redis container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestIntegration_CustomerLocationCache(t *testing.T) {
	ctx := context.Background()
	client := newRedisClient(t)
	repo := &mockRepo{}
	apteka := territory.Location{Customer: "Apteka", Region: "R", Territory: "T"}
	repo.On("FindLocations", mock.Anything, []string{"Apteka", "Missing"}).
		Return(map[string]territory.Location{"Apteka": apteka}, nil).Once()
	repo.On("FindLocations", mock.Anything, []string{"Missing"}).
		Return(map[string]territory.Location{}, nil).Once()

	c := NewCustomerLocationCacheWithClient(client, repo, WithTTL(time.Minute))

	first, err := c.FindLocations(ctx, []string{"Apteka", "Missing"})
	require.NoError(t, err)
	assert.Equal(t, map[string]territory.Location{"Apteka": apteka}, first)

	ttl, err := client.TTL(ctx, cacheKey("Apteka")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	// the cached customer is served from Redis, only the miss reaches the repository
	second, err := c.FindLocations(ctx, []string{"Apteka", "Missing"})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	repo.AssertExpectations(t)
}

func TestIntegration_CorruptedEntry(t *testing.T) {
	ctx := context.Background()
	client := newRedisClient(t)
	require.NoError(t, client.Set(ctx, cacheKey("Apteka"), "{not json", time.Minute).Err())

	repo := &mockRepo{}
	apteka := territory.Location{Customer: "Apteka", Region: "R", Territory: "T"}
	repo.On("FindLocations", mock.Anything, []string{"Apteka"}).
		Return(map[string]territory.Location{"Apteka": apteka}, nil)

	c := NewCustomerLocationCacheWithClient(client, repo)
	got, err := c.FindLocations(ctx, []string{"Apteka"})
	require.NoError(t, err)
	assert.Equal(t, apteka, got["Apteka"])
}
