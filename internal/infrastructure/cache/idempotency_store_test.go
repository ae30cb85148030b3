package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jhoicas/Trazabilidad-api/internal/application/ports"
	"github.com/jhoicas/Trazabilidad-api/internal/infrastructure/cache"
)

// exerciseStore verifica el ciclo reservar → completar → leer → liberar.
func exerciseStore(t *testing.T, store ports.IdempotencyStore) {
	t.Helper()
	ctx := context.Background()

	ok, err := store.Reserve(ctx, "k1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Reserve(ctx, "k1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "la segunda reserva debe perder")

	resp, err := store.Lookup(ctx, "k1")
	require.NoError(t, err)
	assert.Nil(t, resp, "en curso no tiene respuesta")

	require.NoError(t, store.Complete(ctx, "k1", ports.StoredResponse{
		Status: 201, ContentType: "application/json", Body: []byte(`{"id":"x"}`),
	}, time.Minute))

	resp, err = store.Lookup(ctx, "k1")
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 201, resp.Status)
	assert.JSONEq(t, `{"id":"x"}`, string(resp.Body))

	require.NoError(t, store.Release(ctx, "k1"))
	ok, err = store.Reserve(ctx, "k1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "liberada se puede reservar de nuevo")

	resp, err = store.Lookup(ctx, "nunca")
	require.NoError(t, err)
	assert.Nil(t, resp)
}

func TestInMemoryIdempotencyStore_Ciclo(t *testing.T) {
	exerciseStore(t, cache.NewInMemoryIdempotencyStore())
}

func TestInMemoryIdempotencyStore_Vence(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	ctx := context.Background()

	ok, err := store.Reserve(ctx, "k", time.Nanosecond)
	require.NoError(t, err)
	require.True(t, ok)
	time.Sleep(time.Millisecond)

	ok, err = store.Reserve(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisIdempotencyStore_Ciclo(t *testing.T) {
	if testing.Short() {
		t.Skip("requiere Docker")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("docker no disponible: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	store := cache.NewRedisIdempotencyStoreWithClient(client, "test:")
	t.Cleanup(func() { _ = store.Close() })

	exerciseStore(t, store)
}
