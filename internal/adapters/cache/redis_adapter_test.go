package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	redisclient "github.com/zatekoja/Providerdiscoveryengine/internal/infrastructure/clients/redis"
)

func newTestAdapter(t *testing.T) (*RedisAdapter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redisclient.NewClientFromAddr(mr.Addr())
	t.Cleanup(func() { client.Close() })
	return NewRedisAdapter(client).(*RedisAdapter), mr
}

func TestRedisAdapter_SetAndGet(t *testing.T) {
	adapter, _ := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, adapter.Set(ctx, "signals:v1:free clinic", []byte(`{"free_only":{"value":true}}`), 60))

	value, err := adapter.Get(ctx, "signals:v1:free clinic")
	require.NoError(t, err)
	assert.JSONEq(t, `{"free_only":{"value":true}}`, string(value))
}

func TestRedisAdapter_GetMissingKey(t *testing.T) {
	adapter, _ := newTestAdapter(t)

	_, err := adapter.Get(context.Background(), "absent")
	assert.Error(t, err)
}

func TestRedisAdapter_Expiration(t *testing.T) {
	adapter, mr := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, adapter.Set(ctx, "k", []byte("v"), 1))
	mr.FastForward(2 * time.Second)

	_, err := adapter.Get(ctx, "k")
	assert.Error(t, err)
}

func TestRedisAdapter_Delete(t *testing.T) {
	adapter, _ := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, adapter.Set(ctx, "k", []byte("v"), 60))
	require.NoError(t, adapter.Delete(ctx, "k"))

	_, err := adapter.Get(ctx, "k")
	assert.Error(t, err)
}
