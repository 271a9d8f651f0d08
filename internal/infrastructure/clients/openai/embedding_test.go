package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/Providerdiscoveryengine/internal/domain/providers"
	"github.com/zatekoja/Providerdiscoveryengine/pkg/config"
)

func newTestServer(t *testing.T, dim int, calls *int64, fail bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(calls, 1)
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		vec := make([]float32, dim)
		for i := range vec {
			vec[i] = 0.5
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{{"embedding": vec}},
		})
	}))
}

func newTestClient(t *testing.T, baseURL string, retries int) *EmbeddingClient {
	t.Helper()
	client, err := NewEmbeddingClient(&config.EmbeddingConfig{
		APIKey:         "test-key",
		BaseURL:        baseURL,
		Dimensions:     8,
		RequestTimeout: time.Second,
		MaxRetries:     retries,
		CacheCapacity:  10,
	})
	require.NoError(t, err)
	return client
}

func TestEmbed_CachesNormalizedText(t *testing.T) {
	var calls int64
	server := newTestServer(t, 8, &calls, false)
	defer server.Close()

	client := newTestClient(t, server.URL, 0)

	v1 := client.Embed(context.Background(), "Free Clinic")
	v2 := client.Embed(context.Background(), "  free clinic  ")
	v3 := client.Embed(context.Background(), "FREE CLINIC")

	assert.Equal(t, v1, v2)
	assert.Equal(t, v1, v3)
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
}

func TestEmbed_AllRetriesFail_ReturnsZeroVector(t *testing.T) {
	var calls int64
	server := newTestServer(t, 8, &calls, true)
	defer server.Close()

	client := newTestClient(t, server.URL, 2)

	vec := client.Embed(context.Background(), "anything")

	assert.Len(t, vec, 8)
	assert.True(t, providers.IsZeroVector(vec))
	// initial attempt plus 2 retries
	assert.Equal(t, int64(3), atomic.LoadInt64(&calls))
}

func TestEmbed_WrongDimensionality_TreatedAsFailure(t *testing.T) {
	var calls int64
	server := newTestServer(t, 4, &calls, false) // returns 4 dims, client expects 8
	defer server.Close()

	client := newTestClient(t, server.URL, 1)

	vec := client.Embed(context.Background(), "mismatch")

	assert.True(t, providers.IsZeroVector(vec))
	assert.Len(t, vec, 8)
	assert.Equal(t, int64(2), atomic.LoadInt64(&calls))
}

func TestEmbed_EmptyText_NoNetworkCall(t *testing.T) {
	var calls int64
	server := newTestServer(t, 8, &calls, false)
	defer server.Close()

	client := newTestClient(t, server.URL, 0)

	vec := client.Embed(context.Background(), "   ")

	assert.True(t, providers.IsZeroVector(vec))
	assert.Equal(t, int64(0), atomic.LoadInt64(&calls))
}

func TestEmbed_ZeroVectorNotCached(t *testing.T) {
	var calls int64
	server := newTestServer(t, 8, &calls, true)
	defer server.Close()

	client := newTestClient(t, server.URL, 0)

	_ = client.Embed(context.Background(), "flaky")
	_ = client.Embed(context.Background(), "flaky")

	// Degraded results must not poison the cache.
	assert.Equal(t, int64(2), atomic.LoadInt64(&calls))
}

func TestNewEmbeddingClient_RequiresAPIKey(t *testing.T) {
	_, err := NewEmbeddingClient(&config.EmbeddingConfig{})
	assert.Error(t, err)
}
