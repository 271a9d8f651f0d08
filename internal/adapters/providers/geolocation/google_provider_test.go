package geolocation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryCache struct {
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}}
}

func (m *memoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	return m.data[key], nil
}

func (m *memoryCache) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	m.data[key] = value
	return nil
}

func (m *memoryCache) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func TestGeocode_ParsesResultAndCaches(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "Atlanta, GA", r.URL.Query().Get("address"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"OK","results":[{"geometry":{"location":{"lat":33.749,"lng":-84.388}}}]}`))
	}))
	defer server.Close()

	provider := NewGoogleGeolocationProviderWithOptions("test-key", newMemoryCache(), server.URL, server.Client())

	coords, err := provider.Geocode(context.Background(), "Atlanta, GA")
	require.NoError(t, err)
	assert.InDelta(t, 33.749, coords.Latitude, 0.001)
	assert.InDelta(t, -84.388, coords.Longitude, 0.001)

	// Second lookup for the same text should hit the cache.
	coords, err = provider.Geocode(context.Background(), "atlanta, ga")
	require.NoError(t, err)
	assert.InDelta(t, 33.749, coords.Latitude, 0.001)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGeocode_NoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	}))
	defer server.Close()

	provider := NewGoogleGeolocationProviderWithOptions("test-key", nil, server.URL, server.Client())

	_, err := provider.Geocode(context.Background(), "nowhere at all")
	assert.Error(t, err)
}

func TestGeocode_EmptyText(t *testing.T) {
	provider := NewGoogleGeolocationProviderWithOptions("test-key", nil, "http://unused", nil)
	_, err := provider.Geocode(context.Background(), "   ")
	assert.Error(t, err)
}
