package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct{ err error }

func (p *stubPinger) Ping(ctx context.Context) error { return p.err }

func TestHealth_AllUp(t *testing.T) {
	handler := NewHealthHandler(map[string]Pinger{
		"postgres": &stubPinger{},
		"redis":    &stubPinger{},
	})

	rec := httptest.NewRecorder()
	handler.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status       string            `json:"status"`
		Dependencies map[string]string `json:"dependencies"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "up", resp.Dependencies["postgres"])
}

func TestHealth_DependencyDown(t *testing.T) {
	handler := NewHealthHandler(map[string]Pinger{
		"postgres": &stubPinger{},
		"redis":    &stubPinger{err: errors.New("connection refused")},
	})

	rec := httptest.NewRecorder()
	handler.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp struct {
		Status       string            `json:"status"`
		Dependencies map[string]string `json:"dependencies"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "down", resp.Dependencies["redis"])
}

func TestHealth_NilDependenciesSkipped(t *testing.T) {
	handler := NewHealthHandler(map[string]Pinger{
		"postgres":  &stubPinger{},
		"typesense": nil,
	})

	rec := httptest.NewRecorder()
	handler.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}
