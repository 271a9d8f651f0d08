package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
	"github.com/zatekoja/Providerdiscoveryengine/internal/domain/providers"
	"github.com/zatekoja/Providerdiscoveryengine/pkg/config"
	"github.com/zatekoja/Providerdiscoveryengine/pkg/retry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const defaultBaseURL = "https://api.openai.com/v1"

// EmbeddingClient calls a remote text-embedding endpoint. It owns caching,
// timeout, and retry policy; exhausted retries degrade to the zero vector so
// callers can fall back to attribute-only ranking.
type EmbeddingClient struct {
	apiKey     string
	model      string
	baseURL    string
	dimensions int
	timeout    time.Duration
	maxRetries int
	httpClient *http.Client
	cache      *lru.Cache[string, []float32]
}

var _ providers.EmbeddingProvider = (*EmbeddingClient)(nil)

// NewEmbeddingClient creates a new embedding client with a bounded LRU cache
func NewEmbeddingClient(cfg *config.EmbeddingConfig) (*EmbeddingClient, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("embedding api key is required")
	}

	capacity := cfg.CacheCapacity
	if capacity <= 0 {
		capacity = 500
	}
	cache, err := lru.New[string, []float32](capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding cache: %w", err)
	}

	return NewEmbeddingClientWithCache(cfg, cache), nil
}

// NewEmbeddingClientWithCache allows injecting the cache, used by tests
func NewEmbeddingClientWithCache(cfg *config.EmbeddingConfig, cache *lru.Cache[string, []float32]) *EmbeddingClient {
	model := cfg.Model
	if model == "" {
		model = "text-embedding-3-small"
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	dimensions := cfg.Dimensions
	if dimensions <= 0 {
		dimensions = 1536
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &EmbeddingClient{
		apiKey:     cfg.APIKey,
		model:      model,
		baseURL:    baseURL,
		dimensions: dimensions,
		timeout:    timeout,
		maxRetries: maxRetries,
		httpClient: &http.Client{Timeout: timeout},
		cache:      cache,
	}
}

// Dimensions returns the embedding vector length
func (c *EmbeddingClient) Dimensions() int {
	return c.dimensions
}

// Embed returns the embedding vector for text. The cache key is the trimmed,
// lowercased text; a cache hit makes no network call. On failure of all
// attempts the zero vector is returned, never an error.
func (c *EmbeddingClient) Embed(ctx context.Context, text string) []float32 {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return providers.ZeroVector(c.dimensions)
	}

	if c.cache != nil {
		if vec, ok := c.cache.Get(normalized); ok {
			recordEmbeddingCacheHit(ctx, c.model)
			return vec
		}
	}

	retryCfg := retry.Config{
		MaxAttempts:   c.maxRetries + 1,
		InitialDelay:  200 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		BackoffFactor: 2.0,
	}

	var vec []float32
	err := retry.Do(ctx, retryCfg, func() error {
		var attemptErr error
		vec, attemptErr = c.requestEmbedding(ctx, normalized)
		return attemptErr
	})
	if err != nil {
		log.Warn().Err(err).Str("model", c.model).
			Msg("embedding request failed, degrading to zero vector")
		return providers.ZeroVector(c.dimensions)
	}

	if c.cache != nil {
		c.cache.Add(normalized, vec)
	}
	return vec
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingData struct {
	Embedding []float32 `json:"embedding"`
}

type embeddingEnvelope struct {
	Data []embeddingData `json:"data"`
}

func (c *EmbeddingClient) requestEmbedding(ctx context.Context, text string) ([]float32, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(embeddingRequest{Model: c.model, Input: []string{text}})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		recordEmbeddingMetric(ctx, c.model, 0, time.Since(start), err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("embedding request failed with status %d", resp.StatusCode)
		recordEmbeddingMetric(ctx, c.model, resp.StatusCode, time.Since(start), err)
		return nil, err
	}

	var envelope embeddingEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		recordEmbeddingMetric(ctx, c.model, resp.StatusCode, time.Since(start), err)
		return nil, err
	}

	if len(envelope.Data) == 0 {
		err := errors.New("embedding response missing data")
		recordEmbeddingMetric(ctx, c.model, resp.StatusCode, time.Since(start), err)
		return nil, err
	}

	vec := envelope.Data[0].Embedding
	if len(vec) != c.dimensions {
		err := fmt.Errorf("embedding has %d dimensions, expected %d", len(vec), c.dimensions)
		recordEmbeddingMetric(ctx, c.model, resp.StatusCode, time.Since(start), err)
		return nil, err
	}

	recordEmbeddingMetric(ctx, c.model, resp.StatusCode, time.Since(start), nil)
	return vec, nil
}

type embeddingMetrics struct {
	requestCount    metric.Int64Counter
	requestDuration metric.Float64Histogram
	requestErrors   metric.Int64Counter
	cacheHits       metric.Int64Counter
}

var embeddingMetricsInit = false
var embedMetrics embeddingMetrics

func ensureEmbeddingMetrics() {
	if embeddingMetricsInit {
		return
	}
	meter := otel.Meter("github.com/zatekoja/Providerdiscoveryengine/embedding")

	requestCount, err := meter.Int64Counter(
		"ai.embedding.request.count",
		metric.WithDescription("Number of embedding requests"),
	)
	if err != nil {
		return
	}
	requestDuration, err := meter.Float64Histogram(
		"ai.embedding.request.duration",
		metric.WithDescription("Embedding request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return
	}
	requestErrors, err := meter.Int64Counter(
		"ai.embedding.request.errors",
		metric.WithDescription("Number of embedding request errors"),
	)
	if err != nil {
		return
	}
	cacheHits, err := meter.Int64Counter(
		"ai.embedding.cache.hits",
		metric.WithDescription("Number of embedding cache hits"),
	)
	if err != nil {
		return
	}

	embedMetrics = embeddingMetrics{
		requestCount:    requestCount,
		requestDuration: requestDuration,
		requestErrors:   requestErrors,
		cacheHits:       cacheHits,
	}
	embeddingMetricsInit = true
}

func recordEmbeddingMetric(ctx context.Context, model string, statusCode int, duration time.Duration, err error) {
	ensureEmbeddingMetrics()
	if !embeddingMetricsInit {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("ai.provider", "openai"),
		attribute.String("ai.model", model),
	}
	if statusCode > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", statusCode))
	}

	embedMetrics.requestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	embedMetrics.requestDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	if err != nil {
		embedMetrics.requestErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

func recordEmbeddingCacheHit(ctx context.Context, model string) {
	ensureEmbeddingMetrics()
	if !embeddingMetricsInit {
		return
	}
	embedMetrics.cacheHits.Add(ctx, 1, metric.WithAttributes(
		attribute.String("ai.provider", "openai"),
		attribute.String("ai.model", model),
	))
}
