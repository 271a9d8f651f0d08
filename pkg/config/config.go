package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Typesense   TypesenseConfig
	Geolocation GeolocationConfig
	Embedding   EmbeddingConfig
	Engine      EngineConfig
	OTEL        OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
	Env  string
}

// DatabaseConfig holds catalog database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// TypesenseConfig holds Typesense configuration
type TypesenseConfig struct {
	URL    string
	APIKey string
}

// GeolocationConfig holds geolocation provider configuration
type GeolocationConfig struct {
	Provider string
	APIKey   string
}

// EmbeddingConfig holds embedding endpoint configuration
type EmbeddingConfig struct {
	APIKey         string
	Model          string
	BaseURL        string
	Dimensions     int
	RequestTimeout time.Duration
	MaxRetries     int
	CacheCapacity  int
}

// EngineConfig holds discovery engine tunables. The ranking thresholds are
// inherited heuristics, exposed here so they can be tuned without a deploy.
type EngineConfig struct {
	CandidateLimit     int
	MaxResults         int
	PriceMateriality   float64
	ResolverDecayMiles float64
	ResolverMaxResults int
	SemanticWait       time.Duration
	SignalCacheSeconds int
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
			Env:  getEnv("APP_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "provider_catalog"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Typesense: TypesenseConfig{
			URL:    getEnv("TYPESENSE_URL", "http://localhost:8108"),
			APIKey: getEnv("TYPESENSE_API_KEY", "xyz"),
		},
		Geolocation: GeolocationConfig{
			Provider: getEnv("GEOLOCATION_PROVIDER", "mock"),
			APIKey:   getEnv("GEOLOCATION_API_KEY", ""),
		},
		Embedding: EmbeddingConfig{
			APIKey:         getEnv("EMBEDDING_API_KEY", ""),
			Model:          getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
			BaseURL:        getEnv("EMBEDDING_BASE_URL", "https://api.openai.com/v1"),
			Dimensions:     getEnvAsInt("EMBEDDING_DIMENSIONS", 1536),
			RequestTimeout: getEnvAsDuration("EMBEDDING_REQUEST_TIMEOUT", 5*time.Second),
			MaxRetries:     getEnvAsInt("EMBEDDING_MAX_RETRIES", 2),
			CacheCapacity:  getEnvAsInt("EMBEDDING_CACHE_CAPACITY", 500),
		},
		Engine: EngineConfig{
			CandidateLimit:     getEnvAsInt("ENGINE_CANDIDATE_LIMIT", 500),
			MaxResults:         getEnvAsInt("ENGINE_MAX_RESULTS", 25),
			PriceMateriality:   getEnvAsFloat("RANKING_PRICE_MATERIALITY", 10.0),
			ResolverDecayMiles: getEnvAsFloat("RESOLVER_DISTANCE_DECAY_MILES", 50.0),
			ResolverMaxResults: getEnvAsInt("RESOLVER_MAX_RESULTS", 5),
			SemanticWait:       getEnvAsDuration("ENGINE_SEMANTIC_WAIT", 2*time.Second),
			SignalCacheSeconds: getEnvAsInt("SIGNAL_CACHE_SECONDS", 86400),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "provider-discovery-engine"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}, nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
