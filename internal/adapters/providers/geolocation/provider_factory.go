package geolocation

import (
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/Providerdiscoveryengine/internal/domain/providers"
	"github.com/zatekoja/Providerdiscoveryengine/pkg/config"
)

// NewFromConfig selects the geolocation provider based on configuration.
// A "google" provider without an API key falls back to the mock.
func NewFromConfig(cfg config.GeolocationConfig, cache providers.CacheProvider) providers.GeolocationProvider {
	if cfg.Provider == "google" {
		if cfg.APIKey == "" {
			log.Warn().Msg("GEOLOCATION_PROVIDER=google but no API key configured, using mock geocoder")
			return NewMockGeolocationProvider()
		}
		return NewGoogleGeolocationProvider(cfg.APIKey, cache)
	}
	return NewMockGeolocationProvider()
}
