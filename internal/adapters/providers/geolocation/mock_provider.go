package geolocation

import (
	"context"
	"strings"

	"github.com/zatekoja/Providerdiscoveryengine/internal/domain/entities"
	"github.com/zatekoja/Providerdiscoveryengine/internal/domain/providers"
)

// MockGeolocationProvider resolves a small set of well-known city names.
// Used for local development when no Google API key is configured.
type MockGeolocationProvider struct{}

// NewMockGeolocationProvider creates a new mock geolocation provider
func NewMockGeolocationProvider() providers.GeolocationProvider {
	return &MockGeolocationProvider{}
}

// Geocode converts location text to coordinates (mock implementation)
func (m *MockGeolocationProvider) Geocode(ctx context.Context, locationText string) (*entities.Coordinates, error) {
	mockCoordinates := map[string]entities.Coordinates{
		"new york":    {Latitude: 40.7128, Longitude: -74.0060},
		"los angeles": {Latitude: 34.0522, Longitude: -118.2437},
		"chicago":     {Latitude: 41.8781, Longitude: -87.6298},
		"houston":     {Latitude: 29.7604, Longitude: -95.3698},
		"phoenix":     {Latitude: 33.4484, Longitude: -112.0740},
		"atlanta":     {Latitude: 33.7490, Longitude: -84.3880},
		"seattle":     {Latitude: 47.6062, Longitude: -122.3321},
	}

	lowered := strings.ToLower(locationText)
	for city, coords := range mockCoordinates {
		if strings.Contains(lowered, city) {
			c := coords
			return &c, nil
		}
	}

	// Default to San Francisco
	return &entities.Coordinates{Latitude: 37.7749, Longitude: -122.4194}, nil
}
