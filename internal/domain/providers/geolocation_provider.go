package providers

import (
	"context"

	"github.com/zatekoja/Providerdiscoveryengine/internal/domain/entities"
)

// GeolocationProvider resolves free-form location text to coordinates. The
// engine treats geocoding failures as "no location", never as fatal.
type GeolocationProvider interface {
	// Geocode converts an address or place description to coordinates
	Geocode(ctx context.Context, locationText string) (*entities.Coordinates, error)
}
