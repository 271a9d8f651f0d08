package repositories

import (
	"context"

	"github.com/zatekoja/Providerdiscoveryengine/internal/domain/entities"
)

// ProviderRepository defines read access to the provider catalog. The engine
// does not own the catalog's write path.
type ProviderRepository interface {
	// GetByID retrieves a provider by ID with its services attached
	GetByID(ctx context.Context, id string) (*entities.Provider, error)

	// GetByIDs retrieves multiple providers by their IDs with services attached
	GetByIDs(ctx context.Context, ids []string) ([]*entities.Provider, error)

	// Query returns providers matching the set fields of the filters, capped
	// at limit. Unset (nil/empty) filter fields add no predicate.
	Query(ctx context.Context, filters entities.SearchFilters, limit int) ([]*entities.Provider, error)

	// List returns active providers without filter predicates, capped at limit
	List(ctx context.Context, limit int) ([]*entities.Provider, error)
}

// ServiceVectorRepository defines vector-similarity lookup over service-level
// embeddings. Implementations return provider IDs ordered by similarity.
type ServiceVectorRepository interface {
	SimilarProviderIDs(ctx context.Context, vector []float32, limit int) ([]string, error)
}
