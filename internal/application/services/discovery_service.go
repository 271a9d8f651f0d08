package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/Providerdiscoveryengine/internal/domain/entities"
	"github.com/zatekoja/Providerdiscoveryengine/internal/domain/providers"
	"github.com/zatekoja/Providerdiscoveryengine/internal/infrastructure/observability"
	"github.com/zatekoja/Providerdiscoveryengine/pkg/errors"
)

// DiscoveryService orchestrates one turn of the discovery flow: extract
// signals from the utterance, fold them into the conversation state,
// retrieve and rank candidates, and assemble a sanitized response.
type DiscoveryService struct {
	extractor  providers.SignalExtractor
	state      *ConversationStateService
	retrieval  *RetrievalService
	ranking    *RankingService
	resolver   *EntityResolverService
	geocoder   providers.GeolocationProvider
	metrics    *observability.Metrics
	maxResults int
	candidates int
}

// NewDiscoveryService wires the discovery pipeline. geocoder may be nil,
// which leaves location text as an attribute filter only. candidateLimit
// bounds retrieval; maxResults bounds the response page.
func NewDiscoveryService(
	extractor providers.SignalExtractor,
	state *ConversationStateService,
	retrieval *RetrievalService,
	ranking *RankingService,
	resolver *EntityResolverService,
	geocoder providers.GeolocationProvider,
	metrics *observability.Metrics,
	candidateLimit, maxResults int,
) *DiscoveryService {
	if candidateLimit <= 0 {
		candidateLimit = 500
	}
	if maxResults <= 0 {
		maxResults = 25
	}
	return &DiscoveryService{
		extractor:  extractor,
		state:      state,
		retrieval:  retrieval,
		ranking:    ranking,
		resolver:   resolver,
		geocoder:   geocoder,
		metrics:    metrics,
		maxResults: maxResults,
		candidates: candidateLimit,
	}
}

// Search runs one conversational search turn. The returned response always
// carries the merged state, even when retrieval yields nothing.
func (s *DiscoveryService) Search(ctx context.Context, req *entities.SearchRequest) (*entities.SearchResponse, error) {
	if req == nil {
		return nil, errors.NewValidationError("search request is required")
	}

	ctx, span := observability.StartSpan(ctx, "discovery.search")
	defer span.End()
	started := time.Now()

	signals, err := s.extractor.Extract(ctx, req.Utterance)
	if err != nil {
		return nil, errors.NewInternalError("signal extraction failed", err)
	}

	newState := s.state.Merge(req.PriorState, signals)

	// A name reference ("what about Main Street Clinic") grounds against
	// previously shown providers instead of running a fresh retrieval.
	if signals.ProviderNameReference != "" {
		if resp := s.searchByReference(ctx, req, signals.ProviderNameReference, newState, started); resp != nil {
			return resp, nil
		}
	}

	filters := s.state.BuildSearchFilters(newState, req)

	locationApplied := filters.Origin != nil
	if filters.Origin == nil && filters.City != "" && s.geocoder != nil {
		coords, err := s.geocoder.Geocode(ctx, filters.City)
		if err != nil {
			// Geocoding is best-effort; the city text still filters attributes.
			log.Warn().Err(err).Str("location", filters.City).Msg("geocoding failed, searching without distance ordering")
		} else {
			filters.Origin = coords
			locationApplied = true
		}
	}

	retrieved, err := s.retrieval.Retrieve(ctx, filters, s.candidates)
	if err != nil {
		return nil, err
	}

	ranked := s.ranking.Rank(retrieved.Candidates, filters)

	limit := req.Limit
	if limit <= 0 || limit > s.maxResults {
		limit = s.maxResults
	}
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	observability.RecordSearchMetric(ctx, s.metrics, len(retrieved.Candidates), retrieved.SemanticApplied)

	return &entities.SearchResponse{
		Providers: sanitizeProviders(ranked),
		NewState:  newState,
		Debug: entities.SearchDebug{
			CandidateCount:  len(retrieved.Candidates),
			RankedCount:     len(ranked),
			SemanticApplied: retrieved.SemanticApplied,
			LocationApplied: locationApplied,
			FiltersApplied:  filters.Active(),
			ElapsedMS:       float64(time.Since(started).Microseconds()) / 1000.0,
		},
	}, nil
}

// searchByReference resolves a detected provider-name reference. Returns nil
// when nothing matched so the caller falls back to regular retrieval.
func (s *DiscoveryService) searchByReference(ctx context.Context, req *entities.SearchRequest, nameRef string, newState *entities.ConversationFilterState, started time.Time) *entities.SearchResponse {
	matches, err := s.resolver.Resolve(ctx, &entities.ResolveRequest{
		NameQuery:        nameRef,
		ContextProviders: req.ContextProviders,
		Coordinates:      req.Coordinates,
	})
	if err != nil {
		log.Warn().Err(err).Str("name", nameRef).Msg("reference grounding failed, falling back to retrieval")
		return nil
	}
	if len(matches) == 0 {
		return nil
	}

	grounded := make([]*entities.Provider, 0, len(matches))
	for _, m := range matches {
		grounded = append(grounded, m.Provider)
	}

	return &entities.SearchResponse{
		Providers: sanitizeProviders(grounded),
		NewState:  newState,
		Debug: entities.SearchDebug{
			CandidateCount: len(grounded),
			RankedCount:    len(grounded),
			ElapsedMS:      float64(time.Since(started).Microseconds()) / 1000.0,
		},
	}
}

// Resolve grounds a provider name reference against context or the catalog.
func (s *DiscoveryService) Resolve(ctx context.Context, req *entities.ResolveRequest) ([]ResolvedProvider, error) {
	if req == nil {
		return nil, errors.NewValidationError("resolve request is required")
	}

	ctx, span := observability.StartSpan(ctx, "discovery.resolve")
	defer span.End()

	resolved, err := s.resolver.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	for i := range resolved {
		resolved[i].Provider = sanitizeProvider(resolved[i].Provider)
	}
	return resolved, nil
}

// sanitizeProviders strips embedding vectors before results cross the engine
// boundary. Providers are copied so retrieval caches stay intact.
func sanitizeProviders(in []*entities.Provider) []*entities.Provider {
	out := make([]*entities.Provider, 0, len(in))
	for _, p := range in {
		out = append(out, sanitizeProvider(p))
	}
	return out
}

func sanitizeProvider(p *entities.Provider) *entities.Provider {
	if p == nil {
		return nil
	}
	clean := *p
	if len(p.Services) > 0 {
		clean.Services = make([]entities.Service, len(p.Services))
		for i, svc := range p.Services {
			svc.Embedding = nil
			clean.Services[i] = svc
		}
	}
	return &clean
}
