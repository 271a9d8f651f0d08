package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/Providerdiscoveryengine/internal/domain/entities"
	"github.com/zatekoja/Providerdiscoveryengine/internal/domain/providers"
	"github.com/zatekoja/Providerdiscoveryengine/internal/domain/repositories"
)

// RetrievalService gathers candidate providers through two concurrent
// branches: attribute filtering against the catalog and vector similarity
// over service embeddings. The attribute branch is load-bearing; the
// semantic branch only ever widens the candidate set, so its failures and
// slowness degrade to attribute-only results.
type RetrievalService struct {
	providerRepo repositories.ProviderRepository
	vectorRepo   repositories.ServiceVectorRepository
	embedder     providers.EmbeddingProvider
	semanticWait time.Duration
}

// RetrievalResult carries the unioned candidates plus branch diagnostics.
type RetrievalResult struct {
	Candidates      []*entities.Provider
	SemanticApplied bool
}

// NewRetrievalService creates a retrieval service. vectorRepo and embedder
// may be nil, which disables the semantic branch entirely. semanticWait
// bounds how long the join waits for semantic results after the attribute
// branch completes.
func NewRetrievalService(
	providerRepo repositories.ProviderRepository,
	vectorRepo repositories.ServiceVectorRepository,
	embedder providers.EmbeddingProvider,
	semanticWait time.Duration,
) *RetrievalService {
	if semanticWait <= 0 {
		semanticWait = 2 * time.Second
	}
	return &RetrievalService{
		providerRepo: providerRepo,
		vectorRepo:   vectorRepo,
		embedder:     embedder,
		semanticWait: semanticWait,
	}
}

type semanticOutcome struct {
	providers []*entities.Provider
	applied   bool
	err       error
}

// Retrieve runs both branches and unions their results, attribute hits
// first. An attribute-branch failure fails the call; a semantic-branch
// failure or timeout is logged and absorbed.
func (s *RetrievalService) Retrieve(ctx context.Context, filters entities.SearchFilters, limit int) (*RetrievalResult, error) {
	semanticCh := s.startSemantic(ctx, filters, limit)

	attributeHits, err := s.providerRepo.Query(ctx, filters, limit)
	if err != nil {
		return nil, err
	}

	result := &RetrievalResult{Candidates: attributeHits}

	if semanticCh == nil {
		return result, nil
	}

	select {
	case outcome := <-semanticCh:
		if outcome.err != nil {
			log.Warn().Err(outcome.err).Msg("semantic retrieval failed, continuing with attribute results")
			return result, nil
		}
		result.SemanticApplied = outcome.applied
		result.Candidates = unionProviders(attributeHits, outcome.providers, limit)
	case <-time.After(s.semanticWait):
		log.Warn().Dur("waited", s.semanticWait).Msg("semantic retrieval timed out, continuing with attribute results")
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return result, nil
}

// startSemantic launches the semantic branch, or returns nil when it cannot
// run (no vector store, no embedder, or nothing to embed). The zero vector
// the embedder degrades to carries no signal, so it skips the lookup too.
func (s *RetrievalService) startSemantic(ctx context.Context, filters entities.SearchFilters, limit int) <-chan semanticOutcome {
	if s.vectorRepo == nil || s.embedder == nil {
		return nil
	}
	query := filters.SemanticQuery()
	if query == "" {
		return nil
	}

	ch := make(chan semanticOutcome, 1)
	go func() {
		vector := s.embedder.Embed(ctx, query)
		if providers.IsZeroVector(vector) {
			ch <- semanticOutcome{}
			return
		}

		ids, err := s.vectorRepo.SimilarProviderIDs(ctx, vector, limit)
		if err != nil {
			ch <- semanticOutcome{err: err}
			return
		}
		if len(ids) == 0 {
			ch <- semanticOutcome{applied: true}
			return
		}

		hits, err := s.providerRepo.GetByIDs(ctx, ids)
		ch <- semanticOutcome{providers: hits, applied: true, err: err}
	}()
	return ch
}

// unionProviders merges the two branches keeping attribute order first and
// dropping duplicates by provider ID.
func unionProviders(attribute, semantic []*entities.Provider, limit int) []*entities.Provider {
	seen := make(map[string]struct{}, len(attribute))
	merged := make([]*entities.Provider, 0, len(attribute)+len(semantic))
	for _, p := range attribute {
		if p == nil {
			continue
		}
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		merged = append(merged, p)
	}
	for _, p := range semantic {
		if p == nil {
			continue
		}
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		merged = append(merged, p)
	}
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}
