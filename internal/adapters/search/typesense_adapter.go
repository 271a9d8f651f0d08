package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"
	"github.com/zatekoja/Providerdiscoveryengine/internal/domain/entities"
	"github.com/zatekoja/Providerdiscoveryengine/internal/domain/repositories"
	tsclient "github.com/zatekoja/Providerdiscoveryengine/internal/infrastructure/clients/typesense"
)

// TypesenseAdapter implements vector-similarity lookup over service-level
// embeddings using Typesense
type TypesenseAdapter struct {
	client *tsclient.Client
}

var _ repositories.ServiceVectorRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// SimilarProviderIDs returns provider IDs whose services are nearest to the
// given embedding vector, ordered by similarity, deduplicated.
func (a *TypesenseAdapter) SimilarProviderIDs(ctx context.Context, vector []float32, limit int) ([]string, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("embedding vector is required")
	}
	if limit <= 0 {
		limit = 50
	}

	searchParams := &api.SearchCollectionParams{
		Q:           pointer.String("*"),
		QueryBy:     pointer.String("name"),
		VectorQuery: pointer.String(buildVectorQuery(vector, limit)),
		PerPage:     pointer.Int(limit),
	}

	result, err := a.client.Client().Collection(tsclient.ServicesCollection).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	if result.Hits == nil {
		return []string{}, nil
	}

	seen := make(map[string]struct{})
	ids := []string{}
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		doc := *hit.Document
		providerID, ok := doc["provider_id"].(string)
		if !ok || providerID == "" {
			continue
		}
		if _, dup := seen[providerID]; dup {
			continue
		}
		seen[providerID] = struct{}{}
		ids = append(ids, providerID)
	}

	return ids, nil
}

// IndexService indexes a single service document with its embedding
func (a *TypesenseAdapter) IndexService(ctx context.Context, service *entities.Service) error {
	document := map[string]interface{}{
		"id":          service.ID,
		"provider_id": service.ProviderID,
		"name":        service.Name,
		"category":    service.Category,
		"is_free":     service.IsFree,
		"embedding":   service.Embedding,
	}
	if floor := service.Price.Floor(); floor != nil {
		document["price"] = *floor
	}

	_, err := a.client.Client().Collection(tsclient.ServicesCollection).Documents().Upsert(ctx, document)
	if err != nil {
		return fmt.Errorf("failed to index service: %w", err)
	}
	return nil
}

// DeleteService removes a service from the index
func (a *TypesenseAdapter) DeleteService(ctx context.Context, id string) error {
	_, err := a.client.Client().Collection(tsclient.ServicesCollection).Document(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete service from index: %w", err)
	}
	return nil
}

func buildVectorQuery(vector []float32, k int) string {
	var b strings.Builder
	b.WriteString("embedding:([")
	for i, v := range vector {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	b.WriteString("], k:")
	b.WriteString(strconv.Itoa(k))
	b.WriteString(")")
	return b.String()
}
