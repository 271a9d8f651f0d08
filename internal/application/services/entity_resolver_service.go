package services

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/zatekoja/Providerdiscoveryengine/internal/domain/entities"
	"github.com/zatekoja/Providerdiscoveryengine/internal/domain/repositories"
	"github.com/zatekoja/Providerdiscoveryengine/pkg/geo"
)

// resolverHardCap bounds how many matches a resolve call can return no
// matter what the caller asks for.
const resolverHardCap = 5

// ResolvedProvider pairs a candidate with its match confidence.
type ResolvedProvider struct {
	Provider *entities.Provider `json:"provider"`
	Score    float64            `json:"score"`
}

// EntityResolverService grounds a free-text provider name ("main street",
// "that clinic on Main") against known providers. Matching is lexical with a
// proximity boost; no embedding call is involved.
type EntityResolverService struct {
	providerRepo repositories.ProviderRepository
	decayMiles   float64
	maxResults   int
	listLimit    int
}

var resolverNoise = regexp.MustCompile(`[^\p{L}\p{N}\s]`)

// Generic words that carry no identity on their own.
var resolverStopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "of": {}, "and": {},
	"clinic": {}, "center": {}, "centre": {}, "health": {}, "medical": {},
}

// NewEntityResolverService creates a resolver. decayMiles controls how fast
// the proximity boost fades; maxResults defaults to the hard cap.
func NewEntityResolverService(providerRepo repositories.ProviderRepository, decayMiles float64, maxResults int) *EntityResolverService {
	if decayMiles <= 0 {
		decayMiles = 50
	}
	if maxResults <= 0 || maxResults > resolverHardCap {
		maxResults = resolverHardCap
	}
	return &EntityResolverService{
		providerRepo: providerRepo,
		decayMiles:   decayMiles,
		maxResults:   maxResults,
		listLimit:    500,
	}
}

// Resolve scores candidates against the name query and returns the best
// matches in descending score order. Context providers take priority as the
// candidate pool; without them the catalog is consulted. An empty or
// unmatchable query returns an empty slice, never an error.
func (s *EntityResolverService) Resolve(ctx context.Context, req *entities.ResolveRequest) ([]ResolvedProvider, error) {
	query := normalizeName(req.NameQuery)
	if query == "" {
		return []ResolvedProvider{}, nil
	}

	candidates := req.ContextProviders
	if len(candidates) == 0 && s.providerRepo != nil {
		listed, err := s.providerRepo.List(ctx, s.listLimit)
		if err != nil {
			return nil, err
		}
		candidates = listed
	}
	if len(candidates) == 0 {
		return []ResolvedProvider{}, nil
	}

	queryTokens := nameTokens(query)

	var resolved []ResolvedProvider
	for _, p := range candidates {
		if p == nil {
			continue
		}
		score := s.score(query, queryTokens, p, req.Coordinates)
		if score <= 0 {
			continue
		}
		resolved = append(resolved, ResolvedProvider{Provider: p, Score: score})
	}

	sort.SliceStable(resolved, func(i, j int) bool {
		return resolved[i].Score > resolved[j].Score
	})

	topK := req.TopK
	if topK <= 0 || topK > s.maxResults {
		topK = s.maxResults
	}
	if len(resolved) > topK {
		resolved = resolved[:topK]
	}
	return resolved, nil
}

// score combines token overlap, a contiguous-substring bonus, and a
// distance-decayed proximity boost.
func (s *EntityResolverService) score(query string, queryTokens []string, p *entities.Provider, origin *entities.Coordinates) float64 {
	name := normalizeName(p.Name)
	if name == "" {
		return 0
	}

	overlap := tokenOverlap(queryTokens, nameTokens(name))
	if overlap == 0 && !strings.Contains(name, query) {
		return 0
	}

	score := overlap
	if strings.Contains(name, query) {
		score += 0.3
	}
	if origin != nil && p.Location != nil {
		miles := geo.DistanceMiles(origin.Latitude, origin.Longitude, p.Location.Latitude, p.Location.Longitude)
		decay := 1 - miles/s.decayMiles
		if decay > 0 {
			score += 0.2 * decay
		}
	}
	return score
}

func normalizeName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = resolverNoise.ReplaceAllString(n, " ")
	return strings.Join(strings.Fields(n), " ")
}

func nameTokens(normalized string) []string {
	fields := strings.Fields(normalized)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, stop := resolverStopWords[f]; stop {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// tokenOverlap is the fraction of query tokens present in the candidate name.
func tokenOverlap(queryTokens, nameTokens []string) float64 {
	if len(queryTokens) == 0 {
		return 0
	}
	nameSet := make(map[string]struct{}, len(nameTokens))
	for _, t := range nameTokens {
		nameSet[t] = struct{}{}
	}
	hits := 0
	for _, t := range queryTokens {
		if _, ok := nameSet[t]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(queryTokens))
}
