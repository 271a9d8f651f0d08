package services

import (
	"math"
	"sort"
	"strings"

	"github.com/zatekoja/Providerdiscoveryengine/internal/domain/entities"
	"github.com/zatekoja/Providerdiscoveryengine/pkg/geo"
)

// RankingService orders candidate providers by relevance to the accumulated
// filters. Ranking is a deterministic comparator cascade rather than a
// weighted score: service-match count, then price where the difference is
// material, then distance, then rating. Ties keep retrieval order.
type RankingService struct {
	priceMateriality float64
}

// NewRankingService creates a ranking service. priceMateriality is the
// dollar difference below which two prices are treated as equivalent.
func NewRankingService(priceMateriality float64) *RankingService {
	if priceMateriality < 0 {
		priceMateriality = 0
	}
	return &RankingService{priceMateriality: priceMateriality}
}

// Rank annotates candidates with derived fields, applies the numeric bounds,
// and sorts. The input slice is not reordered; a new slice is returned.
// Providers with unknown distance are dropped by a max-distance bound, but
// providers with unknown price survive a max-price bound.
func (s *RankingService) Rank(candidates []*entities.Provider, filters entities.SearchFilters) []*entities.Provider {
	ranked := make([]*entities.Provider, 0, len(candidates))
	for _, p := range candidates {
		if p == nil {
			continue
		}
		s.annotate(p, filters)
		if !s.withinBounds(p, filters) {
			continue
		}
		ranked = append(ranked, p)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return s.less(ranked[i], ranked[j])
	})

	for i, p := range ranked {
		p.RankScore = float64(len(ranked) - i)
	}
	return ranked
}

// annotate computes the per-search derived fields on the provider.
func (s *RankingService) annotate(p *entities.Provider, filters entities.SearchFilters) {
	p.DistanceMiles = nil
	if filters.Origin != nil && p.Location != nil {
		d := geo.DistanceMiles(filters.Origin.Latitude, filters.Origin.Longitude, p.Location.Latitude, p.Location.Longitude)
		p.DistanceMiles = &d
	}

	p.HasFreeServices = false
	for _, svc := range p.Services {
		if svc.IsFree {
			p.HasFreeServices = true
			break
		}
	}

	p.MatchingServiceCount = len(s.matchingServices(p, filters))
	p.MinServicePrice = minPrice(p.Services)
}

// matchingServices selects the services passing every active service-level
// filter: term match, free-only, and the price cap. A service with no known
// price survives the cap, mirroring the candidate-level bound. With no
// service-level filter active, nothing counts toward the match score.
func (s *RankingService) matchingServices(p *entities.Provider, filters entities.SearchFilters) []entities.Service {
	freeOnly := filters.FreeOnly != nil && *filters.FreeOnly
	if len(filters.ServiceTerms) == 0 && !freeOnly && filters.MaxPrice == nil {
		return nil
	}

	var matching []entities.Service
	for _, svc := range p.Services {
		if len(filters.ServiceTerms) > 0 && !serviceMatchesTerms(svc, filters.ServiceTerms) {
			continue
		}
		if freeOnly && !svc.IsFree {
			continue
		}
		if filters.MaxPrice != nil {
			if floor := serviceFloor(svc); floor != nil && *floor > *filters.MaxPrice {
				continue
			}
		}
		matching = append(matching, svc)
	}
	return matching
}

func serviceMatchesTerms(svc entities.Service, terms []string) bool {
	name := strings.ToLower(svc.Name)
	category := strings.ToLower(svc.Category)
	for _, term := range terms {
		t := strings.ToLower(strings.TrimSpace(term))
		if t == "" {
			continue
		}
		if strings.Contains(name, t) || strings.Contains(category, t) {
			return true
		}
	}
	return false
}

// serviceFloor is the lowest amount a service can bill at. Free services
// floor at zero; nil when the price is unknown.
func serviceFloor(svc entities.Service) *float64 {
	if svc.IsFree {
		zero := 0.0
		return &zero
	}
	return svc.Price.Floor()
}

// minPrice returns the lowest price floor across the services. Nil when no
// service carries a known price.
func minPrice(services []entities.Service) *float64 {
	var lowest *float64
	for _, svc := range services {
		floor := serviceFloor(svc)
		if floor == nil {
			continue
		}
		if lowest == nil || *floor < *lowest {
			lowest = floor
		}
	}
	return lowest
}

func (s *RankingService) withinBounds(p *entities.Provider, filters entities.SearchFilters) bool {
	if filters.MaxDistanceMiles != nil {
		// Unknown distance cannot satisfy an explicit distance bound.
		if p.DistanceMiles == nil || *p.DistanceMiles > *filters.MaxDistanceMiles {
			return false
		}
	}
	if filters.MaxPrice != nil && p.MinServicePrice != nil && *p.MinServicePrice > *filters.MaxPrice {
		return false
	}
	return true
}

// less is the comparator cascade. Each stage decides only when it finds a
// meaningful difference; otherwise the next stage runs.
func (s *RankingService) less(a, b *entities.Provider) bool {
	if a.MatchingServiceCount != b.MatchingServiceCount {
		return a.MatchingServiceCount > b.MatchingServiceCount
	}

	// An unknown price reads as infinitely expensive, so any known price
	// wins the tier outright. Between known prices the difference must be
	// material to decide.
	switch {
	case a.MinServicePrice != nil && b.MinServicePrice != nil:
		if diff := *a.MinServicePrice - *b.MinServicePrice; math.Abs(diff) > s.priceMateriality {
			return diff < 0
		}
	case a.MinServicePrice != nil:
		return true
	case b.MinServicePrice != nil:
		return false
	}

	// Known distance beats unknown; between known, closer wins.
	switch {
	case a.DistanceMiles != nil && b.DistanceMiles != nil:
		if *a.DistanceMiles != *b.DistanceMiles {
			return *a.DistanceMiles < *b.DistanceMiles
		}
	case a.DistanceMiles != nil:
		return true
	case b.DistanceMiles != nil:
		return false
	}

	// Missing rating reads as zero.
	return a.Rating > b.Rating
}
