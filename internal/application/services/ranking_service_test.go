package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/Providerdiscoveryengine/internal/domain/entities"
)

func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }

func pricedService(name string, flat float64) entities.Service {
	return entities.Service{
		Name:  name,
		Price: &entities.ServicePrice{Flat: floatPtr(flat)},
	}
}

func freeService(name string) entities.Service {
	return entities.Service{Name: name, IsFree: true}
}

func TestRank_MatchCountDominates(t *testing.T) {
	svc := NewRankingService(10)
	a := &entities.Provider{
		ID:       "a",
		Services: []entities.Service{pricedService("STD Testing", 20)},
	}
	b := &entities.Provider{
		ID: "b",
		Services: []entities.Service{
			pricedService("STD Testing", 200),
			pricedService("STD Testing Panel", 300),
		},
	}

	ranked := svc.Rank([]*entities.Provider{a, b}, entities.SearchFilters{
		ServiceTerms: []string{"std testing"},
	})

	require.Len(t, ranked, 2)
	assert.Equal(t, "b", ranked[0].ID)
	assert.Equal(t, 2, ranked[0].MatchingServiceCount)
}

func TestRank_ImmaterialPriceFallsToDistance(t *testing.T) {
	svc := NewRankingService(10)
	origin := &entities.Coordinates{Latitude: 33.7490, Longitude: -84.3880}

	// A is $5 cheaper but farther; $5 is under the materiality threshold, so
	// the closer B wins.
	a := &entities.Provider{
		ID:       "a",
		Location: &entities.Coordinates{Latitude: 34.1, Longitude: -84.9},
		Services: []entities.Service{pricedService("STD Testing", 45)},
	}
	b := &entities.Provider{
		ID:       "b",
		Location: &entities.Coordinates{Latitude: 33.7500, Longitude: -84.3900},
		Services: []entities.Service{pricedService("STD Testing", 50)},
	}

	ranked := svc.Rank([]*entities.Provider{a, b}, entities.SearchFilters{
		ServiceTerms: []string{"std testing"},
		Origin:       origin,
	})

	require.Len(t, ranked, 2)
	assert.Equal(t, "b", ranked[0].ID)
}

func TestRank_MaterialPriceWins(t *testing.T) {
	svc := NewRankingService(10)
	origin := &entities.Coordinates{Latitude: 33.7490, Longitude: -84.3880}

	a := &entities.Provider{
		ID:       "a",
		Location: &entities.Coordinates{Latitude: 34.1, Longitude: -84.9},
		Services: []entities.Service{pricedService("STD Testing", 30)},
	}
	b := &entities.Provider{
		ID:       "b",
		Location: &entities.Coordinates{Latitude: 33.7500, Longitude: -84.3900},
		Services: []entities.Service{pricedService("STD Testing", 50)},
	}

	ranked := svc.Rank([]*entities.Provider{a, b}, entities.SearchFilters{
		ServiceTerms: []string{"std testing"},
		Origin:       origin,
	})

	require.Len(t, ranked, 2)
	assert.Equal(t, "a", ranked[0].ID)
}

func TestRank_KnownDistanceBeatsUnknown(t *testing.T) {
	svc := NewRankingService(10)
	origin := &entities.Coordinates{Latitude: 33.7490, Longitude: -84.3880}

	noLocation := &entities.Provider{
		ID:       "no-loc",
		Services: []entities.Service{pricedService("STD Testing", 50)},
	}
	located := &entities.Provider{
		ID:       "located",
		Location: &entities.Coordinates{Latitude: 33.75, Longitude: -84.39},
		Services: []entities.Service{pricedService("STD Testing", 50)},
	}

	ranked := svc.Rank([]*entities.Provider{noLocation, located}, entities.SearchFilters{
		ServiceTerms: []string{"std testing"},
		Origin:       origin,
	})

	require.Len(t, ranked, 2)
	assert.Equal(t, "located", ranked[0].ID)
	assert.Nil(t, ranked[1].DistanceMiles)
}

func TestRank_RatingBreaksFinalTie(t *testing.T) {
	svc := NewRankingService(10)

	lowRated := &entities.Provider{
		ID:       "low",
		Rating:   3.1,
		Services: []entities.Service{pricedService("STD Testing", 50)},
	}
	highRated := &entities.Provider{
		ID:       "high",
		Rating:   4.8,
		Services: []entities.Service{pricedService("STD Testing", 52)},
	}

	ranked := svc.Rank([]*entities.Provider{lowRated, highRated}, entities.SearchFilters{
		ServiceTerms: []string{"std testing"},
	})

	require.Len(t, ranked, 2)
	assert.Equal(t, "high", ranked[0].ID)
}

func TestRank_FreeOnlyDerivedFields(t *testing.T) {
	svc := NewRankingService(10)

	p := &entities.Provider{
		ID: "p",
		Services: []entities.Service{
			freeService("HIV Counseling"),
			pricedService("STD Testing", 80),
		},
	}

	ranked := svc.Rank([]*entities.Provider{p}, entities.SearchFilters{
		FreeOnly: boolPtr(true),
	})

	require.Len(t, ranked, 1)
	assert.Equal(t, 1, ranked[0].MatchingServiceCount)
	require.NotNil(t, ranked[0].MinServicePrice)
	assert.Equal(t, 0.0, *ranked[0].MinServicePrice)
	assert.True(t, ranked[0].HasFreeServices)
}

func TestRank_MaxDistanceDropsUnknown(t *testing.T) {
	svc := NewRankingService(10)
	origin := &entities.Coordinates{Latitude: 33.7490, Longitude: -84.3880}

	far := &entities.Provider{
		ID:       "far",
		Location: &entities.Coordinates{Latitude: 40.7, Longitude: -74.0},
		Services: []entities.Service{pricedService("STD Testing", 50)},
	}
	near := &entities.Provider{
		ID:       "near",
		Location: &entities.Coordinates{Latitude: 33.75, Longitude: -84.39},
		Services: []entities.Service{pricedService("STD Testing", 50)},
	}
	unknown := &entities.Provider{
		ID:       "unknown",
		Services: []entities.Service{pricedService("STD Testing", 50)},
	}

	ranked := svc.Rank([]*entities.Provider{far, near, unknown}, entities.SearchFilters{
		ServiceTerms:     []string{"std testing"},
		Origin:           origin,
		MaxDistanceMiles: floatPtr(25),
	})

	require.Len(t, ranked, 1)
	assert.Equal(t, "near", ranked[0].ID)
}

func TestRank_MaxPriceKeepsUnknownPrice(t *testing.T) {
	svc := NewRankingService(10)

	expensive := &entities.Provider{
		ID:       "expensive",
		Services: []entities.Service{pricedService("STD Testing", 500)},
	}
	unpriced := &entities.Provider{
		ID:       "unpriced",
		Services: []entities.Service{{Name: "STD Testing"}},
	}

	ranked := svc.Rank([]*entities.Provider{expensive, unpriced}, entities.SearchFilters{
		ServiceTerms: []string{"std testing"},
		MaxPrice:     floatPtr(100),
	})

	require.Len(t, ranked, 1)
	assert.Equal(t, "unpriced", ranked[0].ID)
	assert.Nil(t, ranked[0].MinServicePrice)
}

func TestRank_MaxPriceWithoutServiceTerms(t *testing.T) {
	svc := NewRankingService(10)

	expensive := &entities.Provider{
		ID:       "expensive",
		Services: []entities.Service{pricedService("MRI", 500)},
	}
	affordable := &entities.Provider{
		ID:       "affordable",
		Services: []entities.Service{pricedService("X-Ray", 80)},
	}

	ranked := svc.Rank([]*entities.Provider{expensive, affordable}, entities.SearchFilters{
		MaxPrice: floatPtr(100),
	})

	require.Len(t, ranked, 1)
	assert.Equal(t, "affordable", ranked[0].ID)
	require.NotNil(t, ranked[0].MinServicePrice)
	assert.Equal(t, 80.0, *ranked[0].MinServicePrice)
}

func TestRank_KnownPriceBeatsUnknown(t *testing.T) {
	svc := NewRankingService(10)
	origin := &entities.Coordinates{Latitude: 33.7490, Longitude: -84.3880}

	// The nearby provider has no price; unknown reads as infinitely
	// expensive, so the priced provider wins even from farther away.
	unpricedNear := &entities.Provider{
		ID:       "unpriced-near",
		Location: &entities.Coordinates{Latitude: 33.75, Longitude: -84.39},
		Services: []entities.Service{{Name: "STD Testing"}},
	}
	pricedFar := &entities.Provider{
		ID:       "priced-far",
		Location: &entities.Coordinates{Latitude: 34.1, Longitude: -84.9},
		Services: []entities.Service{pricedService("STD Testing", 100)},
	}

	ranked := svc.Rank([]*entities.Provider{unpricedNear, pricedFar}, entities.SearchFilters{
		ServiceTerms: []string{"std testing"},
		Origin:       origin,
	})

	require.Len(t, ranked, 2)
	assert.Equal(t, "priced-far", ranked[0].ID)
	assert.Nil(t, ranked[1].MinServicePrice)
}

func TestRank_MaxPriceLimitsMatchCount(t *testing.T) {
	svc := NewRankingService(10)

	p := &entities.Provider{
		ID: "p",
		Services: []entities.Service{
			pricedService("STD Testing", 50),
			pricedService("STD Testing Panel", 200),
			pricedService("STD Testing Rapid", 150),
		},
	}

	ranked := svc.Rank([]*entities.Provider{p}, entities.SearchFilters{
		ServiceTerms: []string{"std testing"},
		MaxPrice:     floatPtr(100),
	})

	require.Len(t, ranked, 1)
	assert.Equal(t, 1, ranked[0].MatchingServiceCount)
	require.NotNil(t, ranked[0].MinServicePrice)
	assert.Equal(t, 50.0, *ranked[0].MinServicePrice)
}

func TestRank_RangePriceUsesFloor(t *testing.T) {
	svc := NewRankingService(10)

	p := &entities.Provider{
		ID: "p",
		Services: []entities.Service{{
			Name:  "STD Testing",
			Price: &entities.ServicePrice{Min: floatPtr(40), Max: floatPtr(120)},
		}},
	}

	ranked := svc.Rank([]*entities.Provider{p}, entities.SearchFilters{
		ServiceTerms: []string{"std testing"},
	})

	require.Len(t, ranked, 1)
	require.NotNil(t, ranked[0].MinServicePrice)
	assert.Equal(t, 40.0, *ranked[0].MinServicePrice)
}

func TestRank_Deterministic(t *testing.T) {
	svc := NewRankingService(10)

	build := func() []*entities.Provider {
		return []*entities.Provider{
			{ID: "a", Rating: 4.0, Services: []entities.Service{pricedService("STD Testing", 50)}},
			{ID: "b", Rating: 4.0, Services: []entities.Service{pricedService("STD Testing", 52)}},
			{ID: "c", Rating: 4.5, Services: []entities.Service{pricedService("STD Testing", 48)}},
		}
	}
	filters := entities.SearchFilters{ServiceTerms: []string{"std testing"}}

	first := svc.Rank(build(), filters)
	second := svc.Rank(build(), filters)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
	// Equal on every comparator stage keeps retrieval order: a before b.
	assert.Equal(t, "c", first[0].ID)
	assert.Equal(t, "a", first[1].ID)
	assert.Equal(t, "b", first[2].ID)
}
