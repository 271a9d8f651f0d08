package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/Providerdiscoveryengine/internal/domain/entities"
)

type stubGeocoder struct {
	coords *entities.Coordinates
	err    error
	calls  int
}

func (g *stubGeocoder) Geocode(ctx context.Context, locationText string) (*entities.Coordinates, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.coords, nil
}

func discoveryFixture(t *testing.T, catalog []*entities.Provider, geocoder *stubGeocoder) *DiscoveryService {
	t.Helper()
	repo := &branchingRepo{
		stubProviderRepo: stubProviderRepo{providers: catalog},
		queryHits:        catalog,
	}
	state := NewConversationStateService()
	retrieval := NewRetrievalService(repo, nil, nil, time.Second)
	ranking := NewRankingService(10)
	resolver := NewEntityResolverService(repo, 50, 5)
	if geocoder == nil {
		return NewDiscoveryService(NewSignalExtractionService(), state, retrieval, ranking, resolver, nil, nil, 500, 25)
	}
	return NewDiscoveryService(NewSignalExtractionService(), state, retrieval, ranking, resolver, geocoder, nil, 500, 25)
}

func catalogProvider(id, name, serviceName string, price float64, free bool) *entities.Provider {
	svc := entities.Service{Name: serviceName, IsFree: free}
	if !free {
		svc.Price = &entities.ServicePrice{Flat: &price}
	}
	return &entities.Provider{ID: id, Name: name, Services: []entities.Service{svc}}
}

func TestSearch_FullTurn(t *testing.T) {
	catalog := []*entities.Provider{
		catalogProvider("1", "Main Street Clinic", "STD Testing", 0, true),
		catalogProvider("2", "Oak Avenue Health", "Dental Cleaning", 120, false),
	}
	svc := discoveryFixture(t, catalog, nil)

	resp, err := svc.Search(context.Background(), &entities.SearchRequest{
		Utterance: "I need free std testing",
	})
	require.NoError(t, err)

	require.NotNil(t, resp.NewState)
	assert.Equal(t, []string{"std testing"}, resp.NewState.ServiceTerms)
	require.NotNil(t, resp.NewState.FreeOnly)
	assert.True(t, *resp.NewState.FreeOnly)

	require.NotEmpty(t, resp.Providers)
	assert.Equal(t, "1", resp.Providers[0].ID)
	assert.Contains(t, resp.Debug.FiltersApplied, "service_terms")
	assert.Contains(t, resp.Debug.FiltersApplied, "free_only")
	assert.Equal(t, 2, resp.Debug.CandidateCount)
}

func TestSearch_CarriesStateAcrossTurns(t *testing.T) {
	catalog := []*entities.Provider{
		catalogProvider("1", "Main Street Clinic", "STD Testing", 0, true),
	}
	svc := discoveryFixture(t, catalog, nil)

	first, err := svc.Search(context.Background(), &entities.SearchRequest{Utterance: "free std testing"})
	require.NoError(t, err)

	second, err := svc.Search(context.Background(), &entities.SearchRequest{
		Utterance:  "somewhere that takes medicaid",
		PriorState: first.NewState,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"std testing"}, second.NewState.ServiceTerms)
	require.NotNil(t, second.NewState.AcceptsMedicaid)
	assert.True(t, *second.NewState.AcceptsMedicaid)
	require.NotNil(t, second.NewState.FreeOnly)
	assert.True(t, *second.NewState.FreeOnly)
}

func TestSearch_GeocodeFailureTolerated(t *testing.T) {
	catalog := []*entities.Provider{
		catalogProvider("1", "Main Street Clinic", "STD Testing", 0, true),
	}
	geocoder := &stubGeocoder{err: errors.New("geocoder down")}
	svc := discoveryFixture(t, catalog, geocoder)

	resp, err := svc.Search(context.Background(), &entities.SearchRequest{
		Utterance: "std testing in Atlanta",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, geocoder.calls)
	assert.False(t, resp.Debug.LocationApplied)
	assert.NotEmpty(t, resp.Providers)
}

func TestSearch_GeocodeSetsOrigin(t *testing.T) {
	catalog := []*entities.Provider{
		catalogProvider("1", "Main Street Clinic", "STD Testing", 0, true),
	}
	geocoder := &stubGeocoder{coords: &entities.Coordinates{Latitude: 33.75, Longitude: -84.39}}
	svc := discoveryFixture(t, catalog, geocoder)

	resp, err := svc.Search(context.Background(), &entities.SearchRequest{
		Utterance: "std testing in Atlanta",
	})
	require.NoError(t, err)

	assert.True(t, resp.Debug.LocationApplied)
	assert.Equal(t, "Atlanta", resp.NewState.LocationText)
}

func TestSearch_StripsEmbeddings(t *testing.T) {
	p := catalogProvider("1", "Main Street Clinic", "STD Testing", 0, true)
	p.Services[0].Embedding = []float32{0.1, 0.2, 0.3}
	svc := discoveryFixture(t, []*entities.Provider{p}, nil)

	resp, err := svc.Search(context.Background(), &entities.SearchRequest{Utterance: "std testing"})
	require.NoError(t, err)

	require.NotEmpty(t, resp.Providers)
	for _, rp := range resp.Providers {
		for _, svc := range rp.Services {
			assert.Nil(t, svc.Embedding)
		}
	}
	// The retrieval-side copy keeps its embedding.
	assert.NotNil(t, p.Services[0].Embedding)
}

func TestSearch_LimitCapped(t *testing.T) {
	var catalog []*entities.Provider
	for i := 0; i < 40; i++ {
		catalog = append(catalog, catalogProvider(
			string(rune('a'+i%26))+string(rune('0'+i/26)), "Clinic", "STD Testing", float64(20+i), false))
	}
	svc := discoveryFixture(t, catalog, nil)

	resp, err := svc.Search(context.Background(), &entities.SearchRequest{
		Utterance: "std testing",
		Limit:     100,
	})
	require.NoError(t, err)

	assert.LessOrEqual(t, len(resp.Providers), 25)
	assert.Equal(t, 40, resp.Debug.CandidateCount)
}

func TestSearch_NameReferenceGroundsAgainstContext(t *testing.T) {
	shown := catalogProvider("ctx-1", "Main Street Clinic", "STD Testing", 0, true)
	other := catalogProvider("other", "Unrelated Clinic", "Dental Cleaning", 90, false)
	svc := discoveryFixture(t, []*entities.Provider{other}, nil)

	resp, err := svc.Search(context.Background(), &entities.SearchRequest{
		Utterance:        "what about Main Street Clinic",
		ContextProviders: []*entities.Provider{shown},
	})
	require.NoError(t, err)

	require.NotEmpty(t, resp.Providers)
	assert.Equal(t, "ctx-1", resp.Providers[0].ID)
}

func TestSearch_NilRequest(t *testing.T) {
	svc := discoveryFixture(t, nil, nil)
	_, err := svc.Search(context.Background(), nil)
	assert.Error(t, err)
}

func TestResolve_SanitizesProviders(t *testing.T) {
	p := catalogProvider("1", "Main Street Clinic", "STD Testing", 0, true)
	p.Services[0].Embedding = []float32{0.5}
	svc := discoveryFixture(t, []*entities.Provider{p}, nil)

	resolved, err := svc.Resolve(context.Background(), &entities.ResolveRequest{
		NameQuery:        "main street",
		ContextProviders: []*entities.Provider{p},
	})
	require.NoError(t, err)

	require.Len(t, resolved, 1)
	assert.Nil(t, resolved[0].Provider.Services[0].Embedding)
	assert.NotNil(t, p.Services[0].Embedding)
}
