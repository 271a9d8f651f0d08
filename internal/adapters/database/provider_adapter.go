package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"
	"github.com/zatekoja/Providerdiscoveryengine/internal/domain/entities"
	"github.com/zatekoja/Providerdiscoveryengine/internal/domain/repositories"
	"github.com/zatekoja/Providerdiscoveryengine/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/Providerdiscoveryengine/pkg/errors"
)

const providerColumns = `id, name, category, street, city, state, zip_code, country,
	latitude, longitude, phone_number, email, website, description,
	accepts_medicaid, accepts_medicare, accepts_self_pay, offers_payment_plans,
	insurance_carriers, telehealth_available, telehealth_audio_only,
	ssn_required, rating, review_count, is_active, created_at, updated_at`

// ProviderAdapter implements ProviderRepository against the catalog database
type ProviderAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

var _ repositories.ProviderRepository = (*ProviderAdapter)(nil)

// NewProviderAdapter creates a new provider adapter
func NewProviderAdapter(client *postgres.Client) *ProviderAdapter {
	return &ProviderAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// buildPredicates maps the set fields of SearchFilters to query predicates,
// one per field. Unset fields contribute nothing.
func buildPredicates(filters entities.SearchFilters) []goqu.Expression {
	preds := []goqu.Expression{goqu.Ex{"is_active": true}}

	if filters.AcceptsMedicaid != nil {
		preds = append(preds, goqu.Ex{"accepts_medicaid": *filters.AcceptsMedicaid})
	}
	if filters.AcceptsMedicare != nil {
		preds = append(preds, goqu.Ex{"accepts_medicare": *filters.AcceptsMedicare})
	}
	if filters.AcceptsUninsured != nil {
		// Uninsured patients need self-pay support.
		preds = append(preds, goqu.Ex{"accepts_self_pay": *filters.AcceptsUninsured})
	}
	if filters.TelehealthAvailable != nil {
		preds = append(preds, goqu.Ex{"telehealth_available": *filters.TelehealthAvailable})
	}
	if filters.SSNRequired != nil {
		preds = append(preds, goqu.Ex{"ssn_required": *filters.SSNRequired})
	}
	if filters.FreeOnly != nil && *filters.FreeOnly {
		preds = append(preds, goqu.L(
			"EXISTS (SELECT 1 FROM provider_services s WHERE s.provider_id = providers.id AND s.is_free)",
		))
	}
	if len(filters.ServiceTerms) > 0 {
		var termPreds []goqu.Expression
		for _, term := range filters.ServiceTerms {
			pattern := "%" + term + "%"
			termPreds = append(termPreds,
				goqu.I("category").ILike(pattern),
				goqu.L(
					"EXISTS (SELECT 1 FROM provider_services s WHERE s.provider_id = providers.id AND (s.name ILIKE ? OR s.category ILIKE ?))",
					pattern, pattern,
				),
			)
		}
		preds = append(preds, goqu.Or(termPreds...))
	}
	if len(filters.InsuranceProviders) > 0 {
		preds = append(preds, goqu.L("insurance_carriers && ?", pq.Array(filters.InsuranceProviders)))
	}
	if filters.City != "" {
		preds = append(preds, goqu.I("city").ILike(filters.City))
	}
	if filters.State != "" {
		preds = append(preds, goqu.I("state").ILike(filters.State))
	}

	return preds
}

// Query returns providers matching the set filter fields, capped at limit.
// Distance and price bounds are applied downstream by the ranking engine.
func (a *ProviderAdapter) Query(ctx context.Context, filters entities.SearchFilters, limit int) ([]*entities.Provider, error) {
	ds := a.db.From("providers").
		Select(goqu.L(providerColumns)).
		Where(buildPredicates(filters)...).
		Order(goqu.I("rating").Desc())
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build provider query", err)
	}

	return a.queryProviders(ctx, query, args)
}

// List returns active providers without filter predicates, capped at limit
func (a *ProviderAdapter) List(ctx context.Context, limit int) ([]*entities.Provider, error) {
	return a.Query(ctx, entities.SearchFilters{}, limit)
}

// GetByID retrieves a provider by ID with its services attached
func (a *ProviderAdapter) GetByID(ctx context.Context, id string) (*entities.Provider, error) {
	providersList, err := a.GetByIDs(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	if len(providersList) == 0 {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("provider with id %s not found", id))
	}
	return providersList[0], nil
}

// GetByIDs retrieves multiple providers by their IDs with services attached
func (a *ProviderAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Provider, error) {
	if len(ids) == 0 {
		return []*entities.Provider{}, nil
	}

	query, args, err := a.db.From("providers").
		Select(goqu.L(providerColumns)).
		Where(goqu.Ex{"id": ids, "is_active": true}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build provider query", err)
	}

	return a.queryProviders(ctx, query, args)
}

func (a *ProviderAdapter) queryProviders(ctx context.Context, query string, args []interface{}) ([]*entities.Provider, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewUnavailableError("provider catalog query failed", err)
	}
	defer rows.Close()

	providersList := []*entities.Provider{}
	for rows.Next() {
		provider, err := scanProvider(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan provider", err)
		}
		providersList = append(providersList, provider)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating providers", err)
	}

	if err := a.attachServices(ctx, providersList); err != nil {
		return nil, err
	}

	return providersList, nil
}

func scanProvider(rows *sql.Rows) (*entities.Provider, error) {
	provider := &entities.Provider{}
	var latitude, longitude sql.NullFloat64
	var description sql.NullString

	err := rows.Scan(
		&provider.ID,
		&provider.Name,
		&provider.Category,
		&provider.Address.Street,
		&provider.Address.City,
		&provider.Address.State,
		&provider.Address.ZipCode,
		&provider.Address.Country,
		&latitude,
		&longitude,
		&provider.PhoneNumber,
		&provider.Email,
		&provider.Website,
		&description,
		&provider.Insurance.AcceptsMedicaid,
		&provider.Insurance.AcceptsMedicare,
		&provider.Insurance.AcceptsSelfPay,
		&provider.Insurance.OffersPaymentPlans,
		pq.Array(&provider.Insurance.Carriers),
		&provider.Telehealth.Available,
		&provider.Telehealth.AudioOnly,
		&provider.SSNRequired,
		&provider.Rating,
		&provider.ReviewCount,
		&provider.IsActive,
		&provider.CreatedAt,
		&provider.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	provider.Description = description.String
	if latitude.Valid && longitude.Valid {
		provider.Location = &entities.Coordinates{
			Latitude:  latitude.Float64,
			Longitude: longitude.Float64,
		}
	}

	return provider, nil
}

func (a *ProviderAdapter) attachServices(ctx context.Context, providersList []*entities.Provider) error {
	if len(providersList) == 0 {
		return nil
	}

	ids := make([]string, len(providersList))
	byID := make(map[string]*entities.Provider, len(providersList))
	for i, p := range providersList {
		ids[i] = p.ID
		byID[p.ID] = p
	}

	query, args, err := a.db.From("provider_services").
		Select("id", "provider_id", "name", "category",
			"price_flat", "price_min", "price_max", "is_free", "is_discounted").
		Where(goqu.Ex{"provider_id": ids}).
		Order(goqu.I("name").Asc()).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build services query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewUnavailableError("provider services query failed", err)
	}
	defer rows.Close()

	for rows.Next() {
		service := entities.Service{}
		var flat, min, max sql.NullFloat64

		err := rows.Scan(
			&service.ID,
			&service.ProviderID,
			&service.Name,
			&service.Category,
			&flat,
			&min,
			&max,
			&service.IsFree,
			&service.IsDiscounted,
		)
		if err != nil {
			return apperrors.NewInternalError("failed to scan service", err)
		}

		service.Price = buildServicePrice(flat, min, max)

		if provider, ok := byID[service.ProviderID]; ok {
			provider.Services = append(provider.Services, service)
		}
	}

	return rows.Err()
}

func buildServicePrice(flat, min, max sql.NullFloat64) *entities.ServicePrice {
	if flat.Valid {
		return &entities.ServicePrice{Flat: &flat.Float64}
	}
	if min.Valid || max.Valid {
		price := &entities.ServicePrice{}
		if min.Valid {
			price.Min = &min.Float64
		}
		if max.Valid {
			price.Max = &max.Float64
		}
		return price
	}
	return nil
}
