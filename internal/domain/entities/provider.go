package entities

import "time"

// Provider represents a healthcare provider in the catalog
type Provider struct {
	ID          string         `json:"id" db:"id"`
	Name        string         `json:"name" db:"name"`
	Category    string         `json:"category" db:"category"`
	Address     Address        `json:"address" db:"-"`
	Location    *Coordinates   `json:"location,omitempty" db:"-"`
	PhoneNumber string         `json:"phone_number" db:"phone_number"`
	Email       string         `json:"email" db:"email"`
	Website     string         `json:"website" db:"website"`
	Description string         `json:"description" db:"description"`
	Services    []Service      `json:"services" db:"-"`
	Insurance   InsuranceInfo  `json:"insurance" db:"-"`
	Telehealth  TelehealthInfo `json:"telehealth" db:"-"`
	SSNRequired bool           `json:"ssn_required" db:"ssn_required"`
	Rating      float64        `json:"rating" db:"rating"`
	ReviewCount int            `json:"review_count" db:"review_count"`
	IsActive    bool           `json:"is_active" db:"is_active"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`

	// Derived per-search fields. Never persisted; recomputed on every search.
	DistanceMiles        *float64 `json:"distance_miles,omitempty" db:"-"`
	MinServicePrice      *float64 `json:"min_service_price,omitempty" db:"-"`
	HasFreeServices      bool     `json:"has_free_services" db:"-"`
	MatchingServiceCount int      `json:"matching_service_count" db:"-"`
	RankScore            float64  `json:"rank_score" db:"-"`
}

// Service represents a service offered by exactly one provider
type Service struct {
	ID           string        `json:"id" db:"id"`
	ProviderID   string        `json:"provider_id" db:"provider_id"`
	Name         string        `json:"name" db:"name"`
	Category     string        `json:"category" db:"category"`
	Price        *ServicePrice `json:"price,omitempty" db:"-"`
	IsFree       bool          `json:"is_free" db:"is_free"`
	IsDiscounted bool          `json:"is_discounted" db:"is_discounted"`

	// Embedding is consumed during retrieval only and must be stripped
	// before any result leaves the engine boundary.
	Embedding []float32 `json:"embedding,omitempty" db:"-"`
}

// ServicePrice describes the cost of a service as either a flat amount or a
// min/max range. At most one representation is populated.
type ServicePrice struct {
	Flat *float64 `json:"flat,omitempty"`
	Min  *float64 `json:"min,omitempty"`
	Max  *float64 `json:"max,omitempty"`
}

// Floor returns the lowest comparable price: the range minimum when present,
// otherwise the flat amount. Nil when the service carries no price at all.
func (p *ServicePrice) Floor() *float64 {
	if p == nil {
		return nil
	}
	if p.Min != nil {
		return p.Min
	}
	return p.Flat
}

// InsuranceInfo holds a provider's insurance capability flags
type InsuranceInfo struct {
	AcceptsMedicaid    bool     `json:"accepts_medicaid" db:"accepts_medicaid"`
	AcceptsMedicare    bool     `json:"accepts_medicare" db:"accepts_medicare"`
	AcceptsSelfPay     bool     `json:"accepts_self_pay" db:"accepts_self_pay"`
	OffersPaymentPlans bool     `json:"offers_payment_plans" db:"offers_payment_plans"`
	Carriers           []string `json:"carriers" db:"-"`
}

// TelehealthInfo holds a provider's telehealth capability flags
type TelehealthInfo struct {
	Available bool `json:"available" db:"telehealth_available"`
	AudioOnly bool `json:"audio_only" db:"telehealth_audio_only"`
}

// Address represents a physical address
type Address struct {
	Street  string `json:"street" db:"street"`
	City    string `json:"city" db:"city"`
	State   string `json:"state" db:"state"`
	ZipCode string `json:"zip_code" db:"zip_code"`
	Country string `json:"country" db:"country"`
}

// Coordinates represents geographical coordinates
type Coordinates struct {
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
}
