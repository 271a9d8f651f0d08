package entities

import "strings"

// ConversationFilterState accumulates everything understood about user intent
// across conversation turns. A nil pointer field means "not yet established",
// which is distinct from an explicit false.
type ConversationFilterState struct {
	ServiceTerms        []string `json:"service_terms,omitempty"`
	FreeOnly            *bool    `json:"free_only,omitempty"`
	AcceptsMedicaid     *bool    `json:"accepts_medicaid,omitempty"`
	AcceptsMedicare     *bool    `json:"accepts_medicare,omitempty"`
	AcceptsUninsured    *bool    `json:"accepts_uninsured,omitempty"`
	TelehealthAvailable *bool    `json:"telehealth_available,omitempty"`
	SSNRequired         *bool    `json:"ssn_required,omitempty"`
	InsuranceProviders  []string `json:"insurance_providers,omitempty"`
	LocationText        string   `json:"location_text,omitempty"`
}

// Clone returns a deep copy of the state
func (s *ConversationFilterState) Clone() *ConversationFilterState {
	if s == nil {
		return &ConversationFilterState{}
	}
	clone := &ConversationFilterState{
		LocationText: s.LocationText,
	}
	if s.ServiceTerms != nil {
		clone.ServiceTerms = append([]string{}, s.ServiceTerms...)
	}
	if s.InsuranceProviders != nil {
		clone.InsuranceProviders = append([]string{}, s.InsuranceProviders...)
	}
	clone.FreeOnly = cloneBool(s.FreeOnly)
	clone.AcceptsMedicaid = cloneBool(s.AcceptsMedicaid)
	clone.AcceptsMedicare = cloneBool(s.AcceptsMedicare)
	clone.AcceptsUninsured = cloneBool(s.AcceptsUninsured)
	clone.TelehealthAvailable = cloneBool(s.TelehealthAvailable)
	clone.SSNRequired = cloneBool(s.SSNRequired)
	return clone
}

func cloneBool(v *bool) *bool {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// BoolSignal is an explicitly extracted boolean value for a single filter
// field. Retract clears the accumulated value back to "not established".
type BoolSignal struct {
	Value   bool `json:"value"`
	Retract bool `json:"retract,omitempty"`
}

// SetSignal returns a BoolSignal carrying an explicit value
func SetSignal(v bool) *BoolSignal {
	return &BoolSignal{Value: v}
}

// RetractSignal returns a BoolSignal that clears the field
func RetractSignal() *BoolSignal {
	return &BoolSignal{Retract: true}
}

// ExtractedSignals is what the language-understanding collaborator produced
// from a single utterance. A nil field means the utterance said nothing about
// it. The extractor emits at most one value per field per turn; conflicting
// statements within a turn resolve to the last explicit one.
type ExtractedSignals struct {
	ServiceTerms        []string    `json:"service_terms,omitempty"`
	ResetServiceTerms   bool        `json:"reset_service_terms,omitempty"`
	InsuranceProviders  []string    `json:"insurance_providers,omitempty"`
	ResetInsurance      bool        `json:"reset_insurance,omitempty"`
	LocationText        *string     `json:"location_text,omitempty"`
	FreeOnly            *BoolSignal `json:"free_only,omitempty"`
	AcceptsMedicaid     *BoolSignal `json:"accepts_medicaid,omitempty"`
	AcceptsMedicare     *BoolSignal `json:"accepts_medicare,omitempty"`
	AcceptsUninsured    *BoolSignal `json:"accepts_uninsured,omitempty"`
	TelehealthAvailable *BoolSignal `json:"telehealth_available,omitempty"`
	SSNRequired         *BoolSignal `json:"ssn_required,omitempty"`

	// ProviderNameReference is set when the utterance refers to a previously
	// shown provider by name ("what about Main Street Clinic").
	ProviderNameReference string `json:"provider_name_reference,omitempty"`
}

// IsEmpty reports whether the signals carry no information at all
func (s *ExtractedSignals) IsEmpty() bool {
	if s == nil {
		return true
	}
	return len(s.ServiceTerms) == 0 && !s.ResetServiceTerms &&
		len(s.InsuranceProviders) == 0 && !s.ResetInsurance &&
		s.LocationText == nil && s.FreeOnly == nil &&
		s.AcceptsMedicaid == nil && s.AcceptsMedicare == nil &&
		s.AcceptsUninsured == nil && s.TelehealthAvailable == nil &&
		s.SSNRequired == nil && s.ProviderNameReference == ""
}

// SearchFilters is the normalized, query-ready projection of a
// ConversationFilterState plus numeric bounds and a geographic origin.
// Constructed fresh per retrieval call and never mutated afterwards.
type SearchFilters struct {
	ServiceTerms        []string
	FreeOnly            *bool
	AcceptsMedicaid     *bool
	AcceptsMedicare     *bool
	AcceptsUninsured    *bool
	TelehealthAvailable *bool
	SSNRequired         *bool
	InsuranceProviders  []string
	City                string
	State               string
	MaxDistanceMiles    *float64
	MaxPrice            *float64
	Origin              *Coordinates
}

// SemanticQuery returns the joined service terms used for semantic retrieval,
// or "" when the filters carry no semantic signal.
func (f SearchFilters) SemanticQuery() string {
	if len(f.ServiceTerms) == 0 {
		return ""
	}
	return strings.Join(f.ServiceTerms, " ")
}

// Active lists the filter fields that are set, for debug output
func (f SearchFilters) Active() []string {
	var active []string
	if len(f.ServiceTerms) > 0 {
		active = append(active, "service_terms")
	}
	if f.FreeOnly != nil {
		active = append(active, "free_only")
	}
	if f.AcceptsMedicaid != nil {
		active = append(active, "accepts_medicaid")
	}
	if f.AcceptsMedicare != nil {
		active = append(active, "accepts_medicare")
	}
	if f.AcceptsUninsured != nil {
		active = append(active, "accepts_uninsured")
	}
	if f.TelehealthAvailable != nil {
		active = append(active, "telehealth_available")
	}
	if f.SSNRequired != nil {
		active = append(active, "ssn_required")
	}
	if len(f.InsuranceProviders) > 0 {
		active = append(active, "insurance_providers")
	}
	if f.City != "" {
		active = append(active, "city")
	}
	if f.State != "" {
		active = append(active, "state")
	}
	if f.MaxDistanceMiles != nil {
		active = append(active, "max_distance")
	}
	if f.MaxPrice != nil {
		active = append(active, "max_price")
	}
	return active
}
