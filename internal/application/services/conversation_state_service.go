package services

import (
	"strings"

	"github.com/zatekoja/Providerdiscoveryengine/internal/domain/entities"
)

// ConversationStateService folds per-turn extracted signals into the
// accumulated filter state and projects that state into query-ready filters.
// Merging never mutates the prior state; callers always get a fresh copy.
type ConversationStateService struct{}

func NewConversationStateService() *ConversationStateService {
	return &ConversationStateService{}
}

// Merge applies one turn's signals on top of the prior state. Fields the
// signals say nothing about are preserved. Service terms and insurance
// providers union with what was already accumulated unless the turn resets
// them; boolean fields take the latest explicit value, and a retract signal
// clears the field back to "not established".
func (s *ConversationStateService) Merge(prior *entities.ConversationFilterState, signals *entities.ExtractedSignals) *entities.ConversationFilterState {
	next := prior.Clone()
	if signals.IsEmpty() {
		return next
	}

	if signals.ResetServiceTerms {
		next.ServiceTerms = nil
	}
	next.ServiceTerms = unionTerms(next.ServiceTerms, signals.ServiceTerms)

	if signals.ResetInsurance {
		next.InsuranceProviders = nil
	}
	next.InsuranceProviders = unionTerms(next.InsuranceProviders, signals.InsuranceProviders)

	if signals.LocationText != nil {
		next.LocationText = strings.TrimSpace(*signals.LocationText)
	}

	next.FreeOnly = applySignal(next.FreeOnly, signals.FreeOnly)
	next.AcceptsMedicaid = applySignal(next.AcceptsMedicaid, signals.AcceptsMedicaid)
	next.AcceptsMedicare = applySignal(next.AcceptsMedicare, signals.AcceptsMedicare)
	next.AcceptsUninsured = applySignal(next.AcceptsUninsured, signals.AcceptsUninsured)
	next.TelehealthAvailable = applySignal(next.TelehealthAvailable, signals.TelehealthAvailable)
	next.SSNRequired = applySignal(next.SSNRequired, signals.SSNRequired)

	return next
}

// BuildSearchFilters projects an accumulated state plus per-request bounds
// into the immutable filter set the retrieval layer consumes. The location
// text is treated as a city name for attribute filtering; precise geographic
// narrowing happens through Origin and MaxDistanceMiles.
func (s *ConversationStateService) BuildSearchFilters(state *entities.ConversationFilterState, req *entities.SearchRequest) entities.SearchFilters {
	filters := entities.SearchFilters{
		FreeOnly:            state.FreeOnly,
		AcceptsMedicaid:     state.AcceptsMedicaid,
		AcceptsMedicare:     state.AcceptsMedicare,
		AcceptsUninsured:    state.AcceptsUninsured,
		TelehealthAvailable: state.TelehealthAvailable,
		SSNRequired:         state.SSNRequired,
		City:                strings.TrimSpace(state.LocationText),
		MaxDistanceMiles:    req.MaxDistanceMiles,
		MaxPrice:            req.MaxPrice,
		Origin:              req.Coordinates,
	}
	if len(state.ServiceTerms) > 0 {
		filters.ServiceTerms = append([]string{}, state.ServiceTerms...)
	}
	if len(state.InsuranceProviders) > 0 {
		filters.InsuranceProviders = append([]string{}, state.InsuranceProviders...)
	}
	return filters
}

func applySignal(current *bool, signal *entities.BoolSignal) *bool {
	if signal == nil {
		return current
	}
	if signal.Retract {
		return nil
	}
	v := signal.Value
	return &v
}

// unionTerms appends new terms not already present, comparing
// case-insensitively and preserving first-seen order.
func unionTerms(existing, incoming []string) []string {
	if len(incoming) == 0 {
		return existing
	}
	seen := make(map[string]struct{}, len(existing))
	for _, t := range existing {
		seen[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}
	for _, t := range incoming {
		normalized := strings.ToLower(strings.TrimSpace(t))
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		existing = append(existing, strings.TrimSpace(t))
	}
	return existing
}
