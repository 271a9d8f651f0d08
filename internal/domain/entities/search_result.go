package entities

// SearchRequest is the structured input to the discovery engine
type SearchRequest struct {
	Utterance        string                   `json:"utterance"`
	PriorState       *ConversationFilterState `json:"prior_state,omitempty"`
	Coordinates      *Coordinates             `json:"coordinates,omitempty"`
	ContextProviders []*Provider              `json:"context_providers,omitempty"`
	MaxDistanceMiles *float64                 `json:"max_distance_miles,omitempty"`
	MaxPrice         *float64                 `json:"max_price,omitempty"`
	Limit            int                      `json:"limit,omitempty"`
}

// SearchDebug carries diagnostic counters for a single search
type SearchDebug struct {
	CandidateCount  int      `json:"candidate_count"`
	RankedCount     int      `json:"ranked_count"`
	SemanticApplied bool     `json:"semantic_applied"`
	LocationApplied bool     `json:"location_applied"`
	FiltersApplied  []string `json:"filters_applied"`
	ElapsedMS       float64  `json:"elapsed_ms"`
}

// SearchResponse is the structured output of the discovery engine. Providers
// are sanitized: no service carries an embedding vector.
type SearchResponse struct {
	Providers []*Provider              `json:"providers"`
	NewState  *ConversationFilterState `json:"new_state"`
	Debug     SearchDebug              `json:"debug"`
}

// ResolveRequest grounds a free-text provider name against known providers
type ResolveRequest struct {
	NameQuery        string       `json:"name_query"`
	ContextProviders []*Provider  `json:"context_providers,omitempty"`
	Coordinates      *Coordinates `json:"coordinates,omitempty"`
	TopK             int          `json:"top_k,omitempty"`
}
