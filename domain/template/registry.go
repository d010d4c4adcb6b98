package template

import (
	"sort"

	"studio/domain/insight"
)

// Config is one named profile of hints that nudges heuristic selections
// toward a known domain. "general" is the no-bias default.
type Config struct {
	ID                  string        `json:"id"`
	PrimaryMeasureHints []string      `json:"primary_measure_hints,omitempty"`
	TimeFieldHints      []string      `json:"time_field_hints,omitempty"`
	DefaultTimeGrain    insight.Grain `json:"default_time_grain,omitempty"`
	DimensionPriority   []string      `json:"dimension_priority,omitempty"`
	DetailsColumns      []string      `json:"details_columns,omitempty"`
}

// GeneralID is the no-bias template
const GeneralID = "general"

// IsGeneral reports whether the config applies no bias
func (c Config) IsGeneral() bool {
	return c.ID == "" || c.ID == GeneralID
}

// Registry is an immutable id → config lookup passed by value into the
// pipeline, never consulted through package-level mutable state.
type Registry struct {
	configs map[string]Config
}

// Builtin returns the registry of built-in templates
func Builtin() Registry {
	configs := map[string]Config{
		GeneralID: {ID: GeneralID},
		"govcon": {
			ID:                  "govcon",
			PrimaryMeasureHints: []string{"award_amount", "obligated", "amount", "value"},
			TimeFieldHints:      []string{"award_date", "action_date", "date", "posted"},
			DefaultTimeGrain:    insight.GrainMonth,
			DimensionPriority:   []string{"agency", "naics", "state", "vendor"},
			DetailsColumns:      []string{"id", "title", "date", "agency", "naics", "code", "state"},
		},
		"ecommerce": {
			ID:                  "ecommerce",
			PrimaryMeasureHints: []string{"revenue", "sales", "amount", "total", "price"},
			TimeFieldHints:      []string{"order_date", "date", "created"},
			DefaultTimeGrain:    insight.GrainDay,
			DimensionPriority:   []string{"category", "product", "region", "channel"},
		},
		"saas": {
			ID:                  "saas",
			PrimaryMeasureHints: []string{"mrr", "arr", "revenue", "amount"},
			TimeFieldHints:      []string{"month", "date", "signup_date"},
			DefaultTimeGrain:    insight.GrainMonth,
			DimensionPriority:   []string{"plan", "segment", "region", "channel"},
		},
	}
	return Registry{configs: configs}
}

// Lookup returns the config for an id, falling back to general for empty
// or unknown ids.
func (r Registry) Lookup(id string) Config {
	if id == "" {
		return r.configs[GeneralID]
	}
	if cfg, ok := r.configs[id]; ok {
		return cfg
	}
	return r.configs[GeneralID]
}

// Has reports whether an id names a registered template
func (r Registry) Has(id string) bool {
	_, ok := r.configs[id]
	return ok
}

// IDs returns the registered template ids, sorted
func (r Registry) IDs() []string {
	ids := make([]string, 0, len(r.configs))
	for id := range r.configs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
