package insight

import (
	"strings"

	"studio/domain/canon"
	"studio/domain/profile"
)

// SemanticGraph is the role map derived from a DatasetProfile plus the
// selected primary measure. Built once per analysis run; read-only afterward.
type SemanticGraph struct {
	Columns        map[string]ColumnSemantics `json:"columns"`
	PrimaryMeasure string                     `json:"primary_measure,omitempty"`
	OverridesUsed  []string                   `json:"overrides_used,omitempty"`
}

// ColumnSemantics is the per-column slice of the graph
type ColumnSemantics struct {
	RoleCandidate profile.Role     `json:"role_candidate"`
	InferredType  canon.ColumnType `json:"inferred_type"`
	NullPct       float64          `json:"null_pct"`
	DistinctCount int              `json:"distinct_count"`
}

// Role returns the role for a column, defaulting to dimension
func (g *SemanticGraph) Role(column string) profile.Role {
	if sem, ok := g.Columns[column]; ok {
		return sem.RoleCandidate
	}
	return profile.RoleDimension
}

// HasColumn reports whether the graph knows the column
func (g *SemanticGraph) HasColumn(column string) bool {
	_, ok := g.Columns[column]
	return ok
}

// ResolveColumn matches a requested name against known columns, falling back
// to a case-insensitive match. Returns the canonical name.
func (g *SemanticGraph) ResolveColumn(name string) (string, bool) {
	if g.HasColumn(name) {
		return name, true
	}
	lower := strings.ToLower(name)
	// Deterministic fallback: scan known columns in sorted order.
	var match string
	for col := range g.Columns {
		if strings.ToLower(col) == lower {
			if match == "" || col < match {
				match = col
			}
		}
	}
	if match != "" {
		return match, true
	}
	return "", false
}

// MeasureColumns returns the name-sorted measure-role columns
func (g *SemanticGraph) MeasureColumns() []string {
	return g.columnsWithRole(profile.RoleMeasure)
}

// TimeColumns returns the name-sorted time-role columns
func (g *SemanticGraph) TimeColumns() []string {
	return g.columnsWithRole(profile.RoleTime)
}

func (g *SemanticGraph) columnsWithRole(role profile.Role) []string {
	var out []string
	for name, sem := range g.Columns {
		if sem.RoleCandidate == role {
			out = append(out, name)
		}
	}
	sortStrings(out)
	return out
}
