package profile

import "studio/domain/canon"

// Role is the single semantic label assigned to a column. Assignment follows
// a fixed precedence: time > geo > id > measure > text > dimension.
type Role string

const (
	RoleTime      Role = "time"
	RoleGeo       Role = "geo"
	RoleID        Role = "id"
	RoleMeasure   Role = "measure"
	RoleText      Role = "text"
	RoleDimension Role = "dimension"
)

// DatasetProfile is the per-column and dataset-level statistical summary
// computed over a bounded row sample.
type DatasetProfile struct {
	DatasetStats DatasetStats    `json:"dataset_stats"`
	Columns      []ColumnProfile `json:"columns"`
	Flags        []string        `json:"flags,omitempty"`
	Quality      QualityReport   `json:"quality"`
}

// DatasetStats carries headline counts for the profiled window
type DatasetStats struct {
	RowCount         int `json:"row_count"`
	ColumnCount      int `json:"column_count"`
	ProfiledRowCount int `json:"profiled_row_count"`
}

// ColumnProfile summarizes one column over the profiled window
type ColumnProfile struct {
	Name          string           `json:"name"`
	InferredType  canon.ColumnType `json:"inferred_type"`
	RoleCandidate Role             `json:"role_candidate"`
	NullPct       float64          `json:"null_pct"`
	DistinctCount int              `json:"distinct_count"`
	AvgLength     float64          `json:"avg_length"`
	SampleValues  []string         `json:"sample_values,omitempty"`
}

// QualityReport aggregates dataset-level quality findings
type QualityReport struct {
	DuplicatesPct      float64            `json:"duplicates_pct"`
	MissingnessSummary MissingnessSummary `json:"missingness_summary"`
	ParseIssues        []ParseIssue       `json:"parse_issues,omitempty"`
}

// MissingnessSummary reports the overall missing-cell ratio and the columns
// crossing the mostly-null and nearly-empty thresholds, name-sorted.
type MissingnessSummary struct {
	OverallMissingPct float64  `json:"overall_missing_pct"`
	MostlyNullColumns []string `json:"mostly_null_columns,omitempty"`
	NearEmptyColumns  []string `json:"near_empty_columns,omitempty"`
}

// ParseIssue records a bounded-sample parse failure for one column
type ParseIssue struct {
	Column string `json:"column"`
	Type   string `json:"type"`
	Count  int    `json:"count"`
}

// ColumnByName returns the profile entry for a column
func (p *DatasetProfile) ColumnByName(name string) (ColumnProfile, bool) {
	for _, col := range p.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return ColumnProfile{}, false
}

// ColumnsWithRole returns profile entries carrying the given role, in
// profile (name-sorted) order.
func (p *DatasetProfile) ColumnsWithRole(role Role) []ColumnProfile {
	var out []ColumnProfile
	for _, col := range p.Columns {
		if col.RoleCandidate == role {
			out = append(out, col)
		}
	}
	return out
}
