package profiling

import (
	"sort"

	"studio/domain/canon"
	"studio/domain/core"
	"studio/domain/profile"
	"studio/internal/normalize"
)

// Missingness thresholds for the column lists in the summary
const (
	MostlyNullThreshold = 0.5
	NearEmptyThreshold  = 0.9
)

// Latitude/longitude validity bounds
const (
	LatMin = -90.0
	LatMax = 90.0
	LonMin = -180.0
	LonMax = 180.0
)

// DuplicateRowPct counts exact duplicate rows via a stable, key-sorted
// string serialization of each row. The executor reuses it over the
// compute window so profile and quality block agree on method.
func DuplicateRowPct(window []canon.Row, names []string) float64 {
	if len(window) == 0 {
		return 0
	}
	seen := make(map[string]bool, len(window))
	duplicates := 0
	for _, row := range window {
		fields := make(map[string]string, len(names))
		for _, name := range names {
			if val, ok := row[name]; ok {
				fields[name] = val.Key()
			}
		}
		key := core.StableRowKey(fields)
		if seen[key] {
			duplicates++
		}
		seen[key] = true
	}
	return float64(duplicates) / float64(len(window))
}

// missingness reports the overall missing-cell ratio and the name-sorted
// lists of columns crossing the mostly-null and nearly-empty thresholds.
func missingness(window []canon.Row, columns []profile.ColumnProfile) profile.MissingnessSummary {
	summary := profile.MissingnessSummary{}
	if len(window) == 0 || len(columns) == 0 {
		return summary
	}

	var missingCells float64
	for _, col := range columns {
		missingCells += col.NullPct * float64(len(window))
		if col.NullPct >= NearEmptyThreshold {
			summary.NearEmptyColumns = append(summary.NearEmptyColumns, col.Name)
		}
		if col.NullPct >= MostlyNullThreshold {
			summary.MostlyNullColumns = append(summary.MostlyNullColumns, col.Name)
		}
	}
	summary.OverallMissingPct = missingCells / float64(len(window)*len(columns))
	sort.Strings(summary.MostlyNullColumns)
	sort.Strings(summary.NearEmptyColumns)
	return summary
}

// ParseIssuesFor counts date/number parse failures and out-of-range
// coordinates for one column over the bounded window.
func ParseIssuesFor(window []canon.Row, name string, inferred canon.ColumnType) []profile.ParseIssue {
	var issues []profile.ParseIssue

	switch inferred {
	case canon.TypeDate:
		count := 0
		for _, row := range window {
			val, ok := row[name]
			if !ok || val.IsNull() || val.IsDate() {
				continue
			}
			if val.Kind == canon.KindString && normalize.LooksLikeDateString(val.AsString()) {
				continue
			}
			count++
		}
		if count > 0 {
			issues = append(issues, profile.ParseIssue{Column: name, Type: "date_parse", Count: count})
		}
	case canon.TypeNumber:
		count := 0
		for _, row := range window {
			val, ok := row[name]
			if !ok || val.IsNull() || val.IsNumber() {
				continue
			}
			count++
		}
		if count > 0 {
			issues = append(issues, profile.ParseIssue{Column: name, Type: "number_parse", Count: count})
		}
	}

	if LooksLikeLatColumnName(name) || LooksLikeLonColumnName(name) {
		lo, hi := LonMin, LonMax
		if LooksLikeLatColumnName(name) {
			lo, hi = LatMin, LatMax
		}
		count := 0
		for _, row := range window {
			val, ok := row[name]
			if !ok || !val.IsNumber() {
				continue
			}
			if n := val.AsFloat(); n < lo || n > hi {
				count++
			}
		}
		if count > 0 {
			issues = append(issues, profile.ParseIssue{Column: name, Type: "geo_range", Count: count})
		}
	}

	return issues
}

// SortIssues orders entries by (column, type) for stable output
func SortIssues(issues []profile.ParseIssue) []profile.ParseIssue {
	sort.Slice(issues, func(i, j int) bool {
		if issues[i].Column != issues[j].Column {
			return issues[i].Column < issues[j].Column
		}
		return issues[i].Type < issues[j].Type
	})
	return issues
}
