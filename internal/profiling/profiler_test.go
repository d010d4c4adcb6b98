package profiling

import (
	"reflect"
	"testing"

	"studio/domain/canon"
	"studio/domain/profile"
	"studio/internal/normalize"
)

func datasetFrom(t *testing.T, raw []map[string]any) *canon.CanonicalDataset {
	t.Helper()
	ds := normalize.Dataset(raw, 0, nil)
	return &ds
}

// TestRolePrecedence tests the deterministic role precedence over a mixed
// dataset: time > geo > id > measure > text > dimension
func TestRolePrecedence(t *testing.T) {
	raw := []map[string]any{
		{"order_date": "2024-01-01", "state": "CA", "order_id": "a-1", "amount": 10.0, "category": "tools", "description": "a long free-text description of the first order line"},
		{"order_date": "2024-01-02", "state": "TX", "order_id": "a-2", "amount": 20.0, "category": "parts", "description": "another long free-text description of an order line item"},
		{"order_date": "2024-01-03", "state": "NY", "order_id": "a-3", "amount": 15.0, "category": "tools", "description": "a third long free-text description with plenty of characters"},
	}
	ds := datasetFrom(t, raw)
	prof := ProfileDataset(ds, Options{})

	expected := map[string]profile.Role{
		"order_date":  profile.RoleTime,
		"state":       profile.RoleGeo,
		"order_id":    profile.RoleID,
		"amount":      profile.RoleMeasure,
		"category":    profile.RoleDimension,
		"description": profile.RoleText,
	}
	for _, col := range prof.Columns {
		if expected[col.Name] != col.RoleCandidate {
			t.Errorf("Column %s assigned role %s, expected %s", col.Name, col.RoleCandidate, expected[col.Name])
		}
	}
}

// TestYearLikeColumnIsTimeNotMeasure tests that a numeric year column is
// reported as time and never as measure
func TestYearLikeColumnIsTimeNotMeasure(t *testing.T) {
	raw := []map[string]any{
		{"fiscal_year": 2019, "obligated": 100.0},
		{"fiscal_year": 2020, "obligated": 250.0},
		{"fiscal_year": 2021, "obligated": 175.0},
		{"fiscal_year": 2022, "obligated": 300.0},
	}
	ds := datasetFrom(t, raw)
	prof := ProfileDataset(ds, Options{})

	year, ok := prof.ColumnByName("fiscal_year")
	if !ok {
		t.Fatal("fiscal_year column missing from profile")
	}
	if year.RoleCandidate != profile.RoleTime {
		t.Errorf("fiscal_year assigned role %s, expected time", year.RoleCandidate)
	}
	if year.RoleCandidate == profile.RoleMeasure {
		t.Error("fiscal_year must never be reported as measure")
	}

	measure, ok := prof.ColumnByName("obligated")
	if !ok || measure.RoleCandidate != profile.RoleMeasure {
		t.Errorf("obligated expected role measure, got %s", measure.RoleCandidate)
	}
}

// TestConstantColumnNotMeasure tests that a constant numeric column is
// never a measure
func TestConstantColumnNotMeasure(t *testing.T) {
	raw := []map[string]any{
		{"version": 2.0}, {"version": 2.0}, {"version": 2.0},
	}
	ds := datasetFrom(t, raw)
	prof := ProfileDataset(ds, Options{})

	col, ok := prof.ColumnByName("version")
	if !ok {
		t.Fatal("version column missing from profile")
	}
	if col.RoleCandidate == profile.RoleMeasure {
		t.Error("Constant numeric column must not be a measure")
	}
}

// TestDuplicateRowPct tests duplicate detection over stable row keys
func TestDuplicateRowPct(t *testing.T) {
	raw := []map[string]any{
		{"a": 1, "b": "x"},
		{"a": 1, "b": "x"},
		{"a": 2, "b": "y"},
		{"a": 1, "b": "x"},
	}
	ds := datasetFrom(t, raw)

	got := DuplicateRowPct(ds.Rows, ds.SortedColumnNames())
	// Two of four rows repeat an earlier row.
	if got != 0.5 {
		t.Errorf("DuplicateRowPct = %v, expected 0.5", got)
	}
}

// TestNullPctAndMissingness tests per-column null percentages and the
// mostly-null summary
func TestNullPctAndMissingness(t *testing.T) {
	raw := []map[string]any{
		{"kept": "a", "sparse": nil},
		{"kept": "b", "sparse": nil},
		{"kept": "c", "sparse": nil},
		{"kept": "d", "sparse": "only one"},
	}
	ds := datasetFrom(t, raw)
	prof := ProfileDataset(ds, Options{})

	sparse, ok := prof.ColumnByName("sparse")
	if !ok {
		t.Fatal("sparse column missing from profile")
	}
	if sparse.NullPct != 0.75 {
		t.Errorf("sparse NullPct = %v, expected 0.75", sparse.NullPct)
	}
	found := false
	for _, name := range prof.Quality.MissingnessSummary.MostlyNullColumns {
		if name == "sparse" {
			found = true
		}
	}
	if !found {
		t.Errorf("sparse expected in MostlyNullColumns, got %v", prof.Quality.MissingnessSummary.MostlyNullColumns)
	}
}

// TestProfileDeterminism tests that two profiling runs over the same
// dataset produce identical profiles
func TestProfileDeterminism(t *testing.T) {
	raw := []map[string]any{
		{"date": "2024-01-01", "amount": "$100", "region": "West", "note": "alpha"},
		{"date": "2024-01-02", "amount": "$250", "region": "East", "note": "beta"},
		{"date": "2024-01-03", "amount": "$175", "region": "West", "note": "gamma"},
	}
	ds := datasetFrom(t, raw)

	first := ProfileDataset(ds, Options{})
	second := ProfileDataset(ds, Options{})
	if !reflect.DeepEqual(first, second) {
		t.Error("ProfileDataset is not deterministic for identical inputs")
	}
}

// TestProfileRowCap tests that profiling respects MaxProfileRows
func TestProfileRowCap(t *testing.T) {
	raw := make([]map[string]any, 10)
	for i := range raw {
		raw[i] = map[string]any{"n": i}
	}
	ds := datasetFrom(t, raw)

	prof := ProfileDataset(ds, Options{MaxProfileRows: 4})
	if prof.DatasetStats.ProfiledRowCount != 4 {
		t.Errorf("ProfiledRowCount = %d, expected 4", prof.DatasetStats.ProfiledRowCount)
	}
	if prof.DatasetStats.RowCount != 10 {
		t.Errorf("RowCount = %d, expected 10", prof.DatasetStats.RowCount)
	}
}
