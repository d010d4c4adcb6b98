package executor

import (
	"fmt"
	"math"
	"testing"

	"studio/domain/insight"
	"studio/internal/normalize"
)

// compareBlock normalizes raw rows and runs a single half-comparison
// spec over them
func compareBlock(t *testing.T, raw []map[string]any, spec insight.BlockSpec) insight.Block {
	t.Helper()
	ds := normalize.Dataset(raw, 0, nil)
	graph := insight.SemanticGraph{}
	plan := insight.AnalysisPlan{Blocks: []insight.BlockSpec{spec}}
	blocks := ExecutePlan(&ds, &graph, &plan, Options{})
	if len(blocks) != 1 {
		t.Fatalf("Expected 1 block, got %d", len(blocks))
	}
	return blocks[0]
}

func compareSpec(dims ...string) insight.BlockSpec {
	return insight.BlockSpec{
		ID:         "compare",
		Type:       insight.BlockComparePeriods,
		TimeColumn: "date",
		Measure:    "amount",
		Dimensions: dims,
	}
}

// TestComparePeriodsHalfTotals tests the midpoint split: row counts,
// half totals, and the resulting delta
func TestComparePeriodsHalfTotals(t *testing.T) {
	raw := []map[string]any{
		{"date": "2024-01-01", "amount": 1.0},
		{"date": "2024-01-02", "amount": 2.0},
		{"date": "2024-01-03", "amount": 3.0},
		{"date": "2024-01-04", "amount": 4.0},
	}
	b := compareBlock(t, raw, compareSpec())

	if b.Status != insight.StatusOK {
		t.Fatalf("Status = %s, expected %s", b.Status, insight.StatusOK)
	}
	payload := b.Payload.(insight.ComparePeriodsPayload)

	if payload.Midpoint != "2024-01-02" {
		t.Errorf("Midpoint = %q, expected 2024-01-02", payload.Midpoint)
	}
	if payload.FirstHalf.Rows != 2 || payload.FirstHalf.Total != 3 {
		t.Errorf("FirstHalf = %+v, expected 2 rows totaling 3", payload.FirstHalf)
	}
	if payload.SecondHalf.Rows != 2 || payload.SecondHalf.Total != 7 {
		t.Errorf("SecondHalf = %+v, expected 2 rows totaling 7", payload.SecondHalf)
	}
	if payload.FirstHalf.Start != "2024-01-01" || payload.SecondHalf.End != "2024-01-04" {
		t.Errorf("Range = %s..%s, expected 2024-01-01..2024-01-04",
			payload.FirstHalf.Start, payload.SecondHalf.End)
	}
	if payload.Delta == nil {
		t.Fatal("Delta is nil for a computable comparison")
	}
	if payload.Delta.Abs != 4 {
		t.Errorf("Delta.Abs = %v, expected 4", payload.Delta.Abs)
	}
	wantPct := (7.0 - 3.0) / 3.0 * 100
	if payload.Delta.Pct == nil || *payload.Delta.Pct != wantPct {
		t.Errorf("Delta.Pct = %v, expected %v", payload.Delta.Pct, wantPct)
	}
}

// TestComparePeriodsPctOmittedOnZeroBase tests that a zero first-half
// total keeps the absolute delta but drops the percentage
func TestComparePeriodsPctOmittedOnZeroBase(t *testing.T) {
	raw := []map[string]any{
		{"date": "2024-01-01", "amount": -5.0},
		{"date": "2024-01-02", "amount": 5.0},
		{"date": "2024-01-03", "amount": 3.0},
		{"date": "2024-01-04", "amount": 4.0},
	}
	b := compareBlock(t, raw, compareSpec())

	payload := b.Payload.(insight.ComparePeriodsPayload)
	if payload.Delta == nil || payload.Delta.Abs != 7 {
		t.Fatalf("Delta = %+v, expected Abs 7", payload.Delta)
	}
	if payload.Delta.Pct != nil {
		t.Errorf("Delta.Pct = %v, expected nil on a zero base", *payload.Delta.Pct)
	}
}

// TestComparePeriodsDimensionShiftRanking tests that group shifts rank
// by absolute movement with ties broken alphabetically
func TestComparePeriodsDimensionShiftRanking(t *testing.T) {
	kinds := []string{"a", "b", "c", "a", "b", "c", "a", "b"}
	amounts := []float64{1, 2, 3, 4, 2, 3, 10, 0}
	raw := make([]map[string]any, 0, len(kinds))
	for i := range kinds {
		raw = append(raw, map[string]any{
			"date":   fmt.Sprintf("2024-01-%02d", i+1),
			"amount": amounts[i],
			"kind":   kinds[i],
		})
	}
	b := compareBlock(t, raw, compareSpec("kind"))

	payload := b.Payload.(insight.ComparePeriodsPayload)
	if len(payload.DimensionShifts) != 1 {
		t.Fatalf("Got %d dimension shifts, expected 1", len(payload.DimensionShifts))
	}
	shift := payload.DimensionShifts[0]
	if shift.Dimension != "kind" {
		t.Errorf("Shift dimension = %q, expected kind", shift.Dimension)
	}

	wantGroups := []string{"a", "b", "c"}
	wantDeltas := []float64{5, 0, 0}
	if len(shift.Groups) != len(wantGroups) {
		t.Fatalf("Got %d groups, expected %d", len(shift.Groups), len(wantGroups))
	}
	for i, g := range shift.Groups {
		if g.Group != wantGroups[i] || g.Delta != wantDeltas[i] {
			t.Errorf("Group %d = %s/%v, expected %s/%v",
				i, g.Group, g.Delta, wantGroups[i], wantDeltas[i])
		}
	}
	for _, g := range shift.Groups {
		if g.Second-g.First != g.Delta {
			t.Errorf("Group %s delta %v disagrees with halves %v and %v",
				g.Group, g.Delta, g.First, g.Second)
		}
	}
	for i := 1; i < len(shift.Groups); i++ {
		if math.Abs(shift.Groups[i].Delta) > math.Abs(shift.Groups[i-1].Delta) {
			t.Errorf("Groups not ordered by absolute delta at index %d", i)
		}
	}
}

// TestComparePeriodsShiftGroupCap tests that a high-cardinality
// dimension truncates to the group cap
func TestComparePeriodsShiftGroupCap(t *testing.T) {
	raw := make([]map[string]any, 0, 20)
	for i := 0; i < 20; i++ {
		raw = append(raw, map[string]any{
			"date":   fmt.Sprintf("2024-01-%02d", i+1),
			"amount": float64(i + 1),
			"kind":   fmt.Sprintf("k%02d", i%10),
		})
	}
	b := compareBlock(t, raw, compareSpec("kind"))

	payload := b.Payload.(insight.ComparePeriodsPayload)
	if len(payload.DimensionShifts) != 1 {
		t.Fatalf("Got %d dimension shifts, expected 1", len(payload.DimensionShifts))
	}
	if got := len(payload.DimensionShifts[0].Groups); got != MaxShiftGroups {
		t.Errorf("Got %d shift groups, expected cap of %d", got, MaxShiftGroups)
	}
}

// TestComparePeriodsTooFewDatedRows tests degradation when the dataset
// cannot fill both halves
func TestComparePeriodsTooFewDatedRows(t *testing.T) {
	raw := []map[string]any{
		{"date": "2024-01-01", "amount": 1.0},
		{"date": "2024-01-02", "amount": 2.0},
		{"date": "2024-01-03", "amount": 3.0},
	}
	b := compareBlock(t, raw, compareSpec())

	if b.Status != insight.StatusInsufficientData {
		t.Fatalf("Status = %s, expected %s", b.Status, insight.StatusInsufficientData)
	}
	if b.Confidence != InsufficientDataConfidence {
		t.Errorf("Confidence = %v, expected %v", b.Confidence, InsufficientDataConfidence)
	}
}

// TestComparePeriodsSingleTimestamp tests degradation when every row
// shares one timestamp and no midpoint exists
func TestComparePeriodsSingleTimestamp(t *testing.T) {
	raw := make([]map[string]any, 0, 4)
	for i := 0; i < 4; i++ {
		raw = append(raw, map[string]any{"date": "2024-01-01", "amount": float64(i)})
	}
	b := compareBlock(t, raw, compareSpec())

	if b.Status != insight.StatusInsufficientData {
		t.Errorf("Status = %s, expected %s", b.Status, insight.StatusInsufficientData)
	}
}

// TestComparePeriodsLopsidedHalves tests degradation when the midpoint
// split leaves one half under the row minimum
func TestComparePeriodsLopsidedHalves(t *testing.T) {
	raw := []map[string]any{
		{"date": "2024-01-01", "amount": 1.0},
		{"date": "2024-01-01", "amount": 2.0},
		{"date": "2024-01-01", "amount": 3.0},
		{"date": "2024-01-10", "amount": 4.0},
	}
	b := compareBlock(t, raw, compareSpec())

	if b.Status != insight.StatusInsufficientData {
		t.Errorf("Status = %s, expected %s", b.Status, insight.StatusInsufficientData)
	}
}

// TestComparePeriodsNeedsTimeAndMeasure tests the not-applicable path
// when the spec carries no time column
func TestComparePeriodsNeedsTimeAndMeasure(t *testing.T) {
	raw := []map[string]any{
		{"amount": 1.0},
		{"amount": 2.0},
	}
	spec := compareSpec()
	spec.TimeColumn = ""
	b := compareBlock(t, raw, spec)

	if b.Status != insight.StatusNotApplicable {
		t.Fatalf("Status = %s, expected %s", b.Status, insight.StatusNotApplicable)
	}
	if b.Confidence != 0 {
		t.Errorf("Confidence = %v, expected 0", b.Confidence)
	}
}
