package executor

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"studio/domain/canon"
	"studio/domain/insight"
	"studio/internal/normalize"
	"studio/internal/orchestrator"
	"studio/internal/profiling"
	"studio/internal/semantics"
)

// fixture builds a small sales dataset with one clean day per row
func fixture() []map[string]any {
	raw := make([]map[string]any, 0, 10)
	for i := 0; i < 10; i++ {
		raw = append(raw, map[string]any{
			"date":     fmt.Sprintf("2024-03-%02d", i+1),
			"sales":    float64(100 + i*7),
			"units":    float64(5 + i),
			"category": []string{"tools", "parts", "seals"}[i%3],
			"region":   []string{"north", "south"}[i%2],
		})
	}
	return raw
}

type run struct {
	ds     canon.CanonicalDataset
	graph  insight.SemanticGraph
	plan   insight.AnalysisPlan
	blocks []insight.Block
}

func execute(t *testing.T, raw []map[string]any) run {
	t.Helper()
	ds := normalize.Dataset(raw, 0, nil)
	prof := profiling.ProfileDataset(&ds, profiling.Options{})
	graph := semantics.BuildGraph(&prof, &ds, semantics.Options{})
	plan := orchestrator.Plan(&prof, &graph, &ds, orchestrator.Options{})
	blocks := ExecutePlan(&ds, &graph, &plan, Options{})
	return run{ds: ds, graph: graph, plan: plan, blocks: blocks}
}

func blockOfType(blocks []insight.Block, t insight.BlockType) (insight.Block, bool) {
	for _, b := range blocks {
		if b.Type == t {
			return b, true
		}
	}
	return insight.Block{}, false
}

// TestExecutePlanDeterminism tests that two executions of the same plan
// over the same dataset produce identical results
func TestExecutePlanDeterminism(t *testing.T) {
	raw := fixture()
	ds := normalize.Dataset(raw, 0, nil)
	prof := profiling.ProfileDataset(&ds, profiling.Options{})
	graph := semantics.BuildGraph(&prof, &ds, semantics.Options{})
	plan := orchestrator.Plan(&prof, &graph, &ds, orchestrator.Options{})

	first := ExecutePlan(&ds, &graph, &plan, Options{})
	second := ExecutePlan(&ds, &graph, &plan, Options{})

	if !reflect.DeepEqual(first, second) {
		t.Error("Repeated execution produced different blocks")
	}
}

// TestPrimaryMeasureFlowsThrough tests that the selected primary measure
// reaches the KPI payload
func TestPrimaryMeasureFlowsThrough(t *testing.T) {
	r := execute(t, fixture())

	if r.plan.Selections.PrimaryMeasure != "sales" {
		t.Fatalf("PrimaryMeasure = %q, expected sales", r.plan.Selections.PrimaryMeasure)
	}
	kpi, ok := blockOfType(r.blocks, insight.BlockKPI)
	if !ok {
		t.Fatal("KPI block missing")
	}
	payload := kpi.Payload.(insight.KPIPayload)
	if payload.PrimaryMeasure != "sales" {
		t.Errorf("KPI payload measure = %q, expected sales", payload.PrimaryMeasure)
	}
}

// TestKPIExactPeriodChange tests that the headline change is the exact
// difference of the two latest period sums
func TestKPIExactPeriodChange(t *testing.T) {
	r := execute(t, fixture())

	kpi, ok := blockOfType(r.blocks, insight.BlockKPI)
	if !ok {
		t.Fatal("KPI block missing")
	}
	if kpi.Status != insight.StatusOK {
		t.Fatalf("KPI status = %s, expected OK", kpi.Status)
	}
	exec := kpi.Payload.(insight.KPIPayload).ExecutiveKPIs
	if exec == nil {
		t.Fatal("ExecutiveKPIs missing")
	}

	// Day grain, one row per day: latest is 2024-03-10 with 163, the
	// previous day holds 156.
	if exec.Latest.PeriodKey != "2024-03-10" || exec.Latest.Value != 163 {
		t.Errorf("Latest = %+v, expected 2024-03-10 / 163", exec.Latest)
	}
	if exec.Previous.Value != 156 {
		t.Errorf("Previous value = %v, expected 156", exec.Previous.Value)
	}
	if want := exec.Latest.Value - exec.Previous.Value; exec.Change.Abs != want {
		t.Errorf("Change.Abs = %v, expected exactly %v", exec.Change.Abs, want)
	}
}

// TestTrendSeriesOrdered tests ascending period keys and per-bucket sums
func TestTrendSeriesOrdered(t *testing.T) {
	r := execute(t, fixture())

	trend, ok := blockOfType(r.blocks, insight.BlockTrend)
	if !ok {
		t.Fatal("Trend block missing")
	}
	if trend.Status != insight.StatusOK {
		t.Fatalf("Trend status = %s, expected OK", trend.Status)
	}
	payload := trend.Payload.(insight.TrendPayload)

	if len(payload.Series) != 10 {
		t.Fatalf("Series has %d points, expected 10", len(payload.Series))
	}
	for i := 1; i < len(payload.Series); i++ {
		if payload.Series[i-1].PeriodKey >= payload.Series[i].PeriodKey {
			t.Errorf("Series not ascending at index %d: %s then %s",
				i, payload.Series[i-1].PeriodKey, payload.Series[i].PeriodKey)
		}
	}
	if payload.Series[0].Value != 100 {
		t.Errorf("First bucket value = %v, expected 100", payload.Series[0].Value)
	}
	if payload.Slope <= 0 {
		t.Errorf("Slope = %v, expected positive for a rising series", payload.Slope)
	}
}

// TestDriverScoresNonIncreasing tests the driver ranking order
func TestDriverScoresNonIncreasing(t *testing.T) {
	r := execute(t, fixture())

	driver, ok := blockOfType(r.blocks, insight.BlockDriver)
	if !ok {
		t.Fatal("Driver block missing")
	}
	payload := driver.Payload.(insight.DriverPayload)
	if len(payload.TopDrivers) == 0 {
		t.Fatal("No drivers computed")
	}

	for i := 1; i < len(payload.TopDrivers); i++ {
		prev, cur := payload.TopDrivers[i-1], payload.TopDrivers[i]
		if prev.Score < cur.Score {
			t.Errorf("Scores not non-increasing at index %d: %v then %v", i, prev.Score, cur.Score)
		}
		if prev.Score == cur.Score {
			if prev.Dimension > cur.Dimension ||
				(prev.Dimension == cur.Dimension && prev.Group > cur.Group) {
				t.Errorf("Tie at index %d not ordered by dimension then group", i)
			}
		}
	}
}

// TestBreakdownFallsBackToTopN tests that a breakdown over too many
// categories becomes a TopN block with a marked payload
func TestBreakdownFallsBackToTopN(t *testing.T) {
	raw := make([]map[string]any, 0, 18)
	for i := 0; i < 18; i++ {
		raw = append(raw, map[string]any{
			"kind":   fmt.Sprintf("k%02d", i%9),
			"amount": float64(10 + i),
		})
	}
	ds := normalize.Dataset(raw, 0, nil)
	graph := insight.SemanticGraph{}
	plan := insight.AnalysisPlan{Blocks: []insight.BlockSpec{{
		ID:         "breakdown",
		Type:       insight.BlockBreakdown,
		Measure:    "amount",
		Dimensions: []string{"kind"},
	}}}

	blocks := ExecutePlan(&ds, &graph, &plan, Options{})
	if len(blocks) != 1 {
		t.Fatalf("Expected 1 block, got %d", len(blocks))
	}

	b := blocks[0]
	if b.Type != insight.BlockTopN {
		t.Fatalf("Block type = %s, expected fallback to %s", b.Type, insight.BlockTopN)
	}
	if !strings.HasSuffix(b.ID, FallbackIDSuffix) {
		t.Errorf("Block ID = %q, expected suffix %q", b.ID, FallbackIDSuffix)
	}
	payload := b.Payload.(insight.TopNPayload)
	if payload.FallbackFrom != insight.BlockBreakdown {
		t.Errorf("FallbackFrom = %s, expected %s", payload.FallbackFrom, insight.BlockBreakdown)
	}
}

// TestBreakdownStaysExhaustive tests that few categories keep the
// exhaustive breakdown shape
func TestBreakdownStaysExhaustive(t *testing.T) {
	r := execute(t, fixture())

	breakdown, ok := blockOfType(r.blocks, insight.BlockBreakdown)
	if !ok {
		t.Fatal("Breakdown block missing")
	}
	payload := breakdown.Payload.(insight.BreakdownPayload)
	if len(payload.Categories) != 3 {
		t.Errorf("Categories = %d, expected all 3", len(payload.Categories))
	}
}

// TestGeoPointsDropInvalid tests that out-of-range coordinates are
// dropped rather than clamped
func TestGeoPointsDropInvalid(t *testing.T) {
	raw := []map[string]any{
		{"lat": 42.35, "lon": -71.06, "sales": 10.0},
		{"lat": 95.0, "lon": -71.06, "sales": 99.0},
		{"lat": 40.71, "lon": -200.0, "sales": 99.0},
		{"lat": 40.71, "lon": -74.00, "sales": 20.0},
	}
	ds := normalize.Dataset(raw, 0, nil)
	graph := insight.SemanticGraph{}
	plan := insight.AnalysisPlan{Blocks: []insight.BlockSpec{{
		ID:   "geo",
		Type: insight.BlockGeo,
		Geo: &insight.GeoConfig{
			Mode:         insight.GeoModePoints,
			LatColumn:    "lat",
			LonColumn:    "lon",
			WeightColumn: "sales",
		},
	}}}

	blocks := ExecutePlan(&ds, &graph, &plan, Options{})
	payload := blocks[0].Payload.(insight.GeoPayload)

	if len(payload.Points) != 2 {
		t.Fatalf("Points = %d, expected 2 valid coordinates", len(payload.Points))
	}
	for _, p := range payload.Points {
		if p.Lat < -90 || p.Lat > 90 || p.Lon < -180 || p.Lon > 180 {
			t.Errorf("Invalid point survived: %+v", p)
		}
	}
}

// TestRegionRanking tests value-descending region order for the geo
// block planned off the region column
func TestRegionRanking(t *testing.T) {
	r := execute(t, fixture())

	geo, ok := blockOfType(r.blocks, insight.BlockGeo)
	if !ok {
		t.Fatal("Geo block missing")
	}
	payload := geo.Payload.(insight.GeoPayload)
	if payload.Mode != insight.GeoModeRegion {
		t.Fatalf("Geo mode = %s, expected region", payload.Mode)
	}
	if len(payload.Regions) != 2 {
		t.Fatalf("Regions = %d, expected 2", len(payload.Regions))
	}
	// Odd rows land in south and carry the larger sales values.
	if payload.Regions[0].Region != "south" || payload.Regions[0].Value != 675 {
		t.Errorf("Top region = %+v, expected south / 675", payload.Regions[0])
	}
	if payload.Regions[1].Value != 640 {
		t.Errorf("Second region value = %v, expected 640", payload.Regions[1].Value)
	}
}

// TestEmptyDataset tests graceful degradation without panics
func TestEmptyDataset(t *testing.T) {
	r := execute(t, nil)

	kpi, ok := blockOfType(r.blocks, insight.BlockKPI)
	if !ok {
		t.Fatal("KPI block missing")
	}
	if kpi.Status != insight.StatusInsufficientData {
		t.Errorf("KPI status = %s, expected INSUFFICIENT_DATA", kpi.Status)
	}
	if kpi.Confidence != InsufficientDataConfidence {
		t.Errorf("KPI confidence = %v, expected %v", kpi.Confidence, InsufficientDataConfidence)
	}
}

// TestSampleBadge tests that every block carries the sample-size badge
func TestSampleBadge(t *testing.T) {
	r := execute(t, fixture())

	for _, b := range r.blocks {
		found := false
		for _, badge := range b.Badges {
			if badge.Label == "sample" {
				found = true
				if badge.Value != fmt.Sprintf("%d rows", b.SampleSize) {
					t.Errorf("Block %s sample badge = %q, expected %d rows", b.ID, badge.Value, b.SampleSize)
				}
			}
		}
		if !found {
			t.Errorf("Block %s missing sample badge", b.ID)
		}
	}
}

// TestComputeWindowCap tests that execution is bounded by MaxComputeRows
func TestComputeWindowCap(t *testing.T) {
	raw := make([]map[string]any, 0, 30)
	for i := 0; i < 30; i++ {
		raw = append(raw, map[string]any{"amount": float64(i), "kind": "a"})
	}
	ds := normalize.Dataset(raw, 0, nil)
	graph := insight.SemanticGraph{}
	plan := insight.AnalysisPlan{Blocks: []insight.BlockSpec{{
		ID:         "topn",
		Type:       insight.BlockTopN,
		Measure:    "amount",
		Dimensions: []string{"kind"},
		TopN:       5,
	}}}

	blocks := ExecutePlan(&ds, &graph, &plan, Options{MaxComputeRows: 10})
	if blocks[0].SampleSize != 10 {
		t.Errorf("SampleSize = %d, expected the 10-row compute window", blocks[0].SampleSize)
	}
}
