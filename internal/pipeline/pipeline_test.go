package pipeline

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studio/domain/insight"
	"studio/internal/errors"
	"studio/internal/normalize"
)

func fixtureRows() []map[string]any {
	raw := make([]map[string]any, 0, 12)
	for i := 0; i < 12; i++ {
		raw = append(raw, map[string]any{
			"order_date": fmt.Sprintf("2024-05-%02d", i+1),
			"amount":     float64(50 + i*3),
			"category":   []string{"a", "b", "c"}[i%3],
		})
	}
	return raw
}

// TestRunEndToEnd tests the full stage chain over a small dataset
func TestRunEndToEnd(t *testing.T) {
	ds := normalize.Dataset(fixtureRows(), 0, nil)
	result, err := Run(&ds, RunOptions{})
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 12, result.Profile.DatasetStats.RowCount)
	assert.Equal(t, "amount", result.Graph.PrimaryMeasure)
	assert.Len(t, result.Blocks, len(result.Plan.Blocks))
	assert.NotEmpty(t, result.Scene.Pages)
}

func salesRows() []map[string]any {
	raw := make([]map[string]any, 0, 10)
	for i := 0; i < 10; i++ {
		raw = append(raw, map[string]any{
			"Date":     fmt.Sprintf("2024-03-%02d", i+1),
			"Sales":    float64(100 + i*7),
			"Units":    float64(5 + i),
			"Category": []string{"tools", "parts", "seals"}[i%3],
			"Region":   []string{"north", "south"}[i%2],
		})
	}
	return raw
}

// TestRunSalesScenario tests a daily sales file end to end: measure
// choice, grain inference, and a computed half-range comparison
func TestRunSalesScenario(t *testing.T) {
	ds := normalize.Dataset(salesRows(), 0, nil)
	result, err := Run(&ds, RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, "Sales", result.Graph.PrimaryMeasure)
	assert.Equal(t, "Sales", result.Plan.Selections.PrimaryMeasure)
	assert.Equal(t, "Date", result.Plan.Selections.TimeColumn)
	assert.Equal(t, insight.GrainDay, result.Plan.Selections.Grain)

	var compare *insight.Block
	for i := range result.Blocks {
		if result.Blocks[i].Type == insight.BlockComparePeriods {
			compare = &result.Blocks[i]
			break
		}
	}
	require.NotNil(t, compare, "no half-range comparison block was planned")
	require.Equal(t, insight.StatusOK, compare.Status)

	payload := compare.Payload.(insight.ComparePeriodsPayload)
	require.NotNil(t, payload.Delta)
	assert.Positive(t, payload.Delta.Abs, "rising daily sales must show a positive shift")
}

// TestRunMeasureOverride tests that a requested primary measure wins
// over the inferred one and reaches the plan selections
func TestRunMeasureOverride(t *testing.T) {
	ds := normalize.Dataset(salesRows(), 0, nil)
	result, err := Run(&ds, RunOptions{
		Overrides: &insight.Overrides{PrimaryMeasure: "Units"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Units", result.Graph.PrimaryMeasure)
	assert.Equal(t, "Units", result.Plan.Selections.PrimaryMeasure)
}

// TestRunDeterminism tests that everything except the run id reproduces
// exactly across runs
func TestRunDeterminism(t *testing.T) {
	ds := normalize.Dataset(fixtureRows(), 0, nil)

	first, err := Run(&ds, RunOptions{})
	require.NoError(t, err)
	second, err := Run(&ds, RunOptions{})
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID, "run ids must be unique")

	first.RunID = ""
	second.RunID = ""
	assert.Equal(t, first, second, "runs over identical input diverged")
}

// TestRunNilDataset tests the nil guard
func TestRunNilDataset(t *testing.T) {
	_, err := Run(nil, RunOptions{})
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

// TestRunOverridesReachScene tests that overrides flow through to block
// filtering in the final scene
func TestRunOverridesReachScene(t *testing.T) {
	ds := normalize.Dataset(fixtureRows(), 0, nil)
	result, err := Run(&ds, RunOptions{
		Overrides: &insight.Overrides{
			EnabledBlocks: map[insight.BlockType]bool{insight.BlockDetailsTable: false},
		},
	})
	require.NoError(t, err)

	for _, node := range result.Scene.Nodes {
		assert.NotEqual(t, insight.BlockDetailsTable, node.Type, "disabled block reached the scene")
	}
	for _, b := range result.Blocks {
		assert.NotEqual(t, insight.BlockDetailsTable, b.Type, "disabled block was executed")
	}
}
