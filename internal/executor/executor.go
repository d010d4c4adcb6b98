// Package executor runs each block specification against the dataset and
// role map, producing one typed, self-describing result per block. Every
// block is independent and pure; identical inputs reproduce identical
// output byte for byte.
package executor

import (
	"fmt"
	"time"

	"studio/domain/canon"
	"studio/domain/insight"
	"studio/domain/template"
)

// Options bounds block execution cost
type Options struct {
	MaxComputeRows int
	Template       template.Config
}

// DefaultMaxComputeRows caps the compute window
const DefaultMaxComputeRows = 20_000

// InsufficientDataConfidence is the fixed confidence for blocks whose
// columns exist but whose usable rows do not.
const InsufficientDataConfidence = 0.1

// execContext carries the shared inputs every block executor needs
type execContext struct {
	ds     *canon.CanonicalDataset
	graph  *insight.SemanticGraph
	plan   *insight.AnalysisPlan
	window []canon.Row
	opts   Options
}

// ExecutePlan executes plan blocks in order over the first MaxComputeRows
// rows of the dataset.
func ExecutePlan(ds *canon.CanonicalDataset, graph *insight.SemanticGraph, plan *insight.AnalysisPlan, opts Options) []insight.Block {
	if opts.MaxComputeRows <= 0 {
		opts.MaxComputeRows = DefaultMaxComputeRows
	}

	window := ds.Rows
	if len(window) > opts.MaxComputeRows {
		window = window[:opts.MaxComputeRows]
	}

	ctx := &execContext{ds: ds, graph: graph, plan: plan, window: window, opts: opts}

	blocks := make([]insight.Block, 0, len(plan.Blocks))
	for _, spec := range plan.Blocks {
		blocks = append(blocks, executeBlock(ctx, spec))
	}
	return blocks
}

func executeBlock(ctx *execContext, spec insight.BlockSpec) insight.Block {
	var block insight.Block
	switch spec.Type {
	case insight.BlockKPI:
		block = executeKPI(ctx, spec)
	case insight.BlockTrend:
		block = executeTrend(ctx, spec)
	case insight.BlockDriver:
		block = executeDriver(ctx, spec)
	case insight.BlockGeo, insight.BlockGeoLike:
		block = executeGeo(ctx, spec)
	case insight.BlockComparePeriods:
		block = executeComparePeriods(ctx, spec)
	case insight.BlockDistribution:
		block = executeDistribution(ctx, spec)
	case insight.BlockTopN, insight.BlockBreakdown:
		block = executeTopNFamily(ctx, spec)
	case insight.BlockDataQuality:
		block = executeDataQuality(ctx, spec)
	case insight.BlockDetailsTable:
		block = executeDetailsTable(ctx, spec)
	case insight.BlockAnomaly:
		block = executeAnomalyStub(ctx, spec)
	default:
		block = notApplicable(spec, titleFor(spec.Type), "", "unknown block type")
	}

	block.Badges = append(block.Badges, insight.Badge{
		Label: "sample",
		Value: fmt.Sprintf("%d rows", block.SampleSize),
	})
	if penalty := ctx.plan.Selections.DataQualityPenalty; penalty > 0 {
		block.Badges = append(block.Badges, insight.Badge{
			Label: "quality_penalty",
			Value: fmt.Sprintf("%.2f", penalty),
		})
	}
	return block
}

func titleFor(t insight.BlockType) string {
	switch t {
	case insight.BlockKPI:
		return "Key metrics"
	case insight.BlockTrend:
		return "Trend over time"
	case insight.BlockDriver:
		return "What drives the numbers"
	case insight.BlockGeo:
		return "Geography"
	case insight.BlockGeoLike:
		return "Regional breakdown"
	case insight.BlockComparePeriods:
		return "Period comparison"
	case insight.BlockDistribution:
		return "Value distribution"
	case insight.BlockTopN:
		return "Top categories"
	case insight.BlockBreakdown:
		return "Category breakdown"
	case insight.BlockAnomaly:
		return "Anomalies"
	case insight.BlockDataQuality:
		return "Data quality"
	case insight.BlockDetailsTable:
		return "Details"
	}
	return string(t)
}

// notApplicable builds the shared NOT_APPLICABLE result: prerequisites
// absent by design, confidence pinned to zero.
func notApplicable(spec insight.BlockSpec, title, question, reason string) insight.Block {
	return insight.Block{
		ID:               spec.ID,
		Type:             spec.Type,
		Title:            title,
		QuestionAnswered: question,
		Status:           insight.StatusNotApplicable,
		Confidence:       0,
		Assumptions:      []string{reason},
		Payload:          reasonPayload(spec.Type, reason),
	}
}

// insufficientData builds the shared INSUFFICIENT_DATA result: columns
// present but not enough usable rows.
func insufficientData(spec insight.BlockSpec, title, question, reason string, sampleSize int) insight.Block {
	return insight.Block{
		ID:               spec.ID,
		Type:             spec.Type,
		Title:            title,
		QuestionAnswered: question,
		Status:           insight.StatusInsufficientData,
		Confidence:       InsufficientDataConfidence,
		Assumptions:      []string{reason},
		SampleSize:       sampleSize,
		Payload:          reasonPayload(spec.Type, reason),
	}
}

func reasonPayload(t insight.BlockType, reason string) any {
	switch t {
	case insight.BlockKPI:
		return insight.KPIPayload{Reason: reason}
	case insight.BlockTrend:
		return insight.TrendPayload{Reason: reason}
	case insight.BlockDriver:
		return insight.DriverPayload{Reason: reason}
	case insight.BlockGeo, insight.BlockGeoLike:
		return insight.GeoPayload{Mode: insight.GeoModeNone, Reason: reason}
	case insight.BlockComparePeriods:
		return insight.ComparePeriodsPayload{Reason: reason}
	case insight.BlockDistribution:
		return insight.DistributionPayload{Reason: reason}
	case insight.BlockTopN:
		return insight.TopNPayload{Reason: reason}
	case insight.BlockBreakdown:
		return insight.BreakdownPayload{Reason: reason}
	case insight.BlockDataQuality:
		return insight.QualityPayload{Reason: reason}
	case insight.BlockAnomaly:
		return insight.AnomalyPayload{Reason: reason}
	}
	return nil
}

// coverageConfidence maps usable-row coverage into (0,1]
func coverageConfidence(usable, total int) float64 {
	if total <= 0 || usable <= 0 {
		return InsufficientDataConfidence
	}
	c := float64(usable) / float64(total)
	if c > 1 {
		c = 1
	}
	// Floor above the insufficient-data constant so OK blocks always rank
	// higher than degraded ones.
	if c < 0.2 {
		c = 0.2
	}
	return c
}

// parseCellTime parses a date-valued cell
func parseCellTime(val canon.Value) (time.Time, bool) {
	if !val.IsDate() {
		return time.Time{}, false
	}
	s := val.AsString()
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// periodKey buckets a time into its grain-aligned key. Weeks are ISO
// weeks starting Monday, keyed by the Monday date.
func periodKey(t time.Time, grain insight.Grain) string {
	switch grain {
	case insight.GrainDay:
		return t.Format("2006-01-02")
	case insight.GrainWeek:
		weekday := int(t.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		monday := t.AddDate(0, 0, -(weekday - 1))
		return monday.Format("2006-01-02")
	case insight.GrainMonth:
		return t.Format("2006-01")
	}
	return t.Format("2006-01-02")
}

// timeColumnIsYearLike reports whether the planned time column is a
// numeric year column rather than a date column.
func (ctx *execContext) timeColumnIsYearLike(column string) bool {
	sem, ok := ctx.graph.Columns[column]
	return ok && sem.InferredType == canon.TypeNumber
}
