package executor

import (
	"fmt"
	"sort"

	"studio/domain/insight"
	"studio/internal/orchestrator"
)

const (
	topNQuestion      = "Which groups matter most?"
	breakdownQuestion = "How does the dimension break down?"
)

// FallbackIDSuffix marks a TopN block produced because a breakdown
// dimension turned out to have too many categories.
const FallbackIDSuffix = "-topn-fallback"

// executeTopNFamily dispatches TopNBlock and BreakdownBlock. A breakdown
// over a dimension with more categories than the breakdown cap falls
// back to a TopN block so the result stays readable.
func executeTopNFamily(ctx *execContext, spec insight.BlockSpec) insight.Block {
	title := titleFor(spec.Type)
	question := topNQuestion
	if spec.Type == insight.BlockBreakdown {
		question = breakdownQuestion
	}

	if len(spec.Dimensions) == 0 {
		return notApplicable(spec, title, question, "no dimension selected")
	}
	dim := spec.Dimensions[0]

	groups, usable := aggregateGroups(ctx, dim, spec.Measure)
	if usable == 0 {
		return insufficientData(spec, title, question, "no values in dimension", 0)
	}

	aggregation := "count"
	if spec.Measure != "" {
		aggregation = "sum"
	}

	if spec.Type == insight.BlockBreakdown {
		if len(groups) <= orchestrator.BreakdownCategoryCap {
			return breakdownBlock(ctx, spec, dim, aggregation, groups, usable)
		}
		// Too many categories for an exhaustive breakdown.
		fallback := spec
		fallback.ID = spec.ID + FallbackIDSuffix
		fallback.Type = insight.BlockTopN
		if fallback.TopN <= 0 {
			fallback.TopN = orchestrator.DefaultTopN
		}
		block := topNBlock(ctx, fallback, dim, aggregation, groups, usable)
		payload := block.Payload.(insight.TopNPayload)
		payload.FallbackFrom = insight.BlockBreakdown
		block.Payload = payload
		block.Assumptions = append(block.Assumptions,
			fmt.Sprintf("%s has %d categories, more than the %d a breakdown shows", dim, len(groups), orchestrator.BreakdownCategoryCap))
		return block
	}

	return topNBlock(ctx, spec, dim, aggregation, groups, usable)
}

// aggregateGroups sums the measure (or counts rows) per dimension group
// and attaches share-of-total percentages.
func aggregateGroups(ctx *execContext, dim, measure string) ([]insight.GroupAgg, int) {
	type agg struct {
		value float64
		count int
	}
	byGroup := map[string]*agg{}
	usable := 0

	for _, row := range ctx.window {
		gv, ok := row[dim]
		if !ok || gv.IsNull() {
			continue
		}
		usable++
		key := gv.AsString()
		a, exists := byGroup[key]
		if !exists {
			a = &agg{}
			byGroup[key] = a
		}
		a.count++
		if measure != "" {
			if mv, ok := row[measure]; ok && mv.IsNumber() {
				a.value += mv.AsFloat()
			}
		} else {
			a.value++
		}
	}

	total := 0.0
	for _, a := range byGroup {
		total += a.value
	}

	out := make([]insight.GroupAgg, 0, len(byGroup))
	for key, a := range byGroup {
		share := 0.0
		if total != 0 {
			share = a.value / total * 100
		}
		out = append(out, insight.GroupAgg{Group: key, Value: a.value, Count: a.count, SharePct: share})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Group < out[j].Group
	})
	return out, usable
}

func topNBlock(ctx *execContext, spec insight.BlockSpec, dim, aggregation string, groups []insight.GroupAgg, usable int) insight.Block {
	limit := spec.TopN
	if limit <= 0 {
		limit = len(groups)
	}

	var other *insight.GroupAgg
	kept := groups
	if len(groups) > limit {
		kept = groups[:limit]
		rest := insight.GroupAgg{Group: "other"}
		for _, g := range groups[limit:] {
			rest.Value += g.Value
			rest.Count += g.Count
			rest.SharePct += g.SharePct
		}
		other = &rest
	}

	payload := insight.TopNPayload{
		Dimension:   dim,
		Measure:     spec.Measure,
		Aggregation: aggregation,
		Groups:      kept,
		Other:       other,
	}
	return insight.Block{
		ID:               spec.ID,
		Type:             insight.BlockTopN,
		Title:            titleFor(insight.BlockTopN),
		QuestionAnswered: topNQuestion,
		Status:           insight.StatusOK,
		Confidence:       coverageConfidence(usable, len(ctx.window)),
		SampleSize:       usable,
		BlockNarrative:   fmt.Sprintf("%s tops %s with %.1f%% of the total.", kept[0].Group, dim, kept[0].SharePct),
		Payload:          payload,
	}
}

func breakdownBlock(ctx *execContext, spec insight.BlockSpec, dim, aggregation string, groups []insight.GroupAgg, usable int) insight.Block {
	payload := insight.BreakdownPayload{
		Dimension:   dim,
		Measure:     spec.Measure,
		Aggregation: aggregation,
		Categories:  groups,
	}
	return insight.Block{
		ID:               spec.ID,
		Type:             spec.Type,
		Title:            titleFor(spec.Type),
		QuestionAnswered: breakdownQuestion,
		Status:           insight.StatusOK,
		Confidence:       coverageConfidence(usable, len(ctx.window)),
		SampleSize:       usable,
		BlockNarrative:   fmt.Sprintf("%s splits into %d categories.", dim, len(groups)),
		Payload:          payload,
	}
}
