package executor

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/montanaflynn/stats"

	"studio/domain/insight"
)

// MaxTopKPIs bounds the scored measure list
const MaxTopKPIs = 5

const kpiQuestion = "How are the headline numbers doing?"

func executeKPI(ctx *execContext, spec insight.BlockSpec) insight.Block {
	title := titleFor(spec.Type)
	if len(ctx.window) == 0 {
		return insufficientData(spec, title, kpiQuestion, "dataset has no rows", 0)
	}

	measures := ctx.graph.MeasureColumns()
	if len(measures) == 0 {
		return notApplicable(spec, title, kpiQuestion, "no numeric measure columns")
	}

	kpis := topKPIs(ctx, measures)
	executive := executiveKPIs(ctx, spec)

	if len(kpis) == 0 && executive == nil {
		return insufficientData(spec, title, kpiQuestion, "no usable numeric values", len(ctx.window))
	}

	payload := insight.KPIPayload{
		PrimaryMeasure: spec.Measure,
		KPIs:           kpis,
		ExecutiveKPIs:  executive,
	}

	usable := len(ctx.window)
	block := insight.Block{
		ID:               spec.ID,
		Type:             spec.Type,
		Title:            title,
		QuestionAnswered: kpiQuestion,
		Status:           insight.StatusOK,
		Confidence:       coverageConfidence(usable, len(ctx.window)),
		SampleSize:       usable,
		BlockNarrative:   kpiNarrative(spec.Measure, kpis, executive),
		Payload:          payload,
	}
	return block
}

// topKPIs scores measures by non-trivial range, absolute median, and fill
// rate; constant columns never qualify.
func topKPIs(ctx *execContext, measures []string) []insight.KPIEntry {
	var entries []insight.KPIEntry
	for _, col := range measures {
		var values []float64
		latest := 0.0
		for _, row := range ctx.window {
			if val, ok := row[col]; ok && val.IsNumber() {
				values = append(values, val.AsFloat())
				latest = val.AsFloat()
			}
		}
		if len(values) < 2 {
			continue
		}
		lo, _ := stats.Min(values)
		hi, _ := stats.Max(values)
		if hi-lo <= 0 {
			continue
		}
		median, err := stats.Median(values)
		if err != nil {
			continue
		}
		fillRate := float64(len(values)) / float64(len(ctx.window))
		entries = append(entries, insight.KPIEntry{
			Column:   col,
			Score:    fillRate * (1 + math.Log1p(math.Abs(median))),
			Median:   median,
			FillRate: fillRate,
			Latest:   latest,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Column < entries[j].Column
	})
	if len(entries) > MaxTopKPIs {
		entries = entries[:MaxTopKPIs]
	}
	return entries
}

// executiveKPIs computes latest-vs-previous period values at the chosen
// grain, the whole-range-vs-prior-range comparison, the top contributor in
// the latest period, and year-over-year for year-like time columns.
func executiveKPIs(ctx *execContext, spec insight.BlockSpec) *insight.ExecutiveKPIs {
	if spec.TimeColumn == "" || spec.Measure == "" {
		return nil
	}

	yearLike := ctx.timeColumnIsYearLike(spec.TimeColumn)
	sums := map[string]float64{}
	var stamps []float64 // epoch seconds paired with measure values
	var stampVals []float64

	for _, row := range ctx.window {
		tv, tok := row[spec.TimeColumn]
		mv, mok := row[spec.Measure]
		if !tok || !mok || !mv.IsNumber() {
			continue
		}
		if yearLike {
			if !tv.IsNumber() {
				continue
			}
			year := int(tv.AsFloat())
			sums[strconv.Itoa(year)] += mv.AsFloat()
			continue
		}
		t, ok := parseCellTime(tv)
		if !ok {
			continue
		}
		sums[periodKey(t, spec.Grain)] += mv.AsFloat()
		stamps = append(stamps, float64(t.Unix()))
		stampVals = append(stampVals, mv.AsFloat())
	}
	if len(sums) < 2 {
		return nil
	}

	keys := make([]string, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	latestKey := keys[len(keys)-1]
	prevKey := keys[len(keys)-2]
	latest := insight.PeriodValue{PeriodKey: latestKey, Value: sums[latestKey]}
	previous := insight.PeriodValue{PeriodKey: prevKey, Value: sums[prevKey]}

	exec := &insight.ExecutiveKPIs{
		Latest:   latest,
		Previous: previous,
		Change:   deltaOf(latest.Value, previous.Value),
	}

	if yearLike {
		latestYear, _ := strconv.Atoi(latestKey)
		prevYear, _ := strconv.Atoi(prevKey)
		exec.YearOverYear = &insight.YearOverYear{
			LatestYear:    latestYear,
			PreviousYear:  prevYear,
			LatestValue:   latest.Value,
			PreviousValue: previous.Value,
			Change:        deltaOf(latest.Value, previous.Value),
		}
	} else if len(stamps) > 0 {
		exec.Range = rangeComparison(stamps, stampVals)
	}

	exec.Contributor = topContributor(ctx, spec, latestKey, yearLike)
	return exec
}

// rangeComparison splits the observed range at its temporal midpoint and
// compares the later half against the equal-length prior half.
func rangeComparison(stamps, values []float64) *insight.RangeComparison {
	minT, maxT := stamps[0], stamps[0]
	for _, s := range stamps {
		if s < minT {
			minT = s
		}
		if s > maxT {
			maxT = s
		}
	}
	if maxT <= minT {
		return nil
	}
	mid := minT + (maxT-minT)/2

	var prior, current float64
	for i, s := range stamps {
		if s <= mid {
			prior += values[i]
		} else {
			current += values[i]
		}
	}
	return &insight.RangeComparison{
		CurrentTotal: current,
		PriorTotal:   prior,
		Change:       deltaOf(current, prior),
	}
}

// topContributor finds the largest group within the latest period for the
// chosen breakdown dimension.
func topContributor(ctx *execContext, spec insight.BlockSpec, latestKey string, yearLike bool) *insight.TopContributor {
	if len(spec.Dimensions) == 0 {
		return nil
	}
	dim := spec.Dimensions[0]

	groupSums := map[string]float64{}
	var periodTotal float64
	for _, row := range ctx.window {
		tv, tok := row[spec.TimeColumn]
		mv, mok := row[spec.Measure]
		dv, dok := row[dim]
		if !tok || !mok || !dok || !mv.IsNumber() || dv.IsNull() {
			continue
		}
		var key string
		if yearLike {
			if !tv.IsNumber() {
				continue
			}
			key = strconv.Itoa(int(tv.AsFloat()))
		} else {
			t, ok := parseCellTime(tv)
			if !ok {
				continue
			}
			key = periodKey(t, spec.Grain)
		}
		if key != latestKey {
			continue
		}
		groupSums[dv.AsString()] += mv.AsFloat()
		periodTotal += mv.AsFloat()
	}
	if len(groupSums) == 0 || periodTotal == 0 {
		return nil
	}

	groups := make([]string, 0, len(groupSums))
	for g := range groupSums {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	best := groups[0]
	for _, g := range groups[1:] {
		if groupSums[g] > groupSums[best] {
			best = g
		}
	}
	return &insight.TopContributor{
		Dimension: dim,
		Group:     best,
		Value:     groupSums[best],
		SharePct:  groupSums[best] / periodTotal * 100,
	}
}

// deltaOf computes abs exactly as latest-previous; pct only when the
// previous value is non-zero.
func deltaOf(latest, previous float64) insight.Delta {
	d := insight.Delta{Abs: latest - previous}
	if previous != 0 {
		pct := (latest - previous) / math.Abs(previous) * 100
		d.Pct = &pct
	}
	return d
}

func kpiNarrative(primary string, kpis []insight.KPIEntry, exec *insight.ExecutiveKPIs) string {
	if exec != nil && primary != "" {
		if exec.Change.Pct != nil {
			return fmt.Sprintf("%s at %.2f in %s, %+.1f%% vs %s.",
				primary, exec.Latest.Value, exec.Latest.PeriodKey, *exec.Change.Pct, exec.Previous.PeriodKey)
		}
		return fmt.Sprintf("%s at %.2f in %s, %+.2f vs %s.",
			primary, exec.Latest.Value, exec.Latest.PeriodKey, exec.Change.Abs, exec.Previous.PeriodKey)
	}
	if len(kpis) > 0 {
		return fmt.Sprintf("%d key metrics identified; %s leads by score.", len(kpis), kpis[0].Column)
	}
	return ""
}
