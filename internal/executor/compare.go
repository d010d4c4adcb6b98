package executor

import (
	"fmt"
	"math"
	"sort"
	"time"

	"studio/domain/insight"
)

// Each half of the range comparison needs this many rows to be meaningful
const MinCompareHalfRows = 2

// MaxShiftGroups bounds the per-dimension group shift list
const MaxShiftGroups = 8

const compareQuestion = "How do the two halves of the time range compare?"

// stampedRow pairs a parsed timestamp and measure value with the source
// row index so dimension shifts can look other columns back up.
type stampedRow struct {
	t   time.Time
	val float64
	row int
}

// executeComparePeriods splits the observed time range at its midpoint and
// totals the measure over each half, plus per-dimension group shifts.
func executeComparePeriods(ctx *execContext, spec insight.BlockSpec) insight.Block {
	title := titleFor(spec.Type)

	if spec.TimeColumn == "" || spec.Measure == "" {
		return notApplicable(spec, title, compareQuestion, "needs a time column and a measure")
	}

	var rows []stampedRow
	for i, row := range ctx.window {
		tv, ok := row[spec.TimeColumn]
		if !ok {
			continue
		}
		t, ok := parseCellTime(tv)
		if !ok {
			continue
		}
		mv, ok := row[spec.Measure]
		if !ok || !mv.IsNumber() {
			continue
		}
		rows = append(rows, stampedRow{t: t, val: mv.AsFloat(), row: i})
	}

	if len(rows) < MinCompareHalfRows*2 {
		return insufficientData(spec, title, compareQuestion, "too few dated rows to compare", len(rows))
	}

	minT, maxT := rows[0].t, rows[0].t
	for _, r := range rows[1:] {
		if r.t.Before(minT) {
			minT = r.t
		}
		if r.t.After(maxT) {
			maxT = r.t
		}
	}
	if !maxT.After(minT) {
		return insufficientData(spec, title, compareQuestion, "all rows share one timestamp", len(rows))
	}
	mid := minT.Add(maxT.Sub(minT) / 2)

	var first, second insight.PeriodTotal
	first.Start, first.End = minT.Format("2006-01-02"), mid.Format("2006-01-02")
	second.Start, second.End = mid.Format("2006-01-02"), maxT.Format("2006-01-02")
	inSecond := make([]bool, len(rows))
	for i, r := range rows {
		if r.t.After(mid) {
			second.Rows++
			second.Total += r.val
			inSecond[i] = true
		} else {
			first.Rows++
			first.Total += r.val
		}
	}
	if first.Rows < MinCompareHalfRows || second.Rows < MinCompareHalfRows {
		return insufficientData(spec, title, compareQuestion, "one half has too few rows", len(rows))
	}

	delta := &insight.Delta{Abs: second.Total - first.Total}
	if first.Total != 0 {
		pct := (second.Total - first.Total) / math.Abs(first.Total) * 100
		delta.Pct = &pct
	}

	var shifts []insight.DimensionShift
	for _, dim := range spec.Dimensions {
		shift := dimensionShift(ctx, dim, rows, inSecond)
		if len(shift.Groups) > 0 {
			shifts = append(shifts, shift)
		}
	}

	payload := insight.ComparePeriodsPayload{
		Measure:         spec.Measure,
		Midpoint:        mid.Format("2006-01-02"),
		FirstHalf:       first,
		SecondHalf:      second,
		Delta:           delta,
		DimensionShifts: shifts,
	}

	direction := "rose"
	if delta.Abs < 0 {
		direction = "fell"
	} else if delta.Abs == 0 {
		direction = "held steady"
	}
	narrative := fmt.Sprintf("%s %s from %.2f to %.2f between halves.", spec.Measure, direction, first.Total, second.Total)

	return insight.Block{
		ID:               spec.ID,
		Type:             spec.Type,
		Title:            title,
		QuestionAnswered: compareQuestion,
		Status:           insight.StatusOK,
		Confidence:       coverageConfidence(len(rows), len(ctx.window)),
		SampleSize:       len(rows),
		BlockNarrative:   narrative,
		Payload:          payload,
	}
}

// dimensionShift totals the measure per group in each half and ranks
// groups by absolute movement.
func dimensionShift(ctx *execContext, dim string, rows []stampedRow, inSecond []bool) insight.DimensionShift {
	type halves struct{ first, second float64 }
	groups := map[string]*halves{}

	for i, r := range rows {
		gv, ok := ctx.window[r.row][dim]
		if !ok || gv.IsNull() {
			continue
		}
		key := gv.AsString()
		h, exists := groups[key]
		if !exists {
			h = &halves{}
			groups[key] = h
		}
		if inSecond[i] {
			h.second += r.val
		} else {
			h.first += r.val
		}
	}

	out := make([]insight.GroupShift, 0, len(groups))
	for key, h := range groups {
		out = append(out, insight.GroupShift{
			Group:  key,
			First:  h.first,
			Second: h.second,
			Delta:  h.second - h.first,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := math.Abs(out[i].Delta), math.Abs(out[j].Delta)
		if di != dj {
			return di > dj
		}
		return out[i].Group < out[j].Group
	})
	if len(out) > MaxShiftGroups {
		out = out[:MaxShiftGroups]
	}
	return insight.DimensionShift{Dimension: dim, Groups: out}
}
