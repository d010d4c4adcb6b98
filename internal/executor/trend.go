package executor

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"studio/domain/insight"
)

// AnomalyZScore flags first-difference outliers in a trend series
const AnomalyZScore = 2.0

// MinTrendPoints is the smallest series worth emitting
const MinTrendPoints = 2

const trendQuestion = "How does the data move over time?"

func executeTrend(ctx *execContext, spec insight.BlockSpec) insight.Block {
	title := titleFor(spec.Type)
	if spec.TimeColumn == "" {
		return notApplicable(spec, title, trendQuestion, "no time column")
	}

	buckets := map[string]*insight.TrendPoint{}
	usable := 0
	for _, row := range ctx.window {
		tv, ok := row[spec.TimeColumn]
		if !ok {
			continue
		}
		t, parsed := parseCellTime(tv)
		if !parsed {
			continue
		}
		key := periodKey(t, spec.Grain)
		point, exists := buckets[key]
		if !exists {
			point = &insight.TrendPoint{PeriodKey: key}
			buckets[key] = point
		}
		point.Count++
		usable++
		if spec.Measure != "" {
			if mv, ok := row[spec.Measure]; ok && mv.IsNumber() {
				point.Value += mv.AsFloat()
			}
		}
	}

	if len(buckets) < MinTrendPoints {
		return insufficientData(spec, title, trendQuestion,
			fmt.Sprintf("fewer than %d time buckets", MinTrendPoints), usable)
	}

	series := make([]insight.TrendPoint, 0, len(buckets))
	for _, p := range buckets {
		series = append(series, *p)
	}
	sort.Slice(series, func(i, j int) bool { return series[i].PeriodKey < series[j].PeriodKey })

	aggregation := "count"
	if spec.Measure != "" {
		aggregation = "sum"
	} else {
		for i := range series {
			series[i].Value = float64(series[i].Count)
		}
	}

	payload := insight.TrendPayload{
		Measure:     spec.Measure,
		Aggregation: aggregation,
		Grain:       spec.Grain,
		Series:      series,
		Anomalies:   simpleAnomalyDetection(series),
		Slope:       seriesSlope(series),
	}

	return insight.Block{
		ID:               spec.ID,
		Type:             spec.Type,
		Title:            title,
		QuestionAnswered: trendQuestion,
		Status:           insight.StatusOK,
		Confidence:       coverageConfidence(usable, len(ctx.window)),
		SampleSize:       usable,
		BlockNarrative:   trendNarrative(payload),
		Payload:          payload,
	}
}

// simpleAnomalyDetection flags series points whose first difference sits
// more than AnomalyZScore standard deviations from the mean difference.
// Deterministic; no randomness.
func simpleAnomalyDetection(series []insight.TrendPoint) []insight.AnomalyMarker {
	if len(series) < 3 {
		return nil
	}
	diffs := make([]float64, len(series)-1)
	for i := 1; i < len(series); i++ {
		diffs[i-1] = series[i].Value - series[i-1].Value
	}

	mean, std := stat.MeanStdDev(diffs, nil)
	if std == 0 || math.IsNaN(std) {
		return nil
	}

	var markers []insight.AnomalyMarker
	for i, d := range diffs {
		z := (d - mean) / std
		if math.Abs(z) > AnomalyZScore {
			markers = append(markers, insight.AnomalyMarker{
				PeriodKey: series[i+1].PeriodKey,
				ZScore:    z,
				Delta:     d,
			})
		}
	}
	return markers
}

// seriesSlope fits a least-squares line over bucket index vs value
func seriesSlope(series []insight.TrendPoint) float64 {
	if len(series) < 2 {
		return 0
	}
	xs := make([]float64, len(series))
	ys := make([]float64, len(series))
	for i, p := range series {
		xs[i] = float64(i)
		ys[i] = p.Value
	}
	_, slope := stat.LinearRegression(xs, ys, nil, false)
	if math.IsNaN(slope) {
		return 0
	}
	return slope
}

func trendNarrative(p insight.TrendPayload) string {
	direction := "flat"
	if p.Slope > 0 {
		direction = "rising"
	} else if p.Slope < 0 {
		direction = "falling"
	}
	base := fmt.Sprintf("%d %s buckets, overall %s.", len(p.Series), p.Grain, direction)
	if n := len(p.Anomalies); n > 0 {
		return fmt.Sprintf("%s %d unusual jumps flagged.", base, n)
	}
	return base
}
