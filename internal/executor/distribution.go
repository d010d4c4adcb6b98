package executor

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"studio/domain/insight"
)

// Histogram bucket count and the minimum values worth bucketing
const (
	HistogramBuckets    = 10
	MinDistributionVals = 5
)

const distributionQuestion = "How are the values distributed?"

// executeDistribution builds an equal-width histogram and summary stats
// over the primary measure.
func executeDistribution(ctx *execContext, spec insight.BlockSpec) insight.Block {
	title := titleFor(spec.Type)

	if spec.Measure == "" {
		return notApplicable(spec, title, distributionQuestion, "no measure selected")
	}

	var values []float64
	for _, row := range ctx.window {
		if mv, ok := row[spec.Measure]; ok && mv.IsNumber() {
			values = append(values, mv.AsFloat())
		}
	}
	if len(values) < MinDistributionVals {
		return insufficientData(spec, title, distributionQuestion, "too few numeric values", len(values))
	}

	sort.Float64s(values)
	lo, hi := values[0], values[len(values)-1]
	if lo == hi {
		return insufficientData(spec, title, distributionQuestion, "all values identical", len(values))
	}

	mean, _ := stats.Mean(values)
	median, _ := stats.Median(values)
	stddev, _ := stats.StandardDeviationSample(values)

	width := (hi - lo) / HistogramBuckets
	buckets := make([]insight.HistBucket, HistogramBuckets)
	for i := range buckets {
		buckets[i].Lo = lo + float64(i)*width
		buckets[i].Hi = lo + float64(i+1)*width
	}
	buckets[HistogramBuckets-1].Hi = hi
	for _, v := range values {
		idx := int(math.Floor((v - lo) / width))
		if idx >= HistogramBuckets {
			idx = HistogramBuckets - 1
		}
		buckets[idx].Count++
	}

	payload := insight.DistributionPayload{
		Column:  spec.Measure,
		Buckets: buckets,
		Summary: insight.DistributionSummary{
			Mean:   mean,
			Median: median,
			StdDev: stddev,
			Min:    lo,
			Max:    hi,
		},
	}

	return insight.Block{
		ID:               spec.ID,
		Type:             spec.Type,
		Title:            title,
		QuestionAnswered: distributionQuestion,
		Status:           insight.StatusOK,
		Confidence:       coverageConfidence(len(values), len(ctx.window)),
		SampleSize:       len(values),
		BlockNarrative:   fmt.Sprintf("%s ranges %.2f to %.2f with median %.2f.", spec.Measure, lo, hi, median),
		Payload:          payload,
	}
}
