package executor

import (
	"fmt"
	"math"
	"sort"

	"studio/domain/insight"
)

// LiftClamp caps the lift term in the driver score so one extreme group
// cannot swamp the ranking.
const LiftClamp = 5.0

const driverQuestion = "Which segments move the primary measure?"

func executeDriver(ctx *execContext, spec insight.BlockSpec) insight.Block {
	title := titleFor(spec.Type)
	if spec.Measure == "" || len(spec.Dimensions) == 0 {
		return notApplicable(spec, title, driverQuestion, "needs a measure and at least one dimension")
	}

	// Overall average of the measure across usable rows.
	var overallSum float64
	var overallCount int
	for _, row := range ctx.window {
		if mv, ok := row[spec.Measure]; ok && mv.IsNumber() {
			overallSum += mv.AsFloat()
			overallCount++
		}
	}
	if overallCount == 0 {
		return insufficientData(spec, title, driverQuestion, "no numeric values for the measure", 0)
	}
	overallAvg := overallSum / float64(overallCount)

	type groupAgg struct {
		count int
		total float64
	}

	var drivers []insight.Driver
	for _, dim := range spec.Dimensions {
		groups := map[string]*groupAgg{}
		var dimTotal float64
		for _, row := range ctx.window {
			mv, mok := row[spec.Measure]
			dv, dok := row[dim]
			if !mok || !dok || !mv.IsNumber() || dv.IsNull() {
				continue
			}
			key := dv.AsString()
			agg, ok := groups[key]
			if !ok {
				agg = &groupAgg{}
				groups[key] = agg
			}
			agg.count++
			agg.total += mv.AsFloat()
			dimTotal += mv.AsFloat()
		}
		if dimTotal == 0 {
			continue
		}
		for key, agg := range groups {
			avg := agg.total / float64(agg.count)
			lift := 0.0
			if overallAvg != 0 {
				lift = avg/overallAvg - 1
			}
			share := agg.total / dimTotal
			drivers = append(drivers, insight.Driver{
				Dimension: dim,
				Group:     key,
				Count:     agg.count,
				Total:     agg.total,
				Average:   avg,
				Share:     share,
				Lift:      lift,
				Score:     share * math.Min(LiftClamp, math.Abs(lift)) * math.Log1p(float64(agg.count)),
			})
		}
	}

	if len(drivers) == 0 {
		return insufficientData(spec, title, driverQuestion, "no dimension groups with measure values", overallCount)
	}

	// Score descending; equal scores order by (dimension, group) ascending.
	sort.Slice(drivers, func(i, j int) bool {
		if drivers[i].Score != drivers[j].Score {
			return drivers[i].Score > drivers[j].Score
		}
		if drivers[i].Dimension != drivers[j].Dimension {
			return drivers[i].Dimension < drivers[j].Dimension
		}
		return drivers[i].Group < drivers[j].Group
	})

	limit := spec.TopN
	if limit <= 0 {
		limit = 12
	}
	if len(drivers) > limit {
		drivers = drivers[:limit]
	}

	payload := insight.DriverPayload{
		Measure:        spec.Measure,
		OverallAverage: overallAvg,
		TopDrivers:     drivers,
	}

	return insight.Block{
		ID:               spec.ID,
		Type:             spec.Type,
		Title:            title,
		QuestionAnswered: driverQuestion,
		Status:           insight.StatusOK,
		Confidence:       coverageConfidence(overallCount, len(ctx.window)),
		SampleSize:       overallCount,
		BlockNarrative: fmt.Sprintf("%s in %s leads with %.0f%% share of %s.",
			drivers[0].Group, drivers[0].Dimension, drivers[0].Share*100, spec.Measure),
		Payload: payload,
	}
}
