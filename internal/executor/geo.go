package executor

import (
	"fmt"
	"sort"

	"studio/domain/insight"
)

// MaxRegions bounds the ranked region list
const MaxRegions = 60

// Coordinate validity bounds for point mode
const (
	latBound = 90.0
	lonBound = 180.0
)

const geoQuestion = "Where is the data concentrated?"

// executeGeo covers GeoBlock (points or region mode) and GeoLikeBlock
// (region-style ranking over an arbitrary categorical dimension).
func executeGeo(ctx *execContext, spec insight.BlockSpec) insight.Block {
	title := titleFor(spec.Type)

	if spec.Type == insight.BlockGeoLike {
		if len(spec.Dimensions) == 0 {
			return notApplicable(spec, title, geoQuestion, "no region-like dimension")
		}
		return executeRegionRanking(ctx, spec, spec.Dimensions[0], true)
	}

	if spec.Geo == nil || spec.Geo.Mode == insight.GeoModeNone {
		return notApplicable(spec, title, geoQuestion, "no geographic columns")
	}
	if spec.Geo.Mode == insight.GeoModePoints {
		return executeGeoPoints(ctx, spec)
	}
	return executeRegionRanking(ctx, spec, spec.Geo.RegionColumn, false)
}

// executeGeoPoints groups valid coordinates, weighting by the configured
// weight column when present. Out-of-range points are dropped, never
// clamped.
func executeGeoPoints(ctx *execContext, spec insight.BlockSpec) insight.Block {
	title := titleFor(spec.Type)
	geo := spec.Geo

	type pointAgg struct {
		weight float64
		count  int
	}
	points := map[[2]float64]*pointAgg{}
	usable := 0

	for _, row := range ctx.window {
		latVal, latOK := row[geo.LatColumn]
		lonVal, lonOK := row[geo.LonColumn]
		if !latOK || !lonOK || !latVal.IsNumber() || !lonVal.IsNumber() {
			continue
		}
		lat, lon := latVal.AsFloat(), lonVal.AsFloat()
		if lat < -latBound || lat > latBound || lon < -lonBound || lon > lonBound {
			continue
		}
		usable++

		weight := 1.0
		if geo.WeightColumn != "" {
			if wv, ok := row[geo.WeightColumn]; ok && wv.IsNumber() {
				weight = wv.AsFloat()
			}
		}
		key := [2]float64{lat, lon}
		agg, ok := points[key]
		if !ok {
			agg = &pointAgg{}
			points[key] = agg
		}
		agg.weight += weight
		agg.count++
	}

	if usable == 0 {
		return insufficientData(spec, title, geoQuestion, "no valid coordinates", 0)
	}

	out := make([]insight.GeoPoint, 0, len(points))
	for key, agg := range points {
		out = append(out, insight.GeoPoint{Lat: key[0], Lon: key[1], Weight: agg.weight, Count: agg.count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Lat != out[j].Lat {
			return out[i].Lat < out[j].Lat
		}
		return out[i].Lon < out[j].Lon
	})

	payload := insight.GeoPayload{Mode: insight.GeoModePoints, Points: out}
	return insight.Block{
		ID:               spec.ID,
		Type:             spec.Type,
		Title:            title,
		QuestionAnswered: geoQuestion,
		Status:           insight.StatusOK,
		Confidence:       coverageConfidence(usable, len(ctx.window)),
		SampleSize:       usable,
		BlockNarrative:   fmt.Sprintf("%d locations mapped from %d rows.", len(out), usable),
		Payload:          payload,
	}
}

// executeRegionRanking groups by a region-style column and ranks the top
// regions by measure sum, or row count when no measure is configured.
func executeRegionRanking(ctx *execContext, spec insight.BlockSpec, column string, geoLike bool) insight.Block {
	title := titleFor(spec.Type)

	type regionAgg struct {
		value float64
		count int
	}
	regions := map[string]*regionAgg{}
	usable := 0

	for _, row := range ctx.window {
		rv, ok := row[column]
		if !ok || rv.IsNull() {
			continue
		}
		usable++
		key := rv.AsString()
		agg, exists := regions[key]
		if !exists {
			agg = &regionAgg{}
			regions[key] = agg
		}
		agg.count++
		if spec.Measure != "" {
			if mv, ok := row[spec.Measure]; ok && mv.IsNumber() {
				agg.value += mv.AsFloat()
			}
		} else {
			agg.value++
		}
	}

	if usable == 0 {
		return insufficientData(spec, title, geoQuestion, "no region values", 0)
	}

	out := make([]insight.RegionAgg, 0, len(regions))
	for key, agg := range regions {
		out = append(out, insight.RegionAgg{Region: key, Value: agg.value, Count: agg.count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Region < out[j].Region
	})
	if len(out) > MaxRegions {
		out = out[:MaxRegions]
	}

	mode := insight.GeoModeRegion
	payload := insight.GeoPayload{Mode: mode, Regions: out}

	return insight.Block{
		ID:               spec.ID,
		Type:             spec.Type,
		Title:            title,
		QuestionAnswered: geoQuestion,
		Status:           insight.StatusOK,
		Confidence:       coverageConfidence(usable, len(ctx.window)),
		SampleSize:       usable,
		BlockNarrative:   fmt.Sprintf("%s leads across %d regions.", out[0].Region, len(out)),
		Payload:          payload,
	}
}
