package orchestrator

import (
	"sort"
	"strings"

	"studio/domain/insight"
	"studio/domain/profile"
)

// BreakdownCategoryCap is the maximum category count a BreakdownBlock may
// enumerate before the executor falls back to TopN.
const BreakdownCategoryCap = 8

// assembleBlocks emits the ordered block list. KPI opens, DataQuality
// closes; everything between is conditional on the selections.
func assembleBlocks(sel insight.Selections, dims []string, prof *profile.DatasetProfile, opts Options) []insight.BlockSpec {
	topN := DefaultTopN
	if opts.Overrides != nil && opts.Overrides.TopNLimit != 0 {
		topN = clampTopN(opts.Overrides.TopNLimit)
	}

	var blocks []insight.BlockSpec

	blocks = append(blocks, insight.BlockSpec{
		ID:         "kpi",
		Type:       insight.BlockKPI,
		TimeColumn: sel.TimeColumn,
		Grain:      sel.Grain,
		Measure:    sel.PrimaryMeasure,
		Dimensions: firstN(dims, 1),
	})

	if sel.TimeColumn != "" {
		blocks = append(blocks, insight.BlockSpec{
			ID:         "trend",
			Type:       insight.BlockTrend,
			TimeColumn: sel.TimeColumn,
			Grain:      sel.Grain,
			Measure:    sel.PrimaryMeasure,
		})
	}

	if sel.PrimaryMeasure != "" && len(dims) > 0 {
		blocks = append(blocks, insight.BlockSpec{
			ID:         "driver",
			Type:       insight.BlockDriver,
			Measure:    sel.PrimaryMeasure,
			Dimensions: firstN(dims, 2),
			TopN:       topN,
		})
	}

	blocks = append(blocks, geoFamilyBlock(sel, dims))

	if sel.PrimaryMeasure != "" {
		blocks = append(blocks, insight.BlockSpec{
			ID:      "distribution",
			Type:    insight.BlockDistribution,
			Measure: sel.PrimaryMeasure,
		})
	}

	if len(sel.TopDims) > 0 {
		blocks = append(blocks, insight.BlockSpec{
			ID:         "breakdown",
			Type:       insight.BlockBreakdown,
			Measure:    sel.PrimaryMeasure,
			Dimensions: firstN(sel.TopDims, 1),
			TopN:       topN,
		})
	}

	blocks = append(blocks, insight.BlockSpec{
		ID:   "details",
		Type: insight.BlockDetailsTable,
	})

	if sel.TimeColumn != "" && sel.PrimaryMeasure != "" && len(dims) > 0 {
		blocks = append(blocks, insight.BlockSpec{
			ID:         "compare",
			Type:       insight.BlockComparePeriods,
			TimeColumn: sel.TimeColumn,
			Grain:      sel.Grain,
			Measure:    sel.PrimaryMeasure,
			Dimensions: firstN(dims, 2),
		})
	}

	if opts.Overrides != nil && opts.Overrides.EnabledBlocks[insight.BlockAnomaly] {
		blocks = append(blocks, insight.BlockSpec{
			ID:         "anomaly",
			Type:       insight.BlockAnomaly,
			TimeColumn: sel.TimeColumn,
			Grain:      sel.Grain,
			Measure:    sel.PrimaryMeasure,
		})
	}

	blocks = append(blocks, insight.BlockSpec{
		ID:   "quality",
		Type: insight.BlockDataQuality,
	})

	return blocks
}

// geoFamilyBlock picks GeoBlock for a real geo config, GeoLikeBlock for a
// region-or-zone-like dimension, else a bare GeoBlock placeholder.
func geoFamilyBlock(sel insight.Selections, dims []string) insight.BlockSpec {
	if sel.Geo.Mode != insight.GeoModeNone {
		geo := sel.Geo
		if geo.Mode == insight.GeoModePoints && sel.PrimaryMeasure != "" {
			geo.WeightColumn = sel.PrimaryMeasure
		}
		return insight.BlockSpec{
			ID:      "geo",
			Type:    insight.BlockGeo,
			Measure: sel.PrimaryMeasure,
			Geo:     &geo,
		}
	}
	for _, dim := range dims {
		if isRegionLikeName(dim) {
			return insight.BlockSpec{
				ID:         "geolike",
				Type:       insight.BlockGeoLike,
				Measure:    sel.PrimaryMeasure,
				Dimensions: []string{dim},
			}
		}
	}
	return insight.BlockSpec{
		ID:   "geo",
		Type: insight.BlockGeo,
		Geo:  &insight.GeoConfig{Mode: insight.GeoModeNone},
	}
}

func isRegionLikeName(name string) bool {
	lower := strings.ToLower(name)
	for _, p := range regionLikePattern {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// applyOverrides filters disabled types, re-sorts per an explicit block
// order (unknown types last, stable), and retargets breakdown dimensions.
func applyOverrides(blocks []insight.BlockSpec, overrides *insight.Overrides) []insight.BlockSpec {
	if overrides == nil {
		return blocks
	}

	filtered := blocks[:0:0]
	for _, spec := range blocks {
		if overrides.BlockEnabled(spec.Type) {
			filtered = append(filtered, spec)
		}
	}

	if overrides.BreakdownDimension != "" {
		for i := range filtered {
			if filtered[i].Type == insight.BlockTopN || filtered[i].Type == insight.BlockBreakdown {
				filtered[i].Dimensions = []string{overrides.BreakdownDimension}
			}
		}
	}

	if len(overrides.BlockOrder) > 0 {
		rank := make(map[insight.BlockType]int, len(overrides.BlockOrder))
		for i, t := range overrides.BlockOrder {
			rank[t] = i
		}
		unknown := len(overrides.BlockOrder)
		sort.SliceStable(filtered, func(i, j int) bool {
			ri, ok := rank[filtered[i].Type]
			if !ok {
				ri = unknown
			}
			rj, ok := rank[filtered[j].Type]
			if !ok {
				rj = unknown
			}
			return ri < rj
		})
	}

	return filtered
}

func clampTopN(n int) int {
	if n < TopNMin {
		return TopNMin
	}
	if n > TopNMax {
		return TopNMax
	}
	return n
}

func firstN(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
