// Package orchestrator chooses the time column and grain, dimensions, and
// geo configuration, and emits the ordered block list for execution.
package orchestrator

import (
	"sort"
	"strings"
	"time"

	"studio/domain/canon"
	"studio/domain/insight"
	"studio/domain/profile"
	"studio/domain/template"
	"studio/internal/profiling"
)

// Options carries the optional template bias and explicit overrides
type Options struct {
	Template  template.Config
	Overrides *insight.Overrides
}

// Grain inference thresholds over the bounded time sample
const (
	GrainSampleRows = 5000
	DaySpanMaxDays  = 45
	DayDensityMin   = 0.75
	WeekSpanMaxDays = 180
	WeekDensityMin  = 0.3
)

// Dimension candidate bounds
const (
	DimensionDistinctMin  = 2
	DimensionDistinctCap  = 200
	DimensionRowShareCap  = 0.95
	LowCardinalityCeiling = 20
	DefaultTopN           = 12
	TopNMin               = 5
	TopNMax               = 30
	TopDimensionLimit     = 3
)

var regionLikePattern = []string{"region", "zone", "territory", "area", "district"}
var topDimPreferred = []string{"category", "region", "product"}

// Plan builds the AnalysisPlan from the profile and semantic graph
func Plan(prof *profile.DatasetProfile, graph *insight.SemanticGraph, ds *canon.CanonicalDataset, opts Options) insight.AnalysisPlan {
	timeColumn := chooseTimeColumn(graph, opts)
	grain := chooseGrain(ds, timeColumn, opts)
	dims := chooseDimensions(prof, opts)
	topDims := chooseTopDimensions(prof)
	geo := chooseGeo(prof)

	selections := insight.Selections{
		TimeColumn:         timeColumn,
		Grain:              grain,
		Measures:           graph.MeasureColumns(),
		PrimaryMeasure:     graph.PrimaryMeasure,
		Geo:                geo,
		DataQualityPenalty: qualityPenalty(prof, timeColumn, graph.PrimaryMeasure, dims),
		TopDims:            topDims,
	}
	if len(dims) > 0 {
		selections.Dimension = dims[0]
	}

	blocks := assembleBlocks(selections, dims, prof, opts)
	blocks = applyOverrides(blocks, opts.Overrides)

	return insight.AnalysisPlan{Blocks: blocks, Selections: selections}
}

// chooseTimeColumn: override first, then template hints over time-role
// columns, then the first time-role column.
func chooseTimeColumn(graph *insight.SemanticGraph, opts Options) string {
	if opts.Overrides != nil && opts.Overrides.TimeField != "" {
		if col, ok := graph.ResolveColumn(opts.Overrides.TimeField); ok {
			return col
		}
	}
	timeCols := graph.TimeColumns()
	if len(timeCols) == 0 {
		return ""
	}
	for _, hint := range opts.Template.TimeFieldHints {
		h := strings.ToLower(hint)
		for _, col := range timeCols {
			if strings.Contains(strings.ToLower(col), h) {
				return col
			}
		}
	}
	return timeCols[0]
}

// chooseGrain: override, then template default when the column parses in
// the data, then span/density inference over a bounded sample.
func chooseGrain(ds *canon.CanonicalDataset, timeColumn string, opts Options) insight.Grain {
	if timeColumn == "" {
		return ""
	}
	if opts.Overrides != nil {
		if g, ok := insight.ParseGrain(opts.Overrides.TimeGrain); ok {
			return g
		}
	}

	days := sampleDays(ds, timeColumn)
	if opts.Template.DefaultTimeGrain != "" && len(days) > 0 {
		return opts.Template.DefaultTimeGrain
	}
	if len(days) == 0 {
		return insight.GrainMonth
	}

	minDay, maxDay := days[0], days[0]
	distinct := make(map[int64]bool, len(days))
	for _, d := range days {
		if d < minDay {
			minDay = d
		}
		if d > maxDay {
			maxDay = d
		}
		distinct[d] = true
	}
	spanDays := float64(maxDay-minDay) + 1
	density := float64(len(distinct)) / spanDays

	switch {
	case spanDays <= DaySpanMaxDays && density >= DayDensityMin:
		return insight.GrainDay
	case spanDays <= WeekSpanMaxDays && density >= WeekDensityMin:
		return insight.GrainWeek
	}
	return insight.GrainMonth
}

// sampleDays parses the time column over a bounded sample into epoch days
func sampleDays(ds *canon.CanonicalDataset, timeColumn string) []int64 {
	var days []int64
	for i, row := range ds.Rows {
		if i >= GrainSampleRows {
			break
		}
		val, ok := row[timeColumn]
		if !ok || !val.IsDate() {
			continue
		}
		if t, ok := parseISO(val.AsString()); ok {
			days = append(days, t.Unix()/86400)
		}
	}
	return days
}

func parseISO(s string) (time.Time, bool) {
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// dimCandidate pairs a profile entry with its priority boost
type dimCandidate struct {
	col      profile.ColumnProfile
	priority int // lower is better; len(priorities) means unmatched
}

// chooseDimensions ranks dimension and geo columns by template priority,
// geo-ness, low cardinality, distinct count, then name.
func chooseDimensions(prof *profile.DatasetProfile, opts Options) []string {
	priorities := opts.Template.DimensionPriority
	if opts.Overrides != nil && len(opts.Overrides.FocusDimensions) > 0 {
		priorities = opts.Overrides.FocusDimensions
	}

	var candidates []dimCandidate
	for _, col := range prof.Columns {
		if col.RoleCandidate != profile.RoleDimension && col.RoleCandidate != profile.RoleGeo {
			continue
		}
		if !dimensionCardinalityOK(col.DistinctCount, prof.DatasetStats.ProfiledRowCount) {
			continue
		}
		candidates = append(candidates, dimCandidate{col: col, priority: priorityIndex(col.Name, priorities)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.priority != b.priority {
			return a.priority < b.priority
		}
		aGeo := a.col.RoleCandidate == profile.RoleGeo
		bGeo := b.col.RoleCandidate == profile.RoleGeo
		if aGeo != bGeo {
			return aGeo
		}
		aLow := a.col.DistinctCount <= LowCardinalityCeiling
		bLow := b.col.DistinctCount <= LowCardinalityCeiling
		if aLow != bLow {
			return aLow
		}
		if a.col.DistinctCount != b.col.DistinctCount {
			return a.col.DistinctCount < b.col.DistinctCount
		}
		return a.col.Name < b.col.Name
	})

	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		names = append(names, c.col.Name)
	}
	return names
}

func dimensionCardinalityOK(distinct, rows int) bool {
	limit := DimensionDistinctCap
	if byShare := int(float64(rows) * DimensionRowShareCap); byShare < limit {
		limit = byShare
	}
	return distinct >= DimensionDistinctMin && distinct <= limit
}

func priorityIndex(name string, priorities []string) int {
	lower := strings.ToLower(name)
	for i, p := range priorities {
		if p == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(p)) {
			return i
		}
	}
	return len(priorities)
}

// chooseTopDimensions applies an analogous ordering restricted to string
// dimension columns, preferring category/region/product names.
func chooseTopDimensions(prof *profile.DatasetProfile) []string {
	var candidates []dimCandidate
	for _, col := range prof.Columns {
		if col.RoleCandidate != profile.RoleDimension || col.InferredType != canon.TypeString {
			continue
		}
		if !dimensionCardinalityOK(col.DistinctCount, prof.DatasetStats.ProfiledRowCount) {
			continue
		}
		candidates = append(candidates, dimCandidate{col: col, priority: priorityIndex(col.Name, topDimPreferred)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.priority != b.priority {
			return a.priority < b.priority
		}
		if a.col.DistinctCount != b.col.DistinctCount {
			return a.col.DistinctCount < b.col.DistinctCount
		}
		return a.col.Name < b.col.Name
	})

	names := make([]string, 0, TopDimensionLimit)
	for _, c := range candidates {
		names = append(names, c.col.Name)
		if len(names) >= TopDimensionLimit {
			break
		}
	}
	return names
}

// chooseGeo prefers point mode (lat+lon pair), then a region-like geo
// column, else none.
func chooseGeo(prof *profile.DatasetProfile) insight.GeoConfig {
	var lat, lon, region string
	for _, col := range prof.Columns {
		name := col.Name
		switch {
		case lat == "" && profiling.LooksLikeLatColumnName(name) && col.InferredType == canon.TypeNumber:
			lat = name
		case lon == "" && profiling.LooksLikeLonColumnName(name) && col.InferredType == canon.TypeNumber:
			lon = name
		case region == "" && col.RoleCandidate == profile.RoleGeo:
			region = name
		}
	}
	if lat != "" && lon != "" {
		return insight.GeoConfig{Mode: insight.GeoModePoints, LatColumn: lat, LonColumn: lon}
	}
	if region != "" {
		return insight.GeoConfig{Mode: insight.GeoModeRegion, RegionColumn: region}
	}
	return insight.GeoConfig{Mode: insight.GeoModeNone}
}

// qualityPenalty badges trust; it never suppresses computation
func qualityPenalty(prof *profile.DatasetProfile, timeColumn, primaryMeasure string, dims []string) float64 {
	topColumns := []string{timeColumn, primaryMeasure}
	topColumns = append(topColumns, dims...)

	maxMissing := 0.0
	for _, name := range topColumns {
		if name == "" {
			continue
		}
		if col, ok := prof.ColumnByName(name); ok && col.NullPct > maxMissing {
			maxMissing = col.NullPct
		}
	}

	issueCount := 0
	for _, issue := range prof.Quality.ParseIssues {
		issueCount += issue.Count
	}
	issueTerm := float64(issueCount) / 20
	if issueTerm > 0.5 {
		issueTerm = 0.5
	}

	penalty := prof.Quality.DuplicatesPct*0.6 + maxMissing*0.9 + issueTerm*0.5
	return clamp01(penalty)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
