package insight

import "studio/domain/profile"

// Delta is an absolute and percentage change pair
type Delta struct {
	Abs float64  `json:"abs"`
	Pct *float64 `json:"pct,omitempty"`
}

// PeriodValue is an aggregated value at one period key
type PeriodValue struct {
	PeriodKey string  `json:"period_key"`
	Value     float64 `json:"value"`
}

// RangeComparison compares the whole observed range against an
// equal-length prior range.
type RangeComparison struct {
	CurrentTotal float64 `json:"current_total"`
	PriorTotal   float64 `json:"prior_total"`
	Change       Delta   `json:"change"`
}

// TopContributor names the largest group within the latest period
type TopContributor struct {
	Dimension string  `json:"dimension"`
	Group     string  `json:"group"`
	Value     float64 `json:"value"`
	SharePct  float64 `json:"share_pct"`
}

// YearOverYear compares the latest year against the previous one
type YearOverYear struct {
	LatestYear    int     `json:"latest_year"`
	PreviousYear  int     `json:"previous_year"`
	LatestValue   float64 `json:"latest_value"`
	PreviousValue float64 `json:"previous_value"`
	Change        Delta   `json:"change"`
}

// ExecutiveKPIs is the latest-vs-previous headline comparison
type ExecutiveKPIs struct {
	Latest       PeriodValue      `json:"latest"`
	Previous     PeriodValue      `json:"previous"`
	Change       Delta            `json:"change"`
	Range        *RangeComparison `json:"range,omitempty"`
	Contributor  *TopContributor  `json:"contributor,omitempty"`
	YearOverYear *YearOverYear    `json:"year_over_year,omitempty"`
}

// KPIEntry is one scored top measure
type KPIEntry struct {
	Column   string  `json:"column"`
	Score    float64 `json:"score"`
	Median   float64 `json:"median"`
	FillRate float64 `json:"fill_rate"`
	Latest   float64 `json:"latest"`
}

// KPIPayload is the payload of a KPIBlock
type KPIPayload struct {
	PrimaryMeasure string         `json:"primary_measure,omitempty"`
	KPIs           []KPIEntry     `json:"kpis,omitempty"`
	ExecutiveKPIs  *ExecutiveKPIs `json:"executive_kpis,omitempty"`
	Reason         string         `json:"reason,omitempty"`
}

// TrendPoint is one grain-aligned bucket of a trend series
type TrendPoint struct {
	PeriodKey string  `json:"period_key"`
	Value     float64 `json:"value"`
	Count     int     `json:"count"`
}

// AnomalyMarker flags a first-difference outlier in a trend series
type AnomalyMarker struct {
	PeriodKey string  `json:"period_key"`
	ZScore    float64 `json:"z_score"`
	Delta     float64 `json:"delta"`
}

// TrendPayload is the payload of a TrendBlock
type TrendPayload struct {
	Measure     string          `json:"measure,omitempty"`
	Aggregation string          `json:"aggregation"`
	Grain       Grain           `json:"grain"`
	Series      []TrendPoint    `json:"series"`
	Anomalies   []AnomalyMarker `json:"anomalies,omitempty"`
	Slope       float64         `json:"slope"`
	Reason      string          `json:"reason,omitempty"`
}

// Driver is one scored dimension group
type Driver struct {
	Dimension string  `json:"dimension"`
	Group     string  `json:"group"`
	Count     int     `json:"count"`
	Total     float64 `json:"total"`
	Average   float64 `json:"average"`
	Share     float64 `json:"share"`
	Lift      float64 `json:"lift"`
	Score     float64 `json:"score"`
}

// DriverPayload is the payload of a DriverBlock
type DriverPayload struct {
	Measure        string   `json:"measure"`
	OverallAverage float64  `json:"overall_average"`
	TopDrivers     []Driver `json:"top_drivers"`
	Reason         string   `json:"reason,omitempty"`
}

// GeoPoint is one grouped coordinate with optional weight
type GeoPoint struct {
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Weight float64 `json:"weight"`
	Count  int     `json:"count"`
}

// RegionAgg is one ranked region aggregate
type RegionAgg struct {
	Region string  `json:"region"`
	Value  float64 `json:"value"`
	Count  int     `json:"count"`
}

// GeoPayload is the payload of GeoBlock and GeoLikeBlock
type GeoPayload struct {
	Mode    GeoMode     `json:"mode"`
	Points  []GeoPoint  `json:"points,omitempty"`
	Regions []RegionAgg `json:"regions,omitempty"`
	Reason  string      `json:"reason,omitempty"`
}

// PeriodTotal sums a measure over one half of the observed range
type PeriodTotal struct {
	Start string  `json:"start"`
	End   string  `json:"end"`
	Rows  int     `json:"rows"`
	Total float64 `json:"total"`
}

// GroupShift is one dimension group's first-vs-second half movement
type GroupShift struct {
	Group  string  `json:"group"`
	First  float64 `json:"first"`
	Second float64 `json:"second"`
	Delta  float64 `json:"delta"`
}

// DimensionShift collects group shifts for one dimension
type DimensionShift struct {
	Dimension string       `json:"dimension"`
	Groups    []GroupShift `json:"groups"`
}

// ComparePeriodsPayload is the payload of a ComparePeriodsBlock
type ComparePeriodsPayload struct {
	Measure         string           `json:"measure"`
	Midpoint        string           `json:"midpoint,omitempty"`
	FirstHalf       PeriodTotal      `json:"first_half"`
	SecondHalf      PeriodTotal      `json:"second_half"`
	Delta           *Delta           `json:"delta,omitempty"`
	DimensionShifts []DimensionShift `json:"dimension_shifts,omitempty"`
	Reason          string           `json:"reason,omitempty"`
}

// GroupAgg is one aggregated category
type GroupAgg struct {
	Group    string  `json:"group"`
	Value    float64 `json:"value"`
	Count    int     `json:"count"`
	SharePct float64 `json:"share_pct"`
}

// TopNPayload is the payload of TopNBlock, including breakdown fallbacks
type TopNPayload struct {
	Dimension    string     `json:"dimension"`
	Measure      string     `json:"measure,omitempty"`
	Aggregation  string     `json:"aggregation"`
	Groups       []GroupAgg `json:"groups"`
	Other        *GroupAgg  `json:"other,omitempty"`
	FallbackFrom BlockType  `json:"fallback_from,omitempty"`
	Reason       string     `json:"reason,omitempty"`
}

// BreakdownPayload enumerates all categories of a low-cardinality dimension
type BreakdownPayload struct {
	Dimension   string     `json:"dimension"`
	Measure     string     `json:"measure,omitempty"`
	Aggregation string     `json:"aggregation"`
	Categories  []GroupAgg `json:"categories"`
	Reason      string     `json:"reason,omitempty"`
}

// HistBucket is one histogram bucket
type HistBucket struct {
	Lo    float64 `json:"lo"`
	Hi    float64 `json:"hi"`
	Count int     `json:"count"`
}

// DistributionSummary carries the summary statistics behind a histogram
type DistributionSummary struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// DistributionPayload is the payload of a DistributionBlock
type DistributionPayload struct {
	Column  string              `json:"column"`
	Buckets []HistBucket        `json:"buckets"`
	Summary DistributionSummary `json:"summary"`
	Reason  string              `json:"reason,omitempty"`
}

// ColumnNullPct pairs a column with its null percentage
type ColumnNullPct struct {
	Column  string  `json:"column"`
	NullPct float64 `json:"null_pct"`
}

// QualityPayload is the payload of a DataQualityBlock
type QualityPayload struct {
	DuplicatesPct float64              `json:"duplicates_pct"`
	NullPcts      []ColumnNullPct      `json:"null_pcts,omitempty"`
	ParseIssues   []profile.ParseIssue `json:"parse_issues,omitempty"`
	RowsChecked   int                  `json:"rows_checked"`
	Reason        string               `json:"reason,omitempty"`
}

// DetailsPayload is the payload of a DetailsTableBlock
type DetailsPayload struct {
	Columns   []string   `json:"columns"`
	Rows      [][]string `json:"rows"`
	TotalRows int        `json:"total_rows"`
}

// AnomalyPayload is the payload of the AnomalyBlock stub
type AnomalyPayload struct {
	Reason string `json:"reason"`
}
