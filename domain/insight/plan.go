package insight

import "sort"

// Grain is the time-bucketing granularity used for trends and comparisons
type Grain string

const (
	GrainDay   Grain = "day"
	GrainWeek  Grain = "week"
	GrainMonth Grain = "month"
)

// ParseGrain validates a grain string
func ParseGrain(s string) (Grain, bool) {
	switch Grain(s) {
	case GrainDay, GrainWeek, GrainMonth:
		return Grain(s), true
	}
	return "", false
}

// BlockType tags the catalog of analytical block types
type BlockType string

const (
	BlockKPI            BlockType = "KPIBlock"
	BlockTrend          BlockType = "TrendBlock"
	BlockDriver         BlockType = "DriverBlock"
	BlockGeo            BlockType = "GeoBlock"
	BlockGeoLike        BlockType = "GeoLikeBlock"
	BlockComparePeriods BlockType = "ComparePeriodsBlock"
	BlockDistribution   BlockType = "DistributionBlock"
	BlockTopN           BlockType = "TopNBlock"
	BlockBreakdown      BlockType = "BreakdownBlock"
	BlockAnomaly        BlockType = "AnomalyBlock"
	BlockDataQuality    BlockType = "DataQualityBlock"
	BlockDetailsTable   BlockType = "DetailsTableBlock"
)

// GeoMode selects how a geo block is executed
type GeoMode string

const (
	GeoModePoints GeoMode = "points"
	GeoModeRegion GeoMode = "region"
	GeoModeNone   GeoMode = "none"
)

// GeoConfig names the columns a geo-family block executes against
type GeoConfig struct {
	Mode         GeoMode `json:"mode"`
	LatColumn    string  `json:"lat_column,omitempty"`
	LonColumn    string  `json:"lon_column,omitempty"`
	RegionColumn string  `json:"region_column,omitempty"`
	WeightColumn string  `json:"weight_column,omitempty"`
}

// BlockSpec names a block type and the concrete columns and parameters it
// will be executed with.
type BlockSpec struct {
	ID         string     `json:"id"`
	Type       BlockType  `json:"type"`
	TimeColumn string     `json:"time_column,omitempty"`
	Grain      Grain      `json:"grain,omitempty"`
	Measure    string     `json:"measure,omitempty"`
	Dimensions []string   `json:"dimensions,omitempty"`
	Geo        *GeoConfig `json:"geo,omitempty"`
	TopN       int        `json:"top_n,omitempty"`
}

// Selections records the concrete choices the planner made
type Selections struct {
	TimeColumn         string    `json:"time_column,omitempty"`
	Grain              Grain     `json:"grain,omitempty"`
	Measures           []string  `json:"measures,omitempty"`
	PrimaryMeasure     string    `json:"primary_measure,omitempty"`
	Dimension          string    `json:"dimension,omitempty"`
	TopDims            []string  `json:"top_dims,omitempty"`
	Geo                GeoConfig `json:"geo"`
	DataQualityPenalty float64   `json:"data_quality_penalty"`
}

// AnalysisPlan is the ordered block list plus the selections behind it
type AnalysisPlan struct {
	Blocks     []BlockSpec `json:"blocks"`
	Selections Selections  `json:"selections"`
}

// BlockOfType returns the first spec of the given type
func (p *AnalysisPlan) BlockOfType(t BlockType) (BlockSpec, bool) {
	for _, spec := range p.Blocks {
		if spec.Type == t {
			return spec, true
		}
	}
	return BlockSpec{}, false
}

// HasBlockType reports whether the plan contains a spec of the given type
func (p *AnalysisPlan) HasBlockType(t BlockType) bool {
	_, ok := p.BlockOfType(t)
	return ok
}

func sortStrings(s []string) {
	sort.Strings(s)
}
