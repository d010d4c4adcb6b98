package insight

// Overrides carries explicit user choices that take precedence over the
// planner's heuristics. Zero values mean "no override".
type Overrides struct {
	TimeField          string             `json:"time_field,omitempty"`
	TimeGrain          string             `json:"time_grain,omitempty"`
	PrimaryMeasure     string             `json:"primary_measure,omitempty"`
	FocusDimensions    []string           `json:"focus_dimensions,omitempty"`
	EnabledBlocks      map[BlockType]bool `json:"enabled_blocks,omitempty"`
	BlockOrder         []BlockType        `json:"block_order,omitempty"`
	TopNLimit          int                `json:"top_n_limit,omitempty"`
	BreakdownDimension string             `json:"breakdown_dimension,omitempty"`
	CompareMode        string             `json:"compare_mode,omitempty"`
}

// BlockEnabled reports whether a block type survives the enabled-blocks
// filter. Types absent from the map stay enabled.
func (o *Overrides) BlockEnabled(t BlockType) bool {
	if o == nil || o.EnabledBlocks == nil {
		return true
	}
	enabled, ok := o.EnabledBlocks[t]
	if !ok {
		return true
	}
	return enabled
}
