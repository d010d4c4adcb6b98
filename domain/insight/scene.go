package insight

// Node wraps exactly one executed block reference plus display order
type Node struct {
	ID      string    `json:"id"`
	BlockID string    `json:"block_id"`
	Type    BlockType `json:"type"`
	Order   int       `json:"order"`
}

// FilterKind tags the global filter widget types
type FilterKind string

const (
	FilterTimeRange FilterKind = "time_range"
	FilterDropdown  FilterKind = "dropdown"
)

// FilterSpec describes one global filter widget, derived purely from
// column names and roles, never from block payloads.
type FilterSpec struct {
	ID     string     `json:"id"`
	Kind   FilterKind `json:"kind"`
	Label  string     `json:"label"`
	Column string     `json:"column"`
}

// Page is one named tab of ordered nodes
type Page struct {
	ID      string   `json:"id"`
	Label   string   `json:"label"`
	NodeIDs []string `json:"node_ids"`
}

// SceneGraph is the final page arrangement plus derived filters,
// ready for a presentation layer to render.
type SceneGraph struct {
	Nodes   []Node       `json:"nodes"`
	Filters []FilterSpec `json:"filters,omitempty"`
	Pages   []Page       `json:"pages"`
}
