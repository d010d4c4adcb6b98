// Package scene arranges executed blocks into pages and derives the
// global filter set. Layout depends only on block types, template id and
// overrides, never on block payload contents.
package scene

import (
	"fmt"
	"regexp"
	"sort"

	"studio/domain/insight"
	"studio/domain/profile"
	"studio/domain/template"
	"studio/internal/profiling"
)

// MaxFilters caps the derived global filter set
const MaxFilters = 4

// Input collects everything the scene builder reads
type Input struct {
	Blocks    []insight.Block
	Profile   *profile.DatasetProfile
	Template  template.Config
	Overrides *insight.Overrides
}

// defaultTypeOrder is the display ordering when neither the template nor
// overrides specify one. Unknown types sort after all of these.
var defaultTypeOrder = []insight.BlockType{
	insight.BlockKPI,
	insight.BlockTrend,
	insight.BlockDriver,
	insight.BlockGeo,
	insight.BlockGeoLike,
	insight.BlockComparePeriods,
	insight.BlockAnomaly,
	insight.BlockTopN,
	insight.BlockBreakdown,
	insight.BlockDistribution,
	insight.BlockDataQuality,
	insight.BlockDetailsTable,
}

var agencyLikePattern = regexp.MustCompile(`(?i)(agency|department|bureau|office|organization)`)
var naicsLikePattern = regexp.MustCompile(`(?i)(naics|psc|sic|industry_code)`)

// Build filters disabled block types, orders the survivors, partitions
// them into template pages and derives up to MaxFilters filter widgets.
func Build(in Input) insight.SceneGraph {
	kept := make([]insight.Block, 0, len(in.Blocks))
	for _, b := range in.Blocks {
		if in.Overrides.BlockEnabled(b.Type) {
			kept = append(kept, b)
		}
	}

	order := typeOrder(in)
	sort.SliceStable(kept, func(i, j int) bool {
		return orderIndex(order, kept[i].Type) < orderIndex(order, kept[j].Type)
	})

	nodes := make([]insight.Node, 0, len(kept))
	for i, b := range kept {
		nodes = append(nodes, insight.Node{
			ID:      fmt.Sprintf("node-%d", i),
			BlockID: b.ID,
			Type:    b.Type,
			Order:   i,
		})
	}

	return insight.SceneGraph{
		Nodes:   nodes,
		Filters: deriveFilters(in.Profile),
		Pages:   buildPages(nodes, in.Template.ID),
	}
}

func typeOrder(in Input) []insight.BlockType {
	if in.Overrides != nil && len(in.Overrides.BlockOrder) > 0 {
		return in.Overrides.BlockOrder
	}
	return defaultTypeOrder
}

func orderIndex(order []insight.BlockType, t insight.BlockType) int {
	for i, o := range order {
		if o == t {
			return i
		}
	}
	return len(order)
}

// pageRule maps a block type to its page for one template layout
type pageRule struct {
	id    string
	label string
	types []insight.BlockType
}

func pageLayout(templateID string) []pageRule {
	overview := pageRule{id: "overview", label: "Overview", types: []insight.BlockType{
		insight.BlockKPI, insight.BlockTrend, insight.BlockDriver,
		insight.BlockGeo, insight.BlockGeoLike,
	}}
	insights := pageRule{id: "insights", label: "Insights", types: []insight.BlockType{
		insight.BlockComparePeriods, insight.BlockAnomaly, insight.BlockTopN,
		insight.BlockBreakdown, insight.BlockDistribution,
	}}
	quality := pageRule{id: "quality", label: "Data Quality", types: []insight.BlockType{
		insight.BlockDataQuality,
	}}
	details := pageRule{id: "details", label: "Details", types: []insight.BlockType{
		insight.BlockDetailsTable,
	}}

	if templateID == "govcon" {
		overview.types = []insight.BlockType{
			insight.BlockKPI, insight.BlockTrend, insight.BlockDriver,
		}
		geography := pageRule{id: "geography", label: "Geography", types: []insight.BlockType{
			insight.BlockGeo, insight.BlockGeoLike,
		}}
		return []pageRule{overview, geography, insights, quality, details}
	}
	return []pageRule{overview, insights, quality, details}
}

// buildPages assigns each node to its template page, keeping node order.
// Pages with no nodes are dropped. Types no rule claims land on the last
// page.
func buildPages(nodes []insight.Node, templateID string) []insight.Page {
	rules := pageLayout(templateID)

	claimed := map[insight.BlockType]int{}
	for i, rule := range rules {
		for _, t := range rule.types {
			claimed[t] = i
		}
	}

	byPage := make([][]string, len(rules))
	for _, node := range nodes {
		idx, ok := claimed[node.Type]
		if !ok {
			idx = len(rules) - 1
		}
		byPage[idx] = append(byPage[idx], node.ID)
	}

	var pages []insight.Page
	for i, rule := range rules {
		if len(byPage[i]) == 0 {
			continue
		}
		pages = append(pages, insight.Page{ID: rule.id, Label: rule.label, NodeIDs: byPage[i]})
	}
	return pages
}

// deriveFilters picks up to MaxFilters widgets from column names and
// roles: a time range, a geo dropdown, an agency-like dropdown and a
// NAICS-like dropdown, in that priority order.
func deriveFilters(prof *profile.DatasetProfile) []insight.FilterSpec {
	if prof == nil {
		return nil
	}

	var filters []insight.FilterSpec
	add := func(f insight.FilterSpec) {
		if len(filters) < MaxFilters {
			filters = append(filters, f)
		}
	}

	if col := firstWithRole(prof, profile.RoleTime); col != "" {
		add(insight.FilterSpec{ID: "filter-time", Kind: insight.FilterTimeRange, Label: "Time range", Column: col})
	}
	if col := firstWithRole(prof, profile.RoleGeo); col != "" {
		add(insight.FilterSpec{ID: "filter-geo", Kind: insight.FilterDropdown, Label: "Location", Column: col})
	}
	if col := firstMatching(prof, agencyLikePattern); col != "" {
		add(insight.FilterSpec{ID: "filter-agency", Kind: insight.FilterDropdown, Label: "Agency", Column: col})
	}
	if col := firstMatching(prof, naicsLikePattern); col != "" {
		add(insight.FilterSpec{ID: "filter-industry", Kind: insight.FilterDropdown, Label: "Industry", Column: col})
	}
	return filters
}

func firstWithRole(prof *profile.DatasetProfile, role profile.Role) string {
	for _, col := range prof.Columns {
		if col.RoleCandidate == role {
			// Prefer a coordinate-free geo column for dropdowns.
			if role == profile.RoleGeo && (profiling.LooksLikeLatColumnName(col.Name) || profiling.LooksLikeLonColumnName(col.Name)) {
				continue
			}
			return col.Name
		}
	}
	return ""
}

func firstMatching(prof *profile.DatasetProfile, pattern *regexp.Regexp) string {
	for _, col := range prof.Columns {
		if pattern.MatchString(col.Name) {
			return col.Name
		}
	}
	return ""
}
