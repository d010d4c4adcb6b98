// Package semantics turns a dataset profile into a role map and selects
// the single primary measure, optionally biased by a domain template and
// explicit overrides.
package semantics

import (
	"math"
	"sort"
	"strings"

	"studio/domain/canon"
	"studio/domain/insight"
	"studio/domain/profile"
	"studio/domain/template"
)

// Options carries the optional template bias and explicit overrides
type Options struct {
	Template  template.Config
	Overrides *insight.Overrides
}

// Variance scanning is capped so selection cost stays bounded
const (
	VarianceRowCap    = 8000
	NonTrivialMeanEps = 1e-9
	NonTrivialMeanMin = 3
)

// Built-in preference substrings for common metric names, in match order
var measureNamePreferences = []string{"sales", "revenue", "amount", "cost", "spend", "income"}

// BuildGraph builds the read-only semantic graph for one analysis run
func BuildGraph(prof *profile.DatasetProfile, ds *canon.CanonicalDataset, opts Options) insight.SemanticGraph {
	graph := insight.SemanticGraph{
		Columns: make(map[string]insight.ColumnSemantics, len(prof.Columns)),
	}
	for _, col := range prof.Columns {
		graph.Columns[col.Name] = insight.ColumnSemantics{
			RoleCandidate: col.RoleCandidate,
			InferredType:  col.InferredType,
			NullPct:       col.NullPct,
			DistinctCount: col.DistinctCount,
		}
	}

	primary, used := selectPrimaryMeasure(&graph, ds, opts)
	graph.PrimaryMeasure = primary
	graph.OverridesUsed = used
	return graph
}

// selectPrimaryMeasure applies the fixed priority order: explicit override,
// template hint, built-in name preference, then largest variance.
func selectPrimaryMeasure(graph *insight.SemanticGraph, ds *canon.CanonicalDataset, opts Options) (string, []string) {
	if opts.Overrides != nil && opts.Overrides.PrimaryMeasure != "" {
		if col, ok := graph.ResolveColumn(opts.Overrides.PrimaryMeasure); ok {
			return col, []string{"primary_measure"}
		}
	}

	candidates := graph.MeasureColumns()
	if len(candidates) == 0 {
		return "", nil
	}

	if !opts.Template.IsGeneral() {
		if col, ok := matchHints(candidates, opts.Template.PrimaryMeasureHints); ok {
			return col, nil
		}
	}

	if col, ok := matchHints(candidates, measureNamePreferences); ok {
		return col, nil
	}

	return largestVariance(candidates, ds), nil
}

// matchHints returns the first candidate whose name contains (or is
// contained by) a hint, in hint order.
func matchHints(candidates []string, hints []string) (string, bool) {
	for _, hint := range hints {
		h := strings.ToLower(hint)
		if h == "" {
			continue
		}
		for _, col := range candidates {
			c := strings.ToLower(col)
			if strings.Contains(c, h) || strings.Contains(h, c) {
				return col, true
			}
		}
	}
	return "", false
}

// welford accumulates running mean and sample variance online
type welford struct {
	n    int
	mean float64
	m2   float64
}

func (w *welford) add(x float64) {
	w.n++
	delta := x - w.mean
	w.mean += delta / float64(w.n)
	w.m2 += delta * (x - w.mean)
}

func (w *welford) variance() float64 {
	if w.n < 2 {
		return 0
	}
	return w.m2 / float64(w.n-1)
}

func (w *welford) nonTrivialMean() bool {
	return w.n >= NonTrivialMeanMin && math.Abs(w.mean) > NonTrivialMeanEps
}

// largestVariance picks the candidate with the largest sample variance,
// preferring columns with a non-trivially non-zero mean; ties break by
// name ascending.
func largestVariance(candidates []string, ds *canon.CanonicalDataset) string {
	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)

	accs := make(map[string]*welford, len(sorted))
	for _, col := range sorted {
		accs[col] = &welford{}
	}

	rows := ds.Rows
	if len(rows) > VarianceRowCap {
		rows = rows[:VarianceRowCap]
	}
	for _, row := range rows {
		for _, col := range sorted {
			if val, ok := row[col]; ok && val.IsNumber() {
				accs[col].add(val.AsFloat())
			}
		}
	}

	best := ""
	bestVar := math.Inf(-1)
	bestNonTrivial := false
	for _, col := range sorted {
		acc := accs[col]
		v := acc.variance()
		nt := acc.nonTrivialMean()
		switch {
		case best == "":
			best, bestVar, bestNonTrivial = col, v, nt
		case nt && !bestNonTrivial:
			best, bestVar, bestNonTrivial = col, v, nt
		case nt == bestNonTrivial && v > bestVar:
			best, bestVar, bestNonTrivial = col, v, nt
		}
	}
	return best
}
