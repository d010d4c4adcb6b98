// Package profiling computes per-column statistics, role candidates, and
// dataset-level quality metrics over a bounded row sample. Re-profiling the
// same dataset with the same options yields a byte-identical profile.
package profiling

import (
	"math"

	"github.com/montanaflynn/stats"

	"studio/domain/canon"
	"studio/domain/profile"
)

// Options bounds the profiling cost
type Options struct {
	MaxProfileRows    int
	SampleValuesLimit int
}

// Defaults keep per-request latency predictable regardless of true size
const (
	DefaultMaxProfileRows    = 2000
	DefaultSampleValuesLimit = 5
	DistinctKeyCap           = 50_000
)

func (o Options) withDefaults() Options {
	if o.MaxProfileRows <= 0 {
		o.MaxProfileRows = DefaultMaxProfileRows
	}
	if o.SampleValuesLimit <= 0 {
		o.SampleValuesLimit = DefaultSampleValuesLimit
	}
	return o
}

// ProfileDataset profiles the first MaxProfileRows rows of the dataset,
// walking columns in name-sorted order for determinism.
func ProfileDataset(ds *canon.CanonicalDataset, opts Options) profile.DatasetProfile {
	opts = opts.withDefaults()

	window := ds.Rows
	if len(window) > opts.MaxProfileRows {
		window = window[:opts.MaxProfileRows]
	}

	names := ds.SortedColumnNames()
	columns := make([]profile.ColumnProfile, 0, len(names))
	var issues []profile.ParseIssue

	for _, name := range names {
		schema, _ := ds.Column(name)
		facts := gatherFacts(window, name, schema.InferredType)
		columns = append(columns, profile.ColumnProfile{
			Name:          name,
			InferredType:  schema.InferredType,
			RoleCandidate: assignRole(facts),
			NullPct:       nullPct(facts, len(window)),
			DistinctCount: facts.distinctCount,
			AvgLength:     facts.avgLength,
			SampleValues:  schema.SampleValues,
		})
		issues = append(issues, ParseIssuesFor(window, name, schema.InferredType)...)
	}

	return profile.DatasetProfile{
		DatasetStats: profile.DatasetStats{
			RowCount:         len(ds.Rows),
			ColumnCount:      len(names),
			ProfiledRowCount: len(window),
		},
		Columns: columns,
		Quality: profile.QualityReport{
			DuplicatesPct:      DuplicateRowPct(window, names),
			MissingnessSummary: missingness(window, columns),
			ParseIssues:        SortIssues(issues),
		},
	}
}

func nullPct(f columnFacts, rows int) float64 {
	if rows == 0 {
		return 0
	}
	return float64(rows-f.nonNull) / float64(rows)
}

// gatherFacts collects the per-column numbers role assignment needs in a
// single pass over the profiled window.
func gatherFacts(window []canon.Row, name string, inferred canon.ColumnType) columnFacts {
	f := columnFacts{name: name, inferredType: inferred, rows: len(window)}

	distinct := make(map[string]bool)
	var lengths []float64
	var prevYear float64
	f.yearsNonDecr = true

	var stateSampled, stateValid int

	for _, row := range window {
		val, ok := row[name]
		if !ok || val.IsNull() {
			continue
		}
		f.nonNull++

		if len(distinct) < DistinctKeyCap {
			distinct[val.Key()] = true
		}

		rendered := val.AsString()
		lengths = append(lengths, float64(len(rendered)))

		if val.IsNumber() {
			n := val.AsFloat()
			if !f.hasRange {
				f.minVal, f.maxVal, f.hasRange = n, n, true
			} else {
				f.minVal = math.Min(f.minVal, n)
				f.maxVal = math.Max(f.maxVal, n)
			}
			if f.yearSamples < roleSampleLimit {
				f.yearSamples++
				if n == math.Trunc(n) && n >= YearMin && n <= YearMax {
					f.yearRatio++ // running count, normalized below
				}
				if f.yearSamples > 1 && n < prevYear {
					f.yearsNonDecr = false
				}
				prevYear = n
			}
		}

		if val.Kind == canon.KindString && stateSampled < roleSampleLimit {
			stateSampled++
			if IsUSStateCode(rendered) {
				stateValid++
			}
		}
	}

	f.distinctCount = len(distinct)
	if len(lengths) > 0 {
		mean, err := stats.Mean(lengths)
		if err == nil {
			f.avgLength = mean
		}
	}
	if f.yearSamples > 0 {
		f.yearRatio = f.yearRatio / float64(f.yearSamples)
	}
	if stateSampled > 0 {
		f.stateRatio = float64(stateValid) / float64(stateSampled)
	}
	f.dateRatio = dateParseRatio(window, name)
	return f
}
