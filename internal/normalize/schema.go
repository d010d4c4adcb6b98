package normalize

import (
	"sort"

	"studio/domain/canon"
)

// Type inference thresholds. A column takes a non-string type only when
// enough of its sampled non-null values agree.
const (
	TypeSampleLimit        = 250
	DateDetectThreshold    = 0.7
	BooleanDetectThreshold = 0.8
	NumberDetectThreshold  = 0.8
)

// DefaultSampleValuesLimit bounds stored per-column sample values
const DefaultSampleValuesLimit = 5

// InferSchema derives one immutable ColumnSchema per column over a bounded
// row sample. Columns come out name-sorted so the schema is deterministic
// regardless of input map ordering.
func InferSchema(rows []canon.Row, sampleRowLimit, sampleValuesLimit int) []canon.ColumnSchema {
	if sampleRowLimit <= 0 || sampleRowLimit > len(rows) {
		sampleRowLimit = len(rows)
	}
	if sampleValuesLimit <= 0 {
		sampleValuesLimit = DefaultSampleValuesLimit
	}

	names := map[string]bool{}
	for _, row := range rows[:sampleRowLimit] {
		for name := range row {
			names[name] = true
		}
	}
	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	schema := make([]canon.ColumnSchema, 0, len(sorted))
	for _, name := range sorted {
		schema = append(schema, canon.ColumnSchema{
			Name:         name,
			InferredType: detectType(rows[:sampleRowLimit], name),
			SampleValues: sampleValues(rows[:sampleRowLimit], name, sampleValuesLimit),
		})
	}
	return schema
}

// detectType samples up to TypeSampleLimit non-null values and classifies
// the column by kind-agreement ratios: date wins at 0.7, boolean and
// number at 0.8, anything weaker stays string.
func detectType(rows []canon.Row, column string) canon.ColumnType {
	var sampled, numbers, booleans, dates int
	for _, row := range rows {
		if sampled >= TypeSampleLimit {
			break
		}
		val, ok := row[column]
		if !ok || val.IsNull() {
			continue
		}
		sampled++
		switch val.Kind {
		case canon.KindNumber:
			numbers++
		case canon.KindBoolean:
			booleans++
		case canon.KindDate:
			dates++
		}
	}
	if sampled == 0 {
		return canon.TypeString
	}

	total := float64(sampled)
	switch {
	case float64(dates)/total >= DateDetectThreshold:
		return canon.TypeDate
	case float64(booleans)/total >= BooleanDetectThreshold:
		return canon.TypeBoolean
	case float64(numbers)/total >= NumberDetectThreshold:
		return canon.TypeNumber
	}
	return canon.TypeString
}

func sampleValues(rows []canon.Row, column string, limit int) []string {
	var samples []string
	for _, row := range rows {
		val, ok := row[column]
		if !ok || val.IsNull() {
			continue
		}
		samples = append(samples, val.AsString())
		if len(samples) >= limit {
			break
		}
	}
	return samples
}

// Dataset is the convenience entry point for connectors: normalize raw
// records and infer the schema in one pass.
func Dataset(rawRows []map[string]any, rowLimit int, metadata map[string]string) canon.CanonicalDataset {
	rows := Rows(rawRows, rowLimit)
	return canon.CanonicalDataset{
		Schema:   InferSchema(rows, len(rows), DefaultSampleValuesLimit),
		Rows:     rows,
		Metadata: metadata,
	}
}
