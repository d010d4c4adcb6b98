package canon

import (
	"fmt"
	"sort"
	"strconv"
)

// CanonicalDataset is the normalized {schema, rows, metadata} shape every
// analysis stage consumes. It is constructed once per request and flows
// read-only through the pipeline.
type CanonicalDataset struct {
	Schema   []ColumnSchema    `json:"schema"`
	Rows     []Row             `json:"rows"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ColumnSchema describes one column after normalization. Produced once by
// the schema inference step and treated as immutable thereafter.
type ColumnSchema struct {
	Name         string     `json:"name"`
	InferredType ColumnType `json:"inferred_type"`
	SampleValues []string   `json:"sample_values,omitempty"`
}

// ColumnType is the inferred storage type of a column
type ColumnType string

const (
	TypeString  ColumnType = "string"
	TypeNumber  ColumnType = "number"
	TypeBoolean ColumnType = "boolean"
	TypeDate    ColumnType = "date"
	TypeObject  ColumnType = "object"
)

// Row maps sanitized column names to typed scalar values. Callers must
// iterate columns in schema or name-sorted order, never map order.
type Row map[string]Value

// ValueKind tags the closed set of scalar kinds a cell may hold
type ValueKind string

const (
	KindString  ValueKind = "string"
	KindNumber  ValueKind = "number"
	KindBoolean ValueKind = "boolean"
	KindDate    ValueKind = "date"
	KindNull    ValueKind = "null"
)

// Value is a typed scalar with deterministic coercion. Dates are carried as
// ISO-8601 strings so marshaling stays byte-stable.
type Value struct {
	Kind       ValueKind `json:"kind"`
	StringVal  *string   `json:"string_val,omitempty"`
	NumberVal  *float64  `json:"number_val,omitempty"`
	BooleanVal *bool     `json:"boolean_val,omitempty"`
	DateVal    *string   `json:"date_val,omitempty"`
}

// NewStringValue creates a string value
func NewStringValue(s string) Value {
	if s == "" {
		return NullValue()
	}
	return Value{Kind: KindString, StringVal: &s}
}

// NewNumberValue creates a numeric value
func NewNumberValue(n float64) Value {
	return Value{Kind: KindNumber, NumberVal: &n}
}

// NewBooleanValue creates a boolean value
func NewBooleanValue(b bool) Value {
	return Value{Kind: KindBoolean, BooleanVal: &b}
}

// NewDateValue creates a date value from an ISO-8601 string
func NewDateValue(iso string) Value {
	if iso == "" {
		return NullValue()
	}
	return Value{Kind: KindDate, DateVal: &iso}
}

// NullValue creates a null value
func NullValue() Value {
	return Value{Kind: KindNull}
}

// IsNull returns true for missing cells
func (v Value) IsNull() bool {
	return v.Kind == KindNull
}

// IsNumber returns true if the value holds a valid number
func (v Value) IsNumber() bool {
	return v.Kind == KindNumber && v.NumberVal != nil
}

// IsDate returns true if the value holds an ISO date string
func (v Value) IsDate() bool {
	return v.Kind == KindDate && v.DateVal != nil
}

// AsFloat returns the numeric value, or 0 if not numeric
func (v Value) AsFloat() float64 {
	if v.NumberVal != nil {
		return *v.NumberVal
	}
	return 0
}

// AsString renders the value for grouping and display. The rendering is
// stable across runs for identical inputs.
func (v Value) AsString() string {
	switch v.Kind {
	case KindString:
		if v.StringVal != nil {
			return *v.StringVal
		}
	case KindNumber:
		if v.NumberVal != nil {
			return strconv.FormatFloat(*v.NumberVal, 'g', -1, 64)
		}
	case KindBoolean:
		if v.BooleanVal != nil {
			return strconv.FormatBool(*v.BooleanVal)
		}
	case KindDate:
		if v.DateVal != nil {
			return *v.DateVal
		}
	case KindNull:
		return ""
	}
	return ""
}

// Key returns a hashable key for distinct counting and duplicate detection.
// Nulls share a single key distinct from the empty string.
func (v Value) Key() string {
	if v.IsNull() {
		return "\x00null"
	}
	return string(v.Kind) + ":" + v.AsString()
}

// RowCount returns the number of rows
func (d *CanonicalDataset) RowCount() int {
	return len(d.Rows)
}

// ColumnNames returns schema names in schema order
func (d *CanonicalDataset) ColumnNames() []string {
	names := make([]string, len(d.Schema))
	for i, col := range d.Schema {
		names[i] = col.Name
	}
	return names
}

// Column returns the schema entry for a name
func (d *CanonicalDataset) Column(name string) (ColumnSchema, bool) {
	for _, col := range d.Schema {
		if col.Name == name {
			return col, true
		}
	}
	return ColumnSchema{}, false
}

// SortedColumnNames returns schema names in ascending order, for stages
// that must walk columns deterministically regardless of schema order.
func (d *CanonicalDataset) SortedColumnNames() []string {
	names := d.ColumnNames()
	sort.Strings(names)
	return names
}

// Validate checks the structural invariants: unique non-empty column names
// and rows keyed only by schema names.
func (d *CanonicalDataset) Validate() error {
	seen := make(map[string]bool, len(d.Schema))
	for _, col := range d.Schema {
		if col.Name == "" {
			return fmt.Errorf("schema contains an empty column name")
		}
		if seen[col.Name] {
			return fmt.Errorf("duplicate column name: %s", col.Name)
		}
		seen[col.Name] = true
	}
	for i, row := range d.Rows {
		for key := range row {
			if !seen[key] {
				return fmt.Errorf("row %d has key %q outside the schema", i, key)
			}
		}
	}
	return nil
}
