// Package normalize flattens raw nested records into canonical rows,
// sanitizes column names, and applies deterministic value coercion.
package normalize

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"studio/domain/canon"
)

// JoinToken joins parent keys when flattening nested records. Two chars so
// name sanitization can collapse longer separator runs back to it without
// corrupting flattening boundaries.
const JoinToken = "__"

// FallbackName replaces column names that sanitize to nothing
const FallbackName = "field"

var (
	nonWordRun   = regexp.MustCompile(`\W+`)
	multiSepRun  = regexp.MustCompile(`_{3,}`)
	leadingDigit = regexp.MustCompile(`^\d`)
)

// SanitizeName makes a raw key a safe, stable column identifier
func SanitizeName(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, raw)

	cleaned = nonWordRun.ReplaceAllString(cleaned, "_")
	cleaned = multiSepRun.ReplaceAllString(cleaned, JoinToken)
	cleaned = strings.Trim(cleaned, "_")

	if cleaned == "" {
		return FallbackName
	}
	if leadingDigit.MatchString(cleaned) {
		cleaned = "f_" + cleaned
	}
	return cleaned
}

// Flatten walks a nested record and emits one sanitized key per scalar
// leaf. Arrays are serialized to a compact string rather than exploded
// into columns, to bound column count.
func Flatten(record map[string]any) map[string]any {
	flat := make(map[string]any, len(record))
	flattenInto(flat, "", record)
	return flat
}

func flattenInto(flat map[string]any, prefix string, record map[string]any) {
	// Walk keys in sorted order so collision resolution is deterministic.
	keys := make([]string, 0, len(record))
	for k := range record {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		name := SanitizeName(key)
		if prefix != "" {
			name = prefix + JoinToken + name
		}
		switch v := record[key].(type) {
		case map[string]any:
			flattenInto(flat, name, v)
		case []any:
			flat[assignName(flat, name)] = serializeArray(v)
		default:
			flat[assignName(flat, name)] = v
		}
	}
}

// assignName resolves sanitized-name collisions with a numeric suffix
func assignName(flat map[string]any, name string) string {
	if _, taken := flat[name]; !taken {
		return name
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s_%d", name, i)
		if _, taken := flat[candidate]; !taken {
			return candidate
		}
	}
}

func serializeArray(arr []any) string {
	data, err := json.Marshal(arr)
	if err != nil {
		return fmt.Sprintf("%v", arr)
	}
	return string(data)
}

// Rows normalizes raw records into canonical rows: flattening, name
// sanitization, and per-cell coercion. rowLimit <= 0 means no limit.
// Identical inputs always yield identical rows.
func Rows(rawRows []map[string]any, rowLimit int) []canon.Row {
	n := len(rawRows)
	if rowLimit > 0 && n > rowLimit {
		n = rowLimit
	}

	rows := make([]canon.Row, 0, n)
	for i := 0; i < n; i++ {
		flat := Flatten(rawRows[i])
		row := make(canon.Row, len(flat))
		for name, raw := range flat {
			row[name] = CoerceValue(raw)
		}
		rows = append(rows, row)
	}
	return rows
}
