package normalize

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"studio/domain/canon"
)

// Strict date patterns. A string is date-like only when it matches one of
// these; bare 1-6 digit numbers (years, ids) never qualify.
var (
	isoDatePattern     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	slashDatePattern   = regexp.MustCompile(`^\d{1,4}/\d{1,2}/\d{1,4}$`)
	dashDatePattern    = regexp.MustCompile(`^\d{1,2}-\d{1,2}-\d{4}$`)
	isoDateTimePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}(:\d{2})?(\.\d+)?(Z|[+-]\d{2}:?\d{2})?$`)
)

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"02/01/2006",
	"01-02-2006",
	"1-2-2006",
	"02-01-2006",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// Epoch ranges treated as timestamps: integer seconds roughly 2001-2096
// and the matching milliseconds band.
const (
	epochSecondsMin = 1_000_000_000
	epochSecondsMax = 4_000_000_000
	epochMillisMin  = 1_000_000_000_000
	epochMillisMax  = 4_000_000_000_000
)

// LooksLikeDateString reports whether a string matches the strict
// date pattern table.
func LooksLikeDateString(s string) bool {
	s = strings.TrimSpace(s)
	return isoDatePattern.MatchString(s) ||
		slashDatePattern.MatchString(s) ||
		dashDatePattern.MatchString(s) ||
		isoDateTimePattern.MatchString(s)
}

// ParseDate parses a date-like string into a time, trying the strict
// layouts in a fixed order.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if !LooksLikeDateString(s) {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// formatISO renders a parsed date back to an ISO string: date-only values
// keep the short form, anything with a clock keeps RFC3339.
func formatISO(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.UTC().Format(time.RFC3339)
}

// NormalizeEpoch converts epoch-looking numbers to ISO timestamps.
// Everything outside the seconds and milliseconds bands passes through.
func NormalizeEpoch(n float64) (string, bool) {
	if n != math.Trunc(n) {
		return "", false
	}
	v := int64(n)
	switch {
	case v >= epochSecondsMin && v < epochSecondsMax:
		return time.Unix(v, 0).UTC().Format(time.RFC3339), true
	case v >= epochMillisMin && v < epochMillisMax:
		return time.UnixMilli(v).UTC().Format(time.RFC3339), true
	}
	return "", false
}

var currencyStrip = strings.NewReplacer("$", "", "€", "", "£", "", "¥", "", ",", "", "%", "", " ", "", "\t", "")

// ParseNumericString parses a string as a number after stripping currency
// symbols, commas, and whitespace. Parenthesized values read as negatives.
func ParseNumericString(s string) (float64, bool) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		cleaned = strings.TrimSuffix(strings.TrimPrefix(cleaned, "("), ")")
		negative = true
	}

	cleaned = currencyStrip.Replace(cleaned)
	if cleaned == "" {
		return 0, false
	}
	if negative {
		cleaned = "-" + cleaned
	}

	val, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsInf(val, 0) || math.IsNaN(val) {
		return 0, false
	}
	return val, true
}

// ParseBooleanString parses the accepted boolean spellings. Bare digits are
// excluded so numeric columns never read as boolean.
func ParseBooleanString(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "on":
		return true, true
	case "false", "no", "n", "off":
		return false, true
	}
	return false, false
}

// CoerceValue deterministically converts a raw scalar to a typed Value.
// Date-like strings and epoch-looking numbers normalize to ISO dates;
// numeric-looking strings become numbers; everything else passes through.
func CoerceValue(raw any) canon.Value {
	switch v := raw.(type) {
	case nil:
		return canon.NullValue()
	case bool:
		return canon.NewBooleanValue(v)
	case float64:
		if iso, ok := NormalizeEpoch(v); ok {
			return canon.NewDateValue(iso)
		}
		return canon.NewNumberValue(v)
	case float32:
		return CoerceValue(float64(v))
	case int:
		return CoerceValue(float64(v))
	case int32:
		return CoerceValue(float64(v))
	case int64:
		return CoerceValue(float64(v))
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return canon.NullValue()
		}
		if t, ok := ParseDate(trimmed); ok {
			return canon.NewDateValue(formatISO(t))
		}
		if n, ok := ParseNumericString(trimmed); ok {
			return canon.NewNumberValue(n)
		}
		if b, ok := ParseBooleanString(trimmed); ok {
			return canon.NewBooleanValue(b)
		}
		return canon.NewStringValue(trimmed)
	case time.Time:
		return canon.NewDateValue(formatISO(v))
	default:
		return canon.NewStringValue(strings.TrimSpace(fmt.Sprintf("%v", v)))
	}
}
