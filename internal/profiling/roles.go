package profiling

import (
	"math"
	"regexp"
	"strings"

	"studio/domain/canon"
	"studio/domain/profile"
	"studio/internal/normalize"
)

// Role-assignment thresholds. The year-like and text heuristics are tunable
// with no documented derivation; keep them as named constants.
const (
	DateParseThreshold      = 0.7
	DateParseThresholdLoose = 0.5

	YearMin            = 1900
	YearMax            = 2100
	YearIntegerRatio   = 0.8
	MinYearSamples     = 3
	YearCardinalityMin = 0.5

	IDCardinalityRatio        = 0.9
	IDCardinalityRatioRelaxed = 0.6
	SmallDatasetRows          = 50

	StateCodeRatio = 0.8

	TextAvgLength          = 30.0
	TextShortAvgLength     = 15.0
	TextHighCardinalityMin = 0.5

	roleSampleLimit = 250
)

var (
	timeNamePattern = regexp.MustCompile(`(?i)(^|_)(date|time|timestamp|day|month|created|updated|posted|occurred)($|_|s$)`)
	yearNamePattern = regexp.MustCompile(`(?i)(^|_)(year|yr|fy|fiscal_year)($|_)`)
	geoNamePattern  = regexp.MustCompile(`(?i)(^|_)(state|city|country|county|region|province|lat|latitude|lon|lng|longitude|zip|zipcode|postal|postal_code)($|_)`)
	latNamePattern  = regexp.MustCompile(`(?i)(^|_)(lat|latitude)($|_)`)
	lonNamePattern  = regexp.MustCompile(`(?i)(^|_)(lon|lng|longitude)($|_)`)
	idNamePattern   = regexp.MustCompile(`(?i)(^|_)(id|uuid|guid|key|code|number|num|no)($|_)`)
)

var usStateCodes = map[string]bool{
	"AL": true, "AK": true, "AZ": true, "AR": true, "CA": true, "CO": true,
	"CT": true, "DE": true, "FL": true, "GA": true, "HI": true, "ID": true,
	"IL": true, "IN": true, "IA": true, "KS": true, "KY": true, "LA": true,
	"ME": true, "MD": true, "MA": true, "MI": true, "MN": true, "MS": true,
	"MO": true, "MT": true, "NE": true, "NV": true, "NH": true, "NJ": true,
	"NM": true, "NY": true, "NC": true, "ND": true, "OH": true, "OK": true,
	"OR": true, "PA": true, "RI": true, "SC": true, "SD": true, "TN": true,
	"TX": true, "UT": true, "VT": true, "VA": true, "WA": true, "WV": true,
	"WI": true, "WY": true, "DC": true, "PR": true,
}

// LooksLikeTimeColumnName reports a date/time meaning in the name
func LooksLikeTimeColumnName(name string) bool {
	return timeNamePattern.MatchString(name)
}

// LooksLikeYearColumnName reports a year/fiscal-year meaning in the name
func LooksLikeYearColumnName(name string) bool {
	return yearNamePattern.MatchString(name)
}

// LooksLikeGeoColumnName reports a geographic meaning in the name
func LooksLikeGeoColumnName(name string) bool {
	return geoNamePattern.MatchString(name)
}

// LooksLikeLatColumnName reports a latitude meaning in the name
func LooksLikeLatColumnName(name string) bool {
	return latNamePattern.MatchString(name)
}

// LooksLikeLonColumnName reports a longitude meaning in the name
func LooksLikeLonColumnName(name string) bool {
	return lonNamePattern.MatchString(name)
}

// LooksLikeIDColumnName reports an identifier meaning in the name
func LooksLikeIDColumnName(name string) bool {
	return idNamePattern.MatchString(name)
}

// IsUSStateCode reports whether a value is a valid 2-letter US state code
func IsUSStateCode(s string) bool {
	return usStateCodes[strings.ToUpper(strings.TrimSpace(s))]
}

// columnFacts carries the per-column numbers role assignment needs
type columnFacts struct {
	name          string
	inferredType  canon.ColumnType
	rows          int
	nonNull       int
	distinctCount int
	avgLength     float64
	minVal        float64
	maxVal        float64
	hasRange      bool
	dateRatio     float64
	yearRatio     float64
	yearSamples   int
	yearsNonDecr  bool
	stateRatio    float64
}

// assignRole applies the deterministic precedence:
// time > geo > id > measure > text > dimension.
func assignRole(f columnFacts) profile.Role {
	if isTimeRole(f) {
		return profile.RoleTime
	}
	if isGeoRole(f) {
		return profile.RoleGeo
	}
	if isIDRole(f) {
		return profile.RoleID
	}
	if isMeasureRole(f) {
		return profile.RoleMeasure
	}
	if isTextRole(f) {
		return profile.RoleText
	}
	return profile.RoleDimension
}

func isTimeRole(f columnFacts) bool {
	threshold := DateParseThreshold
	if f.inferredType == canon.TypeDate {
		threshold = DateParseThresholdLoose
	}
	if f.dateRatio >= threshold {
		return true
	}
	if LooksLikeTimeColumnName(f.name) && f.inferredType == canon.TypeDate {
		return true
	}
	// Year-like numeric columns: name suggests year and sampled values are
	// overwhelmingly integers in [1900,2100] with either high cardinality
	// or a non-decreasing sequence.
	if f.inferredType == canon.TypeNumber && LooksLikeYearColumnName(f.name) &&
		f.yearSamples >= MinYearSamples && f.yearRatio >= YearIntegerRatio {
		cardinality := 0.0
		if f.rows > 0 {
			cardinality = float64(f.distinctCount) / float64(f.rows)
		}
		if cardinality >= YearCardinalityMin || f.yearsNonDecr {
			return true
		}
	}
	return false
}

func isGeoRole(f columnFacts) bool {
	if LooksLikeGeoColumnName(f.name) {
		return true
	}
	lower := strings.ToLower(f.name)
	return strings.Contains(lower, "state") && f.stateRatio >= StateCodeRatio
}

func isIDRole(f columnFacts) bool {
	if !LooksLikeIDColumnName(f.name) || f.nonNull == 0 {
		return false
	}
	ratio := float64(f.distinctCount) / float64(f.nonNull)
	required := IDCardinalityRatio
	if f.rows <= SmallDatasetRows {
		required = IDCardinalityRatioRelaxed
	}
	return ratio >= required
}

func isMeasureRole(f columnFacts) bool {
	// A constant numeric column is never a measure.
	return f.inferredType == canon.TypeNumber &&
		f.distinctCount >= 2 &&
		f.hasRange && math.Abs(f.maxVal-f.minVal) > 0
}

func isTextRole(f columnFacts) bool {
	if f.inferredType != canon.TypeString {
		return false
	}
	if f.avgLength > TextAvgLength {
		return true
	}
	cardinality := 0.0
	if f.nonNull > 0 {
		cardinality = float64(f.distinctCount) / float64(f.nonNull)
	}
	return cardinality >= TextHighCardinalityMin && f.avgLength > TextShortAvgLength
}

// dateParseRatio measures date-parse success over a bounded sample
func dateParseRatio(rows []canon.Row, column string) float64 {
	var sampled, parsed int
	for _, row := range rows {
		if sampled >= roleSampleLimit {
			break
		}
		val, ok := row[column]
		if !ok || val.IsNull() {
			continue
		}
		sampled++
		if val.IsDate() {
			parsed++
			continue
		}
		if val.Kind == canon.KindString && normalize.LooksLikeDateString(val.AsString()) {
			parsed++
		}
	}
	if sampled == 0 {
		return 0
	}
	return float64(parsed) / float64(sampled)
}
