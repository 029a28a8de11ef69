// Package units converts and formats size-chart measurements.
//
// Inches are the only stored unit. Centimeters are derived for display and
// are never persisted, so conversion is applied exactly once per read.
package units

import (
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Unit is a display unit for measurements.
type Unit string

const (
	Inches      Unit = "in"
	Centimeters Unit = "cm"
)

// Placeholder is rendered for any missing value.
const Placeholder = "-"

var cmPerInch = decimal.RequireFromString("2.54")

// ParseUnit maps a user supplied unit to a Unit. Anything that is not "cm"
// falls back to inches.
func ParseUnit(s string) Unit {
	if strings.EqualFold(strings.TrimSpace(s), string(Centimeters)) {
		return Centimeters
	}
	return Inches
}

// Valid reports whether u is one of the supported units.
func (u Unit) Valid() bool {
	return u == Inches || u == Centimeters
}

// Suffix returns the symbol appended by the *WithUnit formatters.
func (u Unit) Suffix() string {
	if u == Centimeters {
		return "cm"
	}
	return `"`
}

// ========================================
// CONVERSION
// ========================================

// finite reports whether v can be represented as a decimal.
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// InchesToCm converts inches to centimeters rounded to one decimal place.
// NaN and infinities convert to 0.
func InchesToCm(inches float64) float64 {
	if !finite(inches) {
		return 0
	}
	v, _ := decimal.NewFromFloat(inches).Mul(cmPerInch).Round(1).Float64()
	return v
}

// CmToInches converts centimeters to inches rounded to one decimal place.
// NaN and infinities convert to 0.
func CmToInches(cm float64) float64 {
	if !finite(cm) {
		return 0
	}
	v, _ := decimal.NewFromFloat(cm).Div(cmPerInch).Round(1).Float64()
	return v
}

// convert returns the stored inch value expressed in unit.
func convert(inches float64, unit Unit) decimal.Decimal {
	if unit == Centimeters {
		return decimal.NewFromFloat(inches).Mul(cmPerInch).Round(1)
	}
	return decimal.NewFromFloat(inches)
}

// ========================================
// FORMATTING
// ========================================

// FormatMeasurement renders an inch value in unit without a suffix.
// Missing or non-finite values render the placeholder.
func FormatMeasurement(inches *float64, unit Unit) string {
	if inches == nil || !finite(*inches) {
		return Placeholder
	}
	return convert(*inches, unit).String()
}

// FormatMeasurementWithUnit renders an inch value in unit followed by the
// unit symbol.
func FormatMeasurementWithUnit(inches *float64, unit Unit) string {
	if inches == nil || !finite(*inches) {
		return Placeholder
	}
	return FormatMeasurement(inches, unit) + unit.Suffix()
}

// FormatRange renders "{min} - {max}" in unit, or the placeholder when
// either bound is missing or non-finite.
func FormatRange(minInches, maxInches *float64, unit Unit) string {
	if minInches == nil || maxInches == nil || !finite(*minInches) || !finite(*maxInches) {
		return Placeholder
	}
	return FormatMeasurement(minInches, unit) + " - " + FormatMeasurement(maxInches, unit)
}

// FormatRangeWithUnit is FormatRange with a single trailing unit symbol.
func FormatRangeWithUnit(minInches, maxInches *float64, unit Unit) string {
	if minInches == nil || maxInches == nil || !finite(*minInches) || !finite(*maxInches) {
		return Placeholder
	}
	return FormatRange(minInches, maxInches, unit) + unit.Suffix()
}

// ========================================
// PARSING
// ========================================

var (
	unitSuffix   = regexp.MustCompile(`(?i)\s*(cm|in|inches|")\s*$`)
	rangePattern = regexp.MustCompile(`^\s*([0-9]*\.?[0-9]+)\s*[-–]\s*([0-9]*\.?[0-9]+)\s*$`)
)

// ParseMeasurement normalizes display input in unit to a stored inch value
// rounded to two decimals. Invalid or negative input yields nil.
func ParseMeasurement(input string, unit Unit) *float64 {
	s := unitSuffix.ReplaceAllString(strings.TrimSpace(input), "")
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return nil
	}
	return toStoredInches(d, unit)
}

// ParseRange parses "a - b" (hyphen or en dash) into stored inch bounds.
// Both results are nil when the input is invalid or min exceeds max.
func ParseRange(input string, unit Unit) (*float64, *float64) {
	s := unitSuffix.ReplaceAllString(strings.TrimSpace(input), "")
	m := rangePattern.FindStringSubmatch(s)
	if m == nil {
		return nil, nil
	}
	lo, err := decimal.NewFromString(m[1])
	if err != nil {
		return nil, nil
	}
	hi, err := decimal.NewFromString(m[2])
	if err != nil || lo.GreaterThan(hi) {
		return nil, nil
	}
	return toStoredInches(lo, unit), toStoredInches(hi, unit)
}

func toStoredInches(d decimal.Decimal, unit Unit) *float64 {
	if unit == Centimeters {
		d = d.Div(cmPerInch)
	}
	v, _ := d.Round(2).Float64()
	return &v
}
