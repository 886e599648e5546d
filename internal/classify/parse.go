package classify

// parse.go holds the per-value parsers used by the classifier.
//
// Each parser reports success explicitly instead of failing, so a bad cell
// costs one ratio point rather than aborting the column.

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// numericRegex matches integers, decimals and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// complexRegex matches "a+bj" style complex literals, e.g. "1+2j" or "-3.5-4.2J".
var complexRegex = regexp.MustCompile(`^[+-]?\d+(\.\d+)?[+-]\d+(\.\d+)?[jJ]$`)

var (
	minInt64 = decimal.NewFromInt(math.MinInt64)
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
)

const (
	// maxExponent bounds the exponent of an accepted number. It is past the
	// float64 range, and decimal comparisons and conversions cost O(|exponent|).
	maxExponent = 400

	// maxFloatDigits is the largest integer-part digit count a float64 holds.
	maxFloatDigits = 309

	// maxInt64Digits is the digit count of math.MaxInt64.
	maxInt64Digits = 19
)

// DefaultTwoDigitYearMax is the latest year a two-digit year denotes unless
// Thresholds says otherwise: "69" is 1969 and "68" is 2068.
const DefaultTwoDigitYearMax = 2068

// Date layouts split by year format for proper 2-digit year handling
var (
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06",
	}
	fourDigitYearLayouts = []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02 15:04",
		"2006-01-02",
		"2006/01/02 15:04:05",
		"2006/01/02",
		"2006.01.02",
		"1/2/2006 15:04:05",
		"1/2/2006 15:04",
		"1/2/2006 3:04 PM",
		"1/2/2006",
		"1-2-2006",
		"1.2.2006",
		"Jan 2, 2006",
		"Jan 2 2006",
		"January 2, 2006",
		"2 Jan 2006",
		"2 January 2006",
		"02-Jan-2006",
		"Mon, 02 Jan 2006 15:04:05 MST",
		"Mon, 02 Jan 2006 15:04:05 -0700",
		"Mon Jan _2 15:04:05 2006",
		"20060102",
	}
)

// ParseNumber parses s as a decimal number.
// Surrounding whitespace is ignored; hex, currency and thousands
// separators are not accepted. Values outside the float64 range, such as
// "1e999", are not numbers.
func ParseNumber(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" || !numericRegex.MatchString(s) {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	if exp := d.Exponent(); exp > maxExponent || exp < -maxExponent {
		return decimal.Decimal{}, false
	}
	if intDigits(d) > maxFloatDigits {
		return decimal.Decimal{}, false
	}
	return d, true
}

// IsIntegral reports whether d has no fractional part and fits in an int64.
func IsIntegral(d decimal.Decimal) bool {
	if d.Exponent() < -maxExponent || intDigits(d) > maxInt64Digits {
		return false
	}
	return d.IsInteger() && d.GreaterThanOrEqual(minInt64) && d.LessThanOrEqual(maxInt64)
}

// intDigits returns the number of digits before the decimal point of d,
// or a value <= 0 when |d| < 1.
func intDigits(d decimal.Decimal) int {
	if d.IsZero() {
		return 1
	}
	return d.NumDigits() + int(d.Exponent())
}

// LooksComplex reports whether s is written as a complex literal like "1+2j".
func LooksComplex(s string) bool {
	return complexRegex.MatchString(strings.TrimSpace(s))
}

// ParseComplex converts s to a complex128. Both "j" and "i" suffixes are
// accepted, as are plain real numbers.
func ParseComplex(s string) (complex128, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if last := s[len(s)-1]; last == 'j' || last == 'J' {
		s = s[:len(s)-1] + "i"
	}
	c, err := strconv.ParseComplex(s, 128)
	if err != nil {
		return 0, false
	}
	return c, true
}

// ParseDate parses s as a calendar date or timestamp.
// Four-digit year layouts are tried before ambiguous two-digit ones. A
// two-digit year lands in the hundred years ending at twoDigitYearMax;
// zero means DefaultTwoDigitYearMax.
func ParseDate(s string, twoDigitYearMax int) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return inCentury(t, twoDigitYearMax), true
		}
	}

	return time.Time{}, false
}

// inCentury moves t to the year with the same last two digits in
// (latest-100, latest].
func inCentury(t time.Time, latest int) time.Time {
	if latest <= 0 {
		latest = DefaultTwoDigitYearMax
	}
	year := latest - latest%100 + t.Year()%100
	if year > latest {
		year -= 100
	}
	if year == t.Year() {
		return t
	}
	return time.Date(year, t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
