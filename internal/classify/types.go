// Package classify infers the semantic type of a single column of raw values.
//
// Classification is statistical: a candidate type is accepted when a large
// enough share of the column's non-null values parse as that type, so noisy
// real-world columns (typos, stray markers) still classify sensibly.
// Candidates are tried in a fixed order and the first one accepted wins:
//
//  1. numeric (Int or Float)
//  2. Complex
//  3. Date
//  4. Category or Text, by cardinality
//
// Everything in this package is pure; per-value failures become nulls in the
// normalized output and are never returned as errors.
package classify

import "fmt"

// TypeLabel is the semantic type assigned to a column.
type TypeLabel string

const (
	Int      TypeLabel = "Int"
	Float    TypeLabel = "Float"
	Complex  TypeLabel = "Complex"
	Date     TypeLabel = "Date"
	Category TypeLabel = "Category"
	Text     TypeLabel = "Text"
)

func (l TypeLabel) String() string { return string(l) }

// Thresholds are the acceptance ratios used by Classify.
type Thresholds struct {
	// Numeric is the minimum share of values that parse as numbers (default 0.6).
	Numeric float64

	// Complex is the minimum share of values that look like complex numbers (default 0.6).
	Complex float64

	// Date is the minimum share of values that parse as dates (default 0.6).
	Date float64

	// CategoryCardinality is the maximum unique/non-null ratio for Category (default 0.5).
	CategoryCardinality float64

	// TwoDigitYearMax is the latest year a two-digit year can denote
	// (default 2068, so "69" is 1969). Zero means the default.
	TwoDigitYearMax int
}

// DefaultThresholds returns the fixed thresholds used by the service.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Numeric:             0.6,
		Complex:             0.6,
		Date:                0.6,
		CategoryCardinality: 0.5,
		TwoDigitYearMax:     DefaultTwoDigitYearMax,
	}
}

// Validate checks that every ratio lies in [0, 1].
func (t Thresholds) Validate() error {
	for name, v := range map[string]float64{
		"numeric":              t.Numeric,
		"complex":              t.Complex,
		"date":                 t.Date,
		"category_cardinality": t.CategoryCardinality,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s threshold %v out of range [0, 1]", name, v)
		}
	}
	if t.TwoDigitYearMax < 0 || (t.TwoDigitYearMax > 0 && t.TwoDigitYearMax < 100) {
		return fmt.Errorf("two-digit year max %d must be zero or at least 100", t.TwoDigitYearMax)
	}
	return nil
}

// Result is the outcome of classifying one column.
type Result struct {
	Label TypeLabel

	// Values holds the normalized column, index-aligned with the input.
	// Elements are int64, float64, complex128, time.Time or string depending
	// on Label, and nil where the input was null or failed to convert.
	Values []any

	NonNull int
	Unique  int
}
