package classify

import "github.com/shopspring/decimal"

// Classify infers the type of one column and returns its normalized values.
// A nil element of values is null. th is used as given; pass
// DefaultThresholds() for the standard behaviour.
func Classify(values []*string, th Thresholds) Result {
	nonNull, unique := counts(values)
	res := Result{NonNull: nonNull, Unique: unique}

	// Nothing to measure: every ratio would divide by zero
	if nonNull == 0 {
		res.Label, res.Values = Text, make([]any, len(values))
		return res
	}

	if label, normalized, ok := classifyNumeric(values, nonNull, th.Numeric); ok {
		res.Label, res.Values = label, normalized
		return res
	}

	if ratio(countMatching(values, LooksComplex), nonNull) >= th.Complex {
		res.Label, res.Values = Complex, normalizeComplex(values)
		return res
	}

	if dates, parsed := parseDates(values, th.TwoDigitYearMax); ratio(parsed, nonNull) >= th.Date {
		res.Label, res.Values = Date, dates
		return res
	}

	if ratio(unique, nonNull) <= th.CategoryCardinality {
		res.Label = Category
	} else {
		res.Label = Text
	}
	res.Values = normalizeText(values)
	return res
}

// Label is a convenience wrapper returning only the inferred TypeLabel.
func Label(values []*string, th Thresholds) TypeLabel {
	return Classify(values, th).Label
}

// ratio returns n/d, or 0 when d is zero.
func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

func counts(values []*string) (nonNull, unique int) {
	seen := make(map[string]struct{})
	for _, v := range values {
		if v == nil {
			continue
		}
		nonNull++
		seen[*v] = struct{}{}
	}
	return nonNull, len(seen)
}

func countMatching(values []*string, match func(string) bool) int {
	n := 0
	for _, v := range values {
		if v != nil && match(*v) {
			n++
		}
	}
	return n
}

// classifyNumeric accepts the column as Int or Float when enough values parse.
func classifyNumeric(values []*string, nonNull int, threshold float64) (TypeLabel, []any, bool) {
	parsed := 0
	integral := true
	nums := make([]any, len(values))
	for i, v := range values {
		if v == nil {
			continue
		}
		d, ok := ParseNumber(*v)
		if !ok {
			continue
		}
		parsed++
		if !IsIntegral(d) {
			integral = false
		}
		nums[i] = d
	}

	if ratio(parsed, nonNull) < threshold {
		return "", nil, false
	}

	// nums holds decimals until the label is known
	for i, n := range nums {
		if n == nil {
			continue
		}
		d := n.(decimal.Decimal)
		if integral {
			nums[i] = d.IntPart()
		} else {
			nums[i] = d.InexactFloat64()
		}
	}

	if integral {
		return Int, nums, true
	}
	return Float, nums, true
}

func normalizeComplex(values []*string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		if v == nil {
			continue
		}
		if c, ok := ParseComplex(*v); ok {
			out[i] = c
		}
	}
	return out
}

func parseDates(values []*string, twoDigitYearMax int) ([]any, int) {
	out := make([]any, len(values))
	parsed := 0
	for i, v := range values {
		if v == nil {
			continue
		}
		if t, ok := ParseDate(*v, twoDigitYearMax); ok {
			out[i] = t
			parsed++
		}
	}
	return out, parsed
}

func normalizeText(values []*string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		if v != nil {
			out[i] = *v
		}
	}
	return out
}
