package classify

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// col builds a column; the literal "<nil>" becomes a null cell.
func col(values ...string) []*string {
	out := make([]*string, len(values))
	for i, v := range values {
		if v == "<nil>" {
			continue
		}
		v := v
		out[i] = &v
	}
	return out
}

func TestClassify_Scenarios(t *testing.T) {
	tests := []struct {
		name   string
		values []*string
		want   TypeLabel
	}{
		{"integers", col("1", "2", "3", "4", "5"), Int},
		{"mixed floats", col("1.5", "2", "3.25", "4", "5"), Float},
		{"complex at 60 percent", col("1+2j", "3-4j", "5+0j", "x", "y"), Complex},
		{"dates with one bad value", col("2023-01-01", "2023-02-01", "bad", "2023-03-01"), Date},
		{"low cardinality", col("red", "green", "blue", "red", "green", "blue", "red", "green", "blue", "red"), Category},
		{"high cardinality", col("alpha", "beta", "gamma", "delta", "epsilon"), Text},
		{"all null", col("<nil>", "<nil>", "<nil>"), Text},
		{"empty", col(), Text},
		{"nulls ignored in ratio", col("1", "<nil>", "<nil>", "2", "x"), Int},
		{"scientific notation", col("1e3", "2.5E-1", "3"), Float},
		{"integral decimals", col("1.0", "2.00", "3"), Int},
		{"negative and signed", col("-1", "+2", " 3 "), Int},
		{"int64 overflow falls to float", col("1", "99999999999999999999"), Float},
		{"timestamps", col("2023-01-01 10:00:00", "2023-01-02T11:30:00Z", "Jan 5, 2023"), Date},
		{"capital J complex", col("-3.5-4.2J", "1.5+2.5j", "0-1j"), Complex},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.values, DefaultThresholds())
			assert.Equal(t, tt.want, got.Label)
			assert.Len(t, got.Values, len(tt.values))
		})
	}
}

func TestClassify_IntNormalization(t *testing.T) {
	res := Classify(col("1", "<nil>", "oops", "4", "5"), DefaultThresholds())
	require.Equal(t, Int, res.Label)

	assert.Equal(t, []any{int64(1), nil, nil, int64(4), int64(5)}, res.Values)
	assert.Equal(t, 4, res.NonNull)
}

func TestClassify_FloatNormalization(t *testing.T) {
	res := Classify(col("1.5", "2", "<nil>"), DefaultThresholds())
	require.Equal(t, Float, res.Label)

	assert.Equal(t, []any{1.5, 2.0, nil}, res.Values)
}

func TestClassify_ComplexNormalization(t *testing.T) {
	res := Classify(col("1+2j", "3-4j", "5+0j", "x", "y"), DefaultThresholds())
	require.Equal(t, Complex, res.Label)

	assert.Equal(t, complex(1, 2), res.Values[0])
	assert.Equal(t, complex(3, -4), res.Values[1])
	assert.Nil(t, res.Values[3], "unconvertible values become null")
	assert.Nil(t, res.Values[4])
}

func TestClassify_DateNormalization(t *testing.T) {
	res := Classify(col("2023-01-01", "bad", "2023-03-01", "2023-04-01"), DefaultThresholds())
	require.Equal(t, Date, res.Label)

	first, ok := res.Values[0].(time.Time)
	require.True(t, ok)
	assert.True(t, first.Equal(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Nil(t, res.Values[1])
}

func TestClassify_NumericBoundary(t *testing.T) {
	t.Run("exactly 60 percent is numeric", func(t *testing.T) {
		res := Classify(col("1", "2", "3", "a", "b"), DefaultThresholds())
		assert.Equal(t, Int, res.Label)
	})

	t.Run("59.9 percent falls through", func(t *testing.T) {
		values := make([]string, 0, 1000)
		for i := 1; i <= 599; i++ {
			values = append(values, strconv.Itoa(i))
		}
		for i := 0; i < 401; i++ {
			values = append(values, "x")
		}

		res := Classify(col(values...), DefaultThresholds())
		assert.NotEqual(t, Int, res.Label)
		assert.NotEqual(t, Float, res.Label)
		assert.Equal(t, Text, res.Label)
	})
}

func TestClassify_ComplexBoundary(t *testing.T) {
	t.Run("exactly 60 percent is complex", func(t *testing.T) {
		res := Classify(col("1+2j", "3-4j", "5+6j", "a", "b"), DefaultThresholds())
		assert.Equal(t, Complex, res.Label)
	})

	t.Run("59.9 percent falls through", func(t *testing.T) {
		values := make([]string, 0, 1000)
		for i := 1; i <= 599; i++ {
			values = append(values, strconv.Itoa(i)+"+1j")
		}
		for i := 0; i < 401; i++ {
			values = append(values, "x")
		}

		res := Classify(col(values...), DefaultThresholds())
		assert.Equal(t, Text, res.Label)
	})
}

func TestClassify_DateBoundary(t *testing.T) {
	t.Run("exactly 60 percent is a date", func(t *testing.T) {
		res := Classify(col("2023-01-01", "2023-01-02", "2023-01-03", "a", "b"), DefaultThresholds())
		assert.Equal(t, Date, res.Label)
	})

	t.Run("59.9 percent falls through", func(t *testing.T) {
		start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
		values := make([]string, 0, 1000)
		for i := 0; i < 599; i++ {
			values = append(values, start.AddDate(0, 0, i).Format("2006-01-02"))
		}
		for i := 0; i < 401; i++ {
			values = append(values, "x")
		}

		res := Classify(col(values...), DefaultThresholds())
		assert.Equal(t, Text, res.Label)
	})
}

func TestClassify_HugeExponentCell(t *testing.T) {
	done := make(chan TypeLabel, 1)
	go func() {
		done <- Label(col("1e999999999", "1", "2", "3"), DefaultThresholds())
	}()

	select {
	case got := <-done:
		assert.Equal(t, Int, got, "out-of-range value counts as unparsed")
	case <-time.After(5 * time.Second):
		t.Fatal("classifying a huge exponent did not return within 5s")
	}
}

func TestClassify_TwoDigitYearWindow(t *testing.T) {
	th := DefaultThresholds()
	th.TwoDigitYearMax = 2030

	res := Classify(col("1/15/45", "2/20/25"), th)
	require.Equal(t, Date, res.Label)

	first := res.Values[0].(time.Time)
	second := res.Values[1].(time.Time)
	assert.Equal(t, 1945, first.Year())
	assert.Equal(t, 2025, second.Year())

	res = Classify(col("1/15/45", "2/20/25"), DefaultThresholds())
	assert.Equal(t, 2045, res.Values[0].(time.Time).Year())
}

func TestClassify_NumericWinsOverLaterCandidates(t *testing.T) {
	// Would also pass the date and category tests
	res := Classify(col("20230101", "20230102", "20230101", "20230102", "20230101"), DefaultThresholds())
	assert.Equal(t, Int, res.Label)
}

func TestClassify_CategoryBoundary(t *testing.T) {
	// unique/non_null == 0.5 is still a category
	res := Classify(col("a", "b", "a", "b"), DefaultThresholds())
	assert.Equal(t, Category, res.Label)
	assert.Equal(t, 2, res.Unique)

	res = Classify(col("a", "b", "c", "a", "b"), DefaultThresholds())
	assert.Equal(t, Text, res.Label)
}

func TestClassify_Idempotent(t *testing.T) {
	inputs := [][]*string{
		col("1", "2", "3"),
		col("1.5", "x", "2"),
		col("1+2j", "3-4j"),
		col("2023-01-01", "nope"),
		col("a", "a", "b"),
		col("<nil>"),
	}
	for _, in := range inputs {
		first := Classify(in, DefaultThresholds())
		second := Classify(in, DefaultThresholds())
		assert.Equal(t, first, second)
	}
}

func TestClassify_DoesNotMutateInput(t *testing.T) {
	in := col(" 1 ", "2")
	Classify(in, DefaultThresholds())
	assert.Equal(t, " 1 ", *in[0])
}

func TestClassify_CustomThresholds(t *testing.T) {
	th := DefaultThresholds()
	th.Numeric = 1.0

	res := Classify(col("1", "2", "3", "4", "x"), th)
	assert.NotEqual(t, Int, res.Label)
}

func TestThresholds_Validate(t *testing.T) {
	require.NoError(t, DefaultThresholds().Validate())

	th := DefaultThresholds()
	th.Date = 1.5
	assert.ErrorContains(t, th.Validate(), "date")

	th = DefaultThresholds()
	th.TwoDigitYearMax = 68
	assert.ErrorContains(t, th.Validate(), "two-digit year")

	th.TwoDigitYearMax = 0
	assert.NoError(t, th.Validate())
}

func TestLabel(t *testing.T) {
	assert.Equal(t, Int, Label(col("7"), DefaultThresholds()))
}
