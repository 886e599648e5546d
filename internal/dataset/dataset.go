// Package dataset reads delimited files into an in-memory column store.
//
// The loader is purely structural: it splits the file into named columns of
// raw string cells and turns a fixed set of missing-value tokens into nulls.
// It never infers types; that is the classifier's job.
package dataset

// Cell is a single raw value. A nil Cell is null.
type Cell = *string

// DefaultNATokens are the cell values treated as null on ingestion.
var DefaultNATokens = []string{"Not Available", "N/A", "NA", "NaN", ""}

// Options controls how a file is parsed.
type Options struct {
	// NATokens lists values (compared after trimming whitespace) that load as null.
	// Nil means DefaultNATokens.
	NATokens []string

	// Delimiter separates fields (default ',').
	Delimiter rune
}

// DefaultOptions returns the loader defaults.
func DefaultOptions() Options {
	return Options{
		NATokens:  DefaultNATokens,
		Delimiter: ',',
	}
}

func (o Options) withDefaults() Options {
	if o.NATokens == nil {
		o.NATokens = DefaultNATokens
	}
	if o.Delimiter == 0 {
		o.Delimiter = ','
	}
	return o
}

// Column is one named series of raw values.
type Column struct {
	Name   string
	Values []Cell
}

// NonNullCount returns the number of non-null cells.
func (c Column) NonNullCount() int {
	n := 0
	for _, v := range c.Values {
		if v != nil {
			n++
		}
	}
	return n
}

// UniqueCount returns the number of distinct non-null values.
func (c Column) UniqueCount() int {
	seen := make(map[string]struct{})
	for _, v := range c.Values {
		if v != nil {
			seen[*v] = struct{}{}
		}
	}
	return len(seen)
}

// Dataset is an ordered set of uniquely named columns of equal length.
type Dataset struct {
	Columns []Column
	Rows    int
}

// Names returns the column names in declaration order.
func (d *Dataset) Names() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}
