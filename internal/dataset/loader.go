package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ctxCheckEvery is how many records are read between context checks.
const ctxCheckEvery = 1024

// Load reads the delimited file at path into a Dataset.
// All failures are returned as *LoadError.
func Load(ctx context.Context, path string, opts Options) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	ds, err := LoadReader(ctx, f, opts)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Path = path
		}
		return nil, err
	}
	return ds, nil
}

// LoadReader reads delimited data from r. The first record is the header.
//
// Rows shorter than the header are padded with nulls. Rows longer than the
// header fail with ErrMalformed.
func LoadReader(ctx context.Context, r io.Reader, opts Options) (*Dataset, error) {
	opts = opts.withDefaults()
	na := makeNASet(opts.NATokens)

	reader := csv.NewReader(newUTF8Validator(skipBOM(r)))
	reader.Comma = opts.Delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &LoadError{Err: ErrEmptyFile}
	}
	if err != nil {
		return nil, readError(err)
	}

	names := uniqueNames(header)
	ds := &Dataset{Columns: make([]Column, len(names))}
	for i, name := range names {
		ds.Columns[i].Name = name
	}

	for rows := 0; ; rows++ {
		if rows%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, &LoadError{Err: err}
			}
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, readError(err)
		}

		if len(record) > len(names) {
			line, _ := reader.FieldPos(0)
			return nil, &LoadError{
				Line: line,
				Err:  fmt.Errorf("%w: expected %d fields, saw %d", ErrMalformed, len(names), len(record)),
			}
		}

		for i := range ds.Columns {
			var cell Cell
			if i < len(record) {
				cell = toCell(record[i], na)
			}
			ds.Columns[i].Values = append(ds.Columns[i].Values, cell)
		}
		ds.Rows++
	}

	return ds, nil
}

// readError converts a csv.Reader failure into a LoadError.
func readError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		if errors.Is(pe.Err, ErrInvalidEncoding) {
			return &LoadError{Line: pe.Line, Err: pe.Err}
		}
		return &LoadError{Line: pe.Line, Err: fmt.Errorf("%w: %v", ErrMalformed, pe.Err)}
	}
	return &LoadError{Err: err}
}

func makeNASet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[strings.TrimSpace(t)] = struct{}{}
	}
	return set
}

func toCell(raw string, na map[string]struct{}) Cell {
	if _, ok := na[strings.TrimSpace(raw)]; ok {
		return nil
	}
	v := raw
	return &v
}

// uniqueNames makes header names unique. Blank names become "Unnamed: <i>"
// and repeats get a ".<n>" suffix.
func uniqueNames(header []string) []string {
	names := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	counts := make(map[string]int, len(header))

	for i, h := range header {
		name := h
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if seen[name] {
			base := name
			for {
				counts[base]++
				candidate := fmt.Sprintf("%s.%d", base, counts[base])
				if !seen[candidate] {
					name = candidate
					break
				}
			}
		}
		seen[name] = true
		names[i] = name
	}
	return names
}
