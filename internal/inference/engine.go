// Package inference runs the column classifier over every column of a file.
//
// The engine is all-or-nothing: it returns a report covering every column of
// the dataset or an error, never a partial report.
package inference

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonMunkholm/datamorpher/internal/classify"
	"github.com/JonMunkholm/datamorpher/internal/dataset"
	"golang.org/x/sync/errgroup"
)

// ErrInference matches every error returned by Engine.Infer.
var ErrInference = errors.New("inference failed")

// InferenceError wraps the loader or classifier failure that aborted a run.
type InferenceError struct {
	Path   string
	Column string // set when a classifier call failed
	Err    error
}

func (e *InferenceError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("inference failed: column %q: %v", e.Column, e.Err)
	}
	return fmt.Sprintf("inference failed: %v", e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

// Is reports ErrInference as matching any InferenceError.
func (e *InferenceError) Is(target error) bool { return target == ErrInference }

// ClassifyFunc classifies one column.
type ClassifyFunc func(values []*string, th classify.Thresholds) classify.Result

// Options configures an Engine.
type Options struct {
	Dataset    dataset.Options
	Thresholds classify.Thresholds

	// Parallelism is the number of columns classified at once (default 1).
	Parallelism int

	// Classify overrides the classifier. Nil means classify.Classify.
	Classify ClassifyFunc
}

// DefaultOptions returns sequential classification with the standard
// loader options and thresholds.
func DefaultOptions() Options {
	return Options{
		Dataset:     dataset.DefaultOptions(),
		Thresholds:  classify.DefaultThresholds(),
		Parallelism: 1,
	}
}

// Engine infers per-column types for delimited files.
type Engine struct {
	opts Options
}

// NewEngine creates an Engine. Zero fields in opts take their defaults.
func NewEngine(opts Options) *Engine {
	if opts.Parallelism <= 0 {
		opts.Parallelism = 1
	}
	if opts.Classify == nil {
		opts.Classify = classify.Classify
	}
	if opts.Thresholds == (classify.Thresholds{}) {
		opts.Thresholds = classify.DefaultThresholds()
	}
	return &Engine{opts: opts}
}

// Infer loads the file at path once and classifies each column.
// Any failure aborts the run and is returned as *InferenceError.
func (e *Engine) Infer(ctx context.Context, path string) (*Report, error) {
	ds, err := dataset.Load(ctx, path, e.opts.Dataset)
	if err != nil {
		return nil, &InferenceError{Path: path, Err: err}
	}

	report, err := e.classifyAll(ctx, ds)
	if err != nil {
		var ie *InferenceError
		if errors.As(err, &ie) {
			ie.Path = path
			return nil, ie
		}
		return nil, &InferenceError{Path: path, Err: err}
	}
	report.Path = path
	return report, nil
}

func (e *Engine) classifyAll(ctx context.Context, ds *dataset.Dataset) (*Report, error) {
	columns := make([]ColumnReport, len(ds.Columns))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Parallelism)

	for i, col := range ds.Columns {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := e.classifyColumn(col)
			if err != nil {
				return &InferenceError{Column: col.Name, Err: err}
			}
			columns[i] = ColumnReport{
				Name:    col.Name,
				Type:    res.Label,
				NonNull: res.NonNull,
				Unique:  res.Unique,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var ie *InferenceError
		if errors.As(err, &ie) {
			return nil, ie
		}
		return nil, &InferenceError{Err: err}
	}

	return &Report{Rows: ds.Rows, Columns: columns}, nil
}

// classifyColumn converts a classifier panic into an error.
func (e *Engine) classifyColumn(col dataset.Column) (res classify.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("classifier panic: %v", r)
		}
	}()
	return e.opts.Classify(col.Values, e.opts.Thresholds), nil
}
