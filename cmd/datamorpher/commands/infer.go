package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/JonMunkholm/datamorpher/internal/core"
	"github.com/JonMunkholm/datamorpher/internal/inference"
	"github.com/JonMunkholm/datamorpher/internal/logging"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
)

type inferFlags struct {
	format    string
	parallel  int
	delimiter string
	na        []string
	logLevel  string
}

func newInferCommand() *cobra.Command {
	var f inferFlags

	cmd := &cobra.Command{
		Use:   "infer <file>",
		Short: "Print the inferred type of every column in a file",
		Long: `Load a delimited file and classify each column. The file is read once and
left in place. Output is a table by default, or json/yaml with --format.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfer(cmd, args[0], f)
		},
	}

	cmd.Flags().StringVar(&f.format, "format", "table", "Output format (table, json, yaml)")
	cmd.Flags().IntVar(&f.parallel, "parallel", 1, "Number of columns classified at once")
	cmd.Flags().StringVar(&f.delimiter, "delimiter", ",", "Field delimiter (single character)")
	cmd.Flags().StringSliceVar(&f.na, "na", nil, "Values loaded as null (default: Not Available,N/A,NA,NaN,empty)")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "warn", "Logging level (debug, info, warn, error)")
	return cmd
}

func runInfer(cmd *cobra.Command, path string, f inferFlags) error {
	opts, err := f.engineOptions()
	if err != nil {
		return err
	}

	log := logging.New(f.logLevel, "text", cmd.ErrOrStderr())

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}

	log.Debug("inferring column types", "path", abs, "parallel", opts.Parallelism)
	report, err := inference.NewEngine(opts).Infer(cmd.Context(), abs)
	if err != nil {
		log.Debug("inference failed", "error", err)
		return errors.New(core.FormatUserError(err))
	}
	log.Debug("inference finished", "rows", report.Rows, "columns", len(report.Columns))

	return writeReport(cmd.OutOrStdout(), report, f.format)
}

func (f inferFlags) engineOptions() (inference.Options, error) {
	opts := inference.DefaultOptions()

	if f.parallel <= 0 {
		return opts, fmt.Errorf("--parallel must be positive, got %d", f.parallel)
	}
	opts.Parallelism = f.parallel

	if utf8.RuneCountInString(f.delimiter) != 1 {
		return opts, fmt.Errorf("--delimiter must be a single character, got %q", f.delimiter)
	}
	opts.Dataset.Delimiter, _ = utf8.DecodeRuneInString(f.delimiter)

	if f.na != nil {
		opts.Dataset.NATokens = f.na
	}
	return opts, nil
}

func writeReport(w io.Writer, report *inference.Report, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml", "yml":
		out, err := yaml.Marshal(report)
		if err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		_, err = w.Write(out)
		return err
	case "table":
		return writeTable(w, report)
	default:
		return fmt.Errorf("unknown format %q (want table, json or yaml)", format)
	}
}

// writeTable prints one row per column in file order.
func writeTable(w io.Writer, report *inference.Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tTYPE\tNON-NULL\tUNIQUE")
	for _, c := range report.Columns {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", c.Name, c.Type, c.NonNull, c.Unique)
	}
	fmt.Fprintf(tw, "\n%d rows, %d columns\n", report.Rows, len(report.Columns))
	return tw.Flush()
}
