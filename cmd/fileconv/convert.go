package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/fileconverter/internal/codec"
	"github.com/JonMunkholm/fileconverter/internal/core"
	"github.com/JonMunkholm/fileconverter/internal/pipeline"
)

// errSameFile is returned when the output would overwrite its own input.
var errSameFile = errors.New("output would overwrite the input file")

type convertFlags struct {
	format   string
	dedup    bool
	fillMean bool
	columns  []string
	outDir   string
	parallel int
	force    bool
}

// fileResult is the outcome of converting one input file.
type fileResult struct {
	input  string
	output string
	report pipeline.Report
	err    error
}

func newConvertCmd() *cobra.Command {
	var f convertFlags

	cmd := &cobra.Command{
		Use:   "convert FILE...",
		Short: "Clean and convert files",
		Long: `Convert runs each input through the cleaning pipeline:

  remove duplicates -> fill missing with mean -> keep columns -> write

Files are processed in parallel and independently. A failing file is
reported and does not stop the others.`,
		Example: `  fileconv convert sales.xlsx --format csv --dedup
  fileconv convert *.csv --fill-mean --columns region,total --out cleaned/`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := codec.ParseFormat(f.format)
			if err != nil {
				return err
			}

			opts := pipeline.DefaultOptions()
			opts.RemoveDuplicates = f.dedup
			opts.FillMissingWithMean = f.fillMean
			opts.OutputFormat = format
			if cmd.Flags().Changed("columns") {
				opts.SelectedColumns = append([]string{}, f.columns...)
			}
			if err := opts.Validate(); err != nil {
				return err
			}

			results := convertAll(cmd.Context(), args, opts, f)
			return report(cmd.OutOrStdout(), cmd.ErrOrStderr(), results)
		},
	}

	cmd.Flags().StringVarP(&f.format, "format", "f", "csv", "output format: csv or xlsx")
	cmd.Flags().BoolVar(&f.dedup, "dedup", false, "remove duplicate rows")
	cmd.Flags().BoolVar(&f.fillMean, "fill-mean", false, "fill missing numeric values with the column mean")
	cmd.Flags().StringSliceVarP(&f.columns, "columns", "c", nil, "columns to keep, in order (default all)")
	cmd.Flags().StringVarP(&f.outDir, "out", "o", "", "output directory (default next to each input)")
	cmd.Flags().IntVarP(&f.parallel, "parallel", "p", runtime.NumCPU(), "files converted at once")
	cmd.Flags().BoolVar(&f.force, "force", false, "overwrite an input file with its own output")
	return cmd
}

// convertAll converts every input with at most f.parallel in flight.
// Results keep the order of inputs.
func convertAll(ctx context.Context, inputs []string, opts pipeline.Options, f convertFlags) []fileResult {
	results := make([]fileResult, len(inputs))

	var g errgroup.Group
	g.SetLimit(max(1, f.parallel))
	for i, in := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = fileResult{input: in, err: err}
				return nil
			}
			results[i] = convertFile(in, opts, f)
			return nil
		})
	}
	g.Wait()
	return results
}

func convertFile(input string, opts pipeline.Options, f convertFlags) fileResult {
	res := fileResult{input: input}
	start := time.Now()

	src, err := os.Open(input)
	if err != nil {
		res.err = err
		return res
	}
	defer src.Close()

	t, _, err := codec.Parse(input, src)
	if err != nil {
		res.err = err
		return res
	}

	out, err := pipeline.New(0, 0).Run(t, filepath.Base(input), opts)
	if err != nil {
		res.err = err
		return res
	}

	dir := f.outDir
	if dir == "" {
		dir = filepath.Dir(input)
	}
	res.output = filepath.Join(dir, out.Artifact.Name)
	res.report = out.Report

	if !f.force && sameFile(input, res.output) {
		res.err = fmt.Errorf("%w: %s (use --force)", errSameFile, res.output)
		return res
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		res.err = err
		return res
	}
	if err := os.WriteFile(res.output, out.Artifact.Data, 0o644); err != nil {
		res.err = &codec.IOError{Format: opts.OutputFormat, Op: "write " + res.output, Err: err}
		return res
	}

	slog.Debug("converted",
		"input", input,
		"output", res.output,
		"rows_out", out.Report.RowsOut,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res
}

func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

// report prints one line per file and returns an error when any failed.
func report(stdout, stderr io.Writer, results []fileResult) error {
	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			fmt.Fprintf(stderr, "FAIL %s: %v\n", r.input, r.err)
			if core.IsUserFacing(r.err) {
				fmt.Fprintf(stderr, "     %s\n", core.FormatUserError(r.err))
			}
			continue
		}
		fmt.Fprintf(stdout, "ok   %s -> %s (%d rows in, %d out, %d duplicates removed, %d cells filled, %d columns)\n",
			r.input, r.output,
			r.report.RowsIn, r.report.RowsOut,
			r.report.DuplicatesRemoved, r.report.CellsFilled,
			r.report.ColumnsOut,
		)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}
