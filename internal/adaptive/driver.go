// Package adaptive (this file): the iteration loop that wires an
// Algorithm plug-in to the scheduler — expand a design batch into cases,
// run them, reduce each case's outputs to a scalar via the shared
// expression interpreter, and feed the (X, Y) history back to the plug-in
// until it reports no more points.
package adaptive

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/fz-run/fz/internal/casefactory"
	"github.com/fz-run/fz/internal/model"
	"github.com/fz-run/fz/internal/scheduler"
	"github.com/fz-run/fz/internal/template"
	"github.com/fz-run/fz/internal/value"
	"github.com/fz-run/fz/pkg/cerr"
)

// VarInput is one driving variable as given to the driver: either fixed
// (held constant across the whole design, like an ordinary mapping-form
// variable) or ranged (left to the plug-in to sample within bounds).
type VarInput struct {
	Fixed *value.Scalar
	Range *[2]float64
}

// Return is the adaptive run's final record: the full sample history, the
// plug-in's terminal analysis payload, and bookkeeping.
type Return struct {
	X                []map[string]float64
	Y                []*float64
	Analysis         Payload
	Dispatched       Dispatched
	Algorithm        string
	Iterations       int
	TotalEvaluations int
	Summary          string
}

// Driver runs one adaptive-sampling session: each design iteration's cases
// land under RunRoot/iter<N>, materialized independently so earlier
// iterations' artifacts remain on disk for inspection.
type Driver struct {
	Scheduler   *scheduler.Scheduler
	RunRoot     string
	InputPath   string
	Model       *model.Model
	Interp      template.Interpreter
	OutputExpr  string // Go expression over the case's output fields.
	AnalysisDir string
}

// Run drives algo to convergence against fixed (a mix of held-fixed and
// plug-in-ranged variables) and outputNames (the model output fields
// OutputExpr may reference), and returns the accumulated history plus the
// plug-in's final analysis.
func (d *Driver) Run(ctx context.Context, algo *Algorithm, fixed map[string]VarInput, outputNames []string) (*Return, error) {
	fixedValues := map[string]value.Scalar{}
	varRanges := map[string][2]float64{}
	for name, in := range fixed {
		switch {
		case in.Fixed != nil:
			fixedValues[name] = *in.Fixed
		case in.Range != nil:
			varRanges[name] = *in.Range
		default:
			return nil, cerr.New(cerr.KindConfig, cerr.InvalidArgument, fmt.Sprintf("variable %q has neither a fixed value nor a range", name), nil)
		}
	}

	batch, err := algo.InitialDesign(varRanges, outputNames)
	if err != nil {
		return nil, err
	}

	var historyX []map[string]float64
	var historyY []*float64
	iteration := 0
	total := 0

	for len(batch) > 0 {
		if ctx.Err() != nil {
			break
		}

		rows := make([]map[string]value.Scalar, len(batch))
		for i, point := range batch {
			row := map[string]value.Scalar{}
			for k, v := range fixedValues {
				row[k] = v
			}
			for k, v := range point {
				row[k] = value.Float(v)
			}
			rows[i] = row
		}

		cases, err := casefactory.ExpandRows(rows)
		if err != nil {
			return nil, err
		}

		iterDir := filepath.Join(d.RunRoot, fmt.Sprintf("iter%d", iteration))
		mat, err := casefactory.NewMaterializer(iterDir)
		if err != nil {
			return nil, cerr.New(cerr.KindFatal, cerr.Internal, fmt.Sprintf("materialize %s", iterDir), err)
		}

		results := d.Scheduler.Run(ctx, mat, cases)

		for i, res := range results {
			historyX = append(historyX, batch[i])
			historyY = append(historyY, d.scalarOutput(res))
			total++
		}

		if err := d.writeCSV(historyX, historyY); err != nil {
			return nil, err
		}

		if algo.HasAnalysisIntermediate() {
			payload, err := algo.AnalysisIntermediate(historyX, historyY)
			if err != nil {
				return nil, err
			}
			if _, err := Dispatch(d.AnalysisDir, fmt.Sprintf("intermediate-iter%d", iteration), payload); err != nil {
				return nil, err
			}
		}

		iteration++
		if ctx.Err() != nil {
			break
		}
		batch, err = algo.NextDesign(historyX, historyY)
		if err != nil {
			return nil, err
		}
	}

	final, err := algo.Analysis(historyX, historyY)
	if err != nil {
		return nil, err
	}
	dispatched, err := Dispatch(d.AnalysisDir, "analysis", final)
	if err != nil {
		return nil, err
	}

	return &Return{
		X:                historyX,
		Y:                historyY,
		Analysis:         final,
		Dispatched:       dispatched,
		Algorithm:        algo.Name,
		Iterations:       iteration,
		TotalEvaluations: total,
		Summary:          fmt.Sprintf("%s: %d iterations, %d evaluations", algo.Name, iteration, total),
	}, nil
}

// scalarOutput reduces a case's result to the plug-in-facing scalar via
// OutputExpr, or nil if the case did not succeed or the expression fails
// to evaluate. A point whose output cannot be computed is reported to the
// plug-in as a missing observation, never a zero.
func (d *Driver) scalarOutput(res scheduler.Result) *float64 {
	if res.Outputs == nil {
		return nil
	}
	scope := map[string]value.Scalar{}
	for name, v := range res.Outputs {
		switch tv := v.(type) {
		case string:
			scope[name] = value.String(tv)
		case int64:
			scope[name] = value.Int(tv)
		case float64:
			scope[name] = value.Float(tv)
		case nil:
			return nil
		default:
			scope[name] = value.String(fmt.Sprintf("%v", tv))
		}
	}
	out, err := d.Interp.Run(scope, "", d.OutputExpr)
	if err != nil {
		return nil
	}
	f, err := strconv.ParseFloat(out, 64)
	if err != nil {
		return nil
	}
	return &f
}

// writeCSV dumps x.csv and y.csv into the analysis directory, each
// overwritten every iteration with the full history so far.
func (d *Driver) writeCSV(x []map[string]float64, y []*float64) error {
	if err := os.MkdirAll(d.AnalysisDir, 0o755); err != nil {
		return cerr.New(cerr.KindFatal, cerr.Internal, "create analysis directory", err)
	}

	var names []string
	seen := map[string]bool{}
	for _, row := range x {
		for k := range row {
			if !seen[k] {
				seen[k] = true
				names = append(names, k)
			}
		}
	}
	sort.Strings(names)

	if err := d.writeXCSV(names, x); err != nil {
		return err
	}
	return d.writeYCSV(y)
}

func (d *Driver) writeXCSV(names []string, x []map[string]float64) error {
	path := filepath.Join(d.AnalysisDir, "x.csv")
	f, err := os.Create(path)
	if err != nil {
		return cerr.New(cerr.KindFatal, cerr.Internal, fmt.Sprintf("write %s", path), err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(names); err != nil {
		return cerr.New(cerr.KindFatal, cerr.Internal, "write x.csv header", err)
	}
	for _, row := range x {
		rec := make([]string, 0, len(names))
		for _, n := range names {
			rec = append(rec, strconv.FormatFloat(row[n], 'g', -1, 64))
		}
		if err := w.Write(rec); err != nil {
			return cerr.New(cerr.KindFatal, cerr.Internal, "write x.csv row", err)
		}
	}
	w.Flush()
	return w.Error()
}

func (d *Driver) writeYCSV(y []*float64) error {
	path := filepath.Join(d.AnalysisDir, "y.csv")
	f, err := os.Create(path)
	if err != nil {
		return cerr.New(cerr.KindFatal, cerr.Internal, fmt.Sprintf("write %s", path), err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"y"}); err != nil {
		return cerr.New(cerr.KindFatal, cerr.Internal, "write y.csv header", err)
	}
	for _, v := range y {
		rec := ""
		if v != nil {
			rec = strconv.FormatFloat(*v, 'g', -1, 64)
		}
		if err := w.Write([]string{rec}); err != nil {
			return cerr.New(cerr.KindFatal, cerr.Internal, "write y.csv row", err)
		}
	}
	w.Flush()
	return w.Error()
}
