package cliapp

import (
	"context"
	"io"

	"github.com/fz-run/fz/internal/casefactory"
	"github.com/fz-run/fz/internal/config"
	"github.com/fz-run/fz/internal/progress"
	"github.com/fz-run/fz/internal/resultset"
	"github.com/fz-run/fz/internal/scheduler"
	"github.com/fz-run/fz/pkg/cerr"
)

// RunOptions is the `run` subcommand's parsed flag set.
type RunOptions struct {
	InputPath      string
	InputVariables string
	Model          string
	Calculators    []string
	ResultsDir     string
	Format         string
	Overrides      Overrides
}

// RunResult is what `run` hands back to its caller for rendering and exit
// code determination.
type RunResult struct {
	Rows     []resultset.Row
	ExitCode int
	Summary  string
}

// Run executes the engine pipeline end to end: resolve the model, expand the
// case sequence, build the calculator fallback chain, and drive it through
// the scheduler.
func Run(ctx context.Context, dirs *config.Dirs, env *config.Env, bus *progress.Bus, opts RunOptions) (*RunResult, error) {
	m, err := ResolveModel(dirs, opts.Model, opts.Overrides)
	if err != nil {
		return nil, err
	}

	cases, err := ParseVariables(opts.InputVariables)
	if err != nil {
		return nil, err
	}
	if err := casefactory.ValidateUnique(cases); err != nil {
		return nil, err
	}

	chain, err := BuildChain(dirs, opts.Calculators, opts.Model, m, env)
	if err != nil {
		return nil, err
	}

	resultsDir := opts.ResultsDir
	if resultsDir == "" {
		resultsDir = "."
	}
	mat, err := casefactory.NewMaterializer(resultsDir)
	if err != nil {
		return nil, cerr.New(cerr.KindFatal, cerr.Internal, "materialize results directory", err)
	}

	interp, err := NewInterpreter(m, env)
	if err != nil {
		return nil, err
	}
	sched, err := scheduler.New(chain, opts.InputPath, m, interp, env, bus)
	if err != nil {
		return nil, err
	}

	results := sched.Run(ctx, mat, cases)
	exitCode, summary := resultset.Summarize(results)
	return &RunResult{
		Rows:     resultset.FromResults(results),
		ExitCode: exitCode,
		Summary:  summary,
	}, nil
}

// Render writes a RunResult's rows to w in the requested format.
func Render(w io.Writer, res *RunResult, format string) error {
	return resultset.Render(w, res.Rows, resultset.Format(format))
}
