package cliapp

import (
	"context"
	"os"
	"strings"

	"github.com/fz-run/fz/internal/adaptive"
	"github.com/fz-run/fz/internal/config"
	"github.com/fz-run/fz/internal/progress"
	"github.com/fz-run/fz/internal/scheduler"
	"github.com/fz-run/fz/pkg/cerr"
)

// DesignOptions is the `design`/`fzd` subcommand's flag set.
type DesignOptions struct {
	InputPath        string
	InputVariables   string // design-variable mapping: fixed scalars or [low, high] ranges
	Model            string
	Calculators      []string
	ResultsDir       string
	Algorithm        string
	OutputExpression string
	AlgorithmOptions map[string]string
	AnalysisDir      string
	Overrides        Overrides
}

// Design runs the adaptive-sampling loop and returns the driver's
// return record.
func Design(ctx context.Context, dirs *config.Dirs, env *config.Env, bus *progress.Bus, opts DesignOptions) (*adaptive.Return, error) {
	m, err := ResolveModel(dirs, opts.Model, opts.Overrides)
	if err != nil {
		return nil, err
	}

	varInputs, err := ParseDesignVariables(opts.InputVariables)
	if err != nil {
		return nil, err
	}

	chain, err := BuildChain(dirs, opts.Calculators, opts.Model, m, env)
	if err != nil {
		return nil, err
	}

	algoPath := dirs.FindAlgorithm(opts.Algorithm)
	if algoPath == "" {
		algoPath = opts.Algorithm
	}
	src, err := os.ReadFile(algoPath)
	if err != nil {
		return nil, cerr.New(cerr.KindConfig, cerr.NotFound, "read algorithm plug-in", err)
	}
	algo, err := adaptive.Load(opts.Algorithm, src, opts.AlgorithmOptions)
	if err != nil {
		return nil, err
	}

	resultsDir := opts.ResultsDir
	if resultsDir == "" {
		resultsDir = "."
	}
	analysisDir := opts.AnalysisDir
	if analysisDir == "" {
		analysisDir = resultsDir
	}

	interp, err := NewInterpreter(m, env)
	if err != nil {
		return nil, err
	}
	sched, err := scheduler.New(chain, opts.InputPath, m, interp, env, bus)
	if err != nil {
		return nil, err
	}

	outputNames := make([]string, 0, len(m.Output))
	for name := range m.Output {
		outputNames = append(outputNames, name)
	}

	driver := &adaptive.Driver{
		Scheduler:   sched,
		RunRoot:     resultsDir,
		InputPath:   opts.InputPath,
		Model:       m,
		Interp:      interp,
		OutputExpr:  opts.OutputExpression,
		AnalysisDir: analysisDir,
	}
	return driver.Run(ctx, algo, varInputs, outputNames)
}

// ParseAlgorithmOptions splits repeated "--algorithm-options key=value"
// flag values into a map.
func ParseAlgorithmOptions(raw []string) (map[string]string, error) {
	out := make(map[string]string, len(raw))
	for _, kv := range raw {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, cerr.New(cerr.KindConfig, cerr.InvalidArgument, "--algorithm-options must be key=value", nil)
		}
		out[k] = v
	}
	return out, nil
}
