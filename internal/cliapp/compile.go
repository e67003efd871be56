package cliapp

import (
	"github.com/fz-run/fz/internal/casefactory"
	"github.com/fz-run/fz/internal/config"
	"github.com/fz-run/fz/internal/template"
)

// CompileOptions is the `compile` subcommand's flag set: materialize each
// case's compiled inputs under an explicit output directory without
// running a calculator.
type CompileOptions struct {
	InputPath      string
	InputVariables string
	Model          string
	OutDir         string
	Overrides      Overrides
}

// CompileResult reports one compiled case's destination and any non-fatal
// template warnings collected along the way.
type CompileResult struct {
	CaseDir  string
	Warnings []template.Warning
}

// Compile expands opts.InputVariables and compiles every resulting case's
// inputs into its own subdirectory of OutDir.
func Compile(dirs *config.Dirs, opts CompileOptions) ([]CompileResult, error) {
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

	mat, err := casefactory.NewMaterializer(opts.OutDir)
	if err != nil {
		return nil, err
	}

	interp, err := NewInterpreter(m, nil)
	if err != nil {
		return nil, err
	}
	results := make([]CompileResult, 0, len(cases))
	for _, c := range cases {
		caseDir, err := mat.Materialize(c.Key())
		if err != nil {
			return nil, err
		}
		warnings, err := template.Compile(opts.InputPath, c.Values, m, caseDir, interp)
		if err != nil {
			return nil, err
		}
		results = append(results, CompileResult{CaseDir: caseDir, Warnings: warnings})
	}
	return results, nil
}
