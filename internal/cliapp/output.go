package cliapp

import (
	"context"

	"github.com/fz-run/fz/internal/config"
	"github.com/fz-run/fz/internal/extractor"
)

// OutputOptions is the `output` subcommand's flag set: run a model's
// declared output extraction commands against an existing case directory,
// without a calculator run.
type OutputOptions struct {
	CaseDir   string
	Model     string
	Overrides Overrides
}

// Output extracts every declared output field from an existing case
// directory.
func Output(ctx context.Context, dirs *config.Dirs, opts OutputOptions) ([]extractor.FieldResult, error) {
	m, err := ResolveModel(dirs, opts.Model, opts.Overrides)
	if err != nil {
		return nil, err
	}
	return extractor.Extract(ctx, opts.CaseDir, m), nil
}
