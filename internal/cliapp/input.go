package cliapp

import (
	"sort"

	"github.com/fz-run/fz/internal/config"
	"github.com/fz-run/fz/internal/template"
)

// InputOptions is the `input` subcommand's flag set: list every variable
// name referenced under an input tree, per the model's syntax.
type InputOptions struct {
	InputPath string
	Model     string
	Overrides Overrides
}

// Input reports the distinct variable names an input tree references, in
// sorted order.
func Input(dirs *config.Dirs, opts InputOptions) ([]string, error) {
	m, err := ResolveModel(dirs, opts.Model, opts.Overrides)
	if err != nil {
		return nil, err
	}
	found, err := template.Discover(opts.InputPath, m)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(found))
	for name := range found {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
