// Package config (this file) implements calculator alias
// composition: `{uri: <base>, models: {model_name: <command-tail>}}`
// descriptors, resolved by name, and the alias → file → inline-literal
// precedence the CLI applies wherever a calculator or model is accepted.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fz-run/fz/pkg/cerr"
)

// CalculatorAlias is a persisted calculator descriptor: a base URI plus
// a per-model command-tail table.
type CalculatorAlias struct {
	URI    string            `yaml:"uri" json:"uri"`
	Models map[string]string `yaml:"models" json:"models"`
}

// LoadCalculatorAlias reads and parses an alias descriptor file (YAML or
// JSON, by extension).
func LoadCalculatorAlias(path string) (*CalculatorAlias, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cerr.New(cerr.KindConfig, cerr.NotFound, fmt.Sprintf("read calculator alias %s", path), err)
	}
	var a CalculatorAlias
	var perr error
	if strings.HasSuffix(path, ".json") {
		perr = json.Unmarshal(data, &a)
	} else {
		perr = yaml.Unmarshal(data, &a)
	}
	if perr != nil {
		return nil, cerr.New(cerr.KindConfig, cerr.InvalidArgument, fmt.Sprintf("parse calculator alias %s", path), perr)
	}
	if a.URI == "" {
		return nil, cerr.New(cerr.KindConfig, cerr.InvalidArgument, fmt.Sprintf("calculator alias %s missing uri", path), nil)
	}
	return &a, nil
}

// Resolve composes the alias's base URI with the command-tail registered
// for modelName. Fails with a descriptive ConfigError when the alias has no
// entry for the selected model (the run fails with a descriptive
// error before dispatch").
func (a *CalculatorAlias) Resolve(modelName string) (string, error) {
	tail, ok := a.Models[modelName]
	if !ok {
		return "", cerr.New(cerr.KindConfig, cerr.FailedPrecondition,
			fmt.Sprintf("calculator alias has no command registered for model %q", modelName), nil)
	}
	base := a.URI
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + strings.TrimLeft(tail, "/"), nil
}

// ResolveCalculator resolves a calculator reference, trying alias, file,
// then inline literal: ref is first looked up as an alias name in dirs, then tried as
// a file path to a CalculatorAlias descriptor, and finally treated as a
// literal calculator URI (scheme://... or an inline JSON descriptor).
func ResolveCalculator(dirs *Dirs, ref, modelName string) (string, error) {
	if path := dirs.FindCalculator(ref); path != "" {
		alias, err := LoadCalculatorAlias(path)
		if err != nil {
			return "", err
		}
		return alias.Resolve(modelName)
	}

	if info, err := os.Stat(ref); err == nil && !info.IsDir() {
		alias, err := LoadCalculatorAlias(ref)
		if err != nil {
			return "", err
		}
		return alias.Resolve(modelName)
	}

	trimmed := strings.TrimSpace(ref)
	if strings.HasPrefix(trimmed, "{") {
		var a CalculatorAlias
		if err := json.Unmarshal([]byte(trimmed), &a); err != nil {
			return "", cerr.New(cerr.KindConfig, cerr.InvalidArgument, fmt.Sprintf("parse inline calculator descriptor %q", ref), err)
		}
		return a.Resolve(modelName)
	}

	// A literal calculator URI (scheme://...): returned unchanged for the
	// caller to parse with model.ParseCalculatorURI.
	return ref, nil
}

// ResolveModelPath implements the same alias → file → inline precedence
// for the `--model` flag: ref is first an alias name under dirs, then a
// file path, then (if it looks like inline YAML/JSON) returned as-is for
// the caller to parse directly rather than via a path.
func ResolveModelPath(dirs *Dirs, ref string) (string, bool, error) {
	if path := dirs.FindModel(ref); path != "" {
		return path, true, nil
	}
	if info, err := os.Stat(ref); err == nil && !info.IsDir() {
		return ref, true, nil
	}
	return ref, false, nil
}
