package cliapp

import (
	"strings"

	"github.com/fz-run/fz/internal/config"
	"github.com/fz-run/fz/internal/model"
	"github.com/fz-run/fz/pkg/cerr"
)

// Overrides is the per-field model override surface: `--varprefix`,
// `--delim`, `--formulaprefix`, `--commentline`, `--output-cmd` (repeatable
// `name=command`). An override takes effect only when the flag was set.
type Overrides struct {
	VarPrefixSet     bool
	VarPrefix        string
	DelimSet         bool
	DelimLeft        string
	DelimRight       string
	FormulaPrefixSet bool
	FormulaPrefix    string
	CommentLineSet   bool
	CommentLine      string
	OutputCmds       []string // "name=command" pairs
}

// ResolveModel loads the model named by ref (alias name, file path, or
// inline descriptor text, in that precedence) and applies overrides.
func ResolveModel(dirs *config.Dirs, ref string, ov Overrides) (*model.Model, error) {
	var m *model.Model
	if ref == "" {
		m = model.Default()
	} else {
		path, isPath, err := config.ResolveModelPath(dirs, ref)
		if err != nil {
			return nil, err
		}
		if isPath {
			m, err = model.Load(path)
		} else {
			m, err = model.LoadInline(path)
		}
		if err != nil {
			return nil, err
		}
	}

	if ov.VarPrefixSet {
		m.VarPrefix = ov.VarPrefix
	}
	if ov.DelimSet {
		m.DelimLeft = ov.DelimLeft
		m.DelimRight = ov.DelimRight
	}
	if ov.FormulaPrefixSet {
		m.FormulaPrefix = ov.FormulaPrefix
	}
	if ov.CommentLineSet {
		m.CommentLine = ov.CommentLine
	}
	for _, kv := range ov.OutputCmds {
		name, cmd, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, cerr.New(cerr.KindConfig, cerr.InvalidArgument, "--output-cmd must be name=command", nil)
		}
		if m.Output == nil {
			m.Output = map[string]string{}
		}
		m.Output[name] = cmd
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// ParseDelim splits a "--delim" flag value of the form "left,right" (the
// two delimiter strings, comma-separated, matching the model descriptor's
// own two-field representation).
func ParseDelim(raw string) (left, right string, err error) {
	l, r, ok := strings.Cut(raw, ",")
	if !ok {
		return "", "", cerr.New(cerr.KindConfig, cerr.InvalidArgument, "--delim must be \"left,right\"", nil)
	}
	return l, r, nil
}
