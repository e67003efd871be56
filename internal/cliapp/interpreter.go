package cliapp

import (
	"fmt"

	"github.com/fz-run/fz/internal/config"
	"github.com/fz-run/fz/internal/model"
	"github.com/fz-run/fz/internal/template"
	"github.com/fz-run/fz/pkg/cerr"
)

// NewInterpreter resolves the model's interpreter class (falling back to
// the environment default when the model leaves it unset) to a concrete
// expression interpreter. Only the primary class ships with fz; selecting
// the statistical class fails before dispatch with a descriptive error.
func NewInterpreter(m *model.Model, env *config.Env) (template.Interpreter, error) {
	class := m.Interpreter
	if class == "" && env != nil && env.Interpreter != "" {
		class = model.InterpreterClass(env.Interpreter)
	}
	switch class {
	case "", model.InterpreterPrimary:
		return template.NewYaegi(), nil
	case model.InterpreterStatistical:
		return nil, cerr.New(cerr.KindConfig, cerr.InvalidArgument, "model requests the statistical interpreter, but no statistical backend is installed", nil)
	default:
		return nil, cerr.New(cerr.KindConfig, cerr.InvalidArgument, fmt.Sprintf("unknown interpreter class %q", class), nil)
	}
}
