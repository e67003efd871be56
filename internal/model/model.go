// Package model loads and validates model descriptors: the declarative
// mapping that describes a template's variable syntax and output extraction
// commands. Descriptors are YAML files under .fz/models/: read, unmarshal,
// validate, fail closed.
package model

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fz-run/fz/pkg/cerr"
)

// InterpreterClass selects which expression interpreter a model uses.
type InterpreterClass string

const (
	InterpreterPrimary     InterpreterClass = "primary"
	InterpreterStatistical InterpreterClass = "statistical"
)

// Model is a model descriptor. Immutable after Load/Validate.
type Model struct {
	ID            string            `yaml:"id,omitempty"`
	VarPrefix     string            `yaml:"varprefix"`
	DelimLeft     string            `yaml:"delim_left,omitempty"`
	DelimRight    string            `yaml:"delim_right,omitempty"`
	FormulaPrefix string            `yaml:"formulaprefix,omitempty"`
	CommentLine   string            `yaml:"commentline,omitempty"`
	Interpreter   InterpreterClass  `yaml:"interpreter,omitempty"`
	Output        map[string]string `yaml:"output,omitempty"`
	TimeoutSec    int               `yaml:"timeout,omitempty"`
}

// Default returns the built-in model used when none is specified: `$`
// variable prefix, `@{...}` expression delimiters, `#` comments.
func Default() *Model {
	return &Model{
		VarPrefix:     "$",
		DelimLeft:     "{",
		DelimRight:    "}",
		FormulaPrefix: "@",
		CommentLine:   "#",
		Interpreter:   InterpreterPrimary,
		Output:        map[string]string{},
	}
}

// Timeout returns the model's declared timeout, or 0 if unset (meaning the
// environment default applies, the lowest tier of the timeout precedence).
func (m *Model) Timeout() time.Duration {
	if m.TimeoutSec <= 0 {
		return 0
	}
	return time.Duration(m.TimeoutSec) * time.Second
}

// Load reads a single model descriptor file.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cerr.New(cerr.KindConfig, cerr.NotFound, fmt.Sprintf("read model %s", path), err)
	}
	return LoadInline(string(data))
}

// LoadInline parses a model descriptor given directly as YAML text (the
// same descriptors accepted by name or file path — YAML is a superset of
// JSON, so one unmarshal path covers both).
func LoadInline(text string) (*Model, error) {
	m := Default()
	if err := yaml.Unmarshal([]byte(text), m); err != nil {
		return nil, cerr.New(cerr.KindConfig, cerr.InvalidArgument, "parse inline model descriptor", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks the descriptor is internally consistent.
func (m *Model) Validate() error {
	if m.VarPrefix == "" {
		return cerr.New(cerr.KindConfig, cerr.InvalidArgument, "model varprefix must not be empty", nil)
	}
	if (m.DelimLeft == "") != (m.DelimRight == "") {
		return cerr.New(cerr.KindConfig, cerr.InvalidArgument, "model delim must specify both left and right, or neither", nil)
	}
	switch m.Interpreter {
	case "", InterpreterPrimary, InterpreterStatistical:
	default:
		return cerr.New(cerr.KindConfig, cerr.InvalidArgument, fmt.Sprintf("unknown interpreter class %q", m.Interpreter), nil)
	}
	return nil
}
