package template

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/fz-run/fz/internal/value"
	"github.com/fz-run/fz/pkg/cerr"
)

// Interpreter evaluates one file's worth of context script plus inline
// expressions in a single scope, sandboxed to one case/file; no state
// leaks between files.
type Interpreter interface {
	// Run executes contextScript (may be empty) then evaluates expr in the
	// same scope, returning expr's canonical string form.
	Run(scope map[string]value.Scalar, contextScript, expr string) (string, error)
}

// Yaegi is fz's primary expression interpreter: a fresh embedded Go
// interpreter per file per case, seeded with the standard library and the
// scope's variables as package-level declarations.
type Yaegi struct{}

func NewYaegi() *Yaegi { return &Yaegi{} }

var bareAssign = regexp.MustCompile(`(?m)^(\s*)([A-Za-z_][A-Za-z0-9_]*)\s*=\s*([^=].*)$`)

// declareFirstAssign rewrites the first bare "name = expr" line for each
// undeclared name into "name := expr", so templates written against the
// engine's duck-typed scripting model (no explicit declarations) still
// parse as valid Go. Subsequent assignments to the same name keep "=".
func declareFirstAssign(script string, predeclared map[string]bool) string {
	declared := make(map[string]bool, len(predeclared))
	for k := range predeclared {
		declared[k] = true
	}
	lines := strings.Split(script, "\n")
	for i, line := range lines {
		m := bareAssign.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := m[2]
		if declared[name] {
			continue
		}
		declared[name] = true
		lines[i] = fmt.Sprintf("%s%s := %s", m[1], name, m[3])
	}
	return strings.Join(lines, "\n")
}

func (y *Yaegi) Run(scope map[string]value.Scalar, contextScript, expr string) (string, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return "", cerr.New(cerr.KindFatal, cerr.Internal, "failed to load interpreter stdlib", err)
	}

	declared := make(map[string]bool, len(scope))
	for name, v := range scope {
		lit := literal(v)
		if _, err := i.Eval(fmt.Sprintf("%s := %s", name, lit)); err != nil {
			return "", cerr.New(cerr.KindExprWarning, cerr.InvalidArgument, fmt.Sprintf("seed variable %q", name), err)
		}
		declared[name] = true
	}

	if strings.TrimSpace(contextScript) != "" {
		script := declareFirstAssign(contextScript, declared)
		for _, stmt := range strings.Split(script, "\n") {
			if strings.TrimSpace(stmt) == "" {
				continue
			}
			if _, err := i.Eval(stmt); err != nil {
				return "", cerr.New(cerr.KindExprWarning, cerr.InvalidArgument, "context script", err)
			}
		}
	}

	res, err := i.Eval(expr)
	if err != nil {
		return "", cerr.New(cerr.KindExprWarning, cerr.InvalidArgument, fmt.Sprintf("expression %q", expr), err)
	}
	return formatResult(res), nil
}

func literal(v value.Scalar) string {
	if v.IsNumeric() {
		return strconv.FormatFloat(v.Float(), 'g', -1, 64)
	}
	return strconv.Quote(v.Canonical())
}

func formatResult(res reflect.Value) string {
	if !res.IsValid() {
		return ""
	}
	switch res.Kind() {
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(res.Float(), 'g', -1, 64)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(res.Int(), 10)
	case reflect.String:
		return res.String()
	default:
		return fmt.Sprintf("%v", res.Interface())
	}
}
