// Package template implements variable discovery, variable substitution,
// and embedded-expression evaluation over an input tree. Compiled files
// are written atomically (temp file + rename).
package template

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fz-run/fz/internal/model"
	"github.com/fz-run/fz/internal/value"
	"github.com/fz-run/fz/internal/varref"
	"github.com/fz-run/fz/pkg/cerr"
)

// Warning is a non-fatal note raised during Compile: a default substitution
// or a failed expression evaluation, both of which must not fail the case.
type Warning struct {
	File    string
	Message string
}

const sniffWindow = 8192

// isBinary probes the first few KB of data for a null byte.
func isBinary(data []byte) bool {
	n := len(data)
	if n > sniffWindow {
		n = sniffWindow
	}
	return bytes.IndexByte(data[:n], 0) >= 0
}

// Discover returns every distinct variable name referenced under inputPath,
// per model m's syntax. Does not evaluate expressions.
func Discover(inputPath string, m *model.Model) (map[string]bool, error) {
	out := make(map[string]bool)
	err := filepath.WalkDir(inputPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return cerr.New(cerr.KindTemplate, cerr.Unavailable, fmt.Sprintf("walk %s", path), err)
		}
		if d.IsDir() {
			return nil
		}
		data, rerr := os.ReadFile(path)
		if rerr != nil {
			return cerr.New(cerr.KindTemplate, cerr.Unavailable, fmt.Sprintf("read %s", path), rerr)
		}
		if isBinary(data) {
			return nil
		}
		for _, name := range varref.Names(string(data), m.VarPrefix, m.DelimLeft, m.DelimRight) {
			out[name] = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Compile materializes the compiled input set for one case: normalizes
// legacy variable spellings, evaluates embedded expressions, substitutes
// variable references, and writes the result under outDir mirroring
// inputPath's tree. Non-text files are copied unchanged. Returns any
// non-fatal warnings collected along the way; defaults and failed
// expressions warn, they never fail the case.
func Compile(inputPath string, caseValues map[string]value.Scalar, m *model.Model, outDir string, interp Interpreter) ([]Warning, error) {
	var warnings []Warning

	err := filepath.WalkDir(inputPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return cerr.New(cerr.KindTemplate, cerr.Unavailable, fmt.Sprintf("walk %s", path), err)
		}
		if d.IsDir() {
			return nil
		}
		rel, rerr := filepath.Rel(inputPath, path)
		if rerr != nil {
			return cerr.New(cerr.KindFatal, cerr.Internal, "relativize path", rerr)
		}
		dest := filepath.Join(outDir, rel)

		data, rerr := os.ReadFile(path)
		if rerr != nil {
			return cerr.New(cerr.KindTemplate, cerr.Unavailable, fmt.Sprintf("read %s", path), rerr)
		}

		if isBinary(data) {
			return atomicWrite(dest, data)
		}

		compiled, fileWarnings, cerr2 := compileText(rel, string(data), caseValues, m, interp)
		warnings = append(warnings, fileWarnings...)
		if cerr2 != nil {
			return cerr2
		}
		return atomicWrite(dest, []byte(compiled))
	})
	if err != nil {
		return warnings, err
	}
	return warnings, nil
}

func compileText(file, text string, caseValues map[string]value.Scalar, m *model.Model, interp Interpreter) (string, []Warning, error) {
	var warnings []Warning

	// (1) normalize legacy spelling.
	text = varref.NormalizeLegacy(text, m.VarPrefix)

	// (2) evaluate expression markers.
	contextPrefix := m.CommentLine + m.FormulaPrefix
	var contextLines []string
	var bodyLines []string
	for _, line := range strings.Split(text, "\n") {
		if contextPrefix != "" && strings.HasPrefix(strings.TrimLeft(line, " \t"), contextPrefix) {
			payload := strings.TrimPrefix(strings.TrimLeft(line, " \t"), contextPrefix)
			contextLines = append(contextLines, substituteLexical(payload, caseValues, m))
			continue
		}
		bodyLines = append(bodyLines, line)
	}
	body := strings.Join(bodyLines, "\n")
	contextScript := strings.Join(contextLines, "\n")

	if m.FormulaPrefix != "" && m.DelimLeft != "" {
		marker := m.FormulaPrefix + m.DelimLeft
		var out strings.Builder
		i := 0
		for {
			idx := strings.Index(body[i:], marker)
			if idx < 0 {
				out.WriteString(body[i:])
				break
			}
			start := i + idx
			out.WriteString(body[i:start])
			exprStart := start + len(marker)
			end := strings.Index(body[exprStart:], m.DelimRight)
			if end < 0 {
				out.WriteString(body[start:])
				break
			}
			exprEnd := exprStart + end
			rawExpr := body[exprStart:exprEnd]
			expr := substituteLexical(rawExpr, caseValues, m)

			if interp != nil {
				result, evalErr := interp.Run(caseValues, contextScript, expr)
				if evalErr != nil {
					warnings = append(warnings, Warning{File: file, Message: evalErr.Error()})
					out.WriteString(body[start : exprEnd+len(m.DelimRight)])
				} else {
					out.WriteString(result)
				}
			} else {
				out.WriteString(body[start : exprEnd+len(m.DelimRight)])
			}
			i = exprEnd + len(m.DelimRight)
		}
		body = out.String()
	}

	// (3) substitute remaining variable references with case values,
	// honoring defaults and warning once per reference site when a
	// variable is omitted from the case.
	compiled, subWarnings := substitute(body, caseValues, m, file)
	warnings = append(warnings, subWarnings...)

	return compiled, warnings, nil
}

// substituteLexical performs variable substitution only (no default
// warnings recorded — used for context-line/expression bodies, where
// references are substituted lexically ahead of expression evaluation).
func substituteLexical(text string, caseValues map[string]value.Scalar, m *model.Model) string {
	out, _ := substitute(text, caseValues, m, "")
	return out
}

func substitute(text string, caseValues map[string]value.Scalar, m *model.Model, file string) (string, []Warning) {
	refs := varref.Find(text, m.VarPrefix, m.DelimLeft, m.DelimRight)
	if len(refs) == 0 {
		return text, nil
	}
	var warnings []Warning
	var out strings.Builder
	pos := 0
	for _, r := range refs {
		out.WriteString(text[pos:r.Start])
		v, ok := caseValues[r.Name]
		switch {
		case ok:
			out.WriteString(v.Canonical())
		case r.Default != nil:
			out.WriteString(*r.Default)
			if file != "" {
				warnings = append(warnings, Warning{
					File:    file,
					Message: fmt.Sprintf("variable %q not supplied, using default %q", r.Name, *r.Default),
				})
			}
		default:
			// No value and no default: leave the reference text in place
			// (the engine never fails template substitution).
			out.WriteString(text[r.Start:r.End])
		}
		pos = r.End
	}
	out.WriteString(text[pos:])
	return out.String(), warnings
}

func atomicWrite(dest string, data []byte) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return cerr.New(cerr.KindTemplate, cerr.Internal, fmt.Sprintf("create directory %s", dir), err)
	}
	tmp := dest + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return cerr.New(cerr.KindTemplate, cerr.Internal, fmt.Sprintf("write %s", dest), err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return cerr.New(cerr.KindTemplate, cerr.Internal, fmt.Sprintf("rename %s", dest), err)
	}
	return nil
}
